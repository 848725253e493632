package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "accessgate/pkg/domain"
	audit "accessgate/pkg/platform/audit"
	txcontext "accessgate/pkg/platform/tx"
)

func TestAppendWritesOutboxRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := id.NewUserID()
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(sqlmock.AnyArg(), userID.String(), "tier_enabled", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = New(db).Append(context.Background(), audit.Event{
		UserID:    userID,
		Subject:   "registered",
		Action:    string(audit.EventTierEnabled),
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendUsesTransactionFromContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	ctx := txcontext.WithTx(context.Background(), tx)

	require.NoError(t, New(db).Append(ctx, audit.Event{Action: string(audit.EventInstitutionCreated)}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPendingAndMarkPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	entryID := uuid.New()
	created := time.Now()
	mock.ExpectQuery("SELECT id, aggregate_id, event_type, payload, created_at").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "payload", "created_at"}).
			AddRow(entryID.String(), "agg", "tier_disabled", []byte(`{}`), created))
	mock.ExpectExec("UPDATE outbox SET published_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := New(db)
	entries, err := store.FetchPending(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entryID, entries[0].ID)
	require.Equal(t, "tier_disabled", entries[0].EventType)

	require.NoError(t, store.MarkPublished(context.Background(), []uuid.UUID{entryID}, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

