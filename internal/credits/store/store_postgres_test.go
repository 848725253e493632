package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessgate/internal/credits/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

var creditRowColumns = []string{
	"user_id", "credit_start_time", "expiration_time", "extension_count", "extended_at", "bypassed",
	"notification_status", "version",
}

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM user_initial_credits WHERE user_id = \\$1").
		WillReturnRows(sqlmock.NewRows(creditRowColumns).
			AddRow(userID.String(), start, start.AddDate(0, 0, 60), 1, start.AddDate(0, 0, 30), false, "EXPIRING_SOON_SENT", int64(3)))

	rec, err := NewPostgres(db).Get(context.Background(), id.UserID(userID))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ExtensionCount)
	require.NotNil(t, rec.ExtendedAt)
	assert.Equal(t, models.NotificationExpiringSoon, rec.NotificationStatus)
	assert.Equal(t, int64(3), rec.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM user_initial_credits").WillReturnRows(sqlmock.NewRows(creditRowColumns))

	_, err = NewPostgres(db).Get(context.Background(), id.NewUserID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	rec := models.NewInitialCredits(id.NewUserID(), time.Now(), 60)
	mock.ExpectExec("INSERT INTO user_initial_credits").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Save(context.Background(), rec))
	assert.Equal(t, int64(1), rec.Version)

	mock.ExpectExec("UPDATE user_initial_credits").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Save(context.Background(), rec), sentinel.ErrConflict)
	assert.Equal(t, int64(1), rec.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	start := cutoff.AddDate(0, 0, -61)
	mock.ExpectQuery("SELECT .* FROM user_initial_credits\\s+WHERE bypassed = FALSE").
		WithArgs("EXPIRATION_SENT", cutoff, 50).
		WillReturnRows(sqlmock.NewRows(creditRowColumns).
			AddRow(uuid.New().String(), start, start.AddDate(0, 0, 60), 0, nil, false, "NO_NOTIFICATION_SENT", int64(1)))

	due, err := NewPostgres(db).ListDue(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Nil(t, due[0].ExtendedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
