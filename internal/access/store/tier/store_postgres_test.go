package tier

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessgate/internal/access/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

func TestPostgresListChangedSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := since.Add(time.Hour)
	userID := uuid.New()
	rows := sqlmock.NewRows([]string{"user_id", "tier", "status", "first_enabled_at", "last_updated_at", "version"}).
		AddRow(userID.String(), "registered", "ENABLED", updated, updated, int64(1))
	mock.ExpectQuery("SELECT .* FROM user_access_tiers WHERE last_updated_at > \\$1").
		WithArgs(since, 50).
		WillReturnRows(rows)

	changed, err := NewPostgres(db).ListChangedSince(context.Background(), since, 50)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, id.UserID(userID), changed[0].UserID)
	assert.True(t, changed[0].IsEnabled())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveStaleVersionConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := models.NewUserAccessTier(id.NewUserID(), "registered")
	rec.Version = 2
	rec.Transition(models.StatusEnabled, time.Now())

	mock.ExpectExec("UPDATE user_access_tiers").WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgres(db).Save(context.Background(), rec)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
