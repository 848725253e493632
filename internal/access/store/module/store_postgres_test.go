package module

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

func TestPostgresSaveRejectsStaleVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := models.NewUserAccessModule(id.NewUserID(), models.ModuleTwoFactorAuth)
	rec.Version = 3
	rec.Touch(time.Now())

	mock.ExpectExec("UPDATE user_access_modules").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgres(db).Save(context.Background(), rec)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Equal(t, int64(3), rec.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveInsertsNewRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := models.NewUserAccessModule(id.NewUserID(), models.ModuleTwoFactorAuth)
	rec.Touch(time.Now())

	mock.ExpectExec("INSERT INTO user_access_modules").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgres(db).Save(context.Background(), rec))
	assert.Equal(t, int64(1), rec.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScansNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := uuid.New()
	completed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"user_id", "module", "status", "completion_time", "bypass_time", "first_enabled_at",
		"last_updated_at", "credential_name", "credential_expires_at", "version",
	}).AddRow(userID.String(), "COMPLIANCE_TRAINING", "ENABLED", completed, nil, completed,
		completed, "RT 2026", nil, int64(4))
	mock.ExpectQuery("SELECT .* FROM user_access_modules").WillReturnRows(rows)

	rec, err := NewPostgres(db).Get(context.Background(), id.UserID(userID), models.ModuleComplianceTraining)
	require.NoError(t, err)
	require.NotNil(t, rec.CompletionTime)
	assert.Equal(t, completed, *rec.CompletionTime)
	assert.Nil(t, rec.BypassTime)
	assert.Nil(t, rec.CredentialExpiresAt)
	assert.Equal(t, "RT 2026", rec.CredentialName)
	assert.Equal(t, int64(4), rec.Version)
}

func TestPostgresGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM user_access_modules").WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err = NewPostgres(db).Get(context.Background(), id.NewUserID(), models.ModuleIdentity)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
