//go:build integration

package module

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"accessgate/internal/access/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/testutil/containers"
)

type PostgresModuleStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresModuleStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresModuleStoreSuite))
}

func (s *PostgresModuleStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresModuleStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "user_access_modules", "users"))
}

func (s *PostgresModuleStoreSuite) seedUser() id.UserID {
	userID := id.NewUserID()
	_, err := s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO users (id, contact_email, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())`,
		uuid.UUID(userID), "researcher@example.org")
	s.Require().NoError(err)
	return userID
}

func (s *PostgresModuleStoreSuite) TestRoundTripAndVersioning() {
	userID := s.seedUser()
	now := time.Now().UTC().Truncate(time.Microsecond)

	rec := models.NewUserAccessModule(userID, models.ModuleComplianceTraining)
	rec.CompletionTime = &now
	rec.CredentialName = "RT 2026"
	rec.Touch(now)
	s.Require().NoError(s.store.Save(s.ctx, rec))

	stale, err := s.store.Get(s.ctx, userID, models.ModuleComplianceTraining)
	s.Require().NoError(err)
	s.Equal("RT 2026", stale.CredentialName)
	s.True(stale.CompletionTime.Equal(now))

	fresh := stale.Clone()
	fresh.CompletionTime = nil
	fresh.Touch(now)
	s.Require().NoError(s.store.Save(s.ctx, fresh))
	s.Equal(int64(2), fresh.Version)

	s.Require().ErrorIs(s.store.Save(s.ctx, stale), sentinel.ErrConflict)

	list, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Nil(list[0].CompletionTime)
	s.Equal(models.StatusDisabled, list[0].Status)
}

func (s *PostgresModuleStoreSuite) TestUnknownUserIsNotFound() {
	rec := models.NewUserAccessModule(id.NewUserID(), models.ModuleTwoFactorAuth)
	rec.Touch(time.Now())
	s.Require().ErrorIs(s.store.Save(s.ctx, rec), sentinel.ErrNotFound)
}
