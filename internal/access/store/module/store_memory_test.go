package module

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"accessgate/internal/access/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

type ModuleStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ModuleStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestModuleStoreSuite(t *testing.T) {
	suite.Run(t, new(ModuleStoreSuite))
}

func (s *ModuleStoreSuite) TestInsertAndGet() {
	userID := id.NewUserID()
	now := time.Now()

	s.Run("returns ErrNotFound before insert", func() {
		_, err := s.store.Get(s.ctx, userID, models.ModuleTwoFactorAuth)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("insert assigns version 1", func() {
		rec := models.NewUserAccessModule(userID, models.ModuleTwoFactorAuth)
		rec.CompletionTime = &now
		rec.Touch(now)
		s.Require().NoError(s.store.Save(s.ctx, rec))
		s.Equal(int64(1), rec.Version)

		found, err := s.store.Get(s.ctx, userID, models.ModuleTwoFactorAuth)
		s.Require().NoError(err)
		s.Equal(int64(1), found.Version)
		s.Equal(models.StatusEnabled, found.Status)
	})

	s.Run("second insert for the same key conflicts", func() {
		rec := models.NewUserAccessModule(userID, models.ModuleTwoFactorAuth)
		s.Require().ErrorIs(s.store.Save(s.ctx, rec), sentinel.ErrConflict)
	})
}

func (s *ModuleStoreSuite) TestOptimisticVersioning() {
	userID := id.NewUserID()
	rec := models.NewUserAccessModule(userID, models.ModuleEraCommons)
	s.Require().NoError(s.store.Save(s.ctx, rec))

	first, err := s.store.Get(s.ctx, userID, models.ModuleEraCommons)
	s.Require().NoError(err)
	second, err := s.store.Get(s.ctx, userID, models.ModuleEraCommons)
	s.Require().NoError(err)

	now := time.Now()
	first.BypassTime = &now
	s.Require().NoError(s.store.Save(s.ctx, first))
	s.Equal(int64(2), first.Version)

	second.CredentialName = "stale"
	s.Require().ErrorIs(s.store.Save(s.ctx, second), sentinel.ErrConflict)

	stored, err := s.store.Get(s.ctx, userID, models.ModuleEraCommons)
	s.Require().NoError(err)
	s.NotNil(stored.BypassTime)
	s.Empty(stored.CredentialName)
}

func (s *ModuleStoreSuite) TestStoredRecordsAreIsolatedFromCallers() {
	userID := id.NewUserID()
	rec := models.NewUserAccessModule(userID, models.ModuleIdentity)
	s.Require().NoError(s.store.Save(s.ctx, rec))

	now := time.Now()
	rec.CompletionTime = &now

	stored, err := s.store.Get(s.ctx, userID, models.ModuleIdentity)
	s.Require().NoError(err)
	s.Nil(stored.CompletionTime)
}

func (s *ModuleStoreSuite) TestListByUser() {
	userID := id.NewUserID()
	other := id.NewUserID()
	for _, m := range []models.ModuleName{models.ModuleTwoFactorAuth, models.ModuleComplianceTraining} {
		s.Require().NoError(s.store.Save(s.ctx, models.NewUserAccessModule(userID, m)))
	}
	s.Require().NoError(s.store.Save(s.ctx, models.NewUserAccessModule(other, models.ModuleTwoFactorAuth)))

	list, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(models.ModuleComplianceTraining, list[0].Module)
	s.Equal(models.ModuleTwoFactorAuth, list[1].Module)
}
