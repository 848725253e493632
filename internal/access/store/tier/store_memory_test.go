package tier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"accessgate/internal/access/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

type TierStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *TierStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestTierStoreSuite(t *testing.T) {
	suite.Run(t, new(TierStoreSuite))
}

func (s *TierStoreSuite) save(userID id.UserID, tier string, status models.Status, at time.Time) *models.UserAccessTier {
	rec := models.NewUserAccessTier(userID, tier)
	rec.Transition(status, at)
	rec.LastUpdatedAt = at
	s.Require().NoError(s.store.Save(s.ctx, rec))
	return rec
}

func (s *TierStoreSuite) TestVersioning() {
	userID := id.NewUserID()
	t0 := time.Now()
	rec := s.save(userID, "registered", models.StatusEnabled, t0)
	s.Equal(int64(1), rec.Version)

	stale, err := s.store.Get(s.ctx, userID, "registered")
	s.Require().NoError(err)

	rec.Transition(models.StatusDisabled, t0.Add(time.Minute))
	s.Require().NoError(s.store.Save(s.ctx, rec))

	stale.Transition(models.StatusDisabled, t0.Add(2*time.Minute))
	s.Require().ErrorIs(s.store.Save(s.ctx, stale), sentinel.ErrConflict)

	_, err = s.store.Get(s.ctx, id.NewUserID(), "registered")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TierStoreSuite) TestListChangedSince() {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	a, b := id.NewUserID(), id.NewUserID()
	s.save(a, "registered", models.StatusEnabled, base.Add(3*time.Minute))
	s.save(b, "registered", models.StatusEnabled, base.Add(1*time.Minute))
	s.save(a, "controlled", models.StatusEnabled, base.Add(2*time.Minute))
	s.save(b, "controlled", models.StatusEnabled, base)

	s.Run("strictly after since, ordered by last update", func() {
		changed, err := s.store.ListChangedSince(s.ctx, base, 0)
		s.Require().NoError(err)
		s.Require().Len(changed, 3)
		s.Equal(b, changed[0].UserID)
		s.Equal("controlled", changed[1].Tier)
		s.Equal("registered", changed[2].Tier)
		s.Equal(a, changed[2].UserID)
	})

	s.Run("honours limit", func() {
		changed, err := s.store.ListChangedSince(s.ctx, base.Add(-time.Hour), 2)
		s.Require().NoError(err)
		s.Len(changed, 2)
	})

	s.Run("list by user", func() {
		list, err := s.store.ListByUser(s.ctx, a)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal("controlled", list[0].Tier)
	})
}
