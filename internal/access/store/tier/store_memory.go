package tier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"accessgate/internal/access/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

type key struct {
	user id.UserID
	tier string
}

// InMemory stores materialized tier status per user.
type InMemory struct {
	mu      sync.RWMutex
	records map[key]models.UserAccessTier
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[key]models.UserAccessTier)}
}

func (s *InMemory) Get(_ context.Context, userID id.UserID, tier string) (*models.UserAccessTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{userID, tier}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyTier(rec), nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.UserAccessTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserAccessTier
	for k, rec := range s.records {
		if k.user == userID {
			out = append(out, copyTier(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

func (s *InMemory) Save(_ context.Context, t *models.UserAccessTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{t.UserID, t.Tier}
	current, exists := s.records[k]
	switch {
	case t.Version == 0 && exists:
		return fmt.Errorf("insert user tier: %w", sentinel.ErrConflict)
	case t.Version != 0 && (!exists || current.Version != t.Version):
		return fmt.Errorf("update user tier: %w", sentinel.ErrConflict)
	}
	t.Version++
	s.records[k] = *copyTier(*t)
	return nil
}

// ListChangedSince returns records updated strictly after since, oldest
// first, at most limit rows.
func (s *InMemory) ListChangedSince(_ context.Context, since time.Time, limit int) ([]*models.UserAccessTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserAccessTier
	for _, rec := range s.records {
		if rec.LastUpdatedAt.After(since) {
			out = append(out, copyTier(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUpdatedAt.Equal(out[j].LastUpdatedAt) {
			if out[i].UserID == out[j].UserID {
				return out[i].Tier < out[j].Tier
			}
			return out[i].UserID.String() < out[j].UserID.String()
		}
		return out[i].LastUpdatedAt.Before(out[j].LastUpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyTier(t models.UserAccessTier) *models.UserAccessTier {
	if t.FirstEnabledAt != nil {
		v := *t.FirstEnabledAt
		t.FirstEnabledAt = &v
	}
	return &t
}
