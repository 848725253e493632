package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"accessgate/internal/credits/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	records map[id.UserID]*models.InitialCredits
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.UserID]*models.InitialCredits)}
}

func (s *InMemory) Get(_ context.Context, userID id.UserID) (*models.InitialCredits, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// Save inserts when c.Version is zero and otherwise updates only if the
// stored version matches.
func (s *InMemory) Save(_ context.Context, c *models.InitialCredits) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.records[c.UserID]
	switch {
	case c.Version == 0 && exists:
		return fmt.Errorf("insert initial credits: %w", sentinel.ErrConflict)
	case c.Version != 0 && (!exists || current.Version != c.Version):
		return fmt.Errorf("update initial credits: %w", sentinel.ErrConflict)
	}
	c.Version++
	s.records[c.UserID] = c.Clone()
	return nil
}

// ListDue returns non-bypassed grants that have not reached EXPIRATION_SENT
// and expire at or before cutoff, soonest first.
func (s *InMemory) ListDue(_ context.Context, cutoff time.Time, limit int) ([]*models.InitialCredits, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.InitialCredits
	for _, rec := range s.records {
		if rec.Bypassed || rec.NotificationStatus == models.NotificationExpired || rec.ExpirationTime.After(cutoff) {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpirationTime.Equal(out[j].ExpirationTime) {
			return out[i].UserID.String() < out[j].UserID.String()
		}
		return out[i].ExpirationTime.Before(out[j].ExpirationTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
