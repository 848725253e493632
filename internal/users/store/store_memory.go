package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"accessgate/internal/users/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*models.User)}
}

func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return fmt.Errorf("create user: %w", sentinel.ErrConflict)
	}
	u.Version = 1
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *InMemory) Get(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *InMemory) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("save user: %w", sentinel.ErrNotFound)
	}
	if current.Version != u.Version {
		return fmt.Errorf("save user: %w", sentinel.ErrConflict)
	}
	u.Version++
	s.users[u.ID] = u.Clone()
	return nil
}

// ListIDs returns users in stable order; a non-nil since keeps only users
// updated after it.
func (s *InMemory) ListIDs(_ context.Context, since *time.Time) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.UserID, 0, len(s.users))
	for userID, u := range s.users {
		if since != nil && !u.UpdatedAt.After(*since) {
			continue
		}
		out = append(out, userID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
