package module

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"accessgate/internal/access/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

type key struct {
	user   id.UserID
	module models.ModuleName
}

// InMemory stores per-user module state with the same optimistic version
// semantics as the Postgres store.
type InMemory struct {
	mu      sync.RWMutex
	records map[key]*models.UserAccessModule
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[key]*models.UserAccessModule)}
}

func (s *InMemory) Get(_ context.Context, userID id.UserID, module models.ModuleName) (*models.UserAccessModule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{userID, module}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.UserAccessModule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserAccessModule
	for k, rec := range s.records {
		if k.user == userID {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out, nil
}

// Save inserts when m.Version is zero and otherwise updates only if the stored
// version matches. On success m.Version is advanced.
func (s *InMemory) Save(_ context.Context, m *models.UserAccessModule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{m.UserID, m.Module}
	current, exists := s.records[k]
	switch {
	case m.Version == 0 && exists:
		return fmt.Errorf("insert user module: %w", sentinel.ErrConflict)
	case m.Version != 0 && (!exists || current.Version != m.Version):
		return fmt.Errorf("update user module: %w", sentinel.ErrConflict)
	}
	m.Version++
	s.records[k] = m.Clone()
	return nil
}
