package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"accessgate/internal/institution/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
)

type requirementKey struct {
	institution id.InstitutionID
	tier        string
}

// InMemory holds institutions, their tier requirements and user
// affiliations.
type InMemory struct {
	mu           sync.RWMutex
	institutions map[id.InstitutionID]models.Institution
	requirements map[requirementKey]models.TierRequirement
	affiliations map[id.UserID]models.Affiliation
}

func NewInMemory() *InMemory {
	return &InMemory{
		institutions: make(map[id.InstitutionID]models.Institution),
		requirements: make(map[requirementKey]models.TierRequirement),
		affiliations: make(map[id.UserID]models.Affiliation),
	}
}

// CreateInstitution rejects a short name already in use, ignoring case.
func (s *InMemory) CreateInstitution(_ context.Context, inst *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.institutions {
		if strings.EqualFold(existing.ShortName, inst.ShortName) {
			return fmt.Errorf("create institution: %w", sentinel.ErrConflict)
		}
	}
	s.institutions[inst.ID] = *inst
	return nil
}

func (s *InMemory) GetInstitution(_ context.Context, instID id.InstitutionID) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[instID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &inst, nil
}

// DeleteInstitution removes the institution and its requirements.
func (s *InMemory) DeleteInstitution(_ context.Context, instID id.InstitutionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.institutions[instID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.institutions, instID)
	for k := range s.requirements {
		if k.institution == instID {
			delete(s.requirements, k)
		}
	}
	return nil
}

// SaveRequirement inserts or replaces the requirement for (institution, tier).
func (s *InMemory) SaveRequirement(_ context.Context, req *models.TierRequirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.institutions[req.InstitutionID]; !ok {
		return fmt.Errorf("save requirement: %w", sentinel.ErrNotFound)
	}
	stored := *req
	stored.Domains = slices.Clone(req.Domains)
	stored.Addresses = slices.Clone(req.Addresses)
	s.requirements[requirementKey{req.InstitutionID, req.Tier}] = stored
	return nil
}

func (s *InMemory) GetRequirement(_ context.Context, instID id.InstitutionID, tier string) (*models.TierRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requirements[requirementKey{instID, tier}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	req.Domains = slices.Clone(req.Domains)
	req.Addresses = slices.Clone(req.Addresses)
	return &req, nil
}

// SetAffiliation replaces any existing affiliation of the user.
func (s *InMemory) SetAffiliation(_ context.Context, aff *models.Affiliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.institutions[aff.InstitutionID]; !ok {
		return fmt.Errorf("set affiliation: %w", sentinel.ErrNotFound)
	}
	s.affiliations[aff.UserID] = *aff
	return nil
}

func (s *InMemory) ListAffiliations(_ context.Context, userID id.UserID) ([]models.Affiliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aff, ok := s.affiliations[userID]
	if !ok {
		return nil, nil
	}
	return []models.Affiliation{aff}, nil
}

func (s *InMemory) CountAffiliations(_ context.Context, instID id.InstitutionID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, aff := range s.affiliations {
		if aff.InstitutionID == instID {
			n++
		}
	}
	return n, nil
}

// ListAffiliatedUsers returns the users affiliated with instID, ordered by ID.
func (s *InMemory) ListAffiliatedUsers(_ context.Context, instID id.InstitutionID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.UserID
	for userID, aff := range s.affiliations {
		if aff.InstitutionID == instID {
			out = append(out, userID)
		}
	}
	slices.SortFunc(out, func(a, b id.UserID) int {
		return strings.Compare(a.String(), b.String())
	})
	return out, nil
}
