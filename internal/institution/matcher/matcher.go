// Package matcher decides whether a user's verified institutional
// affiliation satisfies a tier's membership rule.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"accessgate/internal/institution/metrics"
	"accessgate/internal/institution/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/email"
	"accessgate/pkg/platform/sentinel"
)

// Reasons a user is not eligible.
const (
	ReasonNoAffiliation          = "no_affiliation"
	ReasonMultipleAffiliations   = "multiple_affiliations"
	ReasonInstitutionMissing     = "institution_missing"
	ReasonNoTierRequirement      = "no_tier_requirement"
	ReasonInvalidEmail           = "invalid_email"
	ReasonDomainNotAllowed       = "domain_not_allowed"
	ReasonAddressNotAllowed      = "address_not_allowed"
	ReasonUnknownRequirementKind = "unknown_requirement_kind"
)

type Store interface {
	GetInstitution(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)
	GetRequirement(ctx context.Context, instID id.InstitutionID, tier string) (*models.TierRequirement, error)
	ListAffiliations(ctx context.Context, userID id.UserID) ([]models.Affiliation, error)
}

// Result is the outcome of a match. Reason is empty when eligible.
type Result struct {
	Eligible      bool
	Reason        string
	InstitutionID id.InstitutionID
}

type Matcher struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Matcher)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Matcher) {
		m.metrics = met
	}
}

func New(store Store, opts ...Option) *Matcher {
	m := &Matcher{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match checks the user's single affiliation against the tier rule of the
// affiliated institution using contactEmail. Errors are only returned for
// store failures; every data problem is an ineligible Result.
func (m *Matcher) Match(ctx context.Context, userID id.UserID, contactEmail, tier string) (Result, error) {
	affiliations, err := m.store.ListAffiliations(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("list affiliations: %w", err)
	}
	switch len(affiliations) {
	case 0:
		return Result{Reason: ReasonNoAffiliation}, nil
	case 1:
	default:
		m.inconsistency(ctx, metrics.KindMultipleAffiliations, userID)
		return Result{Reason: ReasonMultipleAffiliations}, nil
	}

	instID := affiliations[0].InstitutionID
	if _, err := m.store.GetInstitution(ctx, instID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			m.inconsistency(ctx, metrics.KindMissingInstitution, userID)
			return Result{Reason: ReasonInstitutionMissing, InstitutionID: instID}, nil
		}
		return Result{}, fmt.Errorf("get institution: %w", err)
	}

	res, err := m.matchInstitution(ctx, contactEmail, instID, tier)
	res.InstitutionID = instID
	return res, err
}

// Validate checks an address against an institution's tier rule without
// looking at any affiliation, for vetting an affiliation before it is saved.
func (m *Matcher) Validate(ctx context.Context, contactEmail string, instID id.InstitutionID, tier string) (Result, error) {
	res, err := m.matchInstitution(ctx, contactEmail, instID, tier)
	res.InstitutionID = instID
	return res, err
}

func (m *Matcher) matchInstitution(ctx context.Context, contactEmail string, instID id.InstitutionID, tier string) (Result, error) {
	req, err := m.store.GetRequirement(ctx, instID, tier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{Reason: ReasonNoTierRequirement}, nil
		}
		return Result{}, fmt.Errorf("get requirement: %w", err)
	}
	return MatchRequirement(req, contactEmail), nil
}

// MatchRequirement applies one rule to an address. Both sides compare in
// lower case.
func MatchRequirement(req *models.TierRequirement, contactEmail string) Result {
	normalized, ok := email.Normalize(contactEmail)
	if !ok {
		return Result{Reason: ReasonInvalidEmail}
	}
	switch req.Kind {
	case models.RequirementDomainMatch:
		domain, _ := email.Domain(normalized)
		if slices.Contains(req.Domains, domain) {
			return Result{Eligible: true}
		}
		return Result{Reason: ReasonDomainNotAllowed}
	case models.RequirementAddressListMatch:
		if slices.Contains(req.Addresses, normalized) {
			return Result{Eligible: true}
		}
		return Result{Reason: ReasonAddressNotAllowed}
	default:
		return Result{Reason: ReasonUnknownRequirementKind}
	}
}

func (m *Matcher) inconsistency(ctx context.Context, kind string, userID id.UserID) {
	if m.metrics != nil {
		m.metrics.IncrementInconsistency(kind)
	}
	if m.logger != nil {
		m.logger.WarnContext(ctx, "affiliation data inconsistency",
			"kind", kind,
			"user_id", userID.String(),
		)
	}
}
