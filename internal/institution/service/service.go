package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	accessmodels "accessgate/internal/access/models"
	"accessgate/internal/institution/matcher"
	"accessgate/internal/institution/models"
	"accessgate/internal/platform/lock"
	"accessgate/pkg/attrs"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

type Store interface {
	CreateInstitution(ctx context.Context, inst *models.Institution) error
	GetInstitution(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)
	DeleteInstitution(ctx context.Context, instID id.InstitutionID) error
	SaveRequirement(ctx context.Context, req *models.TierRequirement) error
	GetRequirement(ctx context.Context, instID id.InstitutionID, tier string) (*models.TierRequirement, error)
	SetAffiliation(ctx context.Context, aff *models.Affiliation) error
	ListAffiliations(ctx context.Context, userID id.UserID) ([]models.Affiliation, error)
	CountAffiliations(ctx context.Context, instID id.InstitutionID) (int, error)
	ListAffiliatedUsers(ctx context.Context, instID id.InstitutionID) ([]id.UserID, error)
}

// TierCatalog resolves tier short names.
type TierCatalog interface {
	Tier(shortName string) (accessmodels.AccessTier, bool)
}

type TierReevaluator interface {
	EvaluateAll(ctx context.Context, userID id.UserID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages institutions, their per-tier membership rules and user
// affiliations.
type Service struct {
	store          Store
	tiers          TierCatalog
	matcher        *matcher.Matcher
	locker         lock.Locker
	reevaluator    TierReevaluator
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithReevaluator(r TierReevaluator) Option {
	return func(s *Service) {
		s.reevaluator = r
	}
}

func New(store Store, tiers TierCatalog, m *matcher.Matcher, locker lock.Locker, opts ...Option) *Service {
	s := &Service{store: store, tiers: tiers, matcher: m, locker: locker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateInstitution(ctx context.Context, shortName, displayName string, bypassCredits bool) (*models.Institution, error) {
	inst, err := models.NewInstitution(id.NewInstitutionID(), shortName, displayName, bypassCredits, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.CreateInstitution(ctx, inst); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "institution short name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create institution")
	}
	s.logAudit(ctx, audit.EventInstitutionCreated, "subject", inst.ShortName, "institution_id", inst.ID)
	return inst, nil
}

func (s *Service) GetInstitution(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	inst, err := s.store.GetInstitution(ctx, instID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	return inst, nil
}

// DeleteInstitution refuses while any user is still affiliated.
func (s *Service) DeleteInstitution(ctx context.Context, instID id.InstitutionID) error {
	inst, err := s.GetInstitution(ctx, instID)
	if err != nil {
		return err
	}
	n, err := s.store.CountAffiliations(ctx, instID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count affiliations")
	}
	if n > 0 {
		return dErrors.New(dErrors.CodeInvalidState, "institution still has affiliated users")
	}
	if err := s.store.DeleteInstitution(ctx, instID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeInvalidState, "institution still has affiliated users")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete institution")
	}
	s.logAudit(ctx, audit.EventInstitutionDeleted, "subject", inst.ShortName, "institution_id", inst.ID)
	return nil
}

// SetTierRequirement replaces the membership rule for one tier and
// re-evaluates every affiliated user. A failed re-evaluation is logged and
// left to the next reconciliation pass.
func (s *Service) SetTierRequirement(ctx context.Context, instID id.InstitutionID, tier string, kind models.RequirementKind, domains, addresses []string) (*models.TierRequirement, error) {
	if _, ok := s.tiers.Tier(tier); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown tier: "+tier)
	}
	if _, err := s.GetInstitution(ctx, instID); err != nil {
		return nil, err
	}
	req, err := models.NewTierRequirement(instID, tier, kind, domains, addresses)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.store.SaveRequirement(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save tier requirement")
	}
	s.reevaluateAffiliated(ctx, instID)
	return req, nil
}

func (s *Service) reevaluateAffiliated(ctx context.Context, instID id.InstitutionID) {
	if s.reevaluator == nil {
		return
	}
	users, err := s.store.ListAffiliatedUsers(ctx, instID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "listing affiliated users failed", "institution_id", instID.String(), "error", err)
		}
		return
	}
	for _, userID := range users {
		if err := s.reevaluator.EvaluateAll(ctx, userID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "tier re-evaluation failed", "user_id", userID.String(), "error", err)
		}
	}
}

// SetAffiliation replaces the user's affiliation and re-evaluates tiers.
func (s *Service) SetAffiliation(ctx context.Context, userID id.UserID, instID id.InstitutionID, role string) (*models.Affiliation, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if _, err := s.GetInstitution(ctx, instID); err != nil {
		return nil, err
	}
	aff := &models.Affiliation{UserID: userID, InstitutionID: instID, Role: role}
	err := s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		aff.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.SetAffiliation(ctx, aff); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user or institution not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save affiliation")
		}
		if s.reevaluator != nil {
			if err := s.reevaluator.EvaluateAll(ctx, userID); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "tier re-evaluation failed", "user_id", userID.String(), "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventAffiliationChanged, "user_id", userID, "subject", instID.String(), "role", aff.Role)
	return aff, nil
}

// GetAffiliation returns the user's affiliation. More than one row is
// reported as an internal error rather than picking one.
func (s *Service) GetAffiliation(ctx context.Context, userID id.UserID) (*models.Affiliation, error) {
	affs, err := s.store.ListAffiliations(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load affiliation")
	}
	switch len(affs) {
	case 0:
		return nil, dErrors.New(dErrors.CodeNotFound, "user has no institutional affiliation")
	case 1:
		return &affs[0], nil
	default:
		return nil, dErrors.New(dErrors.CodeInternal, "user has more than one institutional affiliation")
	}
}

// ValidateAffiliation reports whether contactEmail would satisfy the tier
// rule of the institution.
func (s *Service) ValidateAffiliation(ctx context.Context, contactEmail string, instID id.InstitutionID, tier string) (matcher.Result, error) {
	if _, ok := s.tiers.Tier(tier); !ok {
		return matcher.Result{}, dErrors.New(dErrors.CodeValidation, "unknown tier: "+tier)
	}
	res, err := s.matcher.Validate(ctx, contactEmail, instID, tier)
	if err != nil {
		return matcher.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate affiliation")
	}
	return res, nil
}

// BypassesCreditsExpiration reports whether the user's institution exempts
// initial credits from expiry. Users without a usable affiliation do not.
func (s *Service) BypassesCreditsExpiration(ctx context.Context, userID id.UserID) (bool, error) {
	affs, err := s.store.ListAffiliations(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(affs) != 1 {
		return false, nil
	}
	inst, err := s.store.GetInstitution(ctx, affs[0].InstitutionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return inst.BypassCreditsExpiration, nil
}

// logAudit writes the attributes to the audit log line and derives the
// published event from the same list.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if s.logger != nil {
		args := append([]any{"event", string(event), "log_type", "audit"}, attributes...)
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	userID, _ := id.ParseUserID(attrs.ExtractString(attributes, "user_id"))
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:    userID,
		Subject:   attrs.ExtractString(attributes, "subject"),
		Action:    string(event),
		RequestID: attrs.ExtractString(attributes, "request_id"),
	})
}
