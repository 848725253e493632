// Package service manages the user attributes that feed tier evaluation:
// contact email, the administrative disable flag, code of conduct signatures
// and the yearly profile and publication confirmations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	accessmodels "accessgate/internal/access/models"
	"accessgate/internal/platform/lock"
	"accessgate/internal/users/models"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
	ListIDs(ctx context.Context, since *time.Time) ([]id.UserID, error)
}

// CompletionWriter records completion of the acknowledgment modules.
type CompletionWriter interface {
	SetCompletion(ctx context.Context, userID id.UserID, module accessmodels.ModuleName, at *time.Time) (*accessmodels.UserAccessModule, error)
}

// VersionPolicy decides whether a signed code of conduct version is current.
type VersionPolicy interface {
	IsCurrentCodeOfConductVersion(version int) bool
}

type TierReevaluator interface {
	EvaluateAll(ctx context.Context, userID id.UserID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	locker         lock.Locker
	completions    CompletionWriter
	versions       VersionPolicy
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

// WithCodeOfConduct wires signature handling. Without it SignCodeOfConduct
// only records the version.
func WithCodeOfConduct(completions CompletionWriter, versions VersionPolicy) Option {
	return func(s *Service) {
		s.completions = completions
		s.versions = versions
	}
}

func New(store Store, locker lock.Locker, opts ...Option) *Service {
	s := &Service{store: store, locker: locker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCodeOfConduct wires signature handling after construction. The module
// service reads signed versions from this service, so one side is set late.
func (s *Service) SetCodeOfConduct(completions CompletionWriter, versions VersionPolicy) {
	s.completions = completions
	s.versions = versions
}

// Register creates a user record.
func (s *Service) Register(ctx context.Context, userID id.UserID, contactEmail string, serviceAccount bool) (*models.User, error) {
	u, err := models.NewUser(userID, contactEmail, serviceAccount, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// SetDisabled flips the administrative disable flag and re-evaluates tiers.
func (s *Service) SetDisabled(ctx context.Context, userID id.UserID, disabled bool) (*models.User, error) {
	u, changed, err := s.mutate(ctx, userID, func(u *models.User, now time.Time) bool {
		if u.Disabled == disabled {
			return false
		}
		u.Disabled = disabled
		u.UpdatedAt = now
		return true
	})
	if err != nil || !changed {
		return u, err
	}
	s.logAudit(ctx, audit.EventUserDisabledChanged, userID, boolReason(disabled, "disabled", "enabled"))
	return u, nil
}

// UpdateContactEmail changes the address used for institutional matching.
func (s *Service) UpdateContactEmail(ctx context.Context, userID id.UserID, contactEmail string) (*models.User, error) {
	candidate, err := models.NewUser(userID, contactEmail, false, time.Time{})
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	u, _, err := s.mutate(ctx, userID, func(u *models.User, now time.Time) bool {
		if u.ContactEmail == candidate.ContactEmail {
			return false
		}
		u.ContactEmail = candidate.ContactEmail
		u.UpdatedAt = now
		return true
	})
	return u, err
}

// SignCodeOfConduct records the signed version. A current version completes
// the code of conduct module; an outdated one clears it.
func (s *Service) SignCodeOfConduct(ctx context.Context, userID id.UserID, version int) (*models.User, error) {
	if version <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "code of conduct version must be positive")
	}
	var u *models.User
	err := s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		var err error
		u, _, err = s.mutate(ctx, userID, func(u *models.User, now time.Time) bool {
			u.SignCodeOfConduct(version, now)
			return true
		})
		if err != nil {
			return err
		}
		if s.completions == nil {
			return nil
		}
		var at *time.Time
		if s.versions != nil && s.versions.IsCurrentCodeOfConductVersion(version) {
			at = u.DUCCSignedAt
		}
		_, err = s.completions.SetCompletion(ctx, userID, accessmodels.ModuleCodeOfConduct, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventCodeOfConductSigned, userID, "")
	return u, nil
}

// ConfirmProfile records that the user reviewed their profile. Every
// confirmation restarts the renewal period.
func (s *Service) ConfirmProfile(ctx context.Context, userID id.UserID) (*accessmodels.UserAccessModule, error) {
	return s.confirm(ctx, userID, accessmodels.ModuleProfileConfirmation, audit.EventProfileConfirmed)
}

// ConfirmPublications records that the user reported their publications.
func (s *Service) ConfirmPublications(ctx context.Context, userID id.UserID) (*accessmodels.UserAccessModule, error) {
	return s.confirm(ctx, userID, accessmodels.ModulePublicationConfirmation, audit.EventPublicationsConfirmed)
}

func (s *Service) confirm(ctx context.Context, userID id.UserID, module accessmodels.ModuleName, event audit.AuditEvent) (*accessmodels.UserAccessModule, error) {
	if s.completions == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "acknowledgments are not configured")
	}
	var rec *accessmodels.UserAccessModule
	err := s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		if _, err := s.Get(ctx, userID); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		var err error
		rec, err = s.completions.SetCompletion(ctx, userID, module, &now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, event, userID, "")
	return rec, nil
}

// SignedCodeOfConductVersion returns the version the user signed, or nil.
func (s *Service) SignedCodeOfConductVersion(ctx context.Context, userID id.UserID) (*int, error) {
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.DUCCSignedVersion, nil
}

// ListIDs returns every user, or those updated after since.
func (s *Service) ListIDs(ctx context.Context, since *time.Time) ([]id.UserID, error) {
	ids, err := s.store.ListIDs(ctx, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return ids, nil
}

func (s *Service) mutate(ctx context.Context, userID id.UserID, fn func(u *models.User, now time.Time) bool) (*models.User, bool, error) {
	var (
		result  *models.User
		changed bool
	)
	err := s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		u, err := s.Get(ctx, userID)
		if err != nil {
			return err
		}
		if !fn(u, requestcontext.Now(ctx)) {
			result = u
			return nil
		}
		if err := s.store.Save(ctx, u); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "user was modified concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
		}
		result, changed = u, true
		if s.reevaluator != nil {
			if err := s.reevaluator.EvaluateAll(ctx, userID); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "tier re-evaluation failed", "user_id", userID.String(), "error", err)
			}
		}
		return nil
	})
	return result, changed, err
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID id.UserID, reason string) {
	args := []any{"event", string(event), "log_type", "audit", "user_id", userID.String()}
	if reason != "" {
		args = append(args, "reason", reason)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:  userID,
		Subject: userID.String(),
		Action:  string(event),
		Reason:  reason,
	})
}

func boolReason(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
