// Package service owns per-user module state: completion recorded by the
// synchronizers and bypasses granted by administrators. Every write runs
// under the per-user lock and triggers tier re-evaluation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/metrics"
	"accessgate/internal/access/models"
	"accessgate/internal/platform/lock"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

// maxConflictRetries bounds re-read attempts after an optimistic version
// conflict before giving up with CodeConflict.
const maxConflictRetries = 3

type ModuleStore interface {
	Get(ctx context.Context, userID id.UserID, module models.ModuleName) (*models.UserAccessModule, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.UserAccessModule, error)
	Save(ctx context.Context, m *models.UserAccessModule) error
}

// TierReevaluator recomputes every tier of a user after an input changed.
type TierReevaluator interface {
	EvaluateAll(ctx context.Context, userID id.UserID) error
}

// AgreementReader exposes the code of conduct version a user signed.
type AgreementReader interface {
	SignedCodeOfConductVersion(ctx context.Context, userID id.UserID) (*int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	catalog        *catalog.Catalog
	modules        ModuleStore
	locker         lock.Locker
	reevaluator    TierReevaluator
	agreements     AgreementReader
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithReevaluator wires tier re-evaluation after each state change.
func WithReevaluator(r TierReevaluator) Option {
	return func(s *Service) {
		s.reevaluator = r
	}
}

// WithAgreements lets module views check the signed code of conduct version.
func WithAgreements(r AgreementReader) Option {
	return func(s *Service) {
		s.agreements = r
	}
}

func New(cat *catalog.Catalog, modules ModuleStore, locker lock.Locker, opts ...Option) *Service {
	s := &Service{catalog: cat, modules: modules, locker: locker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credential is what a synchronizer learned about a valid external
// credential.
type Credential struct {
	Name      string
	ExpiresAt *time.Time
}

// SetCompletion overwrites the completion time. Synchronizers use the sticky
// operations below; this is the raw write for acknowledgments and repairs.
func (s *Service) SetCompletion(ctx context.Context, userID id.UserID, module models.ModuleName, at *time.Time) (*models.UserAccessModule, error) {
	return s.update(ctx, userID, module, func(m *models.UserAccessModule, _ time.Time) bool {
		if sameTime(m.CompletionTime, at) {
			return false
		}
		m.CompletionTime = copyTime(at)
		return true
	})
}

// MarkCompleted records completion at `at` unless the module is already
// complete. Completion is monotonic under routine re-verification.
func (s *Service) MarkCompleted(ctx context.Context, userID id.UserID, module models.ModuleName, at time.Time) (bool, error) {
	var changed bool
	_, err := s.update(ctx, userID, module, func(m *models.UserAccessModule, _ time.Time) bool {
		changed = m.CompletionTime == nil
		if changed {
			m.CompletionTime = &at
		}
		return changed
	})
	return changed, err
}

// ClearCompletion revokes completion and drops the credential metadata. It
// never touches the bypass.
func (s *Service) ClearCompletion(ctx context.Context, userID id.UserID, module models.ModuleName) (bool, error) {
	var changed bool
	_, err := s.update(ctx, userID, module, func(m *models.UserAccessModule, _ time.Time) bool {
		changed = m.CompletionTime != nil
		dirty := changed || m.CredentialName != "" || m.CredentialExpiresAt != nil
		m.CompletionTime = nil
		m.CredentialName = ""
		m.CredentialExpiresAt = nil
		return dirty
	})
	return changed, err
}

// RecordCredential applies a positive verification in one write: completion
// is set at `at` when absent (or always when reset is true) and the metadata
// is refreshed.
func (s *Service) RecordCredential(ctx context.Context, userID id.UserID, module models.ModuleName, cred Credential, at time.Time, reset bool) (*models.UserAccessModule, error) {
	return s.update(ctx, userID, module, func(m *models.UserAccessModule, _ time.Time) bool {
		changed := applyCredential(m, cred)
		if m.CompletionTime == nil || (reset && !m.CompletionTime.Equal(at)) {
			t := at
			m.CompletionTime = &t
			changed = true
		}
		return changed
	})
}

// SetBypass grants or removes an administrative bypass. Bypassing a RAS
// login also bypasses IDENTITY.
func (s *Service) SetBypass(ctx context.Context, userID id.UserID, module models.ModuleName, bypassed bool) error {
	mod, ok := s.catalog.Module(module)
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown module: "+string(module))
	}
	if !mod.Bypassable {
		return dErrors.New(dErrors.CodeValidation, "module is not bypassable: "+string(module))
	}

	return s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		targets := []models.ModuleName{module}
		if module.IsIdentityProvider() {
			targets = append(targets, models.ModuleIdentity)
		}
		for _, target := range targets {
			if _, err := s.update(ctx, userID, target, bypassMutation(bypassed)); err != nil {
				return err
			}
		}
		return nil
	})
}

// BypassAll applies the bypass to every enforced, bypassable module.
func (s *Service) BypassAll(ctx context.Context, userID id.UserID, bypassed bool) error {
	return s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		for _, mod := range s.catalog.Modules() {
			if !mod.Bypassable || !s.catalog.IsEnabled(mod.Name) {
				continue
			}
			if _, err := s.update(ctx, userID, mod.Name, bypassMutation(bypassed)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListModuleStatuses evaluates every catalog module for the user.
func (s *Service) ListModuleStatuses(ctx context.Context, userID id.UserID) ([]models.ModuleCompliance, error) {
	records, err := s.modules.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list modules")
	}
	byName := make(map[models.ModuleName]*models.UserAccessModule, len(records))
	for _, r := range records {
		byName[r.Module] = r
	}
	signed, err := s.signedVersion(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	out := make([]models.ModuleCompliance, 0, len(records))
	for _, mod := range s.catalog.Modules() {
		out = append(out, s.catalog.Evaluate(mod.Name, byName[mod.Name], signed, now))
	}
	return out, nil
}

// IsCompliant reports whether the module is satisfied and not expired.
func (s *Service) IsCompliant(ctx context.Context, userID id.UserID, module models.ModuleName) (bool, error) {
	if _, ok := s.catalog.Module(module); !ok {
		return false, dErrors.New(dErrors.CodeNotFound, "unknown module: "+string(module))
	}
	rec, err := s.modules.Get(ctx, userID, module)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load module")
	}
	signed, err := s.signedVersion(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.catalog.Evaluate(module, rec, signed, requestcontext.Now(ctx)).Compliant, nil
}

// update loads (or initializes) the record, applies mutate and saves it,
// retrying on optimistic conflicts. mutate returns false for no-op writes.
func (s *Service) update(ctx context.Context, userID id.UserID, module models.ModuleName, mutate func(m *models.UserAccessModule, now time.Time) bool) (*models.UserAccessModule, error) {
	if _, ok := s.catalog.Module(module); !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown module: "+string(module))
	}

	var result *models.UserAccessModule
	err := s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		for attempt := 0; attempt < maxConflictRetries; attempt++ {
			current, err := s.modules.Get(ctx, userID, module)
			if errors.Is(err, sentinel.ErrNotFound) {
				current, err = models.NewUserAccessModule(userID, module), nil
			}
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load module")
			}

			before := current.Clone()
			now := requestcontext.Now(ctx)
			if !mutate(current, now) {
				result = current
				return nil
			}
			current.Touch(now)

			if err := s.modules.Save(ctx, current); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					s.incrementUpdate(module, metrics.ChangeConflict)
					continue
				}
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "user not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save module")
			}
			result = current
			s.recordChanges(ctx, before, current)
			s.reevaluate(ctx, userID)
			return nil
		}
		return dErrors.New(dErrors.CodeConflict, "module was modified concurrently")
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) reevaluate(ctx context.Context, userID id.UserID) {
	if s.reevaluator == nil {
		return
	}
	// A failed re-evaluation leaves tiers stale until the next
	// reconciliation pass; the module write itself stands.
	if err := s.reevaluator.EvaluateAll(ctx, userID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "tier re-evaluation failed",
			"user_id", userID.String(),
			"error", err,
		)
	}
}

func (s *Service) recordChanges(ctx context.Context, before, after *models.UserAccessModule) {
	module := after.Module
	switch {
	case before.CompletionTime == nil && after.CompletionTime != nil:
		s.incrementUpdate(module, metrics.ChangeCompleted)
		s.logAudit(ctx, audit.EventModuleCompleted, after.UserID, module)
	case before.CompletionTime != nil && after.CompletionTime == nil:
		s.incrementUpdate(module, metrics.ChangeCleared)
		s.logAudit(ctx, audit.EventModuleCleared, after.UserID, module)
	case before.CredentialName != after.CredentialName || !sameTime(before.CredentialExpiresAt, after.CredentialExpiresAt):
		s.incrementUpdate(module, metrics.ChangeCredential)
	}
	switch {
	case before.BypassTime == nil && after.BypassTime != nil:
		s.incrementUpdate(module, metrics.ChangeBypassed)
		s.logAudit(ctx, audit.EventModuleBypassed, after.UserID, module)
	case before.BypassTime != nil && after.BypassTime == nil:
		s.incrementUpdate(module, metrics.ChangeUnbypassed)
		s.logAudit(ctx, audit.EventModuleUnbypassed, after.UserID, module)
	}
}

func (s *Service) signedVersion(ctx context.Context, userID id.UserID) (*int, error) {
	if s.agreements == nil {
		return nil, nil
	}
	v, err := s.agreements.SignedCodeOfConductVersion(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load code of conduct signature")
	}
	return v, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID id.UserID, module models.ModuleName) {
	args := []any{
		"event", string(event),
		"log_type", "audit",
		"user_id", userID.String(),
		"module", string(module),
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if actor := requestcontext.ActorID(ctx); actor != "" {
		args = append(args, "actor_id", actor)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:  userID,
		Subject: string(module),
		Action:  string(event),
	})
}

func (s *Service) incrementUpdate(module models.ModuleName, change string) {
	if s.metrics != nil {
		s.metrics.IncrementModuleUpdate(module, change)
	}
}

func bypassMutation(bypassed bool) func(m *models.UserAccessModule, now time.Time) bool {
	return func(m *models.UserAccessModule, now time.Time) bool {
		if bypassed == (m.BypassTime != nil) {
			return false
		}
		if bypassed {
			t := now
			m.BypassTime = &t
		} else {
			m.BypassTime = nil
		}
		return true
	}
}

func applyCredential(m *models.UserAccessModule, cred Credential) bool {
	if m.CredentialName == cred.Name && sameTime(m.CredentialExpiresAt, cred.ExpiresAt) {
		return false
	}
	m.CredentialName = cred.Name
	m.CredentialExpiresAt = copyTime(cred.ExpiresAt)
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
