// Package service manages the initial-credit grant: creation, the single
// extension, administrative bypass and the expiry notification sweep.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"accessgate/internal/credits/metrics"
	"accessgate/internal/credits/models"
	"accessgate/internal/platform/config"
	"accessgate/internal/platform/lock"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

// Stable invalid-state messages.
const (
	MsgNotInitiated      = "initial credits expiration not initiated"
	MsgAlreadyExtended   = "initial credits expiration already extended"
	MsgNotExpiringSoon   = "initial credits expiration not yet eligible for extension"
	MsgBypassedGrant     = "initial credits expiration is bypassed"
	MsgInstitutionBypass = "initial credits expiration is bypassed by the user's institution"
)

const (
	maxConflictRetries  = 3
	defaultSweepBatch   = 1000
	creditsAuditSubject = "initial_credits"
)

type Store interface {
	Get(ctx context.Context, userID id.UserID) (*models.InitialCredits, error)
	Save(ctx context.Context, c *models.InitialCredits) error
	ListDue(ctx context.Context, cutoff time.Time, limit int) ([]*models.InitialCredits, error)
}

// BypassPolicy reports users whose institution exempts their credits from
// expiry.
type BypassPolicy interface {
	BypassesCreditsExpiration(ctx context.Context, userID id.UserID) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Policy holds the grant timings in days.
type Policy struct {
	ValidityDays  int
	ExtensionDays int
	WarningDays   int
	// ExtensionRequiresExpiringSoon rejects extensions before the warning
	// window opens.
	ExtensionRequiresExpiringSoon bool
	ExtensionRejectsBypassed      bool
}

func PolicyFromConfig(cfg config.CreditsConfig) Policy {
	return Policy{
		ValidityDays:                  cfg.ValidityPeriodDays,
		ExtensionDays:                 cfg.ExtensionPeriodDays,
		WarningDays:                   cfg.WarningPeriodDays,
		ExtensionRequiresExpiringSoon: cfg.ExtensionRequiresExpiringSoon,
		ExtensionRejectsBypassed:      cfg.ExtensionRejectsBypassed,
	}
}

func (p Policy) warningWindow() time.Duration {
	return time.Duration(p.WarningDays) * 24 * time.Hour
}

type Service struct {
	store          Store
	locker         lock.Locker
	policy         Policy
	bypass         BypassPolicy
	batchSize      int
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

// WithInstitutionBypass exempts users whose institution bypasses credit
// expiry from the sweep.
func WithInstitutionBypass(p BypassPolicy) Option {
	return func(s *Service) {
		s.bypass = p
	}
}

func WithSweepBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func New(store Store, locker lock.Locker, policy Policy, opts ...Option) *Service {
	s := &Service{store: store, locker: locker, policy: policy, batchSize: defaultSweepBatch}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View is a grant together with its derived expiry state.
type View struct {
	*models.InitialCredits
	InstitutionBypassed bool `json:"institution_bypassed"`
	Expired             bool `json:"expired"`
	ExpiringSoon        bool `json:"expiring_soon"`
}

// SweepResult summarizes one CheckExpiration run.
type SweepResult struct {
	SweepID      string    `json:"sweep_id"`
	StartedAt    time.Time `json:"started_at"`
	Checked      int       `json:"checked"`
	ExpiringSoon int       `json:"expiring_soon"`
	Expired      int       `json:"expired"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
}

// Create starts the user's grant. Calling it again returns the existing
// grant unchanged.
func (s *Service) Create(ctx context.Context, userID id.UserID) (*models.InitialCredits, error) {
	var out *models.InitialCredits
	err := s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		existing, err := s.store.Get(ctx, userID)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load initial credits")
		}

		rec := models.NewInitialCredits(userID, requestcontext.Now(ctx), s.policy.ValidityDays)
		if err := s.store.Save(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				existing, getErr := s.store.Get(ctx, userID)
				if getErr != nil {
					return dErrors.Wrap(getErr, dErrors.CodeInternal, "failed to load initial credits")
				}
				out = existing
				return nil
			}
			return saveError(err)
		}
		out = rec
		s.logAudit(ctx, audit.EventCreditsCreated, userID, "")
		return nil
	})
	s.count(metrics.OpCreate, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Extend moves the expiration to start + extension days, once.
func (s *Service) Extend(ctx context.Context, userID id.UserID) (*models.InitialCredits, error) {
	var instBypass bool
	if s.policy.ExtensionRejectsBypassed {
		var err error
		if instBypass, err = s.institutionBypass(ctx, userID); err != nil {
			s.count(metrics.OpExtend, err)
			return nil, err
		}
	}
	rec, err := s.update(ctx, userID, false, func(c *models.InitialCredits, now time.Time) (bool, error) {
		if !c.CanExtend() {
			return false, dErrors.New(dErrors.CodeInvalidState, MsgAlreadyExtended)
		}
		if instBypass {
			return false, dErrors.New(dErrors.CodeInvalidState, MsgInstitutionBypass)
		}
		if s.policy.ExtensionRejectsBypassed && c.Bypassed {
			return false, dErrors.New(dErrors.CodeInvalidState, MsgBypassedGrant)
		}
		if s.policy.ExtensionRequiresExpiringSoon && !c.IsExpired(now) && !c.ExpiresWithin(now, s.policy.warningWindow()) {
			return false, dErrors.New(dErrors.CodeInvalidState, MsgNotExpiringSoon)
		}
		c.Extend(s.policy.ExtensionDays, now)
		return true, nil
	})
	s.count(metrics.OpExtend, err)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventCreditsExtended, userID, "")
	return rec, nil
}

// SetBypassed sets the bypass flag without touching any timing field. A
// user without a grant gets one started now.
func (s *Service) SetBypassed(ctx context.Context, userID id.UserID, bypassed bool) (*models.InitialCredits, error) {
	var changed bool
	rec, err := s.update(ctx, userID, true, func(c *models.InitialCredits, _ time.Time) (bool, error) {
		changed = c.Bypassed != bypassed
		c.Bypassed = bypassed
		return changed || c.Version == 0, nil
	})
	s.count(metrics.OpBypass, err)
	if err != nil {
		return nil, err
	}
	if changed {
		reason := "unbypassed"
		if bypassed {
			reason = "bypassed"
		}
		s.logAudit(ctx, audit.EventCreditsBypassChanged, userID, reason)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.InitialCredits, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "initial credits not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load initial credits")
	}
	return rec, nil
}

// Describe returns the grant with its expiry state as of now.
func (s *Service) Describe(ctx context.Context, userID id.UserID) (*View, error) {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	instBypass, err := s.institutionBypass(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	exempt := rec.Bypassed || instBypass
	return &View{
		InitialCredits:      rec,
		InstitutionBypassed: instBypass,
		Expired:             !exempt && rec.IsExpired(now),
		ExpiringSoon:        !exempt && rec.ExpiresWithin(now, s.policy.warningWindow()),
	}, nil
}

// CheckExpiration advances the notification status of due grants: expired
// grants move to EXPIRATION_SENT, grants inside the warning window move from
// NO_NOTIFICATION_SENT to EXPIRING_SOON_SENT. Bypassed grants are skipped.
// A failure on one user is counted and does not stop the sweep.
func (s *Service) CheckExpiration(ctx context.Context) (SweepResult, error) {
	now := requestcontext.Now(ctx)
	res := SweepResult{
		SweepID:   ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		StartedAt: now,
	}
	due, err := s.store.ListDue(ctx, now.Add(s.policy.warningWindow()), s.batchSize)
	if err != nil {
		return res, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list due initial credits")
	}

	for _, rec := range due {
		if err := ctx.Err(); err != nil {
			return res, dErrors.Wrap(err, dErrors.CodeTimeout, "credit expiry sweep interrupted")
		}
		res.Checked++
		notice, err := s.sweepOne(ctx, rec.UserID, res.SweepID)
		switch {
		case err != nil:
			res.Failed++
			if s.logger != nil {
				s.logger.WarnContext(ctx, "credit expiry check failed",
					"sweep_id", res.SweepID,
					"user_id", rec.UserID.String(),
					"error", err,
				)
			}
		case notice == models.NotificationExpired:
			res.Expired++
		case notice == models.NotificationExpiringSoon:
			res.ExpiringSoon++
		default:
			res.Skipped++
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "credit expiry sweep finished",
			"sweep_id", res.SweepID,
			"checked", res.Checked,
			"expiring_soon", res.ExpiringSoon,
			"expired", res.Expired,
			"skipped", res.Skipped,
			"failed", res.Failed,
		)
	}
	return res, nil
}

// sweepOne returns the notification it advanced to, or "" when nothing was
// due.
func (s *Service) sweepOne(ctx context.Context, userID id.UserID, sweepID string) (models.NotificationStatus, error) {
	instBypass, err := s.institutionBypass(ctx, userID)
	if err != nil {
		return "", err
	}
	if instBypass {
		return "", nil
	}

	var notice models.NotificationStatus
	_, err = s.update(ctx, userID, false, func(c *models.InitialCredits, now time.Time) (bool, error) {
		notice = ""
		if c.Bypassed {
			return false, nil
		}
		switch {
		case c.IsExpired(now) && c.NotificationStatus != models.NotificationExpired:
			notice = models.NotificationExpired
		case c.ExpiresWithin(now, s.policy.warningWindow()) && c.NotificationStatus == models.NotificationNone:
			notice = models.NotificationExpiringSoon
		default:
			return false, nil
		}
		return c.AdvanceNotification(notice), nil
	})
	if err != nil {
		return "", err
	}

	switch notice {
	case models.NotificationExpired:
		s.count(metrics.OpExpire, nil)
		s.logAudit(ctx, audit.EventCreditsExpired, userID, sweepID)
	case models.NotificationExpiringSoon:
		s.count(metrics.OpExpiringSoon, nil)
		s.logAudit(ctx, audit.EventCreditsExpiringSoon, userID, sweepID)
	}
	return notice, nil
}

// update applies mutate to the user's grant under the user lock, retrying on
// version conflicts. A missing grant is created when create is set and is an
// invalid-state error otherwise.
func (s *Service) update(ctx context.Context, userID id.UserID, create bool, mutate func(c *models.InitialCredits, now time.Time) (bool, error)) (*models.InitialCredits, error) {
	var out *models.InitialCredits
	err := s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		for attempt := 0; attempt < maxConflictRetries; attempt++ {
			now := requestcontext.Now(ctx)
			rec, err := s.store.Get(ctx, userID)
			switch {
			case errors.Is(err, sentinel.ErrNotFound) && create:
				rec = models.NewInitialCredits(userID, now, s.policy.ValidityDays)
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeInvalidState, MsgNotInitiated)
			case err != nil:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load initial credits")
			}

			changed, err := mutate(rec, now)
			if err != nil {
				return err
			}
			if !changed {
				out = rec
				return nil
			}
			if err := s.store.Save(ctx, rec); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					continue
				}
				return saveError(err)
			}
			out = rec
			return nil
		}
		return dErrors.New(dErrors.CodeConflict, "initial credits were modified concurrently")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) institutionBypass(ctx context.Context, userID id.UserID) (bool, error) {
	if s.bypass == nil {
		return false, nil
	}
	ok, err := s.bypass.BypassesCreditsExpiration(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check institution bypass")
	}
	return ok, nil
}

func saveError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save initial credits")
}

func (s *Service) count(op string, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.IncrementOperation(op, metrics.OutcomeOK)
	case dErrors.HasCode(err, dErrors.CodeInvalidState):
		s.metrics.IncrementOperation(op, metrics.OutcomeRejected)
	default:
		s.metrics.IncrementOperation(op, metrics.OutcomeError)
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID id.UserID, reason string) {
	args := []any{
		"event", string(event),
		"log_type", "audit",
		"user_id", userID.String(),
	}
	if reason != "" {
		args = append(args, "reason", reason)
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
		Subject: creditsAuditSubject,
		Action:  string(event),
		Reason:  reason,
	})
}
