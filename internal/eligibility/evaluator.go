// Package eligibility derives each user's tier status from their module
// state, institutional affiliation and administrative disable flag, and
// materializes it as UserAccessTier records.
package eligibility

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/models"
	"accessgate/internal/eligibility/metrics"
	"accessgate/internal/institution/matcher"
	"accessgate/internal/platform/lock"
	usermodels "accessgate/internal/users/models"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

const maxConflictRetries = 3

type ModuleReader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.UserAccessModule, error)
}

type TierStore interface {
	Get(ctx context.Context, userID id.UserID, tier string) (*models.UserAccessTier, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.UserAccessTier, error)
	Save(ctx context.Context, t *models.UserAccessTier) error
	ListChangedSince(ctx context.Context, since time.Time, limit int) ([]*models.UserAccessTier, error)
}

type UserReader interface {
	Get(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

type AffiliationMatcher interface {
	Match(ctx context.Context, userID id.UserID, contactEmail, tier string) (matcher.Result, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Evaluator struct {
	catalog        *catalog.Catalog
	modules        ModuleReader
	tiers          TierStore
	users          UserReader
	matcher        AffiliationMatcher
	locker         lock.Locker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Evaluator)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(e *Evaluator) {
		e.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

func New(cat *catalog.Catalog, modules ModuleReader, tiers TierStore, users UserReader, m AffiliationMatcher, locker lock.Locker, opts ...Option) *Evaluator {
	e := &Evaluator{catalog: cat, modules: modules, tiers: tiers, users: users, matcher: m, locker: locker}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TierStatus is the stored status of one tier together with a fresh
// explanation of why it holds.
type TierStatus struct {
	Tier           string        `json:"tier"`
	Status         models.Status `json:"status"`
	FirstEnabledAt *time.Time    `json:"first_enabled_at,omitempty"`
	LastUpdatedAt  *time.Time    `json:"last_updated_at,omitempty"`
	Decision       Decision      `json:"decision"`
}

type snapshot struct {
	user    *usermodels.User
	modules map[models.ModuleName]*models.UserAccessModule
	now     time.Time
}

// Evaluate recomputes one tier and writes it when the status changed.
func (e *Evaluator) Evaluate(ctx context.Context, userID id.UserID, tier string) (Decision, error) {
	t, ok := e.catalog.Tier(tier)
	if !ok {
		return Decision{}, dErrors.New(dErrors.CodeNotFound, "unknown tier: "+tier)
	}
	var decision Decision
	err := e.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		snap, err := e.load(ctx, userID)
		if err != nil {
			return err
		}
		decisions, err := e.decide(ctx, snap, []models.AccessTier{t})
		if err != nil {
			return err
		}
		decision = decisions[0]
		return e.apply(ctx, userID, tier, decision, snap.now)
	})
	return decision, err
}

// EvaluateAll recomputes every tier of the user. Institution checks for the
// tiers run concurrently; writes are sequential under the user lock.
func (e *Evaluator) EvaluateAll(ctx context.Context, userID id.UserID) error {
	return e.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		snap, err := e.load(ctx, userID)
		if err != nil {
			return err
		}
		tiers := e.catalog.Tiers()
		decisions, err := e.decide(ctx, snap, tiers)
		if err != nil {
			return err
		}
		for i, t := range tiers {
			if err := e.apply(ctx, userID, t.ShortName, decisions[i], snap.now); err != nil {
				return err
			}
		}
		return nil
	})
}

// Explain returns each catalog tier's stored status with a freshly computed
// decision. It never writes.
func (e *Evaluator) Explain(ctx context.Context, userID id.UserID) ([]TierStatus, error) {
	snap, err := e.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	tiers := e.catalog.Tiers()
	decisions, err := e.decide(ctx, snap, tiers)
	if err != nil {
		return nil, err
	}
	stored, err := e.tiers.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tiers")
	}
	byTier := make(map[string]*models.UserAccessTier, len(stored))
	for _, rec := range stored {
		byTier[rec.Tier] = rec
	}

	out := make([]TierStatus, 0, len(tiers))
	for i, t := range tiers {
		status := TierStatus{Tier: t.ShortName, Status: models.StatusDisabled, Decision: decisions[i]}
		if rec, ok := byTier[t.ShortName]; ok {
			status.Status = rec.Status
			status.FirstEnabledAt = rec.FirstEnabledAt
			updated := rec.LastUpdatedAt
			status.LastUpdatedAt = &updated
		}
		out = append(out, status)
	}
	return out, nil
}

// ListChangedSince is the bulk feed of tier records updated after since.
func (e *Evaluator) ListChangedSince(ctx context.Context, since time.Time, limit int) ([]*models.UserAccessTier, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	changed, err := e.tiers.ListChangedSince(ctx, since, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list changed tiers")
	}
	return changed, nil
}

func (e *Evaluator) load(ctx context.Context, userID id.UserID) (*snapshot, error) {
	user, err := e.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	records, err := e.modules.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list modules")
	}
	byName := make(map[models.ModuleName]*models.UserAccessModule, len(records))
	for _, r := range records {
		byName[r.Module] = r
	}
	return &snapshot{user: user, modules: byName, now: requestcontext.Now(ctx)}, nil
}

func (e *Evaluator) decide(ctx context.Context, snap *snapshot, tiers []models.AccessTier) ([]Decision, error) {
	matches := make([]matcher.Result, len(tiers))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tiers {
		g.Go(func() error {
			res, err := e.matcher.Match(gctx, snap.user.ID, snap.user.ContactEmail, t.ShortName)
			if err != nil {
				return err
			}
			matches[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to match institution")
	}

	decisions := make([]Decision, len(tiers))
	for i, t := range tiers {
		in := Inputs{
			Disabled:            snap.user.Disabled,
			InstitutionEligible: matches[i].Eligible,
		}
		for _, name := range t.RequiredModules {
			in.Modules = append(in.Modules,
				e.catalog.Evaluate(name, snap.modules[name], snap.user.DUCCSignedVersion, snap.now))
		}
		decisions[i] = Decide(in)
	}
	return decisions, nil
}

// apply writes the tier record when its status differs from the decision.
// An already-correct record is left untouched.
func (e *Evaluator) apply(ctx context.Context, userID id.UserID, tier string, decision Decision, now time.Time) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		rec, err := e.tiers.Get(ctx, userID, tier)
		if errors.Is(err, sentinel.ErrNotFound) {
			rec, err = models.NewUserAccessTier(userID, tier), nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tier")
		}
		if !rec.Transition(decision.Status(), now) {
			return nil
		}
		if err := e.tiers.Save(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save tier")
		}
		e.recordTransition(ctx, userID, tier, decision)
		return nil
	}
	return dErrors.New(dErrors.CodeConflict, "tier was modified concurrently")
}

func (e *Evaluator) recordTransition(ctx context.Context, userID id.UserID, tier string, decision Decision) {
	event := audit.EventTierDisabled
	if decision.Eligible {
		event = audit.EventTierEnabled
	}
	if e.metrics != nil {
		e.metrics.IncrementTransition(tier, string(decision.Status()))
	}
	reason := ""
	if len(decision.Reasons) > 0 {
		reason = decision.Reasons[0]
	}
	if e.logger != nil {
		e.logger.InfoContext(ctx, string(event),
			"event", string(event),
			"log_type", "audit",
			"user_id", userID.String(),
			"tier", tier,
			"reasons", decision.Reasons,
		)
	}
	if e.auditPublisher == nil {
		return
	}
	_ = e.auditPublisher.Emit(ctx, audit.Event{
		UserID:  userID,
		Subject: tier,
		Action:  string(event),
		Reason:  reason,
	})
}
