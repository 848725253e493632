// Package reconcile runs the periodic pass that re-synchronizes every user's
// external credentials and re-evaluates their tiers.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"accessgate/internal/compliance"
	"accessgate/internal/platform/lock"
	"accessgate/internal/reconcile/metrics"
	usermodels "accessgate/internal/users/models"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

const (
	defaultConcurrency = 8
	defaultTaskTimeout = 30 * time.Second
)

type UserStore interface {
	Get(ctx context.Context, userID id.UserID) (*usermodels.User, error)
	ListIDs(ctx context.Context, since *time.Time) ([]id.UserID, error)
}

type Syncer interface {
	SyncAll(ctx context.Context, user *usermodels.User) []compliance.Result
}

type TierEvaluator interface {
	EvaluateAll(ctx context.Context, userID id.UserID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Summary is the result of one reconciliation run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Users     int           `json:"users"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Outcome of reconciling one user.
type Outcome string

const (
	OutcomeSucceeded Outcome = metrics.OutcomeSucceeded
	OutcomeFailed    Outcome = metrics.OutcomeFailed
	OutcomeSkipped   Outcome = metrics.OutcomeSkipped
)

type Driver struct {
	users          UserStore
	syncer         Syncer
	evaluator      TierEvaluator
	locker         lock.Locker
	concurrency    int
	taskTimeout    time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	auditPublisher AuditPublisher
}

type Option func(*Driver)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Driver) {
		d.tracer = t
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(d *Driver) {
		d.auditPublisher = p
	}
}

func WithConcurrency(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func WithTaskTimeout(t time.Duration) Option {
	return func(d *Driver) {
		if t > 0 {
			d.taskTimeout = t
		}
	}
}

func New(users UserStore, syncer Syncer, evaluator TierEvaluator, locker lock.Locker, opts ...Option) *Driver {
	d := &Driver{
		users:       users,
		syncer:      syncer,
		evaluator:   evaluator,
		locker:      locker,
		concurrency: defaultConcurrency,
		taskTimeout: defaultTaskTimeout,
		tracer:      otel.Tracer("accessgate/reconcile"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run reconciles every user, or only those updated after since when it is
// non-nil. Users are processed concurrently; a failed user is counted and
// never aborts the run. The returned error is set only when the user list
// cannot be read or ctx ends before every user was scheduled.
func (d *Driver) Run(ctx context.Context, since *time.Time) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: ulid.MustNew(ulid.Timestamp(requestcontext.Now(ctx)), ulid.DefaultEntropy()).String()}

	ctx, span := d.tracer.Start(ctx, "reconcile.run", trace.WithAttributes(attribute.String("run_id", summary.RunID)))
	defer span.End()

	userIDs, err := d.users.ListIDs(ctx, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	summary.Users = len(userIDs)

	var (
		mu       sync.Mutex
		schedErr error
	)
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			schedErr = err
			break
		}
		g.Go(func() error {
			outcome, _ := d.ReconcileUser(ctx, userID)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case OutcomeSucceeded:
				summary.Succeeded++
			case OutcomeSkipped:
				summary.Skipped++
			default:
				summary.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = time.Since(start)
	if d.metrics != nil {
		d.metrics.ObserveRun(summary.Duration)
	}
	span.SetAttributes(
		attribute.Int("users", summary.Users),
		attribute.Int("failed", summary.Failed),
	)
	if d.logger != nil {
		d.logger.InfoContext(ctx, "reconciliation finished",
			"run_id", summary.RunID,
			"users", summary.Users,
			"succeeded", summary.Succeeded,
			"failed", summary.Failed,
			"skipped", summary.Skipped,
			"duration", summary.Duration,
		)
	}
	if schedErr != nil {
		span.SetStatus(codes.Error, schedErr.Error())
		return summary, dErrors.Wrap(schedErr, dErrors.CodeTimeout, "reconciliation interrupted")
	}
	return summary, nil
}

// ReconcileUser syncs one user's external credentials and re-evaluates their
// tiers under the user lock and the per-task timeout. Tiers are evaluated
// even when a synchronizer failed, since failures never clear state.
func (d *Driver) ReconcileUser(ctx context.Context, userID id.UserID) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.taskTimeout)
	defer cancel()
	ctx, span := d.tracer.Start(ctx, "reconcile.user", trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	outcome := OutcomeSucceeded
	err := d.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		user, err := d.users.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				outcome = OutcomeSkipped
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}
		if user.ServiceAccount {
			outcome = OutcomeSkipped
			return nil
		}

		syncErr := compliance.FirstError(d.syncer.SyncAll(ctx, user))
		if err := d.evaluator.EvaluateAll(ctx, userID); err != nil {
			return err
		}
		return syncErr
	})
	if err != nil {
		outcome = OutcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.reportFailure(ctx, userID, err)
	}
	if d.metrics != nil {
		d.metrics.IncrementUser(string(outcome))
	}
	return outcome, err
}

// Start runs Run every interval until ctx ends.
func (d *Driver) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Run(ctx, nil); err != nil && d.logger != nil {
				d.logger.ErrorContext(ctx, "reconciliation run failed", "error", err)
			}
		}
	}
}

func (d *Driver) reportFailure(ctx context.Context, userID id.UserID, err error) {
	if d.logger != nil {
		d.logger.WarnContext(ctx, "reconcile user failed",
			"event", string(audit.EventReconcileUserFailed),
			"log_type", "audit",
			"user_id", userID.String(),
			"error", err,
		)
	}
	if d.auditPublisher == nil {
		return
	}
	// ctx may already be past its deadline.
	_ = d.auditPublisher.Emit(context.WithoutCancel(ctx), audit.Event{
		UserID: userID,
		Action: string(audit.EventReconcileUserFailed),
		Reason: err.Error(),
	})
}
