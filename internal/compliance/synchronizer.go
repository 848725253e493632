// Package compliance pulls credential state from external sources and
// writes it to per-user module records.
//
// Every synchronizer follows the same rules: an absent external identity is
// a no-op, a missing or invalid credential clears completion, a valid one
// sets completion only when unset and refreshes the credential metadata, and
// transient errors surface without clearing anything.
package compliance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/models"
	accessservice "accessgate/internal/access/service"
	"accessgate/internal/compliance/metrics"
	usermodels "accessgate/internal/users/models"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/sentinel"
)

// Synchronizer refreshes the modules of one evaluator key for a user.
type Synchronizer interface {
	Key() models.EvaluatorKey
	Sync(ctx context.Context, user *usermodels.User) error
}

// ModuleWriter is the slice of the access service synchronizers write
// through.
type ModuleWriter interface {
	ClearCompletion(ctx context.Context, userID id.UserID, module models.ModuleName) (bool, error)
	MarkCompleted(ctx context.Context, userID id.UserID, module models.ModuleName, at time.Time) (bool, error)
	RecordCredential(ctx context.Context, userID id.UserID, module models.ModuleName, cred accessservice.Credential, at time.Time, reset bool) (*models.UserAccessModule, error)
}

type ModuleReader interface {
	Get(ctx context.Context, userID id.UserID, module models.ModuleName) (*models.UserAccessModule, error)
}

// Result is the outcome of one synchronizer for one user.
type Result struct {
	Key     models.EvaluatorKey
	Outcome string
	Err     error
}

// Registry resolves synchronizers by evaluator key.
type Registry struct {
	syncs   map[models.EvaluatorKey]Synchronizer
	order   []models.EvaluatorKey
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type RegistryOption func(*Registry)

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithTracer(t trace.Tracer) RegistryOption {
	return func(r *Registry) {
		r.tracer = t
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		syncs:  make(map[models.EvaluatorKey]Synchronizer),
		tracer: otel.Tracer("accessgate/compliance"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds s, replacing any synchronizer with the same key.
func (r *Registry) Register(s Synchronizer) {
	if _, ok := r.syncs[s.Key()]; !ok {
		r.order = append(r.order, s.Key())
	}
	r.syncs[s.Key()] = s
}

func (r *Registry) Get(key models.EvaluatorKey) (Synchronizer, bool) {
	s, ok := r.syncs[key]
	return s, ok
}

func (r *Registry) Keys() []models.EvaluatorKey {
	return append([]models.EvaluatorKey(nil), r.order...)
}

// Sync runs the synchronizer for key. Service accounts are skipped.
func (r *Registry) Sync(ctx context.Context, user *usermodels.User, key models.EvaluatorKey) error {
	s, ok := r.syncs[key]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "no synchronizer for evaluator: "+string(key))
	}
	return r.run(ctx, user, s).Err
}

// SyncAll runs every registered synchronizer in registration order. A failed
// synchronizer does not stop the others.
func (r *Registry) SyncAll(ctx context.Context, user *usermodels.User) []Result {
	results := make([]Result, 0, len(r.order))
	for _, key := range r.order {
		results = append(results, r.run(ctx, user, r.syncs[key]))
	}
	return results
}

// FirstError returns the first failure in results, if any.
func FirstError(results []Result) error {
	for _, res := range results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

func (r *Registry) run(ctx context.Context, user *usermodels.User, s Synchronizer) Result {
	key := s.Key()
	res := Result{Key: key, Outcome: metrics.OutcomeSynced}
	if user.ServiceAccount {
		res.Outcome = metrics.OutcomeSkipped
		r.observe(key, res.Outcome, 0)
		return res
	}

	ctx, span := r.tracer.Start(ctx, "compliance.sync",
		trace.WithAttributes(
			attribute.String("evaluator", string(key)),
			attribute.String("user_id", user.ID.String()),
		))
	defer span.End()

	start := time.Now()
	if err := s.Sync(ctx, user); err != nil {
		res.Outcome = metrics.OutcomeFailed
		res.Err = translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if r.logger != nil {
			r.logger.WarnContext(ctx, "compliance sync failed",
				"evaluator", string(key),
				"user_id", user.ID.String(),
				"category", string(CategoryOf(err)),
				"error", err,
			)
		}
	}
	r.observe(key, res.Outcome, time.Since(start))
	return res
}

func (r *Registry) observe(key models.EvaluatorKey, outcome string, d time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveSync(string(key), outcome, d)
	}
}

func translate(err error) error {
	if _, ok := dErrors.From(err); ok {
		return err
	}
	switch {
	case IsRetryable(err):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "compliance source unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "compliance sync timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "compliance sync failed")
	}
}

// base holds what every synchronizer needs.
type base struct {
	catalog *catalog.Catalog
	writer  ModuleWriter
	retrier *Retrier
}

func (b base) enabled(names ...models.ModuleName) []models.ModuleName {
	var out []models.ModuleName
	for _, n := range names {
		if b.catalog.IsEnabled(n) {
			out = append(out, n)
		}
	}
	return out
}

func (b base) record(ctx context.Context, userID id.UserID, module models.ModuleName, cred accessservice.Credential, at time.Time, reset bool) error {
	_, err := b.writer.RecordCredential(ctx, userID, module, cred, at, reset)
	return err
}

func (b base) clear(ctx context.Context, userID id.UserID, module models.ModuleName) error {
	_, err := b.writer.ClearCompletion(ctx, userID, module)
	return err
}

func expired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && !expiresAt.After(now)
}

func current(ctx context.Context, reader ModuleReader, userID id.UserID, module models.ModuleName) (*models.UserAccessModule, error) {
	rec, err := reader.Get(ctx, userID, module)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}
