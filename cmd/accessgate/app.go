package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"accessgate/internal/access/catalog"
	accessmodels "accessgate/internal/access/models"
	accessmetrics "accessgate/internal/access/metrics"
	accessservice "accessgate/internal/access/service"
	modulestore "accessgate/internal/access/store/module"
	tierstore "accessgate/internal/access/store/tier"
	"accessgate/internal/compliance"
	"accessgate/internal/compliance/adapters/httpsource"
	"accessgate/internal/compliance/adapters/static"
	compliancemetrics "accessgate/internal/compliance/metrics"
	creditsmetrics "accessgate/internal/credits/metrics"
	creditsservice "accessgate/internal/credits/service"
	creditsstore "accessgate/internal/credits/store"
	"accessgate/internal/eligibility"
	eligibilitymetrics "accessgate/internal/eligibility/metrics"
	"accessgate/internal/institution/matcher"
	institutionmetrics "accessgate/internal/institution/metrics"
	institutionservice "accessgate/internal/institution/service"
	institutionstore "accessgate/internal/institution/store"
	"accessgate/internal/platform/config"
	"accessgate/internal/platform/kafka"
	"accessgate/internal/platform/lock"
	"accessgate/internal/platform/logger"
	"accessgate/internal/platform/postgres"
	redisclient "accessgate/internal/platform/redis"
	"accessgate/internal/reconcile"
	reconcilemetrics "accessgate/internal/reconcile/metrics"
	userservice "accessgate/internal/users/service"
	userstore "accessgate/internal/users/store"
	"accessgate/pkg/platform/audit"
	auditpublisher "accessgate/pkg/platform/audit/publisher"
	auditmemory "accessgate/pkg/platform/audit/store/memory"
	auditpostgres "accessgate/pkg/platform/audit/store/postgres"
	"accessgate/pkg/platform/circuit"
)

// app holds every wired component. Stores are Postgres-backed when a DSN is
// configured and in-memory otherwise.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	db       *sql.DB
	redis    *redisclient.Client
	producer *kafka.Producer
	outbox   *auditpostgres.Store

	publisher *auditpublisher.Publisher
	catalog   *catalog.Catalog
	locker    lock.Locker

	users        *userservice.Service
	access       *accessservice.Service
	institutions *institutionservice.Service
	evaluator    *eligibility.Evaluator
	credits      *creditsservice.Service
	syncers      *compliance.Registry
	reconciler   *reconcile.Driver
}

type stores struct {
	users        userservice.Store
	modules      accessservice.ModuleStore
	tiers        eligibility.TierStore
	institutions institutionservice.Store
	credits      creditsservice.Store
	audit        audit.Store
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger, reg *prometheus.Registry) (*app, error) {
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Format)
	}
	a := &app{cfg: cfg, logger: log, registry: reg}

	cat, err := catalog.FromConfig(cfg.Access)
	if err != nil {
		return nil, fmt.Errorf("load module catalog: %w", err)
	}
	a.catalog = cat

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openLocker(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openProducer(); err != nil {
		a.Close()
		return nil, err
	}

	a.publisher = auditpublisher.NewPublisher(st.audit, auditpublisher.WithLogger(log))

	m := matcher.New(st.institutions,
		matcher.WithLogger(log),
		matcher.WithMetrics(institutionmetrics.NewWithRegisterer(reg)),
	)
	a.evaluator = eligibility.New(cat, st.modules, st.tiers, st.users, m, a.locker,
		eligibility.WithLogger(log),
		eligibility.WithAuditPublisher(a.publisher),
		eligibility.WithMetrics(eligibilitymetrics.NewWithRegisterer(reg)),
	)
	a.users = userservice.New(st.users, a.locker,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(a.publisher),
		userservice.WithReevaluator(a.evaluator),
	)
	a.access = accessservice.New(cat, st.modules, a.locker,
		accessservice.WithLogger(log),
		accessservice.WithAuditPublisher(a.publisher),
		accessservice.WithMetrics(accessmetrics.NewWithRegisterer(reg)),
		accessservice.WithReevaluator(a.evaluator),
		accessservice.WithAgreements(a.users),
	)
	a.users.SetCodeOfConduct(a.access, cat)
	a.institutions = institutionservice.New(st.institutions, cat, m, a.locker,
		institutionservice.WithLogger(log),
		institutionservice.WithAuditPublisher(a.publisher),
		institutionservice.WithReevaluator(a.evaluator),
	)
	a.credits = creditsservice.New(st.credits, a.locker, creditsservice.PolicyFromConfig(cfg.Credits),
		creditsservice.WithLogger(log),
		creditsservice.WithAuditPublisher(a.publisher),
		creditsservice.WithMetrics(creditsmetrics.NewWithRegisterer(reg)),
		creditsservice.WithInstitutionBypass(a.institutions),
	)

	a.syncers = compliance.NewStandardRegistry(a.sources(), a.access, st.modules, cat, a.newRetrier,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliancemetrics.NewWithRegisterer(reg)),
	)
	a.reconciler = reconcile.New(st.users, a.syncers, a.evaluator, a.locker,
		reconcile.WithLogger(log),
		reconcile.WithMetrics(reconcilemetrics.NewWithRegisterer(reg)),
		reconcile.WithAuditPublisher(a.publisher),
		reconcile.WithConcurrency(cfg.Reconcile.Concurrency),
		reconcile.WithTaskTimeout(cfg.Reconcile.TaskTimeout),
	)
	return a, nil
}

func (a *app) openStores(ctx context.Context) (stores, error) {
	if a.cfg.Postgres.DSN == "" {
		a.logger.Warn("no database configured, state is kept in memory")
		return stores{
			users:        userstore.NewInMemory(),
			modules:      modulestore.NewInMemory(),
			tiers:        tierstore.NewInMemory(),
			institutions: institutionstore.NewInMemory(),
			credits:      creditsstore.NewInMemory(),
			audit:        auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, a.cfg.Postgres)
	if err != nil {
		return stores{}, fmt.Errorf("open postgres: %w", err)
	}
	a.db = db
	a.outbox = auditpostgres.New(db)
	return stores{
		users:        userstore.NewPostgres(db),
		modules:      modulestore.NewPostgres(db),
		tiers:        tierstore.NewPostgres(db),
		institutions: institutionstore.NewPostgres(db),
		credits:      creditsstore.NewPostgres(db),
		audit:        a.outbox,
	}, nil
}

func (a *app) openLocker(ctx context.Context) error {
	if a.cfg.Reconcile.LockBackend != "redis" {
		a.locker = lock.NewSharded()
		return nil
	}
	client, err := redisclient.New(ctx, a.cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.redis = client
	a.locker = lock.NewRedis(client.Client, a.cfg.Reconcile.LockTTL)
	return nil
}

func (a *app) openProducer() error {
	if a.outbox == nil {
		return nil
	}
	producer, err := kafka.NewProducer(a.cfg.Kafka)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	a.producer = producer
	return nil
}

func (a *app) sources() compliance.SourceSet {
	if endpoint := a.cfg.Reconcile.SourceEndpoint; endpoint != "" {
		client := httpsource.New(endpoint, httpsource.WithBearerToken(a.cfg.Reconcile.SourceToken))
		return compliance.SourceSet{Training: client, Registration: client, TwoFactor: client, Identity: client}
	}
	a.logger.Warn("no credential source endpoint configured, synchronizers read an empty static source")
	src := static.New()
	return compliance.SourceSet{Training: src, Registration: src, TwoFactor: src, Identity: src}
}

// newRetrier gives each source its own limiter and breaker so one slow
// source cannot starve the others.
func (a *app) newRetrier(source accessmodels.EvaluatorKey) *compliance.Retrier {
	rc := a.cfg.Reconcile
	policy := compliance.DefaultRetryPolicy()
	if rc.RetryMaxWait > 0 {
		policy.MaxElapsed = rc.RetryMaxWait
	}
	if rc.RetryAttempts > 0 {
		policy.MaxAttempts = rc.RetryAttempts
	}
	var limiter *rate.Limiter
	if rc.SourceRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(rc.SourceRPS), max(rc.SourceBurst, 1))
	}
	var opts []compliance.RetrierOption
	if rc.BreakerThreshold > 0 {
		opts = append(opts, compliance.WithBreaker(circuit.New(string(source),
			circuit.WithFailureThreshold(rc.BreakerThreshold),
			circuit.WithCooldown(rc.BreakerCooldown),
		)))
	}
	return compliance.NewRetrier(policy, limiter, opts...)
}

// runEvery calls fn every interval until ctx ends. A non-positive interval
// disables the loop.
func runEvery(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (a *app) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
