package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/metrics"
	"accessgate/internal/access/models"
	modulestore "accessgate/internal/access/store/module"
	"accessgate/internal/platform/lock"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	auditpublisher "accessgate/pkg/platform/audit/publisher"
	auditmemory "accessgate/pkg/platform/audit/store/memory"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

type recordingEvaluator struct {
	mu    sync.Mutex
	calls []id.UserID
	err   error
}

func (r *recordingEvaluator) EvaluateAll(_ context.Context, userID id.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userID)
	return r.err
}

func (r *recordingEvaluator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type staticAgreements map[id.UserID]int

func (a staticAgreements) SignedCodeOfConductVersion(_ context.Context, userID id.UserID) (*int, error) {
	v, ok := a[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

// conflictingStore fails the first n saves with a version conflict.
type conflictingStore struct {
	*modulestore.InMemory
	failures int
}

func (c *conflictingStore) Save(ctx context.Context, m *models.UserAccessModule) error {
	if c.failures > 0 {
		c.failures--
		return sentinel.ErrConflict
	}
	return c.InMemory.Save(ctx, m)
}

type ServiceSuite struct {
	suite.Suite
	store      *modulestore.InMemory
	auditStore *auditmemory.InMemoryStore
	evaluator  *recordingEvaluator
	agreements staticAgreements
	metrics    *metrics.Metrics
	service    *Service
	userID     id.UserID
	now        time.Time
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = modulestore.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.evaluator = &recordingEvaluator{}
	s.agreements = staticAgreements{}
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(
		catalog.Default(
			catalog.WithRenewalDays(models.ModuleComplianceTraining, 365),
			catalog.WithCurrentCodeOfConductVersions(4),
		),
		s.store,
		lock.NewSharded(),
		WithReevaluator(s.evaluator),
		WithAgreements(s.agreements),
		WithAuditPublisher(auditpublisher.NewPublisher(s.auditStore)),
		WithMetrics(s.metrics),
	)
	s.userID = id.NewUserID()
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) stored(module models.ModuleName) *models.UserAccessModule {
	rec, err := s.store.Get(s.ctx, s.userID, module)
	s.Require().NoError(err)
	return rec
}

func (s *ServiceSuite) TestMarkCompletedIsMonotonic() {
	first := s.now.Add(-time.Hour)
	changed, err := s.service.MarkCompleted(s.ctx, s.userID, models.ModuleTwoFactorAuth, first)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.service.MarkCompleted(s.ctx, s.userID, models.ModuleTwoFactorAuth, s.now)
	s.Require().NoError(err)
	s.False(changed)

	rec := s.stored(models.ModuleTwoFactorAuth)
	s.Equal(first, *rec.CompletionTime)
	s.Equal(models.StatusEnabled, rec.Status)
	s.Equal(1, s.evaluator.count(), "no-op writes do not re-evaluate")
}

func (s *ServiceSuite) TestClearCompletionKeepsBypass() {
	_, err := s.service.RecordCredential(s.ctx, s.userID, models.ModuleEraCommons,
		Credential{Name: "researcher1"}, s.now, false)
	s.Require().NoError(err)
	s.Require().NoError(s.service.SetBypass(s.ctx, s.userID, models.ModuleEraCommons, true))

	cleared, err := s.service.ClearCompletion(s.ctx, s.userID, models.ModuleEraCommons)
	s.Require().NoError(err)
	s.True(cleared)

	rec := s.stored(models.ModuleEraCommons)
	s.Nil(rec.CompletionTime)
	s.Empty(rec.CredentialName)
	s.NotNil(rec.BypassTime)
	s.True(rec.IsSatisfied())
}

func (s *ServiceSuite) TestRecordCredential() {
	expires := s.now.AddDate(1, 0, 0)
	first := s.now.Add(-24 * time.Hour)

	s.Run("first verification completes and records metadata", func() {
		rec, err := s.service.RecordCredential(s.ctx, s.userID, models.ModuleComplianceTraining,
			Credential{Name: "RT 2026", ExpiresAt: &expires}, first, false)
		s.Require().NoError(err)
		s.Equal(first, *rec.CompletionTime)
		s.Equal("RT 2026", rec.CredentialName)
	})

	s.Run("re-verification refreshes metadata but keeps completion", func() {
		later := expires.AddDate(1, 0, 0)
		rec, err := s.service.RecordCredential(s.ctx, s.userID, models.ModuleComplianceTraining,
			Credential{Name: "RT 2027", ExpiresAt: &later}, s.now, false)
		s.Require().NoError(err)
		s.Equal(first, *rec.CompletionTime)
		s.Equal("RT 2027", rec.CredentialName)
	})

	s.Run("reset moves completion", func() {
		rec, err := s.service.RecordCredential(s.ctx, s.userID, models.ModuleComplianceTraining,
			Credential{Name: "RT 2027"}, s.now, true)
		s.Require().NoError(err)
		s.Equal(s.now, *rec.CompletionTime)
	})
}

func (s *ServiceSuite) TestSetBypass() {
	s.Run("cascades RAS login to identity", func() {
		s.Require().NoError(s.service.SetBypass(s.ctx, s.userID, models.ModuleRasLoginGov, true))
		s.NotNil(s.stored(models.ModuleRasLoginGov).BypassTime)
		s.NotNil(s.stored(models.ModuleIdentity).BypassTime)

		s.Require().NoError(s.service.SetBypass(s.ctx, s.userID, models.ModuleRasLoginGov, false))
		s.Nil(s.stored(models.ModuleIdentity).BypassTime)
	})

	s.Run("does not touch completion", func() {
		_, err := s.service.MarkCompleted(s.ctx, s.userID, models.ModuleTwoFactorAuth, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.service.SetBypass(s.ctx, s.userID, models.ModuleTwoFactorAuth, true))
		s.Require().NoError(s.service.SetBypass(s.ctx, s.userID, models.ModuleTwoFactorAuth, false))
		s.Equal(s.now, *s.stored(models.ModuleTwoFactorAuth).CompletionTime)
	})

	s.Run("rejects non-bypassable module", func() {
		err := s.service.SetBypass(s.ctx, s.userID, models.ModuleProfileConfirmation, true)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects unknown module", func() {
		err := s.service.SetBypass(s.ctx, s.userID, models.ModuleName("NOPE"), true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("records actor in audit trail", func() {
		ctx := requestcontext.WithActorID(s.ctx, "admin-1")
		s.Require().NoError(s.service.SetBypass(ctx, s.userID, models.ModuleEraCommons, true))
		events, err := s.auditStore.ListByAction(s.ctx, audit.EventModuleBypassed)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		last := events[len(events)-1]
		s.Equal("admin-1", last.ActorID)
		s.Equal(string(models.ModuleEraCommons), last.Subject)
	})
}

func (s *ServiceSuite) TestBypassAllSkipsNonBypassable() {
	s.Require().NoError(s.service.BypassAll(s.ctx, s.userID, true))

	list, err := s.store.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	for _, rec := range list {
		s.NotNil(rec.BypassTime, rec.Module)
	}
	_, err = s.store.Get(s.ctx, s.userID, models.ModuleProfileConfirmation)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestConflictRetries() {
	s.Run("retries and succeeds", func() {
		store := &conflictingStore{InMemory: modulestore.NewInMemory(), failures: 2}
		svc := New(catalog.Default(), store, lock.NewSharded(), WithMetrics(s.metrics))
		_, err := svc.MarkCompleted(s.ctx, s.userID, models.ModuleTwoFactorAuth, s.now)
		s.Require().NoError(err)
		s.Equal(2.0, testutil.ToFloat64(s.metrics.ModuleUpdates.WithLabelValues(string(models.ModuleTwoFactorAuth), metrics.ChangeConflict)))
	})

	s.Run("gives up after repeated conflicts", func() {
		store := &conflictingStore{InMemory: modulestore.NewInMemory(), failures: maxConflictRetries}
		svc := New(catalog.Default(), store, lock.NewSharded())
		_, err := svc.MarkCompleted(s.ctx, s.userID, models.ModuleTwoFactorAuth, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestReevaluationFailureDoesNotFailWrite() {
	s.evaluator.err = errors.New("tier store down")
	changed, err := s.service.MarkCompleted(s.ctx, s.userID, models.ModuleTwoFactorAuth, s.now)
	s.Require().NoError(err)
	s.True(changed)
}

func (s *ServiceSuite) TestListModuleStatusesAndCompliance() {
	_, err := s.service.MarkCompleted(s.ctx, s.userID, models.ModuleComplianceTraining, s.now.AddDate(-1, 0, -1))
	s.Require().NoError(err)
	_, err = s.service.MarkCompleted(s.ctx, s.userID, models.ModuleCodeOfConduct, s.now)
	s.Require().NoError(err)

	list, err := s.service.ListModuleStatuses(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Len(list, len(catalog.DefaultModules()))

	byName := map[models.ModuleName]models.ModuleCompliance{}
	for _, c := range list {
		byName[c.Module.Name] = c
	}
	s.True(byName[models.ModuleComplianceTraining].Expired)
	s.False(byName[models.ModuleComplianceTraining].Compliant)
	s.False(byName[models.ModuleCodeOfConduct].Compliant, "no signed version")
	s.False(byName[models.ModuleTwoFactorAuth].Satisfied)

	s.agreements[s.userID] = 4
	ok, err := s.service.IsCompliant(s.ctx, s.userID, models.ModuleCodeOfConduct)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.service.IsCompliant(s.ctx, s.userID, models.ModuleTwoFactorAuth)
	s.Require().NoError(err)
	s.False(ok)
}
