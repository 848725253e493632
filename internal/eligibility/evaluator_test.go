package eligibility

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/models"
	modulestore "accessgate/internal/access/store/module"
	tierstore "accessgate/internal/access/store/tier"
	"accessgate/internal/eligibility/metrics"
	instmodels "accessgate/internal/institution/models"
	"accessgate/internal/institution/matcher"
	inststore "accessgate/internal/institution/store"
	"accessgate/internal/platform/lock"
	usermodels "accessgate/internal/users/models"
	userstore "accessgate/internal/users/store"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	auditpublisher "accessgate/pkg/platform/audit/publisher"
	auditmemory "accessgate/pkg/platform/audit/store/memory"
	"accessgate/pkg/platform/sentinel"
	"accessgate/pkg/requestcontext"
)

type EvaluatorSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	users      *userstore.InMemory
	modules    *modulestore.InMemory
	tiers      *tierstore.InMemory
	insts      *inststore.InMemory
	auditStore *auditmemory.InMemoryStore
	metrics    *metrics.Metrics
	evaluator  *Evaluator
	userID     id.UserID
	instID     id.InstitutionID
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	s.now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.users = userstore.NewInMemory()
	s.modules = modulestore.NewInMemory()
	s.tiers = tierstore.NewInMemory()
	s.insts = inststore.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())

	cat := catalog.Default(
		catalog.WithCurrentCodeOfConductVersions(3),
		catalog.WithRenewalDays(models.ModuleComplianceTraining, 365),
	)
	s.evaluator = New(cat, s.modules, s.tiers, s.users, matcher.New(s.insts), lock.NewSharded(),
		WithAuditPublisher(auditpublisher.NewPublisher(s.auditStore)),
		WithMetrics(s.metrics),
	)

	s.userID = id.NewUserID()
	user, err := usermodels.NewUser(s.userID, "researcher@example.edu", false, s.now)
	s.Require().NoError(err)
	user.SignCodeOfConduct(3, s.now)
	s.Require().NoError(s.users.Create(s.ctx, user))

	inst, err := instmodels.NewInstitution(id.NewInstitutionID(), "Example", "Example University", false, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.insts.CreateInstitution(s.ctx, inst))
	s.instID = inst.ID
	req, err := instmodels.NewTierRequirement(inst.ID, catalog.TierRegistered, instmodels.RequirementDomainMatch, []string{"example.edu"}, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.insts.SaveRequirement(s.ctx, req))
	s.Require().NoError(s.insts.SetAffiliation(s.ctx, &instmodels.Affiliation{
		UserID: s.userID, InstitutionID: inst.ID, Role: "student", UpdatedAt: s.now,
	}))
}

func (s *EvaluatorSuite) complete(name models.ModuleName, at time.Time) {
	rec, err := s.modules.Get(s.ctx, s.userID, name)
	if err != nil {
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		rec = models.NewUserAccessModule(s.userID, name)
	}
	rec.CompletionTime = &at
	rec.Touch(s.now)
	s.Require().NoError(s.modules.Save(s.ctx, rec))
}

func (s *EvaluatorSuite) completeRegistered() {
	for _, name := range []models.ModuleName{
		models.ModuleTwoFactorAuth,
		models.ModuleComplianceTraining,
		models.ModuleCodeOfConduct,
		models.ModuleIdentity,
	} {
		s.complete(name, s.now.Add(-time.Hour))
	}
}

func (s *EvaluatorSuite) tier(name string) *models.UserAccessTier {
	rec, err := s.tiers.Get(s.ctx, s.userID, name)
	s.Require().NoError(err)
	return rec
}

func (s *EvaluatorSuite) events(action audit.AuditEvent) []audit.Event {
	events, err := s.auditStore.ListByAction(s.ctx, action)
	s.Require().NoError(err)
	return events
}

func (s *EvaluatorSuite) TestEvaluateAllGrantsSatisfiedTier() {
	s.completeRegistered()

	s.Require().NoError(s.evaluator.EvaluateAll(s.ctx, s.userID))

	registered := s.tier(catalog.TierRegistered)
	s.Equal(models.StatusEnabled, registered.Status)
	s.Require().NotNil(registered.FirstEnabledAt)
	s.True(registered.FirstEnabledAt.Equal(s.now))

	_, err := s.tiers.Get(s.ctx, s.userID, catalog.TierControlled)
	s.ErrorIs(err, sentinel.ErrNotFound, "a tier never granted needs no record")

	enabled := s.events(audit.EventTierEnabled)
	s.Require().Len(enabled, 1)
	s.Equal(catalog.TierRegistered, enabled[0].Subject)
	s.InDelta(1, testutil.ToFloat64(s.metrics.TierTransitions.WithLabelValues(catalog.TierRegistered, "ENABLED")), 0)
}

func (s *EvaluatorSuite) TestEvaluateAllIsIdempotent() {
	s.completeRegistered()
	s.Require().NoError(s.evaluator.EvaluateAll(s.ctx, s.userID))
	version := s.tier(catalog.TierRegistered).Version

	s.Require().NoError(s.evaluator.EvaluateAll(s.ctx, s.userID))

	s.Equal(version, s.tier(catalog.TierRegistered).Version)
	s.Len(s.events(audit.EventTierEnabled), 1)
}

func (s *EvaluatorSuite) TestDisablingUserRevokesTier() {
	s.completeRegistered()
	s.Require().NoError(s.evaluator.EvaluateAll(s.ctx, s.userID))
	firstEnabled := *s.tier(catalog.TierRegistered).FirstEnabledAt

	user, err := s.users.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	user.Disabled = true
	s.Require().NoError(s.users.Save(s.ctx, user))

	later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
	s.Require().NoError(s.evaluator.EvaluateAll(later, s.userID))

	registered := s.tier(catalog.TierRegistered)
	s.Equal(models.StatusDisabled, registered.Status)
	s.True(registered.FirstEnabledAt.Equal(firstEnabled))
	s.True(registered.LastUpdatedAt.Equal(s.now.Add(time.Hour)))

	disabled := s.events(audit.EventTierDisabled)
	s.Require().Len(disabled, 1)
	s.Equal(ReasonUserDisabled, disabled[0].Reason)
}

func (s *EvaluatorSuite) TestExpiredTrainingRevokesTier() {
	s.completeRegistered()
	s.Require().NoError(s.evaluator.EvaluateAll(s.ctx, s.userID))

	nextYear := requestcontext.WithTime(s.ctx, s.now.AddDate(1, 0, 0))
	s.Require().NoError(s.evaluator.EvaluateAll(nextYear, s.userID))

	s.Equal(models.StatusDisabled, s.tier(catalog.TierRegistered).Status)
	disabled := s.events(audit.EventTierDisabled)
	s.Require().Len(disabled, 1)
	s.Equal("module_unsatisfied:"+string(models.ModuleComplianceTraining), disabled[0].Reason)
}

func (s *EvaluatorSuite) TestOutdatedCodeOfConductVersionIsNotCompliant() {
	s.completeRegistered()
	user, err := s.users.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	user.SignCodeOfConduct(2, s.now)
	s.Require().NoError(s.users.Save(s.ctx, user))

	decision, err := s.evaluator.Evaluate(s.ctx, s.userID, catalog.TierRegistered)
	s.Require().NoError(err)
	s.False(decision.Eligible)
	s.Equal([]string{"module_unsatisfied:" + string(models.ModuleCodeOfConduct)}, decision.Reasons)
}

func (s *EvaluatorSuite) TestExplainReportsEveryReason() {
	s.completeRegistered()
	s.Require().NoError(s.evaluator.EvaluateAll(s.ctx, s.userID))

	statuses, err := s.evaluator.Explain(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(statuses, 2)

	s.Equal(catalog.TierRegistered, statuses[0].Tier)
	s.Equal(models.StatusEnabled, statuses[0].Status)
	s.True(statuses[0].Decision.Eligible)

	s.Equal(catalog.TierControlled, statuses[1].Tier)
	s.Equal(models.StatusDisabled, statuses[1].Status)
	s.Nil(statuses[1].LastUpdatedAt)
	s.Equal([]string{
		ReasonInstitutionIneligible,
		"module_unsatisfied:" + string(models.ModuleCTComplianceTraining),
		"module_unsatisfied:" + string(models.ModuleEraCommons),
	}, statuses[1].Decision.Reasons)
}

func (s *EvaluatorSuite) TestUnknownUser() {
	err := s.evaluator.EvaluateAll(s.ctx, id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EvaluatorSuite) TestUnknownTier() {
	_, err := s.evaluator.Evaluate(s.ctx, s.userID, "platinum")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EvaluatorSuite) TestListChangedSince() {
	s.completeRegistered()
	s.Require().NoError(s.evaluator.EvaluateAll(s.ctx, s.userID))

	changed, err := s.evaluator.ListChangedSince(s.ctx, s.now.Add(-time.Minute), 0)
	s.Require().NoError(err)
	s.Require().Len(changed, 1)
	s.Equal(catalog.TierRegistered, changed[0].Tier)

	changed, err = s.evaluator.ListChangedSince(s.ctx, s.now, 10)
	s.Require().NoError(err)
	s.Empty(changed)
}

// TestTierStatusGrid drives a two-module tier through every combination of
// module satisfaction, institutional eligibility and account state.
func (s *EvaluatorSuite) TestTierStatusGrid() {
	cat, err := catalog.New(catalog.DefaultModules(), []models.AccessTier{{
		ShortName:       catalog.TierRegistered,
		RequiredModules: []models.ModuleName{models.ModuleTwoFactorAuth, models.ModuleEraCommons},
	}})
	s.Require().NoError(err)
	evaluator := New(cat, s.modules, s.tiers, s.users, matcher.New(s.insts), lock.NewSharded())

	status := func(userID id.UserID) models.Status {
		rec, err := s.tiers.Get(s.ctx, userID, catalog.TierRegistered)
		if err != nil {
			s.Require().ErrorIs(err, sentinel.ErrNotFound)
			return models.StatusDisabled
		}
		return rec.Status
	}

	for _, twoFactor := range []bool{true, false} {
		for _, era := range []bool{true, false} {
			for _, eligible := range []bool{true, false} {
				for _, disabled := range []bool{true, false} {
					name := fmt.Sprintf("2fa=%t era=%t eligible=%t disabled=%t", twoFactor, era, eligible, disabled)
					s.Run(name, func() {
						userID := s.gridUser(eligible, disabled)
						if twoFactor {
							s.saveModule(userID, models.ModuleTwoFactorAuth, false)
						}
						if era {
							s.saveModule(userID, models.ModuleEraCommons, false)
						}

						s.Require().NoError(evaluator.EvaluateAll(s.ctx, userID))

						want := models.StatusDisabled
						if twoFactor && era && eligible && !disabled {
							want = models.StatusEnabled
						}
						s.Equal(want, status(userID))
					})
				}
			}
		}
	}

	s.Run("bypassed module never completed satisfies the tier", func() {
		userID := s.gridUser(true, false)
		s.saveModule(userID, models.ModuleTwoFactorAuth, false)
		s.saveModule(userID, models.ModuleEraCommons, true)

		s.Require().NoError(evaluator.EvaluateAll(s.ctx, userID))

		s.Equal(models.StatusEnabled, status(userID))
	})
}

// gridUser creates a user affiliated with the suite institution whose email
// matches its domain requirement iff eligible.
func (s *EvaluatorSuite) gridUser(eligible, disabled bool) id.UserID {
	userID := id.NewUserID()
	email := "grid@other.edu"
	if eligible {
		email = "grid@example.edu"
	}
	user, err := usermodels.NewUser(userID, email, false, s.now)
	s.Require().NoError(err)
	user.Disabled = disabled
	s.Require().NoError(s.users.Create(s.ctx, user))
	s.Require().NoError(s.insts.SetAffiliation(s.ctx, &instmodels.Affiliation{
		UserID: userID, InstitutionID: s.instID, Role: "student", UpdatedAt: s.now,
	}))
	return userID
}

func (s *EvaluatorSuite) saveModule(userID id.UserID, name models.ModuleName, bypass bool) {
	at := s.now.Add(-time.Hour)
	rec := models.NewUserAccessModule(userID, name)
	if bypass {
		rec.BypassTime = &at
	} else {
		rec.CompletionTime = &at
	}
	rec.Touch(s.now)
	s.Require().NoError(s.modules.Save(s.ctx, rec))
}
