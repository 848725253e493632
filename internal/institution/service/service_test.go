package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"accessgate/internal/access/catalog"
	"accessgate/internal/institution/matcher"
	"accessgate/internal/institution/models"
	"accessgate/internal/institution/store"
	"accessgate/internal/platform/lock"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/audit"
	auditpublisher "accessgate/pkg/platform/audit/publisher"
	auditmemory "accessgate/pkg/platform/audit/store/memory"
	"accessgate/pkg/requestcontext"
)

type countingEvaluator struct{ users []id.UserID }

func (c *countingEvaluator) EvaluateAll(_ context.Context, userID id.UserID) error {
	c.users = append(c.users, userID)
	return nil
}

type InstitutionServiceSuite struct {
	suite.Suite
	store     *store.InMemory
	evaluator *countingEvaluator
	audit     *auditmemory.InMemoryStore
	service   *Service
	ctx       context.Context
}

func TestInstitutionServiceSuite(t *testing.T) {
	suite.Run(t, new(InstitutionServiceSuite))
}

func (s *InstitutionServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.evaluator = &countingEvaluator{}
	s.audit = auditmemory.NewInMemoryStore()
	s.service = New(s.store, catalog.Default(), matcher.New(s.store), lock.NewSharded(),
		WithReevaluator(s.evaluator),
		WithAuditPublisher(auditpublisher.NewPublisher(s.audit)),
	)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)), "req-1")
}

func (s *InstitutionServiceSuite) TestCreateInstitution() {
	inst, err := s.service.CreateInstitution(s.ctx, "broad", "Broad Institute", true)
	s.Require().NoError(err)
	s.True(inst.BypassCreditsExpiration)

	events, err := s.audit.ListByAction(s.ctx, audit.EventInstitutionCreated)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("broad", events[0].Subject)
	s.True(events[0].UserID.IsNil())

	_, err = s.service.CreateInstitution(s.ctx, "BROAD", "dup", false)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.CreateInstitution(s.ctx, " ", "", false)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *InstitutionServiceSuite) TestSetTierRequirement() {
	inst, err := s.service.CreateInstitution(s.ctx, "vumc", "", false)
	s.Require().NoError(err)

	req, err := s.service.SetTierRequirement(s.ctx, inst.ID, catalog.TierRegistered, models.RequirementDomainMatch, []string{"@VUMC.org"}, nil)
	s.Require().NoError(err)
	s.Equal([]string{"vumc.org"}, req.Domains)

	_, err = s.service.SetTierRequirement(s.ctx, inst.ID, "gold", models.RequirementDomainMatch, []string{"vumc.org"}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.SetTierRequirement(s.ctx, inst.ID, catalog.TierRegistered, "REGEX", nil, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.SetTierRequirement(s.ctx, id.NewInstitutionID(), catalog.TierRegistered, models.RequirementDomainMatch, []string{"x.org"}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *InstitutionServiceSuite) TestTierRequirementChangeReevaluatesAffiliatedUsers() {
	changed, err := s.service.CreateInstitution(s.ctx, "changed", "", false)
	s.Require().NoError(err)
	untouched, err := s.service.CreateInstitution(s.ctx, "untouched", "", false)
	s.Require().NoError(err)
	first, second, other := id.NewUserID(), id.NewUserID(), id.NewUserID()
	for userID, instID := range map[id.UserID]id.InstitutionID{first: changed.ID, second: changed.ID, other: untouched.ID} {
		_, err := s.service.SetAffiliation(s.ctx, userID, instID, "staff")
		s.Require().NoError(err)
	}
	s.evaluator.users = nil

	_, err = s.service.SetTierRequirement(s.ctx, changed.ID, catalog.TierRegistered, models.RequirementDomainMatch, []string{"changed.org"}, nil)
	s.Require().NoError(err)

	s.ElementsMatch([]id.UserID{first, second}, s.evaluator.users)
}

func (s *InstitutionServiceSuite) TestAffiliationLifecycle() {
	first, err := s.service.CreateInstitution(s.ctx, "first", "", false)
	s.Require().NoError(err)
	second, err := s.service.CreateInstitution(s.ctx, "second", "", true)
	s.Require().NoError(err)
	userID := id.NewUserID()

	_, err = s.service.SetAffiliation(s.ctx, userID, first.ID, "student")
	s.Require().NoError(err)
	_, err = s.service.SetAffiliation(s.ctx, userID, second.ID, "faculty")
	s.Require().NoError(err)
	s.Len(s.evaluator.users, 2)

	aff, err := s.service.GetAffiliation(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(second.ID, aff.InstitutionID, "second write replaces the first")
	s.Equal("faculty", aff.Role)

	events, err := s.audit.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventAffiliationChanged), events[1].Action)
	s.Equal(second.ID.String(), events[1].Subject)
	s.Equal("req-1", events[1].RequestID)

	bypass, err := s.service.BypassesCreditsExpiration(s.ctx, userID)
	s.Require().NoError(err)
	s.True(bypass)

	s.Run("delete refused while affiliated", func() {
		err := s.service.DeleteInstitution(s.ctx, second.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("delete succeeds once unused", func() {
		s.Require().NoError(s.service.DeleteInstitution(s.ctx, first.ID))
		_, err := s.service.GetInstitution(s.ctx, first.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("requires role and known institution", func() {
		_, err := s.service.SetAffiliation(s.ctx, userID, second.ID, " ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.SetAffiliation(s.ctx, userID, id.NewInstitutionID(), "x")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("no affiliation", func() {
		_, err := s.service.GetAffiliation(s.ctx, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		bypass, err := s.service.BypassesCreditsExpiration(s.ctx, id.NewUserID())
		s.Require().NoError(err)
		s.False(bypass)
	})
}

func (s *InstitutionServiceSuite) TestValidateAffiliation() {
	inst, err := s.service.CreateInstitution(s.ctx, "example", "", false)
	s.Require().NoError(err)
	_, err = s.service.SetTierRequirement(s.ctx, inst.ID, catalog.TierRegistered, models.RequirementDomainMatch, []string{"example.org"}, nil)
	s.Require().NoError(err)

	res, err := s.service.ValidateAffiliation(s.ctx, "a@example.org", inst.ID, catalog.TierRegistered)
	s.Require().NoError(err)
	s.True(res.Eligible)

	res, err = s.service.ValidateAffiliation(s.ctx, "a@other.org", inst.ID, catalog.TierRegistered)
	s.Require().NoError(err)
	s.False(res.Eligible)
}
