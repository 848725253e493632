package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"accessgate/internal/institution/metrics"
	"accessgate/internal/institution/models"
	"accessgate/internal/institution/store"
	id "accessgate/pkg/domain"
)

// skewedStore lets tests inject affiliation rows the real stores would
// never produce.
type skewedStore struct {
	*store.InMemory
	affiliations []models.Affiliation
	listErr      error
}

func (s *skewedStore) ListAffiliations(ctx context.Context, userID id.UserID) ([]models.Affiliation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if s.affiliations != nil {
		return s.affiliations, nil
	}
	return s.InMemory.ListAffiliations(ctx, userID)
}

type MatcherSuite struct {
	suite.Suite
	store   *skewedStore
	metrics *metrics.Metrics
	matcher *Matcher
	ctx     context.Context
	inst    *models.Institution
	userID  id.UserID
}

func TestMatcherSuite(t *testing.T) {
	suite.Run(t, new(MatcherSuite))
}

func (s *MatcherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = &skewedStore{InMemory: store.NewInMemory()}
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.matcher = New(s.store, WithMetrics(s.metrics))

	inst, err := models.NewInstitution(id.NewInstitutionID(), "example", "Example University", false, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateInstitution(s.ctx, inst))
	s.inst = inst

	domainReq, err := models.NewTierRequirement(inst.ID, "registered", models.RequirementDomainMatch, []string{"example.org"}, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveRequirement(s.ctx, domainReq))

	addressReq, err := models.NewTierRequirement(inst.ID, "controlled", models.RequirementAddressListMatch, nil, []string{"pi@example.org"})
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveRequirement(s.ctx, addressReq))

	s.userID = id.NewUserID()
	s.Require().NoError(s.store.SetAffiliation(s.ctx, &models.Affiliation{
		UserID: s.userID, InstitutionID: inst.ID, Role: "researcher", UpdatedAt: time.Now(),
	}))
}

func (s *MatcherSuite) TestDomainMatch() {
	res, err := s.matcher.Match(s.ctx, s.userID, "a@example.org", "registered")
	s.Require().NoError(err)
	s.True(res.Eligible)
	s.Equal(s.inst.ID, res.InstitutionID)

	res, err = s.matcher.Match(s.ctx, s.userID, "A@EXAMPLE.ORG", "registered")
	s.Require().NoError(err)
	s.True(res.Eligible, "comparison ignores case")

	res, err = s.matcher.Match(s.ctx, s.userID, "a@other.org", "registered")
	s.Require().NoError(err)
	s.False(res.Eligible)
	s.Equal(ReasonDomainNotAllowed, res.Reason)

	res, err = s.matcher.Match(s.ctx, s.userID, "a@sub.example.org", "registered")
	s.Require().NoError(err)
	s.False(res.Eligible, "subdomains are not implied")
}

func (s *MatcherSuite) TestAddressListMatch() {
	res, err := s.matcher.Match(s.ctx, s.userID, "PI@example.org", "controlled")
	s.Require().NoError(err)
	s.True(res.Eligible)

	res, err = s.matcher.Match(s.ctx, s.userID, "student@example.org", "controlled")
	s.Require().NoError(err)
	s.Equal(ReasonAddressNotAllowed, res.Reason)
}

func (s *MatcherSuite) TestIneligibleOutcomes() {
	s.Run("no affiliation", func() {
		res, err := s.matcher.Match(s.ctx, id.NewUserID(), "a@example.org", "registered")
		s.Require().NoError(err)
		s.Equal(ReasonNoAffiliation, res.Reason)
	})

	s.Run("missing tier requirement", func() {
		res, err := s.matcher.Match(s.ctx, s.userID, "a@example.org", "unknown-tier")
		s.Require().NoError(err)
		s.Equal(ReasonNoTierRequirement, res.Reason)
	})

	s.Run("unparseable email", func() {
		res, err := s.matcher.Match(s.ctx, s.userID, "Someone <a@example.org>", "registered")
		s.Require().NoError(err)
		s.Equal(ReasonInvalidEmail, res.Reason)
	})
}

func (s *MatcherSuite) TestDataInconsistencies() {
	s.Run("multiple affiliations", func() {
		s.store.affiliations = []models.Affiliation{
			{UserID: s.userID, InstitutionID: s.inst.ID},
			{UserID: s.userID, InstitutionID: id.NewInstitutionID()},
		}
		defer func() { s.store.affiliations = nil }()

		res, err := s.matcher.Match(s.ctx, s.userID, "a@example.org", "registered")
		s.Require().NoError(err)
		s.False(res.Eligible)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.DataInconsistencies.WithLabelValues(metrics.KindMultipleAffiliations)))
	})

	s.Run("dangling institution", func() {
		s.store.affiliations = []models.Affiliation{{UserID: s.userID, InstitutionID: id.NewInstitutionID()}}
		defer func() { s.store.affiliations = nil }()

		res, err := s.matcher.Match(s.ctx, s.userID, "a@example.org", "registered")
		s.Require().NoError(err)
		s.Equal(ReasonInstitutionMissing, res.Reason)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.DataInconsistencies.WithLabelValues(metrics.KindMissingInstitution)))
	})
}

func (s *MatcherSuite) TestStoreFailureIsAnError() {
	s.store.listErr = errors.New("connection refused")
	_, err := s.matcher.Match(s.ctx, s.userID, "a@example.org", "registered")
	s.Error(err)
}

func (s *MatcherSuite) TestValidate() {
	res, err := s.matcher.Validate(s.ctx, "a@example.org", s.inst.ID, "registered")
	s.Require().NoError(err)
	s.True(res.Eligible)

	res, err = s.matcher.Validate(s.ctx, "a@example.org", id.NewInstitutionID(), "registered")
	s.Require().NoError(err)
	s.Equal(ReasonNoTierRequirement, res.Reason)
}
