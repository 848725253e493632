package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	jwttoken "accessgate/internal/jwt_token"
	"accessgate/internal/platform/config"
	"accessgate/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	app    *app
	router http.Handler
	token  string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), cfg, logger, prometheus.NewRegistry())
	s.Require().NoError(err)
	s.T().Cleanup(a.Close)
	s.app = a
	s.router = newRouter(a)

	token, err := jwttoken.NewJWTService(cfg.Server.AdminJWTSecret, tokenIssuer).GenerateToken("ops@example.org", jwttoken.RoleAdmin, time.Minute)
	s.Require().NoError(err)
	s.token = token
}

func (s *RouterSuite) call(method, path string, body any, admin bool) (int, map[string]any) {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	if admin {
		testutil.WithBearer(req, s.token)
	}
	w := testutil.DoRequest(s.router, req)
	return w.Code, testutil.DecodeJSON(s.T(), w)
}

func (s *RouterSuite) tierStatus(userID, tier string) string {
	code, body := s.call(http.MethodGet, "/users/"+userID+"/tiers", nil, false)
	s.Require().Equal(http.StatusOK, code)
	for _, raw := range body["tiers"].([]any) {
		t := raw.(map[string]any)
		if t["tier"] == tier {
			return t["status"].(string)
		}
	}
	s.FailNow("tier missing", tier)
	return ""
}

func (s *RouterSuite) TestAdminRoutesRequireToken() {
	code, _ := s.call(http.MethodPost, "/admin/users", map[string]any{"contact_email": "a@example.org"}, false)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *RouterSuite) TestHealthAndMetrics() {
	code, body := s.call(http.MethodGet, "/healthz", nil, false)
	s.Equal(http.StatusOK, code)
	s.Equal("ok", body["status"])

	w := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "accessgate_http_requests_total")
}

// A DOMAIN_MATCH rule on example.org enables a@example.org and disables the
// same user once their address moves to other.org.
func (s *RouterSuite) TestDomainMatchScenario() {
	code, user := s.call(http.MethodPost, "/admin/users", map[string]any{"contact_email": "a@example.org"}, true)
	s.Require().Equal(http.StatusCreated, code)
	userID := user["id"].(string)

	code, inst := s.call(http.MethodPost, "/admin/institutions", map[string]any{
		"short_name":   "Example",
		"display_name": "Example University",
	}, true)
	s.Require().Equal(http.StatusCreated, code)
	instID := inst["id"].(string)

	code, _ = s.call(http.MethodPut, "/admin/institutions/"+instID+"/tiers/registered", map[string]any{
		"kind":    "DOMAIN_MATCH",
		"domains": []string{"example.org"},
	}, true)
	s.Require().Equal(http.StatusOK, code)

	code, _ = s.call(http.MethodPut, "/admin/users/"+userID+"/affiliation", map[string]any{
		"institution_id": instID,
		"role":           "researcher",
	}, true)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("DISABLED", s.tierStatus(userID, "registered"), "modules are not yet satisfied")

	code, _ = s.call(http.MethodPut, "/admin/users/"+userID+"/modules/bypass", map[string]any{"bypassed": true}, true)
	s.Require().Equal(http.StatusNoContent, code)
	s.Equal("ENABLED", s.tierStatus(userID, "registered"))
	s.Equal("DISABLED", s.tierStatus(userID, "controlled"), "no controlled tier rule for the institution")

	code, _ = s.call(http.MethodPut, "/users/"+userID+"/contact-email", map[string]any{"contact_email": "a@other.org"}, false)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("DISABLED", s.tierStatus(userID, "registered"))

	code, changes := s.call(http.MethodGet, "/tiers/changes?since=2000-01-01T00:00:00Z", nil, false)
	s.Require().Equal(http.StatusOK, code)
	s.NotEmpty(changes["changes"])
}

func (s *RouterSuite) TestDisablingRevokesImmediately() {
	code, user := s.call(http.MethodPost, "/admin/users", map[string]any{"contact_email": "b@example.org"}, true)
	s.Require().Equal(http.StatusCreated, code)
	userID := user["id"].(string)
	_, inst := s.call(http.MethodPost, "/admin/institutions", map[string]any{"short_name": "Ex2"}, true)
	instID := inst["id"].(string)
	s.call(http.MethodPut, "/admin/institutions/"+instID+"/tiers/registered", map[string]any{"kind": "DOMAIN_MATCH", "domains": []string{"example.org"}}, true)
	s.call(http.MethodPut, "/admin/users/"+userID+"/affiliation", map[string]any{"institution_id": instID, "role": "student"}, true)
	s.call(http.MethodPut, "/admin/users/"+userID+"/modules/bypass", map[string]any{"bypassed": true}, true)
	s.Require().Equal("ENABLED", s.tierStatus(userID, "registered"))

	code, _ = s.call(http.MethodPut, "/admin/users/"+userID+"/disabled", map[string]any{"disabled": true}, true)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("DISABLED", s.tierStatus(userID, "registered"))
}

func (s *RouterSuite) TestInitialCreditsLifecycle() {
	_, user := s.call(http.MethodPost, "/admin/users", map[string]any{"contact_email": "c@example.org"}, true)
	userID := user["id"].(string)

	code, _ := s.call(http.MethodPost, "/users/"+userID+"/credits/extend", nil, false)
	s.Equal(http.StatusConflict, code)

	code, grant := s.call(http.MethodPost, "/users/"+userID+"/credits", nil, false)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(0.0, grant["extension_count"])

	code, _ = s.call(http.MethodPost, "/users/"+userID+"/credits/extend", nil, false)
	s.Require().Equal(http.StatusOK, code)

	code, body := s.call(http.MethodPost, "/users/"+userID+"/credits/extend", nil, false)
	s.Equal(http.StatusConflict, code)
	s.Equal("initial credits expiration already extended", body["error_description"])

	code, view := s.call(http.MethodGet, "/users/"+userID+"/credits", nil, false)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(1.0, view["extension_count"])
	s.Equal(false, view["expired"])
}

func (s *RouterSuite) TestProfileConfirmationCompletesModule() {
	_, user := s.call(http.MethodPost, "/admin/users", map[string]any{"contact_email": "d@example.org"}, true)
	userID := user["id"].(string)
	compliance := "/users/" + userID + "/modules/PROFILE_CONFIRMATION/compliance"

	code, body := s.call(http.MethodGet, compliance, nil, false)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(false, body["compliant"])

	code, rec := s.call(http.MethodPost, "/users/"+userID+"/profile-confirmation", nil, false)
	s.Require().Equal(http.StatusOK, code)
	s.NotEmpty(rec["completion_time"])

	code, body = s.call(http.MethodGet, compliance, nil, false)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(true, body["compliant"])
}

// Narrowing an institution's rule takes effect for already-affiliated users
// without waiting for reconciliation.
func (s *RouterSuite) TestTierRequirementChangeAppliesImmediately() {
	_, user := s.call(http.MethodPost, "/admin/users", map[string]any{"contact_email": "e@example.org"}, true)
	userID := user["id"].(string)
	_, inst := s.call(http.MethodPost, "/admin/institutions", map[string]any{"short_name": "Ex3"}, true)
	instID := inst["id"].(string)
	rule := "/admin/institutions/" + instID + "/tiers/registered"
	s.call(http.MethodPut, rule, map[string]any{"kind": "DOMAIN_MATCH", "domains": []string{"example.org"}}, true)
	s.call(http.MethodPut, "/admin/users/"+userID+"/affiliation", map[string]any{"institution_id": instID, "role": "student"}, true)
	s.call(http.MethodPut, "/admin/users/"+userID+"/modules/bypass", map[string]any{"bypassed": true}, true)
	s.Require().Equal("ENABLED", s.tierStatus(userID, "registered"))

	code, _ := s.call(http.MethodPut, rule, map[string]any{"kind": "DOMAIN_MATCH", "domains": []string{"elsewhere.org"}}, true)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("DISABLED", s.tierStatus(userID, "registered"))

	code, _ = s.call(http.MethodPut, rule, map[string]any{"kind": "ADDRESS_LIST_MATCH", "addresses": []string{"e@example.org"}}, true)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("ENABLED", s.tierStatus(userID, "registered"))
}
