package access

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context the access steps use.
type TestContext interface {
	Request(method, path string, body any, admin bool) error
	Status() int
	Body() string
	Field(path string) (any, error)
	Remember(name, value string)
	Recall(name string) string
}

// RegisterSteps registers user, institution and tier steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &accessSteps{tc: tc}

	ctx.Step(`^a user registered with contact email "([^"]*)"$`, steps.registerUser)
	ctx.Step(`^an institution "([^"]*)" requiring domain "([^"]*)" for tier "([^"]*)"$`, steps.institutionWithDomainRule)
	ctx.Step(`^the user is affiliated with "([^"]*)" as "([^"]*)"$`, steps.affiliate)
	ctx.Step(`^all modules are bypassed for the user$`, steps.bypassAll)
	ctx.Step(`^the user changes their contact email to "([^"]*)"$`, steps.changeEmail)
	ctx.Step(`^the user is disabled$`, steps.disableUser)
	ctx.Step(`^tier "([^"]*)" should be "([^"]*)" for the user$`, steps.tierShouldBe)
}

type accessSteps struct {
	tc TestContext
}

func (s *accessSteps) expect(status int) error {
	if s.tc.Status() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.Status(), s.tc.Body())
	}
	return nil
}

func (s *accessSteps) registerUser(_ context.Context, email string) error {
	if err := s.tc.Request(http.MethodPost, "/admin/users", map[string]any{"contact_email": email}, true); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	userID, err := s.tc.Field("id")
	if err != nil {
		return err
	}
	s.tc.Remember("user", fmt.Sprint(userID))
	return nil
}

func (s *accessSteps) institutionWithDomainRule(_ context.Context, name, domain, tier string) error {
	// Short names are unique server-wide, so each run gets its own.
	shortName := fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	if err := s.tc.Request(http.MethodPost, "/admin/institutions", map[string]any{"short_name": shortName}, true); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	instID, err := s.tc.Field("id")
	if err != nil {
		return err
	}
	s.tc.Remember("institution:"+name, fmt.Sprint(instID))

	path := fmt.Sprintf("/admin/institutions/%v/tiers/%s", instID, tier)
	if err := s.tc.Request(http.MethodPut, path, map[string]any{
		"kind":    "DOMAIN_MATCH",
		"domains": []string{domain},
	}, true); err != nil {
		return err
	}
	return s.expect(http.StatusOK)
}

func (s *accessSteps) affiliate(_ context.Context, name, role string) error {
	instID := s.tc.Recall("institution:" + name)
	if instID == "" {
		return fmt.Errorf("unknown institution %q", name)
	}
	if err := s.tc.Request(http.MethodPut, "/admin/users/{user}/affiliation", map[string]any{
		"institution_id": instID,
		"role":           role,
	}, true); err != nil {
		return err
	}
	return s.expect(http.StatusOK)
}

func (s *accessSteps) bypassAll(context.Context) error {
	if err := s.tc.Request(http.MethodPut, "/admin/users/{user}/modules/bypass", map[string]any{"bypassed": true}, true); err != nil {
		return err
	}
	return s.expect(http.StatusNoContent)
}

func (s *accessSteps) changeEmail(_ context.Context, email string) error {
	if err := s.tc.Request(http.MethodPut, "/users/{user}/contact-email", map[string]any{"contact_email": email}, false); err != nil {
		return err
	}
	return s.expect(http.StatusOK)
}

func (s *accessSteps) disableUser(context.Context) error {
	if err := s.tc.Request(http.MethodPut, "/admin/users/{user}/disabled", map[string]any{"disabled": true}, true); err != nil {
		return err
	}
	return s.expect(http.StatusOK)
}

func (s *accessSteps) tierShouldBe(_ context.Context, tier, want string) error {
	if err := s.tc.Request(http.MethodGet, "/users/{user}/tiers", nil, false); err != nil {
		return err
	}
	if err := s.expect(http.StatusOK); err != nil {
		return err
	}
	tiers, err := s.tc.Field("tiers")
	if err != nil {
		return err
	}
	list, _ := tiers.([]any)
	for _, raw := range list {
		t, _ := raw.(map[string]any)
		if t["tier"] != tier {
			continue
		}
		if t["status"] != want {
			return fmt.Errorf("tier %s is %v, want %s", tier, t["status"], want)
		}
		return nil
	}
	return fmt.Errorf("tier %s missing from %s", tier, s.tc.Body())
}
