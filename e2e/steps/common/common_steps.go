package common

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context the generic steps use.
type TestContext interface {
	Request(method, path string, body any, admin bool) error
	Status() int
	Body() string
	Field(path string) (any, error)
	Remember(name, value string)
}

// RegisterSteps registers generic request and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is healthy$`, steps.serviceIsHealthy)
	ctx.Step(`^I (GET|POST|PUT|DELETE) "([^"]*)"$`, steps.request)
	ctx.Step(`^as admin I (GET|POST|PUT|DELETE) "([^"]*)"$`, steps.adminRequest)
	ctx.Step(`^as admin I (GET|POST|PUT|DELETE) "([^"]*)" with body:$`, steps.adminRequestWithBody)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, steps.rememberField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsHealthy(context.Context) error {
	if err := s.tc.Request(http.MethodGet, "/healthz", nil, false); err != nil {
		return err
	}
	return s.statusShouldBe(context.Background(), http.StatusOK)
}

func (s *commonSteps) request(_ context.Context, method, path string) error {
	return s.tc.Request(method, path, nil, false)
}

func (s *commonSteps) adminRequest(_ context.Context, method, path string) error {
	return s.tc.Request(method, path, nil, true)
}

func (s *commonSteps) adminRequestWithBody(_ context.Context, method, path string, doc *godog.DocString) error {
	var body any
	if err := json.Unmarshal([]byte(doc.Content), &body); err != nil {
		return fmt.Errorf("step body is not JSON: %w", err)
	}
	return s.tc.Request(method, path, body, true)
}

func (s *commonSteps) statusShouldBe(_ context.Context, status int) error {
	if s.tc.Status() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.Status(), s.tc.Body())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(_ context.Context, path, want string) error {
	got, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s to be %q, got %v", path, want, got)
	}
	return nil
}

func (s *commonSteps) rememberField(_ context.Context, path, name string) error {
	v, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	s.tc.Remember(name, fmt.Sprint(v))
	return nil
}
