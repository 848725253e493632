package credits

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context the credits steps use.
type TestContext interface {
	Request(method, path string, body any, admin bool) error
	Status() int
	Body() string
	Field(path string) (any, error)
}

// RegisterSteps registers initial-credit grant steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &creditsSteps{tc: tc}

	ctx.Step(`^initial credits are granted to the user$`, steps.grant)
	ctx.Step(`^the user requests an extension$`, steps.extend)
	ctx.Step(`^the user's initial credits should have (\d+) extensions?$`, steps.extensionCount)
}

type creditsSteps struct {
	tc TestContext
}

func (s *creditsSteps) grant(context.Context) error {
	if err := s.tc.Request(http.MethodPost, "/users/{user}/credits", nil, false); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("grant failed with %d: %s", s.tc.Status(), s.tc.Body())
	}
	return nil
}

// extend leaves the response for the following assertions.
func (s *creditsSteps) extend(context.Context) error {
	return s.tc.Request(http.MethodPost, "/users/{user}/credits/extend", nil, false)
}

func (s *creditsSteps) extensionCount(_ context.Context, want int) error {
	if err := s.tc.Request(http.MethodGet, "/users/{user}/credits", nil, false); err != nil {
		return err
	}
	got, err := s.tc.Field("extension_count")
	if err != nil {
		return err
	}
	if n, _ := got.(float64); int(n) != want {
		return fmt.Errorf("expected %d extensions, got %v", want, got)
	}
	return nil
}
