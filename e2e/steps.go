package e2e

import (
	"github.com/cucumber/godog"

	"accessgate/e2e/steps/access"
	"accessgate/e2e/steps/common"
	"accessgate/e2e/steps/credits"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	access.RegisterSteps(ctx, tc)
	credits.RegisterSteps(ctx, tc)
}
