package e2e

import (
	"github.com/cucumber/godog"

	"fiscaltask/e2e/steps/common"
	"fiscaltask/e2e/steps/engine"
	"fiscaltask/e2e/steps/settings"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	engine.RegisterSteps(ctx, tc)
	settings.RegisterSteps(ctx, tc)
}
