package settings

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

type TestContext interface {
	GET(path string, authenticated bool) error
	PUT(path string, body any, authenticated bool) error
	StatusCode() int
	ResponseField(field string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &settingsSteps{tc: tc}

	ctx.Step(`^I set the risk threshold to (\d+) days$`, steps.setRiskThreshold)
	ctx.Step(`^I set the risk threshold to (\d+) days with detection disabled$`, steps.setRiskThresholdDisabled)
	ctx.Step(`^I schedule auto-generation on day (\d+)$`, steps.scheduleAutoGeneration)
	ctx.Step(`^the risk threshold should be (\d+) days$`, steps.riskThresholdShouldBe)
}

type settingsSteps struct {
	tc TestContext
}

func (s *settingsSteps) setRiskThreshold(ctx context.Context, days int) error {
	return s.tc.PUT("/settings/risk", map[string]any{"threshold_days": days, "enabled": true}, true)
}

func (s *settingsSteps) setRiskThresholdDisabled(ctx context.Context, days int) error {
	return s.tc.PUT("/settings/risk", map[string]any{"threshold_days": days, "enabled": false}, true)
}

func (s *settingsSteps) scheduleAutoGeneration(ctx context.Context, day int) error {
	return s.tc.PUT("/settings/auto-generation", map[string]any{"enabled": true, "run_day": day}, true)
}

func (s *settingsSteps) riskThresholdShouldBe(ctx context.Context, days int) error {
	if err := s.tc.GET("/settings/risk", true); err != nil {
		return err
	}
	v, err := s.tc.ResponseField("threshold_days")
	if err != nil {
		return err
	}
	if n, ok := v.(float64); !ok || int(n) != days {
		return fmt.Errorf("expected threshold_days=%d, got %v", days, v)
	}
	return nil
}
