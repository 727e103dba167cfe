package engine

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

type TestContext interface {
	POST(path string, body any, authenticated bool) error
	StatusCode() int
	ResponseField(field string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &engineSteps{tc: tc}

	ctx.Step(`^I generate tasks for period "([^"]*)"$`, steps.generate)
	ctx.Step(`^I generate tasks for period "([^"]*)" again$`, steps.generate)
	ctx.Step(`^I run the risk sweep$`, steps.riskSweep)
	ctx.Step(`^I run the absence sweep$`, steps.absenceSweep)
	ctx.Step(`^I reassign the tasks of collaborator "([^"]*)"$`, steps.reassign)
	ctx.Step(`^the run should succeed$`, steps.runShouldSucceed)
	ctx.Step(`^the run should report no errors$`, steps.runShouldReportNoErrors)
	ctx.Step(`^"([^"]*)" should be (\d+)$`, steps.countShouldBe)
}

type engineSteps struct {
	tc TestContext
}

func (s *engineSteps) generate(ctx context.Context, period string) error {
	return s.tc.POST("/engine/generate", map[string]any{"period": period}, true)
}

func (s *engineSteps) riskSweep(ctx context.Context) error {
	return s.tc.POST("/engine/risk/sweep", nil, true)
}

func (s *engineSteps) absenceSweep(ctx context.Context) error {
	return s.tc.POST("/engine/absences/sweep", nil, true)
}

func (s *engineSteps) reassign(ctx context.Context, collaboratorID string) error {
	return s.tc.POST("/engine/reassign", map[string]any{"collaborator_id": collaboratorID}, true)
}

func (s *engineSteps) runShouldSucceed(ctx context.Context) error {
	if s.tc.StatusCode() != 200 {
		return fmt.Errorf("expected status 200, got %d", s.tc.StatusCode())
	}
	success, err := s.tc.ResponseField("success")
	if err != nil {
		return err
	}
	if success != true {
		return fmt.Errorf("expected success=true, got %v", success)
	}
	return nil
}

func (s *engineSteps) runShouldReportNoErrors(ctx context.Context) error {
	v, err := s.tc.ResponseField("errors")
	if err != nil {
		return err
	}
	errs, ok := v.([]any)
	if !ok {
		return fmt.Errorf("errors is not a list: %v", v)
	}
	if len(errs) > 0 {
		return fmt.Errorf("expected no errors, got %v", errs)
	}
	return nil
}

func (s *engineSteps) countShouldBe(ctx context.Context, field string, expected int) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok {
		return fmt.Errorf("%s is not a number: %v", field, v)
	}
	if int(n) != expected {
		return fmt.Errorf("expected %s=%d, got %d", field, expected, int(n))
	}
	return nil
}
