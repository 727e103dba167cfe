package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context these steps need.
type TestContext interface {
	GET(path string, authenticated bool) error
	POST(path string, body any, authenticated bool) error
	StatusCode() int
	ResponseField(field string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the fiscal task service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I GET "([^"]*)" without authentication$`, steps.getUnauthenticated)
	ctx.Step(`^I POST to "([^"]*)" without authentication$`, steps.postUnauthenticated)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz", false); err != nil {
		return err
	}
	if s.tc.StatusCode() != 200 {
		return fmt.Errorf("service not healthy: status %d", s.tc.StatusCode())
	}
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, true)
}

func (s *commonSteps) getUnauthenticated(ctx context.Context, path string) error {
	return s.tc.GET(path, false)
}

func (s *commonSteps) postUnauthenticated(ctx context.Context, path string) error {
	return s.tc.POST(path, nil, false)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	if s.tc.StatusCode() != status {
		return fmt.Errorf("expected status %d, got %d", status, s.tc.StatusCode())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, field, expected string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	var got string
	switch val := v.(type) {
	case string:
		got = val
	case bool:
		got = strconv.FormatBool(val)
	case float64:
		got = strconv.FormatFloat(val, 'f', -1, 64)
	default:
		got = fmt.Sprint(val)
	}
	if got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) responseShouldContain(ctx context.Context, field string) error {
	_, err := s.tc.ResponseField(field)
	return err
}
