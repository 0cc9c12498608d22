package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	StatusCode() int
	Body() []byte
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers response assertion steps shared by every feature
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error reason should be "([^"]*)"$`, steps.reasonShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.boolFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.stringFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (\d+)$`, steps.numberFieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.StatusCode(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.Body())
	}
	return nil
}

func (s *commonSteps) reasonShouldBe(ctx context.Context, want string) error {
	return s.stringFieldShouldBe(ctx, "reason", want)
}

func (s *commonSteps) boolFieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, ok := v.(bool)
	if !ok || fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s=%s, got %v", field, want, v)
	}
	return nil
}

func (s *commonSteps) stringFieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got, ok := v.(string); !ok || got != want {
		return fmt.Errorf("expected %s=%q, got %v", field, want, v)
	}
	return nil
}

func (s *commonSteps) numberFieldShouldBe(ctx context.Context, field string, want int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got, ok := v.(float64); !ok || int(got) != want {
		return fmt.Errorf("expected %s=%d, got %v", field, want, v)
	}
	return nil
}
