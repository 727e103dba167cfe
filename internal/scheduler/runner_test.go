package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fiscaltask/internal/generation"
	"fiscaltask/internal/models"
	"fiscaltask/internal/reassignment"
	"fiscaltask/internal/risk"
	"fiscaltask/internal/settings"
	"fiscaltask/internal/store/memory"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/requestcontext"
)

type fakeGenerator struct {
	calls   []string
	result  *generation.Result
	err     error
	sawTime time.Time
}

func (g *fakeGenerator) Generate(ctx context.Context, period string, _ *id.TaxpayerID) (*generation.Result, error) {
	g.calls = append(g.calls, period)
	g.sawTime = requestcontext.Now(ctx)
	if g.err != nil {
		return nil, g.err
	}
	res := *g.result
	res.Period = period
	return &res, nil
}

type fakeAbsences struct {
	calls int
	err   error
}

func (a *fakeAbsences) SweepActiveAbsences(context.Context) (*reassignment.SweepResult, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return &reassignment.SweepResult{Success: true}, nil
}

type fakeRisk struct {
	calls int
}

func (r *fakeRisk) Sweep(context.Context) (*risk.SweepResult, error) {
	r.calls++
	return &risk.SweepResult{Success: true, Flagged: 2}, nil
}

type RunnerSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	settings  *settings.Service
	generator *fakeGenerator
	absences  *fakeAbsences
	risk      *fakeRisk
	runner    *Runner
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
	s.store = memory.New()
	s.settings = settings.New(s.store, settings.WithLogger(logger))
	s.generator = &fakeGenerator{result: &generation.Result{Success: true, TasksCreated: 4, Errors: []string{}}}
	s.absences = &fakeAbsences{}
	s.risk = &fakeRisk{}
	s.runner = New(s.generator, s.absences, s.risk, s.settings, s.store, WithLogger(logger))
}

func (s *RunnerSuite) enableGeneration(runDay int) {
	_, err := s.settings.UpdateAutoGeneration(s.ctx, true, runDay)
	s.Require().NoError(err)
}

func (s *RunnerSuite) TestGenerationRunsOnConfiguredDay() {
	s.enableGeneration(5)
	day := time.Date(2025, 4, 5, 6, 0, 0, 0, time.UTC)

	report := s.runner.Tick(s.ctx, day)

	s.Require().NotNil(report.Generation)
	s.Equal([]string{"2025-04"}, s.generator.calls)
	s.Equal(day, s.generator.sawTime)

	cfg, err := s.settings.AutoGeneration(s.ctx)
	s.Require().NoError(err)
	s.Equal("2025-04", cfg.LastGeneratedPeriod)

	logs, err := s.store.ListSystemLog(s.ctx, models.LogScheduledGeneration, 5)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal("scheduled generation completed: 4 tasks for 2025-04", logs[0].Message)
}

func (s *RunnerSuite) TestGenerationSkips() {
	s.Run("disabled", func() {
		s.SetupTest()
		report := s.runner.Tick(s.ctx, time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC))
		s.Nil(report.Generation)
		s.Equal("auto-generation disabled", report.GenerationSkipped)
		s.Empty(s.generator.calls)
	})

	s.Run("wrong day", func() {
		s.SetupTest()
		s.enableGeneration(5)
		report := s.runner.Tick(s.ctx, time.Date(2025, 4, 6, 6, 0, 0, 0, time.UTC))
		s.Equal("today is day 6, generation runs on day 5", report.GenerationSkipped)
		s.Empty(s.generator.calls)
	})

	s.Run("period already generated", func() {
		s.SetupTest()
		s.enableGeneration(5)
		s.Require().NoError(s.settings.MarkGenerated(s.ctx, models.Period{Year: 2025, Month: time.April}))
		report := s.runner.Tick(s.ctx, time.Date(2025, 4, 5, 6, 0, 0, 0, time.UTC))
		s.Equal("period 2025-04 already generated", report.GenerationSkipped)
		s.Empty(s.generator.calls)
	})
}

func (s *RunnerSuite) TestFailedGenerationDoesNotMarkPeriod() {
	s.enableGeneration(5)
	s.generator.result = &generation.Result{Success: false, Errors: []string{"chunk 1: insert tasks: boom"}}
	s.generator.result.Issues.Add(models.IssuePersistence, "chunk 1", "insert tasks", errors.New("boom"))

	report := s.runner.Tick(s.ctx, time.Date(2025, 4, 5, 6, 0, 0, 0, time.UTC))
	s.Require().NotNil(report.Generation)

	cfg, err := s.settings.AutoGeneration(s.ctx)
	s.Require().NoError(err)
	s.Empty(cfg.LastGeneratedPeriod)

	logs, err := s.store.ListSystemLog(s.ctx, models.LogScheduledGeneration, 5)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal("scheduled generation finished with 1 errors for 2025-04", logs[0].Message)
}

func (s *RunnerSuite) TestJobsRunOncePerDay() {
	s.enableGeneration(5)
	morning := time.Date(2025, 4, 5, 6, 0, 0, 0, time.UTC)

	s.runner.Tick(s.ctx, morning)
	second := s.runner.Tick(s.ctx, morning.Add(3*time.Hour))

	s.Len(s.generator.calls, 1)
	s.Equal(1, s.absences.calls)
	s.Equal(1, s.risk.calls)
	s.Nil(second.Generation)
	s.Nil(second.AbsenceSweep)
	s.Nil(second.RiskSweep)

	next := s.runner.Tick(s.ctx, morning.Add(24*time.Hour))
	s.Equal(2, s.absences.calls)
	s.Equal(2, s.risk.calls)
	s.Require().NotNil(next.RiskSweep)
	s.Equal(2, next.RiskSweep.Flagged)
	s.Equal("today is day 6, generation runs on day 5", next.GenerationSkipped)
}

func (s *RunnerSuite) TestErroredJobRetriesNextTick() {
	s.absences.err = errors.New("connection refused")
	day := time.Date(2025, 4, 9, 6, 0, 0, 0, time.UTC)

	first := s.runner.Tick(s.ctx, day)
	s.Nil(first.AbsenceSweep)
	s.Equal(1, s.absences.calls)

	s.absences.err = nil
	second := s.runner.Tick(s.ctx, day.Add(time.Hour))
	s.Require().NotNil(second.AbsenceSweep)
	s.Equal(2, s.absences.calls)
	s.Equal(1, s.risk.calls)
}

func (s *RunnerSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	runner := New(s.generator, s.absences, s.risk, s.settings, s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithInterval(time.Hour),
	)
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	s.Eventually(func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return runner.ran[JobRiskSweep] != ""
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("runner did not stop")
	}
}
