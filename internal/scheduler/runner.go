// Package scheduler runs the engines on a timer: monthly auto-generation on
// the configured day and the absence and risk sweeps once per calendar day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fiscaltask/internal/generation"
	"fiscaltask/internal/models"
	"fiscaltask/internal/platform/metrics"
	"fiscaltask/internal/reassignment"
	"fiscaltask/internal/risk"
	"fiscaltask/internal/settings"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/requestcontext"
)

const (
	DefaultInterval = 15 * time.Minute

	// maxLoggedErrors caps the error list stored in a system log entry.
	maxLoggedErrors = 10
)

const (
	JobGeneration   = "generation"
	JobAbsenceSweep = "absence_sweep"
	JobRiskSweep    = "risk_sweep"
)

type Generator interface {
	Generate(ctx context.Context, period string, taxpayerID *id.TaxpayerID) (*generation.Result, error)
}

type AbsenceSweeper interface {
	SweepActiveAbsences(ctx context.Context) (*reassignment.SweepResult, error)
}

type RiskSweeper interface {
	Sweep(ctx context.Context) (*risk.SweepResult, error)
}

// Settings is the auto-generation configuration the runner reads and marks.
type Settings interface {
	AutoGeneration(ctx context.Context) (settings.AutoGenerationConfig, error)
	MarkGenerated(ctx context.Context, period models.Period) error
}

type SystemLog interface {
	AppendSystemLog(ctx context.Context, entry models.SystemLogEntry) error
}

// TickReport records what one tick did. A nil result means the job did not run.
type TickReport struct {
	GenerationSkipped string
	Generation        *generation.Result
	AbsenceSweep      *reassignment.SweepResult
	RiskSweep         *risk.SweepResult
}

type Runner struct {
	generator Generator
	absences  AbsenceSweeper
	risk      RiskSweeper
	settings  Settings
	syslog    SystemLog
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu  sync.Mutex
	ran map[string]string // job -> last calendar day it completed
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

func New(generator Generator, absences AbsenceSweeper, riskSweeper RiskSweeper, cfg Settings, syslog SystemLog, opts ...Option) *Runner {
	r := &Runner{
		generator: generator,
		absences:  absences,
		risk:      riskSweeper,
		settings:  cfg,
		syslog:    syslog,
		interval:  DefaultInterval,
		logger:    slog.Default(),
		ran:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ticks immediately and then every interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "scheduler started", "interval", r.interval.String())
	r.Tick(ctx, time.Now())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler stopped")
			return nil
		case t := <-ticker.C:
			r.Tick(ctx, t)
		}
	}
}

// Tick runs every job that is due at now. Each job runs at most once per
// calendar day; a job that returned an error is retried on the next tick.
func (r *Runner) Tick(ctx context.Context, now time.Time) *TickReport {
	now = now.UTC()
	ctx = requestcontext.WithTime(ctx, now)
	report := &TickReport{}

	if r.due(JobGeneration, now) {
		report.Generation, report.GenerationSkipped = r.runGeneration(ctx, now)
	}
	if r.due(JobAbsenceSweep, now) {
		res, err := r.absences.SweepActiveAbsences(ctx)
		r.finish(ctx, JobAbsenceSweep, now, err, res != nil && res.Success)
		report.AbsenceSweep = res
	}
	if r.due(JobRiskSweep, now) {
		res, err := r.risk.Sweep(ctx)
		r.finish(ctx, JobRiskSweep, now, err, res != nil && res.Success)
		report.RiskSweep = res
	}
	return report
}

func (r *Runner) runGeneration(ctx context.Context, now time.Time) (*generation.Result, string) {
	cfg, err := r.settings.AutoGeneration(ctx)
	if err != nil {
		r.finish(ctx, JobGeneration, now, err, false)
		return nil, ""
	}

	period := models.PeriodOf(now)
	var skip string
	switch {
	case !cfg.Enabled:
		skip = "auto-generation disabled"
	case now.Day() != cfg.RunDay:
		skip = fmt.Sprintf("today is day %d, generation runs on day %d", now.Day(), cfg.RunDay)
	case cfg.LastGeneratedPeriod == period.String():
		skip = fmt.Sprintf("period %s already generated", period)
	}
	if skip != "" {
		r.markRan(JobGeneration, now)
		r.count(JobGeneration, "skipped")
		r.logger.DebugContext(ctx, "scheduled generation skipped", "reason", skip)
		return nil, skip
	}

	result, err := r.generator.Generate(ctx, period.String(), nil)
	if err != nil {
		r.finish(ctx, JobGeneration, now, err, false)
		return nil, ""
	}
	if result.TasksCreated > 0 || len(result.Issues) == 0 {
		if err := r.settings.MarkGenerated(ctx, period); err != nil {
			r.logger.ErrorContext(ctx, "failed to mark period generated", "period", period.String(), "error", err)
		}
	}
	r.appendLog(ctx, period, result)
	r.finish(ctx, JobGeneration, now, nil, result.Success)
	return result, ""
}

func (r *Runner) appendLog(ctx context.Context, period models.Period, result *generation.Result) {
	msg := fmt.Sprintf("scheduled generation completed: %d tasks for %s", result.TasksCreated, period)
	if !result.Success {
		msg = fmt.Sprintf("scheduled generation finished with %d errors for %s", len(result.Errors), period)
	}
	errs := result.Errors
	if len(errs) > maxLoggedErrors {
		errs = errs[:maxLoggedErrors]
	}
	entry := models.SystemLogEntry{
		Kind:    models.LogScheduledGeneration,
		Message: msg,
		Metadata: map[string]any{
			"period":        period.String(),
			"tasks_created": result.TasksCreated,
			"errors":        errs,
		},
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := r.syslog.AppendSystemLog(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "failed to write scheduled generation system log", "error", err)
	}
}

func (r *Runner) due(job string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ran[job] != dayKey(now)
}

func (r *Runner) markRan(job string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran[job] = dayKey(now)
}

func (r *Runner) finish(ctx context.Context, job string, now time.Time, err error, success bool) {
	if err != nil {
		r.count(job, "error")
		r.logger.ErrorContext(ctx, "scheduled job failed", "job", job, "error", err)
		return
	}
	r.markRan(job, now)
	if success {
		r.count(job, "ok")
	} else {
		r.count(job, "failed")
	}
}

func (r *Runner) count(job, outcome string) {
	if r.metrics != nil {
		r.metrics.IncrementSchedulerJob(job, outcome)
	}
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
