// Package generation creates one task per (taxpayer, obligation, period) that
// a taxpayer's active regimes require and its client's services cover.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"fiscaltask/internal/models"
	"fiscaltask/internal/platform/metrics"
	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/requestcontext"
)

const DefaultChunkSize = 500

var tracer = otel.Tracer("fiscaltask/internal/generation")

// Store is the data access the generation engine needs.
type Store interface {
	ListTaxpayers(ctx context.Context, scope *id.TaxpayerID) ([]models.Taxpayer, error)
	ListRegimeAssignments(ctx context.Context, taxpayerIDs []id.TaxpayerID) ([]models.RegimeAssignment, error)
	ListTaxpayerClients(ctx context.Context, taxpayerIDs []id.TaxpayerID) (map[id.TaxpayerID]id.ClientID, error)
	ListClientServices(ctx context.Context, clientIDs []id.ClientID) ([]models.ClientService, error)
	ListServiceCoverage(ctx context.Context) ([]models.ServiceCoverage, error)
	ListObligationRules(ctx context.Context, regimes []id.RegimeCode) ([]models.ObligationRule, error)
	ListTaskKeys(ctx context.Context, period models.Period, taxpayerIDs []id.TaxpayerID) ([]models.TaskKey, error)
	InsertTasks(ctx context.Context, tasks []models.Task) (int, error)
	CountTasks(ctx context.Context, period models.Period) ([]models.TaskCount, error)
	AppendSystemLog(ctx context.Context, entry models.SystemLogEntry) error
}

// Result reports a generation run. Errors lists every issue, including
// informational ones that do not affect Success.
type Result struct {
	Success      bool          `json:"success"`
	Period       string        `json:"period"`
	TasksCreated int           `json:"tasks_created"`
	Candidates   int           `json:"candidates"`
	Errors       []string      `json:"errors"`
	Issues       models.Issues `json:"-"`
}

type Service struct {
	store     Store
	chunkSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithChunkSize sets how many tasks go into one insert statement.
// Non-positive values keep the default.
func WithChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		chunkSize: DefaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate materializes the missing tasks of period ("YYYY-MM"), for every
// taxpayer or only taxpayerID when given. Read failures abort the run with an
// error; a failed insert chunk is reported in the result and later chunks
// still run.
func (s *Service) Generate(ctx context.Context, period string, taxpayerID *id.TaxpayerID) (*Result, error) {
	start := time.Now()
	p, err := models.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "generation.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("period", p.String()))

	result, err := s.generate(ctx, p, taxpayerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.observe("error", start)
		return nil, err
	}

	result.Success = !result.Issues.Failed()
	result.Errors = result.Issues.Strings()
	span.SetAttributes(attribute.Int("tasks_created", result.TasksCreated))

	s.writeSystemLog(ctx, p, taxpayerID, result)
	s.logger.InfoContext(ctx, "task generation finished",
		"period", p.String(),
		"tasks_created", result.TasksCreated,
		"candidates", result.Candidates,
		"issues", len(result.Issues),
		"success", result.Success,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if s.metrics != nil {
		s.metrics.AddTasksCreated(result.TasksCreated)
	}
	s.observe(outcome(result.Success, result.Issues), start)
	return result, nil
}

func (s *Service) generate(ctx context.Context, p models.Period, scope *id.TaxpayerID) (*Result, error) {
	result := &Result{Period: p.String()}

	idx, err := s.loadIndex(ctx, p, scope)
	if err != nil {
		return nil, err
	}
	if scope != nil && len(idx.taxpayers) == 0 {
		result.Issues.Add(models.IssueInformational, scope.String(), "taxpayer not found", nil)
		return result, nil
	}

	now := requestcontext.Now(ctx)
	var pending []models.Task
	for _, tp := range idx.taxpayers {
		regimes := idx.activeRegimes[tp.ID]
		if len(regimes) == 0 {
			continue
		}
		clientID, ok := idx.clientOf[tp.ID]
		if !ok {
			result.Issues.Add(models.IssueInformational, tp.TaxID, "taxpayer has no client association", nil)
			continue
		}
		covered := idx.coveredByClient[clientID]
		for _, regime := range regimes {
			for _, obligation := range idx.rulesByRegime[regime] {
				if !covered[obligation] {
					continue
				}
				key := models.TaskKey{TaxpayerID: tp.ID, ObligationID: obligation, Period: p}
				if idx.existing[key] {
					continue
				}
				idx.existing[key] = true
				pending = append(pending, models.NewTask(key, clientID, now))
			}
		}
	}
	result.Candidates = len(pending)

	for i := 0; i < len(pending); i += s.chunkSize {
		end := min(i+s.chunkSize, len(pending))
		n, err := s.store.InsertTasks(ctx, pending[i:end])
		if err != nil {
			subject := fmt.Sprintf("tasks %d-%d", i+1, end)
			result.Issues.Add(models.IssuePersistence, subject, "insert tasks", err)
			s.logger.ErrorContext(ctx, "task chunk insert failed", "period", p.String(), "chunk", subject, "error", err)
			continue
		}
		result.TasksCreated += n
	}
	return result, nil
}

func (s *Service) writeSystemLog(ctx context.Context, p models.Period, scope *id.TaxpayerID, result *Result) {
	meta := map[string]any{
		"period":        p.String(),
		"tasks_created": result.TasksCreated,
		"candidates":    result.Candidates,
		"success":       result.Success,
		"errors":        result.Errors,
	}
	if scope != nil {
		meta["taxpayer_id"] = scope.String()
	}
	entry := models.SystemLogEntry{
		Kind:      models.LogGeneration,
		Message:   fmt.Sprintf("generated %d tasks for %s", result.TasksCreated, p),
		Metadata:  meta,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.AppendSystemLog(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write generation system log", "error", err)
	}
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRun("generation", outcome, start)
	}
}

func outcome(success bool, issues models.Issues) string {
	switch {
	case !success:
		return "failed"
	case len(issues) > 0:
		return "partial"
	default:
		return "ok"
	}
}

func wrapLoad(err error, what string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, "load "+what)
}
