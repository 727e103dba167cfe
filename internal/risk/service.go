// Package risk flags submitted tasks whose payment receipt is overdue and
// clears the flag once the receipt arrives.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"fiscaltask/internal/models"
	"fiscaltask/internal/platform/metrics"
	"fiscaltask/internal/settings"
	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/platform/sentinel"
	"fiscaltask/pkg/requestcontext"
)

var tracer = otel.Tracer("fiscaltask/internal/risk")

// Store is the data access the risk engine needs.
type Store interface {
	GetTask(ctx context.Context, taskID id.TaskID) (*models.Task, error)
	ListSubmittedTasks(ctx context.Context) ([]models.SubmittedTask, error)
	ListTasksWithDocument(ctx context.Context, taskIDs []id.TaskID, docType models.DocumentType) ([]id.TaskID, error)
	SetAtRisk(ctx context.Context, taskIDs []id.TaskID, atRisk bool, now time.Time) ([]id.TaskID, error)
	ListAtRiskTasks(ctx context.Context) ([]models.AtRiskTask, error)
	CountAtRiskByClient(ctx context.Context) ([]models.ClientRiskCount, error)
	InsertTaskEvents(ctx context.Context, events []models.TaskEvent) error
	AppendSystemLog(ctx context.Context, entry models.SystemLogEntry) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ConfigSource supplies the current risk configuration.
type ConfigSource interface {
	Risk(ctx context.Context) (settings.RiskConfig, error)
}

// SweepResult reports one risk sweep.
type SweepResult struct {
	Success bool          `json:"success"`
	Flagged int           `json:"flagged"`
	Cleared int           `json:"cleared"`
	Errors  []string      `json:"errors"`
	Issues  models.Issues `json:"-"`
}

// AtRiskTask is a flagged task as reported to operators.
type AtRiskTask struct {
	TaskID         string    `json:"task_id"`
	ClientID       string    `json:"client_id"`
	ClientName     string    `json:"client_name"`
	TaxID          string    `json:"tax_id"`
	ObligationID   string    `json:"obligation_id"`
	ObligationName string    `json:"obligation_name"`
	Period         string    `json:"period"`
	StateEnteredAt time.Time `json:"state_entered_at"`
	ElapsedDays    int       `json:"elapsed_days"`
}

type Service struct {
	store   Store
	config  ConfigSource
	logger  *slog.Logger
	metrics *metrics.Metrics
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

func New(store Store, config ConfigSource, opts ...Option) *Service {
	s := &Service{
		store:  store,
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidate is a submitted task together with its evaluation.
type candidate struct {
	id       id.TaskID
	elapsed  int
	decision Decision
}

// Sweep evaluates every submitted task and applies flag and clear changes in
// two batches, each committed together with its events.
func (s *Service) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "risk.Sweep")
	defer span.End()

	result, err := s.sweep(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "risk sweep failed")
		s.observe("error", start)
		return nil, err
	}
	result.Success = !result.Issues.Failed()
	result.Errors = result.Issues.Strings()
	span.SetAttributes(
		attribute.Int("flagged", result.Flagged),
		attribute.Int("cleared", result.Cleared),
	)

	s.logger.InfoContext(ctx, "risk sweep finished",
		"flagged", result.Flagged,
		"cleared", result.Cleared,
		"issues", len(result.Issues),
		"success", result.Success,
	)
	if s.metrics != nil {
		s.metrics.AddRiskChanges(result.Flagged, result.Cleared)
	}
	s.observe(outcome(result), start)
	return result, nil
}

func (s *Service) sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	cfg, err := s.config.Risk(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load risk configuration")
	}
	if !cfg.Enabled {
		result.Issues.Add(models.IssueInformational, "risk detection", "disabled in configuration", nil)
		return result, nil
	}

	submitted, err := s.store.ListSubmittedTasks(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load submitted tasks")
	}
	if len(submitted) == 0 {
		s.appendLog(ctx, result, cfg)
		return result, nil
	}

	ids := make([]id.TaskID, 0, len(submitted))
	for _, t := range submitted {
		ids = append(ids, t.ID)
	}
	withReceipt, err := s.store.ListTasksWithDocument(ctx, ids, models.DocumentPaymentReceipt)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load payment receipts")
	}
	receipts := make(map[id.TaskID]bool, len(withReceipt))
	for _, tid := range withReceipt {
		receipts[tid] = true
	}

	now := requestcontext.Now(ctx)
	var flags, clears []candidate
	for _, t := range submitted {
		c := candidate{id: t.ID, elapsed: ElapsedDays(t.StateEnteredAt, now)}
		c.decision = Decide(receipts[t.ID], c.elapsed, cfg.ThresholdDays, t.AtRisk)
		switch c.decision {
		case Flag:
			flags = append(flags, c)
		case Clear:
			clears = append(clears, c)
		}
	}

	result.Flagged = s.apply(ctx, result, flags, true, cfg.ThresholdDays, now)
	result.Cleared = s.apply(ctx, result, clears, false, cfg.ThresholdDays, now)
	s.appendLog(ctx, result, cfg)
	return result, nil
}

// apply writes one batch and its events in a single transaction and returns
// the number of tasks that changed. A failed batch becomes a persistence
// issue and changes nothing.
func (s *Service) apply(ctx context.Context, result *SweepResult, batch []candidate, atRisk bool, threshold int, now time.Time) int {
	if len(batch) == 0 {
		return 0
	}
	ids := make([]id.TaskID, 0, len(batch))
	elapsed := make(map[id.TaskID]int, len(batch))
	for _, c := range batch {
		ids = append(ids, c.id)
		elapsed[c.id] = c.elapsed
	}

	var changed []id.TaskID
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.store.SetAtRisk(ctx, ids, atRisk, now)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		events := make([]models.TaskEvent, 0, len(changed))
		for _, tid := range changed {
			events = append(events, sweepEvent(tid, atRisk, elapsed[tid], threshold, now))
		}
		return s.store.InsertTaskEvents(ctx, events)
	})
	if err != nil {
		action := "clear"
		if atRisk {
			action = "flag"
		}
		result.Issues.Add(models.IssuePersistence, fmt.Sprintf("%d tasks", len(ids)), action+" tasks", err)
		s.logger.ErrorContext(ctx, "risk batch failed", "action", action, "tasks", len(ids), "error", err)
		return 0
	}
	return len(changed)
}

func sweepEvent(taskID id.TaskID, atRisk bool, elapsed, threshold int, now time.Time) models.TaskEvent {
	e := models.TaskEvent{
		ID:         id.NewEventID(),
		TaskID:     taskID,
		Before:     map[string]any{"at_risk": !atRisk},
		After:      map[string]any{"at_risk": atRisk},
		OccurredAt: now,
	}
	if atRisk {
		e.Type = models.EventRiskFlagged
		e.Metadata = map[string]any{"elapsed_days": elapsed, "threshold_days": threshold}
	} else {
		e.Type = models.EventRiskCleared
		e.Metadata = map[string]any{"document_type": string(models.DocumentPaymentReceipt)}
	}
	return e
}

func (s *Service) appendLog(ctx context.Context, result *SweepResult, cfg settings.RiskConfig) {
	entry := models.SystemLogEntry{
		Kind:    models.LogRiskSweep,
		Message: fmt.Sprintf("risk sweep: %d flagged, %d cleared", result.Flagged, result.Cleared),
		Metadata: map[string]any{
			"flagged":        result.Flagged,
			"cleared":        result.Cleared,
			"threshold_days": cfg.ThresholdDays,
		},
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.AppendSystemLog(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write risk sweep system log", "error", err)
	}
}

// ListAtRisk returns flagged submitted tasks, oldest submission first.
func (s *Service) ListAtRisk(ctx context.Context) ([]AtRiskTask, error) {
	tasks, err := s.store.ListAtRiskTasks(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list at-risk tasks")
	}
	now := requestcontext.Now(ctx)
	out := make([]AtRiskTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, AtRiskTask{
			TaskID:         t.TaskID.String(),
			ClientID:       t.ClientID.String(),
			ClientName:     t.ClientName,
			TaxID:          t.TaxID,
			ObligationID:   t.ObligationID.String(),
			ObligationName: t.ObligationName,
			Period:         t.Period.String(),
			StateEnteredAt: t.StateEnteredAt,
			ElapsedDays:    ElapsedDays(t.StateEnteredAt, now),
		})
	}
	return out, nil
}

// CountByClient returns at-risk task counts per client, highest first.
func (s *Service) CountByClient(ctx context.Context) ([]models.ClientRiskCount, error) {
	counts, err := s.store.CountAtRiskByClient(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count at-risk tasks by client")
	}
	return counts, nil
}

// Override sets or clears the flag on one task by hand. Setting the value a
// task already has is a no-op and records nothing.
func (s *Service) Override(ctx context.Context, taskID id.TaskID, atRisk bool) error {
	ctx, span := tracer.Start(ctx, "risk.Override")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", taskID.String()), attribute.Bool("at_risk", atRisk))

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "task not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load task")
	}
	if task.AtRisk == atRisk {
		return nil
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	var changed bool
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		ids, err := s.store.SetAtRisk(ctx, []id.TaskID{taskID}, atRisk, now)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		changed = true
		e := models.TaskEvent{
			ID:         id.NewEventID(),
			TaskID:     taskID,
			Type:       models.EventRiskOverride,
			Before:     map[string]any{"at_risk": !atRisk},
			After:      map[string]any{"at_risk": atRisk},
			Metadata:   map[string]any{"state": string(task.State)},
			OccurredAt: now,
		}
		if !actor.IsNil() {
			e.ActorID = &actor
		}
		return s.store.InsertTaskEvents(ctx, []models.TaskEvent{e})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "override failed")
		return dErrors.Wrap(err, dErrors.CodeInternal, "override risk flag")
	}
	if changed {
		s.logger.InfoContext(ctx, "risk flag overridden",
			"log_type", "audit",
			"task_id", taskID.String(),
			"actor_id", actor.String(),
			"at_risk", atRisk,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRun("risk", outcome, start)
	}
}

func outcome(r *SweepResult) string {
	switch {
	case !r.Success:
		return "failed"
	case len(r.Issues) > 0:
		return "partial"
	default:
		return "ok"
	}
}
