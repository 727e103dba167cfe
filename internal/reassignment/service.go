// Package reassignment moves an absent collaborator's open tasks to a
// resolved successor, recording one audit event per moved task.
package reassignment

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
	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/platform/sentinel"
	"fiscaltask/pkg/requestcontext"
)

var tracer = otel.Tracer("fiscaltask/internal/reassignment")

// errTaskMoved means the guarded update matched no row: the task changed
// owner or state after it was listed.
var errTaskMoved = errors.New("task no longer open or owned by the collaborator")

// Store is the data access the reassignment engine needs.
type Store interface {
	GetCollaborator(ctx context.Context, userID id.UserID) (*models.Collaborator, error)
	ListOpenTasksByOwner(ctx context.Context, owner id.UserID, states []models.State) ([]models.OpenTask, error)
	ListActiveMemberships(ctx context.Context, userID id.UserID) ([]models.TeamMembership, error)
	ListActiveLeaders(ctx context.Context, teamID id.TeamID) ([]models.TeamMembership, error)
	ListActiveAbsences(ctx context.Context, day time.Time) ([]models.Absence, error)
	ReassignTask(ctx context.Context, taskID id.TaskID, from, to id.UserID, states []models.State, now time.Time) (bool, error)
	InsertTaskEvents(ctx context.Context, events []models.TaskEvent) error
	AppendSystemLog(ctx context.Context, entry models.SystemLogEntry) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Detail describes one moved task.
type Detail struct {
	TaskID         string `json:"task_id"`
	ClientName     string `json:"client_name"`
	ObligationName string `json:"obligation_name"`
	NewOwner       string `json:"new_owner"`
}

// Result reports the reassignment of one collaborator.
type Result struct {
	Success        bool          `json:"success"`
	CollaboratorID string        `json:"collaborator_id"`
	SuccessorID    string        `json:"successor_id,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	Reassigned     int           `json:"reassigned"`
	Errors         []string      `json:"errors"`
	Details        []Detail      `json:"details"`
	Issues         models.Issues `json:"-"`
}

// SweepResult reports a sweep over today's absences.
type SweepResult struct {
	Success           bool          `json:"success"`
	AbsencesProcessed int           `json:"absences_processed"`
	TotalReassigned   int           `json:"total_reassigned"`
	Errors            []string      `json:"errors"`
	Issues            models.Issues `json:"-"`
}

type Service struct {
	store   Store
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

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reassign moves every open task owned by collaboratorID to substituteID, or
// to the collaborator's team leader when no substitute is given. No task is
// touched unless a successor resolves.
func (s *Service) Reassign(ctx context.Context, collaboratorID id.UserID, substituteID *id.UserID) (*Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "reassignment.Reassign")
	defer span.End()
	span.SetAttributes(attribute.String("collaborator_id", collaboratorID.String()))

	result, err := s.reassign(ctx, collaboratorID, substituteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reassignment failed")
		s.observe("error", start)
		return nil, err
	}
	result.Success = !result.Issues.Failed()
	result.Errors = result.Issues.Strings()
	span.SetAttributes(attribute.Int("reassigned", result.Reassigned))

	s.logger.InfoContext(ctx, "reassignment finished",
		"collaborator_id", collaboratorID.String(),
		"successor_id", result.SuccessorID,
		"reason", result.Reason,
		"reassigned", result.Reassigned,
		"issues", len(result.Issues),
		"success", result.Success,
	)
	if s.metrics != nil {
		s.metrics.AddTasksReassigned(result.Reassigned)
	}
	s.observe(outcome(result), start)
	return result, nil
}

func (s *Service) reassign(ctx context.Context, collaboratorID id.UserID, substituteID *id.UserID) (*Result, error) {
	result := &Result{CollaboratorID: collaboratorID.String(), Details: []Detail{}}
	subject := collaboratorID.String()

	collaborator, err := s.store.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			result.Issues.Add(models.IssuePrecondition, subject, "collaborator not found", nil)
			return result, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load collaborator")
	}

	openStates := models.OpenStates()
	tasks, err := s.store.ListOpenTasksByOwner(ctx, collaboratorID, openStates)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load open tasks")
	}
	if len(tasks) == 0 {
		result.Issues.Add(models.IssueInformational, collaborator.Name, "no open tasks to reassign", nil)
		return result, nil
	}

	successor, reason, issue, err := s.resolveSuccessor(ctx, collaborator, substituteID)
	if err != nil {
		return nil, err
	}
	if issue != nil {
		result.Issues = append(result.Issues, *issue)
		return result, nil
	}
	result.SuccessorID = successor.ID.String()
	result.Reason = string(reason)

	now := requestcontext.Now(ctx)
	for _, task := range tasks {
		err := s.store.RunInTx(ctx, func(ctx context.Context) error {
			changed, err := s.store.ReassignTask(ctx, task.ID, collaboratorID, successor.ID, openStates, now)
			if err != nil {
				return err
			}
			if !changed {
				return errTaskMoved
			}
			return s.store.InsertTaskEvents(ctx, []models.TaskEvent{
				reassignmentEvent(ctx, task.ID, collaborator, successor, reason, now),
			})
		})
		if errors.Is(err, errTaskMoved) {
			result.Issues.Add(models.IssueInformational, task.ID.String(), "skipped", err)
			continue
		}
		if err != nil {
			result.Issues.Add(models.IssueItemFailure, task.ID.String(), "reassign task", err)
			s.logger.ErrorContext(ctx, "task reassignment failed", "task_id", task.ID.String(), "error", err)
			continue
		}
		result.Reassigned++
		result.Details = append(result.Details, Detail{
			TaskID:         task.ID.String(),
			ClientName:     task.ClientName,
			ObligationName: task.ObligationName,
			NewOwner:       successor.Name,
		})
	}
	return result, nil
}

// resolveSuccessor applies the resolution order: explicit substitute, then
// the leader of the collaborator's single active team. A nil issue with a nil
// error means the successor resolved.
func (s *Service) resolveSuccessor(ctx context.Context, collaborator *models.Collaborator, substituteID *id.UserID) (*models.Collaborator, models.ReassignReason, *models.Issue, error) {
	precondition := func(msg string) *models.Issue {
		return &models.Issue{Kind: models.IssuePrecondition, Subject: collaborator.Name, Message: msg}
	}

	if substituteID != nil {
		if *substituteID == collaborator.ID {
			return nil, "", precondition("substitute cannot be the absent collaborator"), nil
		}
		sub, err := s.store.GetCollaborator(ctx, *substituteID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, "", precondition("substitute not found"), nil
			}
			return nil, "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "load substitute")
		}
		if !sub.Active {
			return nil, "", precondition(fmt.Sprintf("substitute %s is inactive", sub.Name)), nil
		}
		return sub, models.ReasonExplicitSubstitute, nil, nil
	}

	memberships, err := s.store.ListActiveMemberships(ctx, collaborator.ID)
	if err != nil {
		return nil, "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "load team memberships")
	}
	switch len(memberships) {
	case 0:
		return nil, "", precondition("no substitute given and collaborator has no active team"), nil
	case 1:
	default:
		return nil, "", precondition(fmt.Sprintf("collaborator belongs to %d active teams, team leader is ambiguous", len(memberships))), nil
	}

	leaders, err := s.store.ListActiveLeaders(ctx, memberships[0].TeamID)
	if err != nil {
		return nil, "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "load team leaders")
	}
	switch len(leaders) {
	case 0:
		return nil, "", precondition("collaborator's team has no active leader"), nil
	case 1:
	default:
		return nil, "", precondition(fmt.Sprintf("collaborator's team has %d active leaders", len(leaders))), nil
	}

	leaderID := leaders[0].UserID
	if leaderID == collaborator.ID {
		return nil, "", precondition("collaborator leads their own team, no fallback successor"), nil
	}
	leader, err := s.store.GetCollaborator(ctx, leaderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", precondition("team leader not found"), nil
		}
		return nil, "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "load team leader")
	}
	if !leader.Active {
		return nil, "", precondition(fmt.Sprintf("team leader %s is inactive", leader.Name)), nil
	}
	return leader, models.ReasonTeamLeaderFallback, nil, nil
}

func reassignmentEvent(ctx context.Context, taskID id.TaskID, from, to *models.Collaborator, reason models.ReassignReason, now time.Time) models.TaskEvent {
	e := models.TaskEvent{
		ID:     id.NewEventID(),
		TaskID: taskID,
		Type:   models.EventAutoReassignment,
		Before: map[string]any{"owner_id": from.ID.String()},
		After:  map[string]any{"owner_id": to.ID.String()},
		Metadata: map[string]any{
			"reason":              string(reason),
			"absent_collaborator": from.Name,
			"new_owner":           to.Name,
		},
		OccurredAt: now,
	}
	if actor := requestcontext.ActorID(ctx); !actor.IsNil() {
		e.ActorID = &actor
	}
	return e
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRun("reassignment", outcome, start)
	}
}

func outcome(r *Result) string {
	switch {
	case !r.Success:
		return "failed"
	case len(r.Issues) > 0:
		return "partial"
	default:
		return "ok"
	}
}
