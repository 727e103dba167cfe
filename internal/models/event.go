package models

import (
	"time"

	id "fiscaltask/pkg/domain"
)

type EventType string

const (
	EventAutoReassignment EventType = "auto_reassignment"
	EventRiskFlagged      EventType = "risk_flagged"
	EventRiskCleared      EventType = "risk_cleared"
	EventRiskOverride     EventType = "risk_override"
)

// ReassignReason records how the new owner was chosen.
type ReassignReason string

const (
	ReasonExplicitSubstitute ReassignReason = "explicit_substitute"
	ReasonTeamLeaderFallback ReassignReason = "team_leader_fallback"
)

// TaskEvent is an append-only audit record of a task mutation. Before and
// After hold the mutated field's previous and new values.
type TaskEvent struct {
	ID          id.EventID
	TaskID      id.TaskID
	Type        EventType
	ActorID     *id.UserID
	Before      map[string]any
	After       map[string]any
	Metadata    map[string]any
	OccurredAt  time.Time
	PublishedAt *time.Time
}

type SystemLogKind string

const (
	LogGeneration          SystemLogKind = "generation"
	LogRiskSweep           SystemLogKind = "risk_sweep"
	LogAbsenceSweep        SystemLogKind = "absence_sweep"
	LogScheduledGeneration SystemLogKind = "scheduled_generation"
)

// SystemLogEntry is a run-level summary row.
type SystemLogEntry struct {
	Kind      SystemLogKind
	Message   string
	Metadata  map[string]any
	CreatedAt time.Time
}
