package models

import (
	"fmt"
	"time"

	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
)

// State is the lifecycle position of a compliance task.
type State string

const (
	StateNotStarted       State = "not_started"
	StatePending          State = "pending"
	StateInProgress       State = "in_progress"
	StateAwaitingEvidence State = "awaiting_evidence"
	StateInValidation     State = "in_validation"
	StateBlockedByClient  State = "blocked_by_client"
	StateSubmitted        State = "submitted"
	StatePaid             State = "paid"
	StateClosed           State = "closed"
	StateRejected         State = "rejected"
)

// orderedStates lists the forward lifecycle followed by the side state rejected.
var orderedStates = []State{
	StateNotStarted,
	StatePending,
	StateInProgress,
	StateAwaitingEvidence,
	StateInValidation,
	StateBlockedByClient,
	StateSubmitted,
	StatePaid,
	StateClosed,
	StateRejected,
}

// States returns every known state in lifecycle order.
func States() []State {
	out := make([]State, len(orderedStates))
	copy(out, orderedStates)
	return out
}

func ParseState(s string) (State, error) {
	for _, st := range orderedStates {
		if string(st) == s {
			return st, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown task state %q", s))
}

// IsOpen reports whether the task still has work left for its owner.
// Submitted tasks only wait on the client's payment.
func (s State) IsOpen() bool {
	switch s {
	case StateSubmitted, StatePaid, StateClosed:
		return false
	default:
		return true
	}
}

// OpenStates is the allow-list used when selecting reassignable tasks.
func OpenStates() []State {
	out := make([]State, 0, len(orderedStates))
	for _, st := range orderedStates {
		if st.IsOpen() {
			out = append(out, st)
		}
	}
	return out
}

// StateStrings converts states for array query parameters.
func StateStrings(states []State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// TaskKey identifies a task independently of its generated ID.
type TaskKey struct {
	TaxpayerID   id.TaxpayerID
	ObligationID id.ObligationID
	Period       Period
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.TaxpayerID, k.ObligationID, k.Period)
}

// Task is one obligation instance for a taxpayer and period.
type Task struct {
	ID             id.TaskID
	ClientID       id.ClientID
	TaxpayerID     id.TaxpayerID
	ObligationID   id.ObligationID
	FiscalYear     int
	Period         Period
	DueDate        time.Time
	State          State
	OwnerID        *id.UserID
	AtRisk         bool
	StateEnteredAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t Task) Key() TaskKey {
	return TaskKey{TaxpayerID: t.TaxpayerID, ObligationID: t.ObligationID, Period: t.Period}
}

// NewTask builds a freshly generated task in the initial state.
func NewTask(key TaskKey, clientID id.ClientID, now time.Time) Task {
	entered := now
	return Task{
		ID:             id.NewTaskID(),
		ClientID:       clientID,
		TaxpayerID:     key.TaxpayerID,
		ObligationID:   key.ObligationID,
		FiscalYear:     key.Period.Year,
		Period:         key.Period,
		DueDate:        key.Period.DueDate(),
		State:          StateNotStarted,
		StateEnteredAt: &entered,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// OpenTask is an open task joined with the display names used in
// reassignment reports.
type OpenTask struct {
	ID             id.TaskID
	State          State
	ClientName     string
	ObligationName string
}

// SubmittedTask is the projection the risk sweep decides on.
type SubmittedTask struct {
	ID             id.TaskID
	AtRisk         bool
	StateEnteredAt time.Time
}
