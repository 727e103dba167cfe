package models

import (
	"time"

	id "fiscaltask/pkg/domain"
)

// AtRiskTask is a flagged submitted task joined with its display fields.
type AtRiskTask struct {
	TaskID         id.TaskID
	ClientID       id.ClientID
	ClientName     string
	TaxID          string
	ObligationID   id.ObligationID
	ObligationName string
	Period         Period
	StateEnteredAt time.Time
}

// ClientRiskCount is the number of at-risk tasks held by one client.
type ClientRiskCount struct {
	ClientID   id.ClientID
	ClientName string
	Count      int
}

// TaskCount is one (state, owner) bucket of a period's tasks. A nil owner
// is the unassigned bucket.
type TaskCount struct {
	State   State
	OwnerID *id.UserID
	Count   int
}
