package models

import (
	"time"

	id "fiscaltask/pkg/domain"
)

type Collaborator struct {
	ID     id.UserID
	Name   string
	Email  string
	Active bool
}

type Team struct {
	ID   id.TeamID
	Name string
}

type TeamRole string

const (
	TeamRoleLeader TeamRole = "leader"
	TeamRoleMember TeamRole = "member"
)

type TeamMembership struct {
	TeamID id.TeamID
	UserID id.UserID
	Role   TeamRole
	Active bool
}

// Absence is a period during which a collaborator's open work moves to a
// substitute or, failing that, to their team leader.
type Absence struct {
	ID             id.AbsenceID
	CollaboratorID id.UserID
	SubstituteID   *id.UserID
	Kind           string
	StartsOn       time.Time
	EndsOn         time.Time
	Active         bool
}

// Covers reports whether day falls inside the absence, bounds inclusive.
func (a Absence) Covers(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(dateOnly(a.StartsOn)) && !d.After(dateOnly(a.EndsOn))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
