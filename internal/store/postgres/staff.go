package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/platform/sentinel"
)

// GetCollaborator loads a user by ID.
func (s *Store) GetCollaborator(ctx context.Context, userID id.UserID) (*models.Collaborator, error) {
	var (
		c   models.Collaborator
		uid uuid.UUID
	)
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, name, email, active FROM users WHERE id = $1`, uuid.UUID(userID),
	).Scan(&uid, &c.Name, &c.Email, &c.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get collaborator: %w", err)
	}
	c.ID = id.UserID(uid)
	return &c, nil
}

// ListActiveMemberships returns the user's active team memberships.
func (s *Store) ListActiveMemberships(ctx context.Context, userID id.UserID) ([]models.TeamMembership, error) {
	query := `
		SELECT team_id, user_id, role, active
		FROM team_members
		WHERE user_id = $1 AND active
	`
	return s.listMemberships(ctx, "list active memberships", query, uuid.UUID(userID))
}

// ListActiveLeaders returns the active leader memberships of a team.
func (s *Store) ListActiveLeaders(ctx context.Context, teamID id.TeamID) ([]models.TeamMembership, error) {
	query := `
		SELECT team_id, user_id, role, active
		FROM team_members
		WHERE team_id = $1 AND role = $2 AND active
	`
	return s.listMemberships(ctx, "list active leaders", query, uuid.UUID(teamID), string(models.TeamRoleLeader))
}

func (s *Store) listMemberships(ctx context.Context, op, query string, args ...any) ([]models.TeamMembership, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.TeamMembership
	for rows.Next() {
		var (
			m        models.TeamMembership
			tid, uid uuid.UUID
		)
		if err := rows.Scan(&tid, &uid, &m.Role, &m.Active); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		m.TeamID = id.TeamID(tid)
		m.UserID = id.UserID(uid)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}

// ListActiveAbsences returns active absences whose date range contains day.
func (s *Store) ListActiveAbsences(ctx context.Context, day time.Time) ([]models.Absence, error) {
	query := `
		SELECT id, user_id, substitute_id, kind, starts_on, ends_on, active
		FROM absences
		WHERE active AND starts_on <= $1::date AND ends_on >= $1::date
		ORDER BY starts_on, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, day.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("list active absences: %w", err)
	}
	defer rows.Close()

	var out []models.Absence
	for rows.Next() {
		var (
			a        models.Absence
			aid, uid uuid.UUID
			sub      uuid.NullUUID
		)
		if err := rows.Scan(&aid, &uid, &sub, &a.Kind, &a.StartsOn, &a.EndsOn, &a.Active); err != nil {
			return nil, fmt.Errorf("scan absence: %w", err)
		}
		a.ID = id.AbsenceID(aid)
		a.CollaboratorID = id.UserID(uid)
		a.SubstituteID = userIDPtr(sub)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate absences: %w", err)
	}
	return out, nil
}
