package memory

import (
	"context"
	"time"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/platform/sentinel"
)

func (s *Store) GetCollaborator(_ context.Context, userID id.UserID) (*models.Collaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListActiveMemberships(_ context.Context, userID id.UserID) ([]models.TeamMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TeamMembership
	for _, m := range s.memberships {
		if m.UserID == userID && m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListActiveLeaders(_ context.Context, teamID id.TeamID) ([]models.TeamMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TeamMembership
	for _, m := range s.memberships {
		if m.TeamID == teamID && m.Role == models.TeamRoleLeader && m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListActiveAbsences(_ context.Context, day time.Time) ([]models.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Absence
	for _, a := range s.absences {
		if a.Active && a.Covers(day) {
			out = append(out, a)
		}
	}
	return out, nil
}
