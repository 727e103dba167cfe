package reassignment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
)

func (s *ReassignmentSuite) givenAbsence(who id.UserID, substitute *id.UserID, from, to time.Time) models.Absence {
	a := models.Absence{
		ID:             id.AbsenceID(uuid.New()),
		CollaboratorID: who,
		SubstituteID:   substitute,
		Kind:           "vacation",
		StartsOn:       from,
		EndsOn:         to,
		Active:         true,
	}
	s.store.PutAbsence(a)
	return a
}

func (s *ReassignmentSuite) TestSweepReassignsEveryActiveAbsence() {
	day := 24 * time.Hour
	s.givenTask(s.absent.ID, models.StatePending, "DIOT")
	s.givenTask(s.absent.ID, models.StateInProgress, "ISR")
	s.givenAbsence(s.absent.ID, nil, now.Add(-day), now.Add(day))

	onLeave := s.givenCollaborator("Pablo", true)
	sub := s.givenCollaborator("Rosa", true)
	s.givenTask(onLeave.ID, models.StatePending, "DIOT")
	s.givenAbsence(onLeave.ID, &sub.ID, now, now)

	future := s.givenCollaborator("Quique", true)
	futureTask := s.givenTask(future.ID, models.StatePending, "DIOT")
	s.givenAbsence(future.ID, &sub.ID, now.Add(3*day), now.Add(5*day))

	result, err := s.service.SweepActiveAbsences(s.ctx)
	s.Require().NoError(err)

	s.True(result.Success)
	s.Equal(2, result.AbsencesProcessed)
	s.Equal(3, result.TotalReassigned)
	s.Empty(result.Errors)
	s.Equal(0, s.openTasksOf(s.absent.ID))
	s.Equal(0, s.openTasksOf(onLeave.ID))
	s.Equal(future.ID, s.ownerOf(futureTask.ID))

	logs, err := s.store.ListSystemLog(s.ctx, models.LogAbsenceSweep, 10)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal("processed 2 absences, reassigned 3 tasks", logs[0].Message)
}

func (s *ReassignmentSuite) TestSweepContinuesPastFailedAbsence() {
	s.givenTask(s.absent.ID, models.StatePending, "DIOT")
	s.givenAbsence(s.absent.ID, nil, now, now)

	loner := s.givenCollaborator("Lola", true)
	lonerTask := s.givenTask(loner.ID, models.StatePending, "ISR")
	bad := s.givenAbsence(loner.ID, nil, now, now)

	result, err := s.service.SweepActiveAbsences(s.ctx)
	s.Require().NoError(err)

	s.False(result.Success)
	s.Equal(2, result.AbsencesProcessed)
	s.Equal(1, result.TotalReassigned)
	s.Require().Len(result.Errors, 1)
	s.Contains(result.Errors[0], "absence "+bad.ID.String())
	s.Contains(result.Errors[0], "no active team")
	s.Equal(loner.ID, s.ownerOf(lonerTask.ID))
}

func (s *ReassignmentSuite) TestSweepWithNoAbsences() {
	result, err := s.service.SweepActiveAbsences(s.ctx)
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(0, result.AbsencesProcessed)
	s.NotNil(result.Errors)
}

func (s *ReassignmentSuite) TestSweepLoadFailure() {
	svc := New(&absenceOutageStore{Store: s.store}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	result, err := svc.SweepActiveAbsences(s.ctx)
	s.Require().Error(err)
	s.Nil(result)
}

type absenceOutageStore struct {
	Store
}

func (a *absenceOutageStore) ListActiveAbsences(context.Context, time.Time) ([]models.Absence, error) {
	return nil, errors.New("connection reset")
}
