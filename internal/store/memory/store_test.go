package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/platform/sentinel"
)

func newTask(period models.Period, obligation id.ObligationID) models.Task {
	key := models.TaskKey{TaxpayerID: id.TaxpayerID(uuid.New()), ObligationID: obligation, Period: period}
	return models.NewTask(key, id.ClientID(uuid.New()), time.Now())
}

func TestInsertTasksSkipsExistingKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	march := models.Period{Year: 2025, Month: time.March}

	first := newTask(march, "DIOT")
	n, err := s.InsertTasks(ctx, []models.Task{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dup := models.NewTask(first.Key(), first.ClientID, time.Now())
	n, err = s.InsertTasks(ctx, []models.Task{dup, newTask(march, "ISR")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, s.Tasks(), 2)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	task := newTask(models.Period{Year: 2025, Month: time.March}, "DIOT")
	s.PutTask(task)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.SetAtRisk(ctx, []id.TaskID{task.ID}, true, time.Now())
		require.NoError(t, err)
		require.NoError(t, s.InsertTaskEvents(ctx, []models.TaskEvent{{ID: id.NewEventID(), TaskID: task.ID}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.AtRisk)
	assert.Empty(t, s.Events())
}

func TestGetTaskNotFound(t *testing.T) {
	_, err := New().GetTask(context.Background(), id.NewTaskID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestReassignTaskIsGuarded(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := id.UserID(uuid.New())
	other := id.UserID(uuid.New())
	task := newTask(models.Period{Year: 2025, Month: time.March}, "DIOT")
	task.OwnerID = &owner
	task.State = models.StateClosed
	s.PutTask(task)

	changed, err := s.ReassignTask(ctx, task.ID, owner, other, models.OpenStates(), time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "closed tasks are not reassignable")

	changed, err = s.ReassignTask(ctx, task.ID, other, owner, []models.State{models.StateClosed}, time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "owner guard must match")
}

func TestMarkEventsPublished(t *testing.T) {
	ctx := context.Background()
	s := New()
	e1 := models.TaskEvent{ID: id.NewEventID(), TaskID: id.NewTaskID(), OccurredAt: time.Now()}
	e2 := models.TaskEvent{ID: id.NewEventID(), TaskID: id.NewTaskID(), OccurredAt: time.Now().Add(time.Second)}
	require.NoError(t, s.InsertTaskEvents(ctx, []models.TaskEvent{e1, e2}))

	require.NoError(t, s.MarkEventsPublished(ctx, []id.EventID{e1.ID}, time.Now()))

	pending, err := s.ListUnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, e2.ID, pending[0].ID)
}

func TestListOpenTasksByOwnerKeepsTasksWithoutCatalogRows(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := id.UserID(uuid.New())
	task := newTask(models.Period{Year: 2025, Month: time.March}, "DIOT")
	task.OwnerID = &owner
	s.PutTask(task)

	open, err := s.ListOpenTasksByOwner(ctx, owner, models.OpenStates())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, task.ID, open[0].ID)
	assert.Equal(t, models.StateNotStarted, open[0].State)
	assert.Empty(t, open[0].ClientName)
	assert.Empty(t, open[0].ObligationName)
}
