package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/platform/sentinel"
)

func (s *Store) ListTaskKeys(_ context.Context, period models.Period, taxpayerIDs []id.TaxpayerID) ([]models.TaskKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(taxpayerIDs)
	var out []models.TaskKey
	for k := range s.taskKeys {
		if k.Period != period {
			continue
		}
		if taxpayerIDs != nil && !want[k.TaxpayerID] {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

// InsertTasks stores tasks whose key is not yet taken and returns how many
// were inserted.
func (s *Store) InsertTasks(_ context.Context, tasks []models.Task) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, t := range tasks {
		if _, exists := s.taskKeys[t.Key()]; exists {
			continue
		}
		s.tasks[t.ID] = t
		s.taskKeys[t.Key()] = t.ID
		inserted++
	}
	return inserted, nil
}

func (s *Store) GetTask(_ context.Context, taskID id.TaskID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *Store) ListOpenTasksByOwner(_ context.Context, owner id.UserID, states []models.State) ([]models.OpenTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Task
	for _, t := range s.tasks {
		if t.OwnerID == nil || *t.OwnerID != owner || !slices.Contains(states, t.State) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DueDate.Equal(matched[j].DueDate) {
			return matched[i].DueDate.Before(matched[j].DueDate)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	out := make([]models.OpenTask, 0, len(matched))
	for _, t := range matched {
		out = append(out, models.OpenTask{
			ID:             t.ID,
			State:          t.State,
			ClientName:     s.clients[t.ClientID].Name,
			ObligationName: s.obligations[t.ObligationID].ShortName,
		})
	}
	return out, nil
}

func (s *Store) ReassignTask(_ context.Context, taskID id.TaskID, from, to id.UserID, states []models.State, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.OwnerID == nil || *t.OwnerID != from || !slices.Contains(states, t.State) {
		return false, nil
	}
	owner := to
	t.OwnerID = &owner
	t.UpdatedAt = now
	s.tasks[taskID] = t
	return true, nil
}

func (s *Store) ListSubmittedTasks(_ context.Context) ([]models.SubmittedTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SubmittedTask
	for _, t := range s.tasks {
		if t.State != models.StateSubmitted || t.StateEnteredAt == nil {
			continue
		}
		out = append(out, models.SubmittedTask{ID: t.ID, AtRisk: t.AtRisk, StateEnteredAt: *t.StateEnteredAt})
	}
	return out, nil
}

func (s *Store) ListTasksWithDocument(_ context.Context, taskIDs []id.TaskID, docType models.DocumentType) ([]id.TaskID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(taskIDs)
	seen := make(map[id.TaskID]bool)
	var out []id.TaskID
	for _, d := range s.documents {
		if d.Type != docType || !want[d.TaskID] || seen[d.TaskID] {
			continue
		}
		seen[d.TaskID] = true
		out = append(out, d.TaskID)
	}
	return out, nil
}

// SetAtRisk sets the flag on listed tasks that do not carry it yet and
// returns the IDs that changed.
func (s *Store) SetAtRisk(_ context.Context, taskIDs []id.TaskID, atRisk bool, now time.Time) ([]id.TaskID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []id.TaskID
	for _, tid := range taskIDs {
		t, ok := s.tasks[tid]
		if !ok || t.AtRisk == atRisk {
			continue
		}
		t.AtRisk = atRisk
		t.UpdatedAt = now
		s.tasks[tid] = t
		changed = append(changed, tid)
	}
	return changed, nil
}

func (s *Store) ListAtRiskTasks(_ context.Context) ([]models.AtRiskTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AtRiskTask
	for _, t := range s.tasks {
		if !t.AtRisk || t.State != models.StateSubmitted || t.StateEnteredAt == nil {
			continue
		}
		out = append(out, models.AtRiskTask{
			TaskID:         t.ID,
			ClientID:       t.ClientID,
			ClientName:     s.clients[t.ClientID].Name,
			TaxID:          s.taxpayers[t.TaxpayerID].TaxID,
			ObligationID:   t.ObligationID,
			ObligationName: s.obligations[t.ObligationID].ShortName,
			Period:         t.Period,
			StateEnteredAt: *t.StateEnteredAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StateEnteredAt.Equal(out[j].StateEnteredAt) {
			return out[i].StateEnteredAt.Before(out[j].StateEnteredAt)
		}
		return out[i].TaskID.String() < out[j].TaskID.String()
	})
	return out, nil
}

func (s *Store) CountAtRiskByClient(_ context.Context) ([]models.ClientRiskCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[id.ClientID]int)
	for _, t := range s.tasks {
		if t.AtRisk {
			counts[t.ClientID]++
		}
	}
	out := make([]models.ClientRiskCount, 0, len(counts))
	for cid, n := range counts {
		out = append(out, models.ClientRiskCount{ClientID: cid, ClientName: s.clients[cid].Name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ClientName < out[j].ClientName
	})
	return out, nil
}

func (s *Store) CountTasks(_ context.Context, period models.Period) ([]models.TaskCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		state models.State
		owner id.UserID
		set   bool
	}
	counts := make(map[bucket]int)
	for _, t := range s.tasks {
		if t.Period != period {
			continue
		}
		b := bucket{state: t.State}
		if t.OwnerID != nil {
			b.owner, b.set = *t.OwnerID, true
		}
		counts[b]++
	}

	out := make([]models.TaskCount, 0, len(counts))
	for b, n := range counts {
		c := models.TaskCount{State: b.state, Count: n}
		if b.set {
			owner := b.owner
			c.OwnerID = &owner
		}
		out = append(out, c)
	}
	return out, nil
}
