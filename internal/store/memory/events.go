package memory

import (
	"context"
	"sort"
	"time"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
)

func (s *Store) InsertTaskEvents(_ context.Context, events []models.TaskEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *Store) ListTaskEvents(_ context.Context, taskID id.TaskID) ([]models.TaskEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TaskEvent
	for _, e := range s.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListUnpublishedEvents(_ context.Context, limit int) ([]models.TaskEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TaskEvent
	for _, e := range s.events {
		if e.PublishedAt == nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkEventsPublished(_ context.Context, eventIDs []id.EventID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := toSet(eventIDs)
	for i := range s.events {
		if want[s.events[i].ID] && s.events[i].PublishedAt == nil {
			published := at
			s.events[i].PublishedAt = &published
		}
	}
	return nil
}
