package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
)

// InsertTaskEvents appends events in one statement.
func (s *Store) InsertTaskEvents(ctx context.Context, events []models.TaskEvent) error {
	if len(events) == 0 {
		return nil
	}
	n := len(events)
	var (
		ids      = make([]string, n)
		taskIDs  = make([]string, n)
		types    = make([]string, n)
		actors   = make([]sql.NullString, n)
		befores  = make([]string, n)
		afters   = make([]string, n)
		metas    = make([]string, n)
		occurred = make([]string, n)
	)
	for i, e := range events {
		ids[i] = e.ID.String()
		taskIDs[i] = e.TaskID.String()
		types[i] = string(e.Type)
		if e.ActorID != nil && !e.ActorID.IsNil() {
			actors[i] = sql.NullString{String: e.ActorID.String(), Valid: true}
		}
		var err error
		if befores[i], err = marshalJSON(e.Before); err != nil {
			return fmt.Errorf("marshal event before: %w", err)
		}
		if afters[i], err = marshalJSON(e.After); err != nil {
			return fmt.Errorf("marshal event after: %w", err)
		}
		if metas[i], err = marshalJSON(e.Metadata); err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
		occurred[i] = e.OccurredAt.Format(time.RFC3339Nano)
	}

	query := `
		INSERT INTO task_events (id, task_id, event_type, actor_id, before, after, metadata, occurred_at)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::text[], $4::uuid[], $5::jsonb[], $6::jsonb[], $7::jsonb[], $8::timestamptz[])
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		pq.Array(ids),
		pq.Array(taskIDs),
		pq.Array(types),
		pq.Array(actors),
		pq.Array(befores),
		pq.Array(afters),
		pq.Array(metas),
		pq.Array(occurred),
	)
	if err != nil {
		return fmt.Errorf("insert task events: %w", err)
	}
	return nil
}

// ListTaskEvents returns a task's events in occurrence order.
func (s *Store) ListTaskEvents(ctx context.Context, taskID id.TaskID) ([]models.TaskEvent, error) {
	query := `
		SELECT id, task_id, event_type, actor_id, before, after, metadata, occurred_at, published_at
		FROM task_events
		WHERE task_id = $1
		ORDER BY occurred_at, id
	`
	return s.listEvents(ctx, "list task events", query, uuid.UUID(taskID))
}

// ListUnpublishedEvents returns up to limit events not yet relayed, oldest first.
func (s *Store) ListUnpublishedEvents(ctx context.Context, limit int) ([]models.TaskEvent, error) {
	query := `
		SELECT id, task_id, event_type, actor_id, before, after, metadata, occurred_at, published_at
		FROM task_events
		WHERE published_at IS NULL
		ORDER BY occurred_at, id
		LIMIT $1
	`
	return s.listEvents(ctx, "list unpublished events", query, limit)
}

// MarkEventsPublished stamps the given events as relayed.
func (s *Store) MarkEventsPublished(ctx context.Context, eventIDs []id.EventID, at time.Time) error {
	if len(eventIDs) == 0 {
		return nil
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE task_events SET published_at = $2 WHERE id = ANY($1::uuid[]) AND published_at IS NULL`,
		pq.Array(uuidStrings(eventIDs)), at)
	if err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}

func (s *Store) listEvents(ctx context.Context, op, query string, args ...any) ([]models.TaskEvent, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.TaskEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}

func scanEvent(row rowScanner) (*models.TaskEvent, error) {
	var (
		e                   models.TaskEvent
		eid, tid            uuid.UUID
		actor               uuid.NullUUID
		before, after, meta []byte
		published           sql.NullTime
	)
	if err := row.Scan(&eid, &tid, &e.Type, &actor, &before, &after, &meta, &e.OccurredAt, &published); err != nil {
		return nil, err
	}
	e.ID = id.EventID(eid)
	e.TaskID = id.TaskID(tid)
	e.ActorID = userIDPtr(actor)
	if published.Valid {
		e.PublishedAt = &published.Time
	}
	for _, f := range []struct {
		raw  []byte
		dest *map[string]any
	}{{before, &e.Before}, {after, &e.After}, {meta, &e.Metadata}} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func marshalJSON(v map[string]any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
