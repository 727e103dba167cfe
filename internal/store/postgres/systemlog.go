package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"fiscaltask/internal/models"
)

// AppendSystemLog writes a run-level summary row.
func (s *Store) AppendSystemLog(ctx context.Context, entry models.SystemLogEntry) error {
	meta, err := marshalJSON(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal system log metadata: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO system_log (kind, message, metadata, created_at) VALUES ($1, $2, $3, $4)`,
		string(entry.Kind), entry.Message, meta, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append system log: %w", err)
	}
	return nil
}

// ListSystemLog returns the most recent entries of a kind, newest first.
func (s *Store) ListSystemLog(ctx context.Context, kind models.SystemLogKind, limit int) ([]models.SystemLogEntry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT kind, message, metadata, created_at
		FROM system_log
		WHERE kind = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list system log: %w", err)
	}
	defer rows.Close()

	var out []models.SystemLogEntry
	for rows.Next() {
		var (
			e    models.SystemLogEntry
			meta []byte
		)
		if err := rows.Scan(&e.Kind, &e.Message, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan system log: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode system log metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate system log: %w", err)
	}
	return out, nil
}
