package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fiscaltask/pkg/platform/sentinel"
)

// GetSetting returns the raw JSON value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var raw []byte
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return json.RawMessage(raw), nil
}

// PutSetting upserts a setting value.
func (s *Store) PutSetting(ctx context.Context, key string, value json.RawMessage, now time.Time) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, key, []byte(value), now); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}
