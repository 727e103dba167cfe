// Package postgres is the relational store behind the task engines. It holds
// typed batch reads and batched writes; business rules live in the engines.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
	txcontext "fiscaltask/pkg/platform/tx"
)

// defaultTxTimeout bounds a transaction whose context has no deadline.
const defaultTxTimeout = 30 * time.Second

// Store is the PostgreSQL-backed implementation of every engine's Store.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// execer returns the transaction carried by ctx, or the pool.
func (s *Store) execer(ctx context.Context) txcontext.Executor {
	return txcontext.Using(ctx, s.db)
}

// RunInTx runs fn with a transaction in its context. Store calls made with
// that context join the transaction; fn's error rolls it back.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}
	return txcontext.Run(ctx, s.db, fn)
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func uuidStrings[T ~[16]byte](ids []T) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = uuid.UUID(v).String()
	}
	return out
}

func userIDPtr(n uuid.NullUUID) *id.UserID {
	if !n.Valid {
		return nil
	}
	u := id.UserID(n.UUID)
	return &u
}
