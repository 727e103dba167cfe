// Package memory is an in-process store with the same contract as the
// Postgres store. It backs local runs without a database and engine tests.
package memory

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/platform/sentinel"
)

type txKey struct{}

// Store keeps every table in maps and slices guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex
	// txMu serializes RunInTx callers; plain calls outside a transaction are
	// not isolated from a running one.
	txMu sync.Mutex

	taxpayers       map[id.TaxpayerID]models.Taxpayer
	regimes         []models.RegimeAssignment
	clients         map[id.ClientID]models.Client
	taxpayerClients map[id.TaxpayerID]id.ClientID
	clientServices  []models.ClientService
	coverage        []models.ServiceCoverage
	obligations     map[id.ObligationID]models.Obligation
	rules           []models.ObligationRule

	users       map[id.UserID]models.Collaborator
	memberships []models.TeamMembership
	absences    []models.Absence

	tasks     map[id.TaskID]models.Task
	taskKeys  map[models.TaskKey]id.TaskID
	documents []models.Document
	events    []models.TaskEvent
	systemLog []models.SystemLogEntry
	settings  map[string]json.RawMessage
}

func New() *Store {
	return &Store{
		taxpayers:       make(map[id.TaxpayerID]models.Taxpayer),
		clients:         make(map[id.ClientID]models.Client),
		taxpayerClients: make(map[id.TaxpayerID]id.ClientID),
		obligations:     make(map[id.ObligationID]models.Obligation),
		users:           make(map[id.UserID]models.Collaborator),
		tasks:           make(map[id.TaskID]models.Task),
		taskKeys:        make(map[models.TaskKey]id.TaskID),
		settings:        make(map[string]json.RawMessage),
	}
}

type snapshot struct {
	tasks     map[id.TaskID]models.Task
	taskKeys  map[models.TaskKey]id.TaskID
	events    []models.TaskEvent
	systemLog []models.SystemLogEntry
	settings  map[string]json.RawMessage
}

// RunInTx runs fn and restores the mutable tables if it fails.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := snapshot{
		tasks:     maps.Clone(s.tasks),
		taskKeys:  maps.Clone(s.taskKeys),
		events:    append([]models.TaskEvent(nil), s.events...),
		systemLog: append([]models.SystemLogEntry(nil), s.systemLog...),
		settings:  maps.Clone(s.settings),
	}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.tasks = snap.tasks
		s.taskKeys = snap.taskKeys
		s.events = snap.events
		s.systemLog = snap.systemLog
		s.settings = snap.settings
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

// GetSetting returns the raw JSON value stored under key.
func (s *Store) GetSetting(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (s *Store) PutSetting(_ context.Context, key string, value json.RawMessage, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (s *Store) AppendSystemLog(_ context.Context, entry models.SystemLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemLog = append(s.systemLog, entry)
	return nil
}

// ListSystemLog returns the most recent entries of a kind, newest first.
func (s *Store) ListSystemLog(_ context.Context, kind models.SystemLogKind, limit int) ([]models.SystemLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SystemLogEntry
	for i := len(s.systemLog) - 1; i >= 0 && len(out) < limit; i-- {
		if s.systemLog[i].Kind == kind {
			out = append(out, s.systemLog[i])
		}
	}
	return out, nil
}
