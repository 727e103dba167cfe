package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/platform/sentinel"
)

const taskColumns = `id, client_id, taxpayer_id, obligation_id, fiscal_year, period, due_date, state,
	owner_id, at_risk, state_entered_at, created_at, updated_at`

// ListTaskKeys returns the keys already stored for a period, optionally
// limited to the given taxpayers.
func (s *Store) ListTaskKeys(ctx context.Context, period models.Period, taxpayerIDs []id.TaxpayerID) ([]models.TaskKey, error) {
	query := `SELECT taxpayer_id, obligation_id FROM tasks WHERE period = $1`
	args := []any{period.String()}
	if taxpayerIDs != nil {
		query += ` AND taxpayer_id = ANY($2::uuid[])`
		args = append(args, pq.Array(uuidStrings(taxpayerIDs)))
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list task keys: %w", err)
	}
	defer rows.Close()

	var out []models.TaskKey
	for rows.Next() {
		var (
			k   models.TaskKey
			tid uuid.UUID
		)
		if err := rows.Scan(&tid, &k.ObligationID); err != nil {
			return nil, fmt.Errorf("scan task key: %w", err)
		}
		k.TaxpayerID = id.TaxpayerID(tid)
		k.Period = period
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task keys: %w", err)
	}
	return out, nil
}

// InsertTasks writes tasks in one statement and returns how many rows were
// inserted. Rows whose key already exists are skipped.
func (s *Store) InsertTasks(ctx context.Context, tasks []models.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	n := len(tasks)
	var (
		ids          = make([]string, n)
		clientIDs    = make([]string, n)
		taxpayerIDs  = make([]string, n)
		obligations  = make([]string, n)
		fiscalYears  = make([]int64, n)
		periods      = make([]string, n)
		dueDates     = make([]string, n)
		states       = make([]string, n)
		createdAt    = make([]string, n)
		stateEntered = make([]string, n)
	)
	for i, t := range tasks {
		ids[i] = t.ID.String()
		clientIDs[i] = t.ClientID.String()
		taxpayerIDs[i] = t.TaxpayerID.String()
		obligations[i] = string(t.ObligationID)
		fiscalYears[i] = int64(t.FiscalYear)
		periods[i] = t.Period.String()
		dueDates[i] = t.DueDate.Format(time.DateOnly)
		states[i] = string(t.State)
		createdAt[i] = t.CreatedAt.Format(time.RFC3339Nano)
		entered := t.CreatedAt
		if t.StateEnteredAt != nil {
			entered = *t.StateEnteredAt
		}
		stateEntered[i] = entered.Format(time.RFC3339Nano)
	}

	query := `
		INSERT INTO tasks (id, client_id, taxpayer_id, obligation_id, fiscal_year, period, due_date, state,
			at_risk, state_entered_at, created_at, updated_at)
		SELECT t.id, t.client_id, t.taxpayer_id, t.obligation_id, t.fiscal_year, t.period, t.due_date, t.state,
			FALSE, t.state_entered_at, t.created_at, t.created_at
		FROM unnest($1::uuid[], $2::uuid[], $3::uuid[], $4::text[], $5::int[], $6::text[], $7::date[], $8::text[],
			$9::timestamptz[], $10::timestamptz[])
			AS t(id, client_id, taxpayer_id, obligation_id, fiscal_year, period, due_date, state,
				state_entered_at, created_at)
		ON CONFLICT (taxpayer_id, obligation_id, period) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		pq.Array(ids),
		pq.Array(clientIDs),
		pq.Array(taxpayerIDs),
		pq.Array(obligations),
		pq.Array(fiscalYears),
		pq.Array(periods),
		pq.Array(dueDates),
		pq.Array(states),
		pq.Array(stateEntered),
		pq.Array(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert tasks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert tasks rows affected: %w", err)
	}
	return int(affected), nil
}

// GetTask loads one task by ID.
func (s *Store) GetTask(ctx context.Context, taskID id.TaskID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(taskID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListOpenTasksByOwner returns the owner's tasks whose state is in states,
// joined with client and obligation names.
func (s *Store) ListOpenTasksByOwner(ctx context.Context, owner id.UserID, states []models.State) ([]models.OpenTask, error) {
	query := `
		SELECT t.id, t.state, c.name, o.short_name
		FROM tasks t
		JOIN clients c ON c.id = t.client_id
		JOIN obligations o ON o.id = t.obligation_id
		WHERE t.owner_id = $1 AND t.state = ANY($2)
		ORDER BY t.due_date, t.id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(owner), pq.Array(models.StateStrings(states)))
	if err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	defer rows.Close()

	var out []models.OpenTask
	for rows.Next() {
		var (
			t   models.OpenTask
			tid uuid.UUID
		)
		if err := rows.Scan(&tid, &t.State, &t.ClientName, &t.ObligationName); err != nil {
			return nil, fmt.Errorf("scan open task: %w", err)
		}
		t.ID = id.TaskID(tid)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate open tasks: %w", err)
	}
	return out, nil
}

// ReassignTask moves a task from one owner to another when it is still owned
// by from and in one of states. It reports whether a row changed.
func (s *Store) ReassignTask(ctx context.Context, taskID id.TaskID, from, to id.UserID, states []models.State, now time.Time) (bool, error) {
	query := `
		UPDATE tasks
		SET owner_id = $3, updated_at = $4
		WHERE id = $1 AND owner_id = $2 AND state = ANY($5)
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(taskID), uuid.UUID(from), uuid.UUID(to), now, pq.Array(models.StateStrings(states)))
	if err != nil {
		return false, fmt.Errorf("reassign task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reassign task rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListSubmittedTasks returns submitted tasks that carry a state-entry time.
func (s *Store) ListSubmittedTasks(ctx context.Context) ([]models.SubmittedTask, error) {
	query := `
		SELECT id, at_risk, state_entered_at
		FROM tasks
		WHERE state = $1 AND state_entered_at IS NOT NULL
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(models.StateSubmitted))
	if err != nil {
		return nil, fmt.Errorf("list submitted tasks: %w", err)
	}
	defer rows.Close()

	var out []models.SubmittedTask
	for rows.Next() {
		var (
			t   models.SubmittedTask
			tid uuid.UUID
		)
		if err := rows.Scan(&tid, &t.AtRisk, &t.StateEnteredAt); err != nil {
			return nil, fmt.Errorf("scan submitted task: %w", err)
		}
		t.ID = id.TaskID(tid)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submitted tasks: %w", err)
	}
	return out, nil
}

// ListTasksWithDocument returns the subset of taskIDs that have at least one
// document of the given type.
func (s *Store) ListTasksWithDocument(ctx context.Context, taskIDs []id.TaskID, docType models.DocumentType) ([]id.TaskID, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT task_id
		FROM task_documents
		WHERE task_id = ANY($1::uuid[]) AND doc_type = $2
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(uuidStrings(taskIDs)), string(docType))
	if err != nil {
		return nil, fmt.Errorf("list tasks with document: %w", err)
	}
	defer rows.Close()

	var out []id.TaskID
	for rows.Next() {
		var tid uuid.UUID
		if err := rows.Scan(&tid); err != nil {
			return nil, fmt.Errorf("scan task with document: %w", err)
		}
		out = append(out, id.TaskID(tid))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks with document: %w", err)
	}
	return out, nil
}

// SetAtRisk sets the risk flag on every listed task that does not already
// carry it and returns the IDs that changed.
func (s *Store) SetAtRisk(ctx context.Context, taskIDs []id.TaskID, atRisk bool, now time.Time) ([]id.TaskID, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	query := `
		UPDATE tasks
		SET at_risk = $2, updated_at = $3
		WHERE id = ANY($1::uuid[]) AND at_risk <> $2
		RETURNING id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(uuidStrings(taskIDs)), atRisk, now)
	if err != nil {
		return nil, fmt.Errorf("set at risk: %w", err)
	}
	defer rows.Close()

	var changed []id.TaskID
	for rows.Next() {
		var tid uuid.UUID
		if err := rows.Scan(&tid); err != nil {
			return nil, fmt.Errorf("scan changed task: %w", err)
		}
		changed = append(changed, id.TaskID(tid))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changed tasks: %w", err)
	}
	return changed, nil
}

// ListAtRiskTasks returns flagged submitted tasks, oldest state entry first.
func (s *Store) ListAtRiskTasks(ctx context.Context) ([]models.AtRiskTask, error) {
	query := `
		SELECT t.id, c.id, c.name, tp.tax_id, o.id, o.short_name, t.period, t.state_entered_at
		FROM tasks t
		JOIN clients c ON c.id = t.client_id
		JOIN taxpayers tp ON tp.id = t.taxpayer_id
		JOIN obligations o ON o.id = t.obligation_id
		WHERE t.at_risk AND t.state = $1 AND t.state_entered_at IS NOT NULL
		ORDER BY t.state_entered_at, t.id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(models.StateSubmitted))
	if err != nil {
		return nil, fmt.Errorf("list at-risk tasks: %w", err)
	}
	defer rows.Close()

	var out []models.AtRiskTask
	for rows.Next() {
		var (
			t        models.AtRiskTask
			tid, cid uuid.UUID
			period   string
		)
		if err := rows.Scan(&tid, &cid, &t.ClientName, &t.TaxID, &t.ObligationID, &t.ObligationName, &period, &t.StateEnteredAt); err != nil {
			return nil, fmt.Errorf("scan at-risk task: %w", err)
		}
		p, err := models.ParsePeriod(period)
		if err != nil {
			return nil, fmt.Errorf("scan at-risk task period: %w", err)
		}
		t.TaskID = id.TaskID(tid)
		t.ClientID = id.ClientID(cid)
		t.Period = p
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate at-risk tasks: %w", err)
	}
	return out, nil
}

// CountAtRiskByClient counts at-risk tasks per client, highest count first
// with ties broken by client name.
func (s *Store) CountAtRiskByClient(ctx context.Context) ([]models.ClientRiskCount, error) {
	query := `
		SELECT c.id, c.name, COUNT(*)
		FROM tasks t
		JOIN clients c ON c.id = t.client_id
		WHERE t.at_risk
		GROUP BY c.id, c.name
		ORDER BY COUNT(*) DESC, c.name
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count at-risk by client: %w", err)
	}
	defer rows.Close()

	var out []models.ClientRiskCount
	for rows.Next() {
		var (
			c   models.ClientRiskCount
			cid uuid.UUID
		)
		if err := rows.Scan(&cid, &c.ClientName, &c.Count); err != nil {
			return nil, fmt.Errorf("scan client risk count: %w", err)
		}
		c.ClientID = id.ClientID(cid)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client risk counts: %w", err)
	}
	return out, nil
}

// CountTasks groups a period's tasks by state and owner.
func (s *Store) CountTasks(ctx context.Context, period models.Period) ([]models.TaskCount, error) {
	query := `
		SELECT state, owner_id, COUNT(*)
		FROM tasks
		WHERE period = $1
		GROUP BY state, owner_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, period.String())
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	var out []models.TaskCount
	for rows.Next() {
		var (
			c     models.TaskCount
			owner uuid.NullUUID
		)
		if err := rows.Scan(&c.State, &owner, &c.Count); err != nil {
			return nil, fmt.Errorf("scan task count: %w", err)
		}
		c.OwnerID = userIDPtr(owner)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task counts: %w", err)
	}
	return out, nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t                  models.Task
		tid, cid, taxpayer uuid.UUID
		owner              uuid.NullUUID
		period             string
		entered            sql.NullTime
	)
	if err := row.Scan(&tid, &cid, &taxpayer, &t.ObligationID, &t.FiscalYear, &period, &t.DueDate, &t.State,
		&owner, &t.AtRisk, &entered, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := models.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	t.ID = id.TaskID(tid)
	t.ClientID = id.ClientID(cid)
	t.TaxpayerID = id.TaxpayerID(taxpayer)
	t.Period = p
	t.OwnerID = userIDPtr(owner)
	if entered.Valid {
		t.StateEnteredAt = &entered.Time
	}
	return &t, nil
}
