package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
)

// ListTaxpayers returns every taxpayer, or only the scoped one.
func (s *Store) ListTaxpayers(ctx context.Context, scope *id.TaxpayerID) ([]models.Taxpayer, error) {
	query := `SELECT id, tax_id, person_type FROM taxpayers`
	var args []any
	if scope != nil {
		query += ` WHERE id = $1`
		args = append(args, uuid.UUID(*scope))
	}
	query += ` ORDER BY tax_id`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list taxpayers: %w", err)
	}
	defer rows.Close()

	var out []models.Taxpayer
	for rows.Next() {
		var (
			tp  models.Taxpayer
			tid uuid.UUID
		)
		if err := rows.Scan(&tid, &tp.TaxID, &tp.PersonType); err != nil {
			return nil, fmt.Errorf("scan taxpayer: %w", err)
		}
		tp.ID = id.TaxpayerID(tid)
		out = append(out, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate taxpayers: %w", err)
	}
	return out, nil
}

// ListRegimeAssignments returns the regime assignments of the given taxpayers.
func (s *Store) ListRegimeAssignments(ctx context.Context, taxpayerIDs []id.TaxpayerID) ([]models.RegimeAssignment, error) {
	if len(taxpayerIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT taxpayer_id, regime_code, valid_from, valid_to
		FROM regime_assignments
		WHERE taxpayer_id = ANY($1::uuid[])
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(uuidStrings(taxpayerIDs)))
	if err != nil {
		return nil, fmt.Errorf("list regime assignments: %w", err)
	}
	defer rows.Close()

	var out []models.RegimeAssignment
	for rows.Next() {
		var (
			a        models.RegimeAssignment
			tid      uuid.UUID
			from, to sql.NullTime
		)
		if err := rows.Scan(&tid, &a.Regime, &from, &to); err != nil {
			return nil, fmt.Errorf("scan regime assignment: %w", err)
		}
		a.TaxpayerID = id.TaxpayerID(tid)
		if from.Valid {
			a.ValidFrom = &from.Time
		}
		if to.Valid {
			a.ValidTo = &to.Time
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regime assignments: %w", err)
	}
	return out, nil
}

// ListTaxpayerClients maps each linked taxpayer to its client.
func (s *Store) ListTaxpayerClients(ctx context.Context, taxpayerIDs []id.TaxpayerID) (map[id.TaxpayerID]id.ClientID, error) {
	out := make(map[id.TaxpayerID]id.ClientID)
	if len(taxpayerIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT taxpayer_id, client_id
		FROM taxpayer_clients
		WHERE taxpayer_id = ANY($1::uuid[])
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(uuidStrings(taxpayerIDs)))
	if err != nil {
		return nil, fmt.Errorf("list taxpayer clients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tid, cid uuid.UUID
		if err := rows.Scan(&tid, &cid); err != nil {
			return nil, fmt.Errorf("scan taxpayer client: %w", err)
		}
		out[id.TaxpayerID(tid)] = id.ClientID(cid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate taxpayer clients: %w", err)
	}
	return out, nil
}

// ListClientServices returns the services contracted by the given clients.
func (s *Store) ListClientServices(ctx context.Context, clientIDs []id.ClientID) ([]models.ClientService, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT client_id, service_id
		FROM client_services
		WHERE client_id = ANY($1::uuid[])
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(uuidStrings(clientIDs)))
	if err != nil {
		return nil, fmt.Errorf("list client services: %w", err)
	}
	defer rows.Close()

	var out []models.ClientService
	for rows.Next() {
		var (
			cs  models.ClientService
			cid uuid.UUID
		)
		if err := rows.Scan(&cid, &cs.ServiceID); err != nil {
			return nil, fmt.Errorf("scan client service: %w", err)
		}
		cs.ClientID = id.ClientID(cid)
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client services: %w", err)
	}
	return out, nil
}

// ListServiceCoverage returns which obligations each service covers.
func (s *Store) ListServiceCoverage(ctx context.Context) ([]models.ServiceCoverage, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT service_id, obligation_id FROM service_obligations`)
	if err != nil {
		return nil, fmt.Errorf("list service coverage: %w", err)
	}
	defer rows.Close()

	var out []models.ServiceCoverage
	for rows.Next() {
		var sc models.ServiceCoverage
		if err := rows.Scan(&sc.ServiceID, &sc.ObligationID); err != nil {
			return nil, fmt.Errorf("scan service coverage: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service coverage: %w", err)
	}
	return out, nil
}

// ListObligationRules returns the rules for the given regimes.
func (s *Store) ListObligationRules(ctx context.Context, regimes []id.RegimeCode) ([]models.ObligationRule, error) {
	if len(regimes) == 0 {
		return nil, nil
	}
	codes := make([]string, len(regimes))
	for i, r := range regimes {
		codes[i] = string(r)
	}
	query := `
		SELECT regime_code, obligation_id, condition
		FROM obligation_rules
		WHERE regime_code = ANY($1)
		ORDER BY regime_code, obligation_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("list obligation rules: %w", err)
	}
	defer rows.Close()

	var out []models.ObligationRule
	for rows.Next() {
		var (
			r    models.ObligationRule
			cond []byte
		)
		if err := rows.Scan(&r.Regime, &r.ObligationID, &cond); err != nil {
			return nil, fmt.Errorf("scan obligation rule: %w", err)
		}
		if len(cond) > 0 {
			r.Condition = json.RawMessage(cond)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate obligation rules: %w", err)
	}
	return out, nil
}
