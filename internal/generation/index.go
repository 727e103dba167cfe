package generation

import (
	"context"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
	"fiscaltask/pkg/platform/uniq"
)

// index holds every lookup the per-taxpayer loop needs, built from one batch
// read per table.
type index struct {
	taxpayers       []models.Taxpayer
	activeRegimes   map[id.TaxpayerID][]id.RegimeCode
	clientOf        map[id.TaxpayerID]id.ClientID
	coveredByClient map[id.ClientID]map[id.ObligationID]bool
	rulesByRegime   map[id.RegimeCode][]id.ObligationID
	existing        map[models.TaskKey]bool
}

func (s *Service) loadIndex(ctx context.Context, p models.Period, scope *id.TaxpayerID) (*index, error) {
	taxpayers, err := s.store.ListTaxpayers(ctx, scope)
	if err != nil {
		return nil, wrapLoad(err, "taxpayers")
	}
	idx := &index{
		taxpayers:       taxpayers,
		activeRegimes:   make(map[id.TaxpayerID][]id.RegimeCode),
		coveredByClient: make(map[id.ClientID]map[id.ObligationID]bool),
		rulesByRegime:   make(map[id.RegimeCode][]id.ObligationID),
		existing:        make(map[models.TaskKey]bool),
	}
	if len(taxpayers) == 0 {
		idx.clientOf = map[id.TaxpayerID]id.ClientID{}
		return idx, nil
	}

	taxpayerIDs := make([]id.TaxpayerID, len(taxpayers))
	for i, tp := range taxpayers {
		taxpayerIDs[i] = tp.ID
	}

	assignments, err := s.store.ListRegimeAssignments(ctx, taxpayerIDs)
	if err != nil {
		return nil, wrapLoad(err, "regime assignments")
	}
	regimeSet := make(map[id.RegimeCode]bool)
	for _, a := range assignments {
		if !a.ActiveIn(p) {
			continue
		}
		if !containsRegime(idx.activeRegimes[a.TaxpayerID], a.Regime) {
			idx.activeRegimes[a.TaxpayerID] = append(idx.activeRegimes[a.TaxpayerID], a.Regime)
		}
		regimeSet[a.Regime] = true
	}

	idx.clientOf, err = s.store.ListTaxpayerClients(ctx, taxpayerIDs)
	if err != nil {
		return nil, wrapLoad(err, "taxpayer clients")
	}
	clientServices, err := s.store.ListClientServices(ctx, uniq.MapValues(idx.clientOf))
	if err != nil {
		return nil, wrapLoad(err, "client services")
	}
	coverage, err := s.store.ListServiceCoverage(ctx)
	if err != nil {
		return nil, wrapLoad(err, "service coverage")
	}
	obligationsByService := make(map[id.ServiceID][]id.ObligationID)
	for _, c := range coverage {
		obligationsByService[c.ServiceID] = append(obligationsByService[c.ServiceID], c.ObligationID)
	}
	for _, cs := range clientServices {
		covered := idx.coveredByClient[cs.ClientID]
		if covered == nil {
			covered = make(map[id.ObligationID]bool)
			idx.coveredByClient[cs.ClientID] = covered
		}
		for _, o := range obligationsByService[cs.ServiceID] {
			covered[o] = true
		}
	}

	regimes := make([]id.RegimeCode, 0, len(regimeSet))
	for r := range regimeSet {
		regimes = append(regimes, r)
	}
	rules, err := s.store.ListObligationRules(ctx, regimes)
	if err != nil {
		return nil, wrapLoad(err, "obligation rules")
	}
	for _, r := range rules {
		idx.rulesByRegime[r.Regime] = append(idx.rulesByRegime[r.Regime], r.ObligationID)
	}

	var keyScope []id.TaxpayerID
	if scope != nil {
		keyScope = taxpayerIDs
	}
	keys, err := s.store.ListTaskKeys(ctx, p, keyScope)
	if err != nil {
		return nil, wrapLoad(err, "existing tasks")
	}
	for _, k := range keys {
		idx.existing[k] = true
	}
	return idx, nil
}

func containsRegime(regimes []id.RegimeCode, r id.RegimeCode) bool {
	for _, existing := range regimes {
		if existing == r {
			return true
		}
	}
	return false
}
