package memory

import (
	"context"
	"sort"

	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
)

func (s *Store) ListTaxpayers(_ context.Context, scope *id.TaxpayerID) ([]models.Taxpayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Taxpayer
	for _, tp := range s.taxpayers {
		if scope != nil && tp.ID != *scope {
			continue
		}
		out = append(out, tp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaxID < out[j].TaxID })
	return out, nil
}

func (s *Store) ListRegimeAssignments(_ context.Context, taxpayerIDs []id.TaxpayerID) ([]models.RegimeAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(taxpayerIDs)
	var out []models.RegimeAssignment
	for _, a := range s.regimes {
		if want[a.TaxpayerID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListTaxpayerClients(_ context.Context, taxpayerIDs []id.TaxpayerID) (map[id.TaxpayerID]id.ClientID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[id.TaxpayerID]id.ClientID)
	for _, tid := range taxpayerIDs {
		if cid, ok := s.taxpayerClients[tid]; ok {
			out[tid] = cid
		}
	}
	return out, nil
}

func (s *Store) ListClientServices(_ context.Context, clientIDs []id.ClientID) ([]models.ClientService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(clientIDs)
	var out []models.ClientService
	for _, cs := range s.clientServices {
		if want[cs.ClientID] {
			out = append(out, cs)
		}
	}
	return out, nil
}

func (s *Store) ListServiceCoverage(_ context.Context) ([]models.ServiceCoverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ServiceCoverage(nil), s.coverage...), nil
}

func (s *Store) ListObligationRules(_ context.Context, regimes []id.RegimeCode) ([]models.ObligationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := toSet(regimes)
	var out []models.ObligationRule
	for _, r := range s.rules {
		if want[r.Regime] {
			out = append(out, r)
		}
	}
	return out, nil
}

func toSet[K comparable](keys []K) map[K]bool {
	set := make(map[K]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
