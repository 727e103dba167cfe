package memory

import (
	"fiscaltask/internal/models"
	id "fiscaltask/pkg/domain"
)

// Seed helpers populate catalog and staff tables, which the engines only read.

func (s *Store) PutTaxpayer(tp models.Taxpayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxpayers[tp.ID] = tp
}

func (s *Store) AddRegimeAssignment(a models.RegimeAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regimes = append(s.regimes, a)
}

func (s *Store) PutClient(c models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *Store) LinkTaxpayerClient(taxpayerID id.TaxpayerID, clientID id.ClientID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxpayerClients[taxpayerID] = clientID
}

func (s *Store) AddClientService(clientID id.ClientID, serviceID id.ServiceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientServices = append(s.clientServices, models.ClientService{ClientID: clientID, ServiceID: serviceID})
}

func (s *Store) AddServiceCoverage(serviceID id.ServiceID, obligationID id.ObligationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coverage = append(s.coverage, models.ServiceCoverage{ServiceID: serviceID, ObligationID: obligationID})
}

func (s *Store) PutObligation(o models.Obligation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obligations[o.ID] = o
}

func (s *Store) AddObligationRule(r models.ObligationRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

func (s *Store) PutCollaborator(c models.Collaborator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[c.ID] = c
}

func (s *Store) AddMembership(m models.TeamMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = append(s.memberships, m)
}

func (s *Store) PutAbsence(a models.Absence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.absences {
		if existing.ID == a.ID {
			s.absences[i] = a
			return
		}
	}
	s.absences = append(s.absences, a)
}

// PutTask stores a task as-is, replacing any task with the same ID.
func (s *Store) PutTask(t models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	s.taskKeys[t.Key()] = t.ID
}

func (s *Store) AddDocument(d models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, d)
}

// Tasks returns a copy of every stored task.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

// Events returns a copy of every stored task event in insertion order.
func (s *Store) Events() []models.TaskEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TaskEvent(nil), s.events...)
}
