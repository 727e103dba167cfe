package models

import (
	"encoding/json"
	"time"

	id "fiscaltask/pkg/domain"
)

// PersonType distinguishes individuals from legal entities.
type PersonType string

const (
	PersonTypeIndividual  PersonType = "PF"
	PersonTypeLegalEntity PersonType = "PM"
)

// Taxpayer is a tax-ID-bearing entity subject to fiscal obligations.
type Taxpayer struct {
	ID         id.TaxpayerID
	TaxID      string
	PersonType PersonType
}

// RegimeAssignment places a taxpayer in a fiscal regime for a validity window.
// A nil bound is open-ended.
type RegimeAssignment struct {
	TaxpayerID id.TaxpayerID
	Regime     id.RegimeCode
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// ActiveIn reports whether the validity window overlaps any day of the period.
func (a RegimeAssignment) ActiveIn(p Period) bool {
	if a.ValidFrom != nil && a.ValidFrom.After(p.LastDay()) {
		return false
	}
	if a.ValidTo != nil && a.ValidTo.Before(p.FirstDay()) {
		return false
	}
	return true
}

// ObligationRule ties a regime to an obligation it requires. Condition is
// carried through untouched; no condition language is evaluated yet.
type ObligationRule struct {
	Regime       id.RegimeCode
	ObligationID id.ObligationID
	Condition    json.RawMessage
}

// Obligation is a recurring fiscal requirement definition.
type Obligation struct {
	ID          id.ObligationID
	ShortName   string
	Periodicity string
}

type Client struct {
	ID   id.ClientID
	Name string
}

// ClientService records a service contracted by a client.
type ClientService struct {
	ClientID  id.ClientID
	ServiceID id.ServiceID
}

// ServiceCoverage records an obligation covered by a service.
type ServiceCoverage struct {
	ServiceID    id.ServiceID
	ObligationID id.ObligationID
}
