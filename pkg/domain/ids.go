package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "fiscaltask/pkg/domain-errors"
)

// Typed identifiers keep taxpayers, clients, tasks and staff from being mixed
// up at compile time. All UUID-backed IDs share parsing rules: non-empty,
// well-formed and not the nil UUID.
type (
	UserID     uuid.UUID
	TeamID     uuid.UUID
	TaxpayerID uuid.UUID
	ClientID   uuid.UUID
	TaskID     uuid.UUID
	AbsenceID  uuid.UUID
	EventID    uuid.UUID
	DocumentID uuid.UUID
)

// Catalog codes are natural keys taken from the fiscal catalogs (e.g. regime
// "601", obligation "DIOT", service "CONTABILIDAD").
type (
	RegimeCode   string
	ObligationID string
	ServiceID    string
)

const maxCodeLength = 64

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be valid UTF-8")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}

func parseCode(s, field string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxCodeLength || !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return s, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseTeamID(s string) (TeamID, error) {
	u, err := parseUUID(s, "team_id")
	return TeamID(u), err
}

func ParseTaxpayerID(s string) (TaxpayerID, error) {
	u, err := parseUUID(s, "taxpayer_id")
	return TaxpayerID(u), err
}

func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s, "client_id")
	return ClientID(u), err
}

func ParseTaskID(s string) (TaskID, error) {
	u, err := parseUUID(s, "task_id")
	return TaskID(u), err
}

func ParseAbsenceID(s string) (AbsenceID, error) {
	u, err := parseUUID(s, "absence_id")
	return AbsenceID(u), err
}

func ParseObligationID(s string) (ObligationID, error) {
	c, err := parseCode(s, "obligation_id")
	return ObligationID(c), err
}

func ParseServiceID(s string) (ServiceID, error) {
	c, err := parseCode(s, "service_id")
	return ServiceID(c), err
}

func ParseRegimeCode(s string) (RegimeCode, error) {
	c, err := parseCode(s, "regime_code")
	return RegimeCode(c), err
}

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id TeamID) String() string     { return uuid.UUID(id).String() }
func (id TaxpayerID) String() string { return uuid.UUID(id).String() }
func (id ClientID) String() string   { return uuid.UUID(id).String() }
func (id TaskID) String() string     { return uuid.UUID(id).String() }
func (id AbsenceID) String() string  { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TaxpayerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TaskID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (c RegimeCode) String() string   { return string(c) }
func (c ObligationID) String() string { return string(c) }
func (c ServiceID) String() string    { return string(c) }

// NewTaskID returns a random task identifier.
func NewTaskID() TaskID { return TaskID(uuid.New()) }

// NewEventID returns a random event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }
