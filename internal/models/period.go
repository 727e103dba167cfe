package models

import (
	"fmt"
	"time"

	dErrors "fiscaltask/pkg/domain-errors"
)

// dueDay is the day of the following month on which monthly filings fall due.
const dueDay = 17

// Period is a monthly fiscal period, written "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod validates a "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("period %q must be formatted YYYY-MM", s))
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// FirstDay is the first calendar day of the period, UTC.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay is the last calendar day of the period, UTC.
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}

// DueDate is day 17 of the month after the period. time.Date normalizes
// month 13 into January of the following year.
func (p Period) DueDate() time.Time {
	return time.Date(p.Year, p.Month+1, dueDay, 0, 0, 0, 0, time.UTC)
}
