package generation

import (
	"context"

	"fiscaltask/internal/models"
	dErrors "fiscaltask/pkg/domain-errors"
)

// UnassignedOwner is the ByOwner bucket for tasks without an owner.
const UnassignedOwner = "unassigned"

// Summary counts a period's tasks by state and by owner.
type Summary struct {
	Period  string         `json:"period"`
	Total   int            `json:"total"`
	ByState map[string]int `json:"by_state"`
	ByOwner map[string]int `json:"by_owner"`
}

func (s *Service) Summary(ctx context.Context, period string) (*Summary, error) {
	p, err := models.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountTasks(ctx, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count tasks")
	}

	sum := &Summary{
		Period:  p.String(),
		ByState: make(map[string]int),
		ByOwner: make(map[string]int),
	}
	for _, c := range counts {
		sum.Total += c.Count
		sum.ByState[string(c.State)] += c.Count
		owner := UnassignedOwner
		if c.OwnerID != nil {
			owner = c.OwnerID.String()
		}
		sum.ByOwner[owner] += c.Count
	}
	return sum, nil
}
