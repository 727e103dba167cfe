package risk

import "time"

// Decision is the outcome of evaluating one submitted task.
type Decision int

const (
	NoChange Decision = iota
	Flag
	Clear
)

func (d Decision) String() string {
	switch d {
	case Flag:
		return "flag"
	case Clear:
		return "clear"
	default:
		return "no_change"
	}
}

// ElapsedDays returns the whole days between entered and now, floored.
// Timestamps in the future count as zero.
func ElapsedDays(entered, now time.Time) int {
	if now.Before(entered) {
		return 0
	}
	return int(now.Sub(entered) / (24 * time.Hour))
}

// Decide evaluates one submitted task. A task is flagged only once the
// elapsed days strictly exceed the threshold; a receipt clears a flag.
func Decide(hasReceipt bool, elapsedDays, thresholdDays int, flagged bool) Decision {
	switch {
	case !hasReceipt && elapsedDays > thresholdDays && !flagged:
		return Flag
	case hasReceipt && flagged:
		return Clear
	default:
		return NoChange
	}
}
