package matchmaking

import (
	"time"
)

// ToleranceSchedule widens the acceptable rating window the longer a player
// waits: Base + Step for every full Interval waited, capped at Max. The
// schedule is deterministic so tests can assert exact thresholds.
type ToleranceSchedule struct {
	Base     int
	Step     int
	Max      int
	Interval time.Duration
}

// DefaultToleranceSchedule returns production defaults: 300 points at
// enqueue, +100 per 15s waited, capped at 1000.
func DefaultToleranceSchedule() ToleranceSchedule {
	return ToleranceSchedule{
		Base:     300,
		Step:     100,
		Max:      1000,
		Interval: 15 * time.Second,
	}
}

// For returns the rating window for a given wait duration. Monotonically
// non-decreasing in wait.
func (t ToleranceSchedule) For(wait time.Duration) int {
	if wait <= 0 || t.Interval <= 0 {
		return t.Base
	}
	widened := t.Base + t.Step*int(wait/t.Interval)
	if widened > t.Max {
		return t.Max
	}
	return widened
}
