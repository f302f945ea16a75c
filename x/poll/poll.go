// Package poll bounds every busy-wait on hardware status. A Budget replaces
// a wall-clock timeout: at most Attempts checks, with IntervalUs of delay
// between consecutive checks, so a disconnected or faulty peripheral can
// never hang the caller.
package poll

import (
	"avrhal-go/x/delay"
	"avrhal-go/x/mathx"
)

// Budget is the bound applied to one wait.
type Budget struct {
	Attempts   int
	IntervalUs uint32
	Delay      delay.Delayer
}

// Wait calls ready until it reports true or the budget is spent.
// A non-positive Attempts still checks once.
func (b Budget) Wait(ready func() bool) bool {
	_, ok := b.Count(ready)
	return ok
}

// Count is Wait that also reports how many checks were made.
func (b Budget) Count(ready func() bool) (int, bool) {
	n := b.Attempts
	if n <= 0 {
		n = 1
	}
	for i := 1; i <= n; i++ {
		if ready() {
			return i, true
		}
		if i < n && b.IntervalUs > 0 && b.Delay != nil {
			b.Delay.DelayUs(b.IntervalUs)
		}
	}
	return n, false
}

// WithDelay returns a copy of b using d between checks.
func (b Budget) WithDelay(d delay.Delayer) Budget {
	b.Delay = d
	return b
}

// Covering returns b with enough Attempts that the delays between checks
// add up to at least us microseconds. A budget without an interval counts
// checks, not time, and is returned unchanged.
func (b Budget) Covering(us uint64) Budget {
	if b.IntervalUs == 0 {
		return b
	}
	need := mathx.CeilDiv(us, uint64(b.IntervalUs)) + 1
	if need > maxAttempts {
		need = maxAttempts
	}
	if uint64(b.Attempts) < need {
		b.Attempts = int(need)
	}
	return b
}

const maxAttempts = 1 << 30
