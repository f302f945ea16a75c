// Package delay is the busy-wait delay primitive used for power-up and
// settle delays and between bounded polls. On AVR builds Spin burns a
// calibrated number of loop iterations derived from the CPU clock; on the
// host it delegates to time.Sleep.
package delay

// Delayer waits for approximately the requested duration.
type Delayer interface {
	DelayMs(ms uint32)
	DelayUs(us uint32)
}

// None returns immediately.
type None struct{}

func (None) DelayMs(uint32) {}
func (None) DelayUs(uint32) {}

// Spin is a cycle-counted busy wait for a core clocked at CPUHz.
type Spin struct {
	CPUHz uint32
}

// Cycles returns the CPU cycles spanned by us microseconds.
func (s Spin) Cycles(us uint32) uint64 {
	return uint64(s.CPUHz) * uint64(us) / 1_000_000
}

func (s Spin) DelayMs(ms uint32) {
	for ; ms > 0; ms-- {
		s.DelayUs(1000)
	}
}
