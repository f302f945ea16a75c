//go:build avr

package delay

import "runtime/volatile"

// Measured cost of one iteration of the loop below (load, increment,
// compare, branch on an 8-bit core).
const loopCycles = 8

var sink volatile.Register8

func (s Spin) DelayUs(us uint32) {
	n := s.Cycles(us) / loopCycles
	for i := uint64(0); i < n; i++ {
		sink.Set(sink.Get() + 1)
	}
}
