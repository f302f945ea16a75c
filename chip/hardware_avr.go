//go:build avr

package chip

import "avrhal-go/internal/reg"

// Hardware returns the memory-mapped data space of the running core.
func Hardware() Bus { return reg.Volatile{} }
