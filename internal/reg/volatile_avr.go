//go:build avr

package reg

import (
	"runtime/volatile"
	"unsafe"
)

// Volatile is the memory-mapped data space of the running AVR core.
// Loads and stores compile to single LD/ST instructions that the optimiser
// may not elide or reorder.
type Volatile struct{}

func (Volatile) Load(addr uintptr) uint8 {
	return (*volatile.Register8)(unsafe.Pointer(addr)).Get()
}

func (Volatile) Store(addr uintptr, v uint8) {
	(*volatile.Register8)(unsafe.Pointer(addr)).Set(v)
}
