// Package reg is the register access primitive: a typed 8-bit view over one
// fixed data-space address.
//
// Every Get/Set goes through the Bus; nothing is cached, so each call is one
// load or store on the target. Read-modify-write helpers are a load followed
// by a store and are not atomic with respect to interrupts; callers that need
// a multi-register sequence to appear atomic bracket it with the interrupt
// controller.
//
// The package is internal: handles are built only by the chip factory from
// its validated address tables.
package reg

// Bus is the data space registers are accessed through.
type Bus interface {
	Load(addr uintptr) uint8
	Store(addr uintptr, v uint8)
}

// Register8 is a handle on one 8-bit hardware register.
// Handles are plain values and may alias the same address.
type Register8 struct {
	bus  Bus
	addr uintptr
}

// At binds addr on bus. Only the chip factory calls this.
func At(bus Bus, addr uintptr) Register8 { return Register8{bus: bus, addr: addr} }

// Addr returns the data-space address.
func (r Register8) Addr() uintptr { return r.addr }

// Valid reports whether the handle is bound to a bus.
func (r Register8) Valid() bool { return r.bus != nil }

func (r Register8) Get() uint8  { return r.bus.Load(r.addr) }
func (r Register8) Set(v uint8) { r.bus.Store(r.addr, v) }

// SetBits ORs mask into the register.
func (r Register8) SetBits(mask uint8) { r.Set(r.Get() | mask) }

// ClearBits clears mask in the register.
func (r Register8) ClearBits(mask uint8) { r.Set(r.Get() &^ mask) }

// HasBits reports whether any bit of mask is set.
func (r Register8) HasBits(mask uint8) bool { return r.Get()&mask != 0 }

// ReplaceBits replaces the field mask<<pos with value<<pos.
func (r Register8) ReplaceBits(value, mask uint8, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

// Update performs one read-modify-write through fn.
func (r Register8) Update(fn func(uint8) uint8) { r.Set(fn(r.Get())) }
