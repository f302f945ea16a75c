// Package sim is a host-side model of the AVR data space. A Machine
// implements chip.Bus, so the real engines run against it unchanged; the
// USART and TWI device models react to register accesses the way the
// datasheets describe and record what the engines did.
//
// Plain registers (SREG, PRR, DDRx, UBRR, ...) are backing memory. Device
// registers with side effects are routed through load/store hooks.
package sim

import (
	"avrhal-go/bus"
	"avrhal-go/chip"
)

// Event is one observable device action.
type Event struct {
	Device string // "usart0".."usart3", "twi"
	Kind   string // e.g. "tx", "rx", "start", "addr", "write", "read", "stop"
	Value  uint16
	Ack    bool
}

// Clock is virtual time for the timed device models. It is a
// delay.Delayer, so a poll budget built on it advances time instead of
// sleeping.
type Clock struct {
	Us uint64
}

func (c *Clock) DelayUs(us uint32) { c.Us += uint64(us) }
func (c *Clock) DelayMs(ms uint32) { c.Us += uint64(ms) * 1000 }

// Machine is a simulated chip.
type Machine struct {
	variant chip.Variant

	mem    [chip.DataSpaceSize]uint8
	loads  map[uintptr]func() uint8
	stores map[uintptr]func(uint8)

	usarts []*USART
	twi    *TWI

	events []Event
	conn   *bus.Connection
}

// New builds a machine with every USART of v and the TWI attached.
func New(v chip.Variant) *Machine {
	m := &Machine{
		variant: v,
		loads:   make(map[uintptr]func() uint8),
		stores:  make(map[uintptr]func(uint8)),
	}
	for _, id := range v.USARTs() {
		base, _ := chip.USARTBase(v, id)
		m.usarts = append(m.usarts, newUSART(m, id, base))
	}
	if base, ok := chip.TWIBase(v); ok {
		m.twi = newTWI(m, base)
	}
	return m
}

// Open is chip.Open bound to this machine.
func (m *Machine) Open(cpuHz uint32) (*chip.Device, error) {
	return chip.Open(chip.Config{Variant: m.variant, CPUHz: cpuHz}, m)
}

func (m *Machine) Variant() chip.Variant { return m.variant }

// Load implements chip.Bus.
func (m *Machine) Load(addr uintptr) uint8 {
	if fn, ok := m.loads[addr]; ok {
		return fn()
	}
	return m.mem[addr]
}

// Store implements chip.Bus.
func (m *Machine) Store(addr uintptr, v uint8) {
	if fn, ok := m.stores[addr]; ok {
		fn(v)
		return
	}
	m.mem[addr] = v
}

// Peek reads backing memory without triggering device side effects.
func (m *Machine) Peek(addr uintptr) uint8 { return m.mem[addr] }

// Poke writes backing memory without triggering device side effects.
func (m *Machine) Poke(addr uintptr, v uint8) { m.mem[addr] = v }

func (m *Machine) hook(addr uintptr, load func() uint8, store func(uint8)) {
	if load != nil {
		m.loads[addr] = load
	}
	if store != nil {
		m.stores[addr] = store
	}
}

// USART returns the model of unit id, or nil if the variant lacks it.
func (m *Machine) USART(id chip.USARTID) *USART {
	if int(id) >= len(m.usarts) {
		return nil
	}
	return m.usarts[id]
}

// TWI returns the two-wire interface model.
func (m *Machine) TWI() *TWI { return m.twi }

// Events returns a copy of everything recorded since the last reset.
func (m *Machine) Events() []Event { return append([]Event(nil), m.events...) }

// ResetEvents clears the recorded events.
func (m *Machine) ResetEvents() { m.events = m.events[:0] }

// Publish mirrors every subsequent event onto conn under
// {"sim", device, kind}. Pass nil to stop.
func (m *Machine) Publish(conn *bus.Connection) { m.conn = conn }

func (m *Machine) emit(ev Event) {
	m.events = append(m.events, ev)
	if m.conn != nil {
		m.conn.Publish(&bus.Message{Topic: bus.T("sim", ev.Device, ev.Kind), Payload: ev})
	}
}
