package sim

import "avrhal-go/chip"

// TWI status codes as reported in TWSR[7:3].
const (
	stBusError   = 0x00
	stStart      = 0x08
	stRepStart   = 0x10
	stMTSLAAck   = 0x18
	stMTSLANack  = 0x20
	stMTDataAck  = 0x28
	stMTDataNack = 0x30
	stMRSLAAck   = 0x40
	stMRSLANack  = 0x48
	stMRDataAck  = 0x50
	stMRDataNack = 0x58
	stIdle       = 0xF8
)

// Responder is a slave device on the simulated bus.
type Responder interface {
	// Address is called after SLA+R/W; return false to NACK.
	Address(read bool) bool
	// Write receives one data byte; return false to NACK it.
	Write(b byte) bool
	// Read supplies one data byte; ack is what the master will answer.
	Read(ack bool) byte
}

// Stopper is implemented by responders that want to see the STOP that
// ends a transaction they took part in.
type Stopper interface {
	Stop()
}

type twiPhase uint8

const (
	phaseIdle twiPhase = iota
	phaseStarted
	phaseTransmit
	phaseReceive
	phaseHeld // address NACKed, bus still owned by the master
)

// TWI models the two-wire interface in master mode.
type TWI struct {
	m    *Machine
	base uintptr

	// Hang keeps TWINT clear forever, as with a stuck bus.
	Hang bool
	// Latency is the number of TWCR reads that show TWINT clear after each
	// action.
	Latency int
	// With Clock set, TWINT rises nine BitUs periods of virtual time after
	// each action, like a real bus clocking out a byte and its ACK.
	Clock *Clock
	BitUs uint64

	slaves map[uint8]Responder
	cur    Responder

	phase  twiPhase
	status uint8
	twint  bool
	wait   int
	stops  int
	ready  uint64
}

func newTWI(m *Machine, base uintptr) *TWI {
	t := &TWI{m: m, base: base, status: stIdle, slaves: make(map[uint8]Responder)}
	m.mem[base+3] = 0xFF // TWDR reset value
	m.hook(base+1, t.loadSR, t.storeSR)
	m.hook(base+4, t.loadCR, t.storeCR)
	return t
}

// Attach puts r on the bus at 7-bit address addr.
func (t *TWI) Attach(addr uint8, r Responder) { t.slaves[addr&0x7F] = r }

// Detach removes the device at addr.
func (t *TWI) Detach(addr uint8) { delete(t.slaves, addr&0x7F) }

// Stops is the number of STOP conditions issued so far.
func (t *TWI) Stops() int { return t.stops }

// Idle reports whether the master has released the bus.
func (t *TWI) Idle() bool { return t.phase == phaseIdle }

// BitRate returns TWBR and the prescaler bits currently programmed.
func (t *TWI) BitRate() (twbr, ps uint8) {
	return t.m.mem[t.base], t.m.mem[t.base+1] & chip.TWSR_TWPS
}

func (t *TWI) loadSR() uint8 {
	return t.status | t.m.mem[t.base+1]&chip.TWSR_TWPS
}

func (t *TWI) storeSR(v uint8) { t.m.mem[t.base+1] = v & chip.TWSR_TWPS }

func (t *TWI) loadCR() uint8 {
	v := t.m.mem[t.base+4]
	if t.twint {
		switch {
		case t.wait > 0:
			t.wait--
		case t.Clock != nil && t.Clock.Us < t.ready:
		default:
			v |= chip.TWCR_TWINT
		}
	}
	return v
}

func (t *TWI) storeCR(v uint8) {
	// TWINT and TWSTO are not latched; TWINT is written one to clear.
	t.m.mem[t.base+4] = v &^ (chip.TWCR_TWINT | chip.TWCR_TWSTO)
	if v&chip.TWCR_TWINT == 0 || v&chip.TWCR_TWEN == 0 {
		return
	}
	t.twint = false

	switch {
	case v&chip.TWCR_TWSTO != 0:
		t.stop()
		return
	case v&chip.TWCR_TWSTA != 0:
		t.start()
	default:
		t.transfer(v&chip.TWCR_TWEA != 0)
	}
	if !t.Hang {
		t.twint = true
		t.wait = t.Latency
		if t.Clock != nil {
			t.ready = t.Clock.Us + 9*t.BitUs
		}
	}
}

func (t *TWI) start() {
	if t.phase == phaseIdle {
		t.status = stStart
		t.m.emit(Event{Device: "twi", Kind: "start"})
	} else {
		t.status = stRepStart
		t.m.emit(Event{Device: "twi", Kind: "restart"})
	}
	t.phase = phaseStarted
	t.cur = nil
}

func (t *TWI) stop() {
	if s, ok := t.cur.(Stopper); ok {
		s.Stop()
	}
	t.stops++
	t.phase = phaseIdle
	t.cur = nil
	t.status = stIdle
	t.m.emit(Event{Device: "twi", Kind: "stop"})
}

func (t *TWI) transfer(ack bool) {
	dr := &t.m.mem[t.base+3]
	switch t.phase {
	case phaseStarted:
		sla := *dr
		read := sla&1 != 0
		r := t.slaves[sla>>1]
		ok := r != nil && r.Address(read)
		t.m.emit(Event{Device: "twi", Kind: "addr", Value: uint16(sla), Ack: ok})
		switch {
		case !ok:
			t.phase = phaseHeld
			t.status = pick(read, stMRSLANack, stMTSLANack)
		case read:
			t.phase, t.cur, t.status = phaseReceive, r, stMRSLAAck
		default:
			t.phase, t.cur, t.status = phaseTransmit, r, stMTSLAAck
		}
	case phaseTransmit:
		ok := t.cur.Write(*dr)
		t.m.emit(Event{Device: "twi", Kind: "write", Value: uint16(*dr), Ack: ok})
		t.status = pick(ok, stMTDataAck, stMTDataNack)
	case phaseReceive:
		*dr = t.cur.Read(ack)
		t.m.emit(Event{Device: "twi", Kind: "read", Value: uint16(*dr), Ack: ack})
		t.status = pick(ack, stMRDataAck, stMRDataNack)
	default:
		t.status = stBusError
		t.m.emit(Event{Device: "twi", Kind: "error"})
	}
}

func pick(c bool, a, b uint8) uint8 {
	if c {
		return a
	}
	return b
}
