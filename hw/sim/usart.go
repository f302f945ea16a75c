package sim

import "avrhal-go/chip"

// Frame is one USART character as seen on the wire.
type Frame struct {
	Data uint16 // up to 9 data bits
	// Flags holds UCSRnA error bits (chip.UCSRA_FE, UCSRA_DOR, UCSRA_UPE)
	// reported while this frame is at the head of the receive buffer.
	Flags uint8
}

// Op is one register access recorded by a USART model.
type Op uint8

const (
	OpStatus Op = iota + 1 // UCSRnA read
	OpWrite                // UDRn write
	OpRead                 // UDRn read
)

// USART models one USART unit.
type USART struct {
	m    *Machine
	id   chip.USARTID
	name string
	base uintptr

	// StallTX keeps UDRE and TXC clear, as if the transmitter never drains.
	StallTX bool
	// StallRX hides queued frames from RXC.
	StallRX bool
	// TXLatency is the number of UCSRnA reads that report UDRE clear after
	// each data write.
	TXLatency int
	// With Clock set, each character occupies the line for FrameUs of
	// virtual time: UDRE follows the data register and TXC the shift
	// register. TXLatency is ignored.
	Clock   *Clock
	FrameUs uint64

	udrFree  uint64 // time UDRn hands its character to the shift register
	shiftEnd uint64 // time the shift register empties

	txBusy int
	txc    bool
	tx     []Frame
	rx     []Frame
	ops    []Op
}

func newUSART(m *Machine, id chip.USARTID, base uintptr) *USART {
	u := &USART{m: m, id: id, name: id.String(), base: base}
	m.mem[base+2] = chip.UCSRC_UCSZ1 | chip.UCSRC_UCSZ0 // reset value: 8-bit frames
	m.hook(base, u.loadA, u.storeA)
	m.hook(base+1, u.loadB, nil)
	m.hook(base+6, u.loadUDR, u.storeUDR)
	return u
}

func (u *USART) regB() uint8 { return u.m.mem[u.base+1] }
func (u *USART) regC() uint8 { return u.m.mem[u.base+2] }

func (u *USART) loadA() uint8 {
	u.ops = append(u.ops, OpStatus)
	v := u.m.mem[u.base] & (chip.UCSRA_U2X | chip.UCSRA_MPCM)
	switch {
	case u.StallTX:
	case u.Clock != nil:
		if u.Clock.Us >= u.udrFree {
			v |= chip.UCSRA_UDRE
		}
	case u.txBusy > 0:
		u.txBusy--
	default:
		v |= chip.UCSRA_UDRE
	}
	if u.txc && (u.Clock == nil || u.Clock.Us >= u.shiftEnd) {
		v |= chip.UCSRA_TXC
	}
	if !u.StallRX && u.regB()&chip.UCSRB_RXEN != 0 && len(u.rx) > 0 {
		v |= chip.UCSRA_RXC | u.rx[0].Flags&(chip.UCSRA_FE|chip.UCSRA_DOR|chip.UCSRA_UPE)
	}
	return v
}

func (u *USART) storeA(v uint8) {
	if v&chip.UCSRA_TXC != 0 {
		u.txc = false
	}
	u.m.mem[u.base] = v & (chip.UCSRA_U2X | chip.UCSRA_MPCM)
}

func (u *USART) loadB() uint8 {
	v := u.regB() &^ chip.UCSRB_RXB8
	if len(u.rx) > 0 && u.rx[0].Data&0x100 != 0 {
		v |= chip.UCSRB_RXB8
	}
	return v
}

func (u *USART) storeUDR(v uint8) {
	u.ops = append(u.ops, OpWrite)
	b := u.regB()
	if b&chip.UCSRB_TXEN == 0 {
		return
	}
	f := Frame{Data: uint16(v)}
	if b&chip.UCSRB_UCSZ2 != 0 && b&chip.UCSRB_TXB8 != 0 {
		f.Data |= 0x100
	}
	u.tx = append(u.tx, f)
	u.txBusy = u.TXLatency
	if u.Clock != nil {
		if now := u.Clock.Us; u.shiftEnd <= now {
			u.udrFree, u.shiftEnd = now, now+u.FrameUs
		} else {
			u.udrFree, u.shiftEnd = u.shiftEnd, u.shiftEnd+u.FrameUs
		}
	}
	if !u.StallTX {
		u.txc = true
	}
	u.m.emit(Event{Device: u.name, Kind: "tx", Value: f.Data})
}

func (u *USART) loadUDR() uint8 {
	u.ops = append(u.ops, OpRead)
	if len(u.rx) == 0 {
		return 0
	}
	f := u.rx[0]
	u.rx = u.rx[1:]
	u.m.emit(Event{Device: u.name, Kind: "rx", Value: f.Data})
	return uint8(f.Data)
}

// Inject queues received frames.
func (u *USART) Inject(frames ...Frame) { u.rx = append(u.rx, frames...) }

// InjectBytes queues error-free 8-bit frames.
func (u *USART) InjectBytes(p []byte) {
	for _, b := range p {
		u.rx = append(u.rx, Frame{Data: uint16(b)})
	}
}

// Pending is the number of received frames not yet read.
func (u *USART) Pending() int { return len(u.rx) }

// Transmitted returns the frames written so far.
func (u *USART) Transmitted() []Frame { return append([]Frame(nil), u.tx...) }

// TransmittedBytes returns the low eight bits of every transmitted frame.
func (u *USART) TransmittedBytes() []byte {
	out := make([]byte, len(u.tx))
	for i, f := range u.tx {
		out[i] = uint8(f.Data)
	}
	return out
}

// Ops returns the register access trace.
func (u *USART) Ops() []Op { return append([]Op(nil), u.ops...) }

// Reset clears transmitted frames and the access trace.
func (u *USART) Reset() {
	u.tx = nil
	u.ops = nil
}

// Divisor returns the 12-bit UBRR value currently programmed.
func (u *USART) Divisor() uint16 {
	return uint16(u.m.mem[u.base+5]&chip.UBRRH_MASK)<<8 | uint16(u.m.mem[u.base+4])
}

// Format decodes the programmed frame format.
func (u *USART) Format() (dataBits, parity, stopBits uint8) {
	c := u.regC()
	size := (c & (chip.UCSRC_UCSZ1 | chip.UCSRC_UCSZ0)) >> 1
	if u.regB()&chip.UCSRB_UCSZ2 != 0 {
		size |= 4
	}
	switch size {
	case 7:
		dataBits = 9
	default:
		dataBits = 5 + size
	}
	parity = (c & (chip.UCSRC_UPM1 | chip.UCSRC_UPM0)) >> 4
	stopBits = 1
	if c&chip.UCSRC_USBS != 0 {
		stopBits = 2
	}
	return dataBits, parity, stopBits
}
