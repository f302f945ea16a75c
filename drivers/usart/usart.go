// Package usart drives one AVR USART unit by polling its status register.
//
//	p, _ := usart.New(dev, chip.USART0)
//	_ = p.Configure(usart.Config{BaudRate: 9600})
//	_, _ = p.WriteString("Hello World!")
//
// Every wait is bounded by a poll.Budget; no call can block forever. The
// port does not use interrupts, and reconfiguration brackets its register
// sequence with the interrupt controller's Save/Restore.
package usart

import (
	"avrhal-go/chip"
	"avrhal-go/drivers/irq"
	"avrhal-go/drivers/sysctl"
	"avrhal-go/errcode"
	"avrhal-go/x/delay"
	"avrhal-go/x/mathx"
	"avrhal-go/x/poll"
)

// State is the port lifecycle.
type State uint8

const (
	Uninitialized State = iota
	Configuring
	Idle
	Transmitting
	Receiving
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configuring:
		return "configuring"
	case Idle:
		return "idle"
	case Transmitting:
		return "transmitting"
	case Receiving:
		return "receiving"
	}
	return "unknown"
}

// Default budgets.
var (
	// Reconfiguration waits for the unit to go quiet: 10 checks, 1 s apart.
	DefaultBusy = poll.Budget{Attempts: 10, IntervalUs: 1_000_000}
	// Transmit and receive checks run 1 ms apart. Each wait is stretched
	// to span at least txFrames character times at the configured baud;
	// 50 checks is the floor.
	DefaultTX = poll.Budget{Attempts: 50, IntervalUs: 1000}
	DefaultRX = poll.Budget{Attempts: 50, IntervalUs: 1000}
)

// A flush waits on the character in UDRn and the one in the shift
// register; the third frame is margin.
const txFrames = 3

// Port is one USART unit.
type Port struct {
	regs  chip.USART
	irq   *irq.Controller
	cpuHz uint32

	// Budgets for the reconfiguration precondition, transmit and receive.
	Busy, TX, RX poll.Budget

	cfg   Config
	state State
	u2x   uint8
	frame uint64   // µs per character at the configured baud
	sent  bool     // a character was loaded since the last Flush
	buf   [32]byte // number formatting scratch
}

// New binds unit id of dev. The budgets use a cycle-counted delay for the
// device clock; override them before Configure if needed.
func New(dev *chip.Device, id chip.USARTID) (*Port, error) {
	regs, err := dev.USART(id)
	if err != nil {
		return nil, err
	}
	d := delay.Spin{CPUHz: dev.CPUHz()}
	return &Port{
		regs:  regs,
		irq:   irq.New(dev.SREG()),
		cpuHz: dev.CPUHz(),
		Busy:  DefaultBusy.WithDelay(d),
		TX:    DefaultTX.WithDelay(d),
		RX:    DefaultRX.WithDelay(d),
	}, nil
}

func (p *Port) ID() chip.USARTID { return p.regs.ID }
func (p *Port) State() State     { return p.state }

// Config returns the configuration last applied.
func (p *Port) Config() Config { return p.cfg }

// Configure applies cfg as one unit. The port must be quiet: if it has
// been configured before, UDRE must be set and RXC clear within the Busy
// budget, otherwise errcode.Busy is returned and nothing is changed.
//
// Sequence: interrupts off, power on, mode, clock, frame format,
// enable, interrupts restored.
func (p *Port) Configure(cfg Config) error {
	cfg = cfg.withDefaults()
	if int(cfg.Mode) >= len(modeTable) {
		return errcode.Wrap(errcode.InvalidParams, "usart.configure", "unknown mode")
	}
	if int(cfg.Parity) >= len(parityTable) {
		return errcode.Wrap(errcode.InvalidParams, "usart.configure", "unknown parity")
	}
	size, ok := sizeTable[cfg.DataBits]
	if !ok {
		return errcode.Wrap(errcode.InvalidParams, "usart.configure", "data bits must be 5..9")
	}
	if cfg.StopBits != 1 && cfg.StopBits != 2 {
		return errcode.Wrap(errcode.InvalidParams, "usart.configure", "stop bits must be 1 or 2")
	}
	ubrr, err := Divisor(cfg.Mode, p.cpuHz, cfg.BaudRate)
	if err != nil {
		return err
	}

	if p.state != Uninitialized && !p.Busy.Wait(p.quiet) {
		return errcode.Wrap(errcode.Busy, "usart.configure", p.regs.ID.String()+" still active")
	}

	p.state = Configuring
	s := p.irq.Save()
	defer p.irq.Restore(s)

	// Power.
	sysctl.PowerUp(sysctl.USARTGate(p.regs))

	// Mode. Transmitter and receiver stay off until the format is set.
	m := modeTable[cfg.Mode]
	p.regs.UCSRB.ClearBits(chip.UCSRB_TXEN | chip.UCSRB_RXEN | chip.UCSRB_RXCIE | chip.UCSRB_TXCIE | chip.UCSRB_UDRIE)
	p.regs.UCSRC.ReplaceBits(m.umsel>>6, 0x03, 6)
	p.u2x = 0
	if m.u2x {
		p.u2x = chip.UCSRA_U2X
	}
	// Writing TXC here also clears a stale transmit-complete flag.
	p.regs.UCSRA.Set(p.u2x | chip.UCSRA_TXC)
	switch m.xck {
	case +1:
		p.regs.XCKDDR.SetBits(p.regs.XCKBit)
	case -1:
		p.regs.XCKDDR.ClearBits(p.regs.XCKBit)
	}

	// Clock. UBRRnH must be written before UBRRnL.
	p.regs.UBRRH.Set(uint8(ubrr>>8) & chip.UBRRH_MASK)
	p.regs.UBRRL.Set(uint8(ubrr))

	// Frame format.
	p.regs.UCSRC.ReplaceBits(size.ucsz>>1, 0x03, 1)
	if size.ucsz2 {
		p.regs.UCSRB.SetBits(chip.UCSRB_UCSZ2)
	} else {
		p.regs.UCSRB.ClearBits(chip.UCSRB_UCSZ2)
	}
	p.regs.UCSRC.ReplaceBits(parityTable[cfg.Parity]>>4, 0x03, 4)
	if cfg.StopBits == 2 {
		p.regs.UCSRC.SetBits(chip.UCSRC_USBS)
	} else {
		p.regs.UCSRC.ClearBits(chip.UCSRC_USBS)
	}
	// UCPOL must be zero in asynchronous mode.
	if m.xck != 0 && cfg.ClockPolarity == FallingEdge {
		p.regs.UCSRC.SetBits(chip.UCSRC_UCPOL)
	} else {
		p.regs.UCSRC.ClearBits(chip.UCSRC_UCPOL)
	}

	// Enable.
	var en uint8
	if !cfg.DisableTX {
		en |= chip.UCSRB_TXEN
	}
	if !cfg.DisableRX {
		en |= chip.UCSRB_RXEN
	}
	p.regs.UCSRB.SetBits(en)

	p.cfg = cfg
	p.frame = frameUs(cfg)
	p.sent = false
	p.state = Idle
	return nil
}

// frameUs is the time one character occupies the line: start bit, data,
// parity and stop bits.
func frameUs(cfg Config) uint64 {
	bits := 1 + uint64(cfg.DataBits) + uint64(cfg.StopBits)
	if cfg.Parity != ParityNone {
		bits++
	}
	return mathx.CeilDiv(bits*1_000_000, uint64(cfg.BaudRate))
}

// txWait and rxWait are the TX and RX budgets stretched to the line speed.
func (p *Port) txWait() poll.Budget { return p.TX.Covering(txFrames * p.frame) }
func (p *Port) rxWait() poll.Budget { return p.RX.Covering(txFrames * p.frame) }

// quiet reports no transmission or reception in progress.
func (p *Port) quiet() bool {
	a := p.regs.UCSRA.Get()
	return a&chip.UCSRA_UDRE != 0 && a&chip.UCSRA_RXC == 0
}

// Close waits for the last character to leave the transmitter, then
// disables the transmitter and receiver. The unit is disabled even when
// the wait times out; the timeout is still reported.
func (p *Port) Close() error {
	var err error
	if p.state == Idle && !p.cfg.DisableTX {
		err = p.Flush()
	}
	p.regs.UCSRB.ClearBits(chip.UCSRB_TXEN | chip.UCSRB_RXEN)
	p.state = Uninitialized
	p.sent = false
	return err
}

func (p *Port) ready(op string) error {
	if p.state == Uninitialized || p.state == Configuring {
		return errcode.Wrap(errcode.HALNotReady, op, p.regs.ID.String()+" not configured")
	}
	return nil
}
