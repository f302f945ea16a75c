// Package chip is the only way to obtain register handles. It maps a chip
// variant and a peripheral identity to the fixed data-space addresses given
// in the ATmega328P and ATmega2560 datasheets and returns typed register
// blocks bound to a Bus.
//
//	dev, err := chip.Open(chip.Config{Variant: chip.ATmega2560, CPUHz: 16_000_000}, bus)
//	u0, err := dev.USART(chip.USART0)
//
// On TinyGo AVR builds the bus is chip.Hardware(); on the host it is a
// simulator such as hw/sim.Machine.
package chip

import (
	"strings"

	"avrhal-go/errcode"
	"avrhal-go/internal/reg"
)

// Bus is the data space the handles read and write.
type Bus = reg.Bus

// Register8 is a handle on one 8-bit register.
type Register8 = reg.Register8

// Variant selects the target silicon.
type Variant uint8

const (
	ATmega328P Variant = iota + 1
	ATmega2560
)

func (v Variant) String() string {
	if l := layoutOf(v); l != nil {
		return l.name
	}
	return "unknown"
}

// ParseVariant accepts "atmega328p" and "atmega2560" (case-insensitive,
// a trailing "p" on 2560 is tolerated).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "atmega328p", "328p":
		return ATmega328P, nil
	case "atmega2560", "atmega2560p", "2560", "2560p":
		return ATmega2560, nil
	}
	return 0, errcode.Wrap(errcode.InvalidParams, "chip.parse", "unknown variant "+s)
}

// USARTs lists the USART units present on v.
func (v Variant) USARTs() []USARTID {
	l := layoutOf(v)
	if l == nil {
		return nil
	}
	ids := make([]USARTID, len(l.usart))
	for i := range l.usart {
		ids[i] = USARTID(i)
	}
	return ids
}

// USARTID identifies one physical USART unit.
type USARTID uint8

const (
	USART0 USARTID = iota
	USART1
	USART2
	USART3
)

func (id USARTID) String() string { return "usart" + string(rune('0'+id)) }

// Config describes the target.
type Config struct {
	Variant Variant
	// CPUHz is the oscillator frequency feeding the peripherals (F_CPU).
	CPUHz uint32
}

// Device is the process-wide set of register views for one chip. Create it
// once at startup and pass the blocks it returns to each engine.
type Device struct {
	cfg Config
	bus Bus
	l   *layout
}

// Open validates cfg and binds the variant's address map to bus.
func Open(cfg Config, bus Bus) (*Device, error) {
	l := layoutOf(cfg.Variant)
	if l == nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "chip.open", "unknown variant")
	}
	if cfg.CPUHz == 0 {
		return nil, errcode.Wrap(errcode.InvalidParams, "chip.open", "cpu clock is zero")
	}
	if bus == nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "chip.open", "nil bus")
	}
	return &Device{cfg: cfg, bus: bus, l: l}, nil
}

func (d *Device) Variant() Variant { return d.cfg.Variant }
func (d *Device) CPUHz() uint32    { return d.cfg.CPUHz }

// USART is the register block of one USART unit plus the power-reduction
// and clock-pin bits that belong to it.
type USART struct {
	ID    USARTID
	UCSRA Register8
	UCSRB Register8
	UCSRC Register8
	UBRRL Register8
	UBRRH Register8
	UDR   Register8

	PRR   Register8 // power-reduction register holding this unit's bit
	PRBit uint8     // mask within PRR

	XCKDDR Register8 // data-direction register of the XCK pin
	XCKBit uint8     // mask within XCKDDR
}

// USART returns the block for id, or UnknownBus if the variant lacks it.
func (d *Device) USART(id USARTID) (USART, error) {
	if int(id) >= len(d.l.usart) {
		return USART{}, errcode.Wrap(errcode.UnknownBus, "chip.usart", id.String()+" not present on "+d.l.name)
	}
	a := d.l.usart[id]
	at := func(off uintptr) Register8 { return reg.At(d.bus, a.base+off) }
	return USART{
		ID:     id,
		UCSRA:  at(offUCSRA),
		UCSRB:  at(offUCSRB),
		UCSRC:  at(offUCSRC),
		UBRRL:  at(offUBRRL),
		UBRRH:  at(offUBRRH),
		UDR:    at(offUDR),
		PRR:    reg.At(d.bus, a.prr),
		PRBit:  a.prBit,
		XCKDDR: reg.At(d.bus, a.xckDDR),
		XCKBit: a.xckBit,
	}, nil
}

// TWI is the two-wire interface register block and its pins.
type TWI struct {
	TWBR  Register8
	TWSR  Register8
	TWAR  Register8
	TWDR  Register8
	TWCR  Register8
	TWAMR Register8

	PRR   Register8
	PRBit uint8

	DDR    Register8 // data direction of the SDA/SCL port
	PORT   Register8 // output/pull-up latch of the SDA/SCL port
	SDABit uint8
	SCLBit uint8
}

func (d *Device) TWI() TWI {
	t := d.l.twi
	at := func(off uintptr) Register8 { return reg.At(d.bus, t.base+off) }
	return TWI{
		TWBR:   at(offTWBR),
		TWSR:   at(offTWSR),
		TWAR:   at(offTWAR),
		TWDR:   at(offTWDR),
		TWCR:   at(offTWCR),
		TWAMR:  at(offTWAMR),
		PRR:    reg.At(d.bus, t.prr),
		PRBit:  t.prBit,
		DDR:    reg.At(d.bus, t.ddr),
		PORT:   reg.At(d.bus, t.port),
		SDABit: t.sdaBit,
		SCLBit: t.sclBit,
	}
}

// SREG returns the CPU status register (global interrupt flag in bit 7).
func (d *Device) SREG() Register8 { return reg.At(d.bus, d.l.sreg) }

// System groups the clock, watchdog, sleep and power-reduction registers.
type System struct {
	SREG   Register8
	WDTCSR Register8
	MCUSR  Register8
	SMCR   Register8
	CLKPR  Register8
	PRR    []Register8 // PRR (328P) or PRR0, PRR1 (2560)
}

func (d *Device) System() System {
	s := System{
		SREG:   reg.At(d.bus, d.l.sreg),
		WDTCSR: reg.At(d.bus, d.l.wdtcsr),
		MCUSR:  reg.At(d.bus, d.l.mcusr),
		SMCR:   reg.At(d.bus, d.l.smcr),
		CLKPR:  reg.At(d.bus, d.l.clkpr),
	}
	for _, a := range d.l.prr {
		s.PRR = append(s.PRR, reg.At(d.bus, a))
	}
	return s
}
