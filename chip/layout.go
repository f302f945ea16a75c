package chip

// Register offsets within a USART block (UCSRnA is the base).
const (
	offUCSRA = 0
	offUCSRB = 1
	offUCSRC = 2
	// 3 is reserved on both variants
	offUBRRL = 4
	offUBRRH = 5
	offUDR   = 6

	usartSpan = 7
)

// Register offsets within the TWI block (TWBR is the base).
const (
	offTWBR  = 0
	offTWSR  = 1
	offTWAR  = 2
	offTWDR  = 3
	offTWCR  = 4
	offTWAMR = 5

	twiSpan = 6
)

type usartLayout struct {
	base   uintptr
	prr    uintptr
	prBit  uint8
	xckDDR uintptr
	xckBit uint8
}

type twiLayout struct {
	base   uintptr
	prr    uintptr
	prBit  uint8
	ddr    uintptr
	port   uintptr
	sdaBit uint8
	sclBit uint8
}

type layout struct {
	name   string
	usart  []usartLayout // indexed by USARTID
	twi    twiLayout
	sreg   uintptr
	wdtcsr uintptr
	mcusr  uintptr
	smcr   uintptr
	clkpr  uintptr
	prr    []uintptr
}

// Data-space addresses (I/O address + 0x20 for the low I/O range).
var atmega328p = layout{
	name: "atmega328p",
	usart: []usartLayout{
		{base: 0xC0, prr: 0x64, prBit: 1 << 1, xckDDR: 0x2A, xckBit: 1 << 4}, // XCK0 = PD4
	},
	twi: twiLayout{
		base: 0xB8, prr: 0x64, prBit: 1 << 7,
		ddr: 0x27, port: 0x28, sdaBit: 1 << 4, sclBit: 1 << 5, // PC4/PC5
	},
	sreg:   0x5F,
	wdtcsr: 0x60,
	mcusr:  0x54,
	smcr:   0x53,
	clkpr:  0x61,
	prr:    []uintptr{0x64},
}

var atmega2560 = layout{
	name: "atmega2560",
	usart: []usartLayout{
		{base: 0xC0, prr: 0x64, prBit: 1 << 1, xckDDR: 0x2D, xckBit: 1 << 2},  // XCK0 = PE2
		{base: 0xC8, prr: 0x65, prBit: 1 << 0, xckDDR: 0x2A, xckBit: 1 << 5},  // XCK1 = PD5
		{base: 0xD0, prr: 0x65, prBit: 1 << 1, xckDDR: 0x101, xckBit: 1 << 2}, // XCK2 = PH2
		{base: 0x130, prr: 0x65, prBit: 1 << 2, xckDDR: 0x104, xckBit: 1 << 2}, // XCK3 = PJ2
	},
	twi: twiLayout{
		base: 0xB8, prr: 0x64, prBit: 1 << 7,
		ddr: 0x2A, port: 0x2B, sdaBit: 1 << 1, sclBit: 1 << 0, // PD1/PD0
	},
	sreg:   0x5F,
	wdtcsr: 0x60,
	mcusr:  0x54,
	smcr:   0x53,
	clkpr:  0x61,
	prr:    []uintptr{0x64, 0x65},
}

func layoutOf(v Variant) *layout {
	switch v {
	case ATmega328P:
		return &atmega328p
	case ATmega2560:
		return &atmega2560
	}
	return nil
}

// Variants lists every supported variant.
func Variants() []Variant { return []Variant{ATmega328P, ATmega2560} }

// USARTBase returns the data-space address of UCSRnA for id on v.
func USARTBase(v Variant, id USARTID) (uintptr, bool) {
	l := layoutOf(v)
	if l == nil || int(id) >= len(l.usart) {
		return 0, false
	}
	return l.usart[id].base, true
}

// USARTAt maps a base address back to its unit.
func USARTAt(v Variant, base uintptr) (USARTID, bool) {
	l := layoutOf(v)
	if l == nil {
		return 0, false
	}
	for i, u := range l.usart {
		if u.base == base {
			return USARTID(i), true
		}
	}
	return 0, false
}

// TWIBase returns the data-space address of TWBR on v.
func TWIBase(v Variant) (uintptr, bool) {
	l := layoutOf(v)
	if l == nil {
		return 0, false
	}
	return l.twi.base, true
}

// DataSpaceSize bounds every address used by the supported variants.
const DataSpaceSize = 0x200

func init() {
	for _, v := range Variants() {
		if err := layoutOf(v).check(); err != "" {
			panic("chip: " + v.String() + ": " + err)
		}
	}
}

// check verifies that peripheral blocks do not overlap and that every
// address fits the data space. Port registers are shared between pins and
// are excluded.
func (l *layout) check() string {
	owner := make(map[uintptr]string)
	claim := func(who string, base uintptr, span uintptr) string {
		for a := base; a < base+span; a++ {
			if a >= DataSpaceSize {
				return who + " outside data space"
			}
			if prev, ok := owner[a]; ok && prev != who {
				return who + " overlaps " + prev
			}
			owner[a] = who
		}
		return ""
	}
	for i, u := range l.usart {
		if e := claim(USARTID(i).String(), u.base, usartSpan); e != "" {
			return e
		}
	}
	if e := claim("twi", l.twi.base, twiSpan); e != "" {
		return e
	}
	for _, r := range []struct {
		who  string
		addr uintptr
	}{{"sreg", l.sreg}, {"wdtcsr", l.wdtcsr}, {"mcusr", l.mcusr}, {"smcr", l.smcr}, {"clkpr", l.clkpr}} {
		if e := claim(r.who, r.addr, 1); e != "" {
			return e
		}
	}
	for _, a := range l.prr {
		if e := claim("prr", a, 1); e != "" {
			return e
		}
	}
	return ""
}
