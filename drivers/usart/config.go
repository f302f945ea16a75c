package usart

import "avrhal-go/chip"

// Mode is the USART operating mode.
type Mode uint8

const (
	AsyncNormal Mode = iota // asynchronous, 16 samples per bit
	AsyncDouble             // asynchronous, U2X set, 8 samples per bit
	SyncMaster              // synchronous, XCK driven by this unit
	SyncSlave               // synchronous, XCK driven by the peer
)

func (m Mode) String() string {
	if int(m) < len(modeTable) {
		return modeTable[m].name
	}
	return "unknown"
}

// Parity selects the parity generator/checker.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	}
	return "unknown"
}

// Polarity is the XCK edge used in synchronous modes (UCPOL).
type Polarity uint8

const (
	// TX changes on the rising XCK edge, RX samples on the falling edge.
	RisingEdge Polarity = iota
	// TX changes on the falling XCK edge, RX samples on the rising edge.
	FallingEdge
)

// Config is a complete frame configuration. Zero fields take defaults:
// 9600 baud, 8 data bits, 1 stop bit, no parity, asynchronous normal mode.
type Config struct {
	Mode          Mode
	BaudRate      uint32
	DataBits      uint8 // 5..9
	Parity        Parity
	StopBits      uint8 // 1 or 2
	ClockPolarity Polarity

	// Transmit-only or receive-only ports leave the other side disabled.
	DisableRX bool
	DisableTX bool
}

const (
	DefaultBaud     = 9600
	DefaultDataBits = 8
	DefaultStopBits = 1
)

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaud
	}
	if c.DataBits == 0 {
		c.DataBits = DefaultDataBits
	}
	if c.StopBits == 0 {
		c.StopBits = DefaultStopBits
	}
	return c
}

type modeBits struct {
	name  string
	umsel uint8  // UCSRnC UMSELn1:0
	u2x   bool   // UCSRnA U2Xn
	n     uint32 // clock samples per bit; 0 means no local divisor
	xck   int8   // +1 output, -1 input, 0 unused
}

var modeTable = [...]modeBits{
	AsyncNormal: {name: "async", n: 16},
	AsyncDouble: {name: "async2x", u2x: true, n: 8},
	SyncMaster:  {name: "sync-master", umsel: chip.UCSRC_UMSEL0, n: 2, xck: +1},
	SyncSlave:   {name: "sync-slave", umsel: chip.UCSRC_UMSEL0, xck: -1},
}

var parityTable = [...]uint8{
	ParityNone: 0,
	ParityEven: chip.UCSRC_UPM1,
	ParityOdd:  chip.UCSRC_UPM1 | chip.UCSRC_UPM0,
}

type sizeBits struct {
	ucsz  uint8 // UCSZn1:0 in UCSRnC
	ucsz2 bool  // UCSZn2 in UCSRnB
}

// Indexed by data bits.
var sizeTable = map[uint8]sizeBits{
	5: {},
	6: {ucsz: chip.UCSRC_UCSZ0},
	7: {ucsz: chip.UCSRC_UCSZ1},
	8: {ucsz: chip.UCSRC_UCSZ1 | chip.UCSRC_UCSZ0},
	9: {ucsz: chip.UCSRC_UCSZ1 | chip.UCSRC_UCSZ0, ucsz2: true},
}

// ParseMode accepts the names printed by Mode.String.
func ParseMode(s string) (Mode, bool) {
	for i, m := range modeTable {
		if m.name == s {
			return Mode(i), true
		}
	}
	return 0, false
}

// ParseParity accepts "none", "even" and "odd".
func ParseParity(s string) (Parity, bool) {
	for p := ParityNone; p <= ParityOdd; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}
