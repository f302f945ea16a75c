package usart

import (
	"avrhal-go/errcode"
	"avrhal-go/x/mathx"
)

// MaxDivisor is the largest value UBRRn can hold (12 bits).
const MaxDivisor = 0x0FFF

// Divisor returns the UBRRn value for baud at oscillator frequency fosc:
// round(fosc / (N*baud)) - 1 with N = 16, 8 or 2 for the mode. Slave
// synchronous mode is clocked externally and always yields 0.
func Divisor(mode Mode, fosc, baud uint32) (uint16, error) {
	if int(mode) >= len(modeTable) {
		return 0, errcode.Wrap(errcode.InvalidParams, "usart.divisor", "unknown mode")
	}
	n := modeTable[mode].n
	if n == 0 {
		return 0, nil
	}
	if baud == 0 || fosc == 0 {
		return 0, errcode.Wrap(errcode.InvalidParams, "usart.divisor", "zero baud or clock")
	}
	q := mathx.RoundDiv(uint64(fosc), uint64(n)*uint64(baud))
	if q == 0 || q-1 > MaxDivisor {
		return 0, errcode.Wrap(errcode.Configuration, "usart.divisor", "baud rate out of range for clock")
	}
	return uint16(q - 1), nil
}

// BaudFor is the baud rate a divisor actually produces.
func BaudFor(mode Mode, fosc uint32, divisor uint16) uint32 {
	if int(mode) >= len(modeTable) || modeTable[mode].n == 0 {
		return 0
	}
	return uint32(mathx.RoundDiv(uint64(fosc), uint64(modeTable[mode].n)*(uint64(divisor)+1)))
}

// BaudError is the relative error of the achieved rate, in parts per
// thousand.
func BaudError(mode Mode, fosc, baud uint32) (int32, error) {
	d, err := Divisor(mode, fosc, baud)
	if err != nil || modeTable[mode].n == 0 {
		return 0, err
	}
	got := int64(BaudFor(mode, fosc, d))
	return int32((got - int64(baud)) * 1000 / int64(baud)), nil
}
