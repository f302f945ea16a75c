package twi

import (
	"avrhal-go/errcode"
	"avrhal-go/x/mathx"
)

var (
	ErrFrequencyTooLow  = &errcode.E{C: errcode.Configuration, Op: "twi.prescale", Msg: "frequency too low"}
	ErrFrequencyTooHigh = &errcode.E{C: errcode.Configuration, Op: "twi.prescale", Msg: "frequency too high"}
)

// Prescaler is a bit-rate setting: SCL = cpuHz / (16 + 2*TWBR*Divisor).
type Prescaler struct {
	Bits    uint8 // TWPS1:0
	Divisor uint8 // 1, 4, 16 or 64
	TWBR    uint8
}

// MinTWBR is the smallest bit-rate register value allowed in master mode.
const MinTWBR = 10

// Prescale picks the smallest prescaler whose TWBR fits eight bits for a
// bus clock of at most busHz. TWBR is rounded up so the bus never runs
// faster than requested. A request that needs TWBR below MinTWBR is too
// high.
func Prescale(cpuHz, busHz uint32) (Prescaler, error) {
	if cpuHz == 0 || busHz == 0 {
		return Prescaler{}, errcode.Wrap(errcode.InvalidParams, "twi.prescale", "zero frequency")
	}
	if uint64(busHz)*16 > uint64(cpuHz) {
		return Prescaler{}, ErrFrequencyTooHigh
	}
	excess := uint64(cpuHz) - 16*uint64(busHz)
	for bits := uint8(0); bits < 4; bits++ {
		div := uint64(1) << (2 * bits)
		twbr := mathx.CeilDiv(excess, 2*div*uint64(busHz))
		if twbr < MinTWBR {
			return Prescaler{}, ErrFrequencyTooHigh
		}
		if twbr <= 0xFF {
			return Prescaler{Bits: bits, Divisor: uint8(div), TWBR: uint8(twbr)}, nil
		}
	}
	return Prescaler{}, ErrFrequencyTooLow
}

// Frequency is the SCL rate p produces at cpuHz.
func (p Prescaler) Frequency(cpuHz uint32) uint32 {
	div := uint32(p.Divisor)
	if div == 0 {
		div = 1
	}
	return cpuHz / (16 + 2*uint32(p.TWBR)*div)
}

// MinFrequency is the slowest bus clock reachable at cpuHz.
func MinFrequency(cpuHz uint32) uint32 {
	return mathx.CeilDiv(cpuHz, 16+2*0xFF*64)
}

// MaxFrequency is the fastest bus clock reachable at cpuHz (TWBR = MinTWBR,
// no prescaling).
func MaxFrequency(cpuHz uint32) uint32 {
	return cpuHz / (16 + 2*MinTWBR)
}
