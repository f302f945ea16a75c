package twi

import (
	"errors"

	"avrhal-go/errcode"
	"avrhal-go/x/conv"
)

// Master status codes, TWSR[7:3].
const (
	StatusBusError   = 0x00
	StatusStart      = 0x08
	StatusRepStart   = 0x10
	StatusMTSLAAck   = 0x18
	StatusMTSLANack  = 0x20
	StatusMTDataAck  = 0x28
	StatusMTDataNack = 0x30
	StatusArbLost    = 0x38
	StatusMRSLAAck   = 0x40
	StatusMRSLANack  = 0x48
	StatusMRDataAck  = 0x50
	StatusMRDataNack = 0x58
	StatusIdle       = 0xF8 // no relevant state information
)

var (
	// ErrNack matches a StatusError caused by a slave not acknowledging.
	ErrNack = errors.New("twi: not acknowledged")
	// ErrArbitrationLost matches a StatusError caused by another master.
	ErrArbitrationLost = errors.New("twi: arbitration lost")
)

// StatusError is returned when TWINT was raised with a status other than
// the one the current phase expects. It carries errcode.Protocol.
type StatusError struct {
	Op   string
	Want uint8
	Got  uint8
}

func (e *StatusError) Error() string {
	var w, g [2]byte
	s := "twi." + e.Op + ": " + string(errcode.Protocol) + ": status 0x" + string(conv.U8Hex(g[:], e.Got))
	if e.Got == StatusBusError {
		s += " (bus error)"
	}
	return s + ", want 0x" + string(conv.U8Hex(w[:], e.Want))
}

func (e *StatusError) Code() errcode.Code { return errcode.Protocol }

func (e *StatusError) Is(target error) bool {
	switch target {
	case errcode.Protocol:
		return true
	case ErrNack:
		return e.Got == StatusMTSLANack || e.Got == StatusMTDataNack || e.Got == StatusMRSLANack
	case ErrArbitrationLost:
		return e.Got == StatusArbLost
	}
	return false
}
