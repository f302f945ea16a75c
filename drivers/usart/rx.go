package usart

import (
	"avrhal-go/chip"
	"avrhal-go/errcode"
)

func (p *Port) rxc() bool { return p.regs.UCSRA.HasBits(chip.UCSRA_RXC) }

// get waits for a received character. Error flags and the ninth bit belong
// to the character at the head of the buffer, so they are sampled before
// UDRn is read. The character is returned even when a flag is set.
func (p *Port) get(op string) (uint16, error) {
	if err := p.ready(op); err != nil {
		return 0, err
	}
	if p.cfg.DisableRX {
		return 0, errcode.Wrap(errcode.Unsupported, op, "receiver disabled")
	}
	p.state = Receiving
	defer func() { p.state = Idle }()

	if !p.rxWait().Wait(p.rxc) {
		return 0, errcode.Wrap(errcode.Timeout, op, "no data received")
	}
	status := p.regs.UCSRA.Get()
	var ninth uint16
	if p.cfg.DataBits == 9 && p.regs.UCSRB.HasBits(chip.UCSRB_RXB8) {
		ninth = 0x100
	}
	v := ninth | uint16(p.regs.UDR.Get())

	switch {
	case status&chip.UCSRA_FE != 0:
		return v, errcode.Wrap(errcode.FrameError, op, "stop bit not detected")
	case status&chip.UCSRA_DOR != 0:
		return v, errcode.Wrap(errcode.OverrunError, op, "receive buffer overrun")
	case status&chip.UCSRA_UPE != 0:
		return v, errcode.Wrap(errcode.ParityError, op, "parity mismatch")
	}
	return v, nil
}

// ReadByte returns the next received character.
func (p *Port) ReadByte() (byte, error) {
	v, err := p.get("usart.read")
	return byte(v), err
}

// Read9 returns the next received character including the ninth bit.
func (p *Port) Read9() (uint16, error) { return p.get("usart.read9") }

// Read fills buf with received characters. It returns what arrived before
// the first error; a character carrying a receive error is stored and
// counted.
func (p *Port) Read(buf []byte) (int, error) {
	for i := range buf {
		v, err := p.get("usart.read")
		switch errcode.Of(err) {
		case errcode.OK:
			buf[i] = byte(v)
		case errcode.FrameError, errcode.OverrunError, errcode.ParityError:
			buf[i] = byte(v)
			return i + 1, err
		default:
			return i, err
		}
	}
	return len(buf), nil
}

// Buffered reports whether a received character is waiting.
func (p *Port) Buffered() bool { return p.state != Uninitialized && p.rxc() }
