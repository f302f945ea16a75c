package usart

import (
	"avrhal-go/chip"
	"avrhal-go/errcode"
	"avrhal-go/x/conv"
)

func (p *Port) udre() bool { return p.regs.UCSRA.HasBits(chip.UCSRA_UDRE) }
func (p *Port) txc() bool  { return p.regs.UCSRA.HasBits(chip.UCSRA_TXC) }

// put waits for the data register to empty and loads one character.
// The ninth bit goes to TXB8 before the low byte goes to UDRn.
func (p *Port) put(op string, v uint16) error {
	if err := p.ready(op); err != nil {
		return err
	}
	if p.cfg.DisableTX {
		return errcode.Wrap(errcode.Unsupported, op, "transmitter disabled")
	}
	p.state = Transmitting
	defer func() { p.state = Idle }()

	if !p.txWait().Wait(p.udre) {
		return errcode.Wrap(errcode.Timeout, op, "data register never emptied")
	}
	p.regs.UCSRA.Set(p.u2x | chip.UCSRA_TXC)
	if p.cfg.DataBits == 9 {
		if v&0x100 != 0 {
			p.regs.UCSRB.SetBits(chip.UCSRB_TXB8)
		} else {
			p.regs.UCSRB.ClearBits(chip.UCSRB_TXB8)
		}
	}
	p.regs.UDR.Set(uint8(v))
	p.sent = true
	return nil
}

// WriteByte transmits one character.
func (p *Port) WriteByte(b byte) error { return p.put("usart.write", uint16(b)) }

// Write9 transmits one character of up to nine bits. Bits above the
// configured frame size are ignored by the hardware.
func (p *Port) Write9(v uint16) error { return p.put("usart.write9", v&0x1FF) }

// Write transmits p in order and stops at the first failure.
func (p *Port) Write(buf []byte) (int, error) {
	for i, b := range buf {
		if err := p.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// WriteString is Write without the conversion.
func (p *Port) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if err := p.WriteByte(s[i]); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

// Println writes s followed by CR LF.
func (p *Port) Println(s string) error {
	if _, err := p.WriteString(s); err != nil {
		return err
	}
	_, err := p.WriteString("\r\n")
	return err
}

// WriteUint writes the decimal digits of n, most significant first.
func (p *Port) WriteUint(n uint64) error {
	_, err := p.Write(conv.Utoa(p.buf[:], n))
	return err
}

// WriteInt writes n in decimal with a leading '-' when negative.
func (p *Port) WriteInt(n int64) error {
	_, err := p.Write(conv.Itoa(p.buf[:], n))
	return err
}

// WriteFloat writes f with prec digits after the decimal point
// (0..conv.MaxPrec), rounded half away from zero.
func (p *Port) WriteFloat(f float64, prec int) error {
	if prec < 0 || prec > conv.MaxPrec {
		return errcode.Wrap(errcode.InvalidParams, "usart.writefloat", "precision out of range")
	}
	_, err := p.Write(conv.Ftoa(p.buf[:], f, prec))
	return err
}

// Flush waits until the last character has left the shift register.
// It returns at once when nothing was written since the previous Flush.
func (p *Port) Flush() error {
	if err := p.ready("usart.flush"); err != nil {
		return err
	}
	if !p.sent {
		return nil
	}
	if !p.txWait().Wait(p.txc) {
		return errcode.Wrap(errcode.Timeout, "usart.flush", "transmission never completed")
	}
	p.sent = false
	return nil
}
