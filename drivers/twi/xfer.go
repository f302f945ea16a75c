package twi

import "avrhal-go/errcode"

// WriteBurst sends p byte by byte and stops at the first byte that is not
// acknowledged. It returns the number of bytes the slave accepted.
func (b *Bus) WriteBurst(p []byte) (int, error) {
	for i, v := range p {
		if err := b.WriteByte(v); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// ReadBurst fills p, acknowledging every byte but the last, which is
// answered with NACK.
func (b *Bus) ReadBurst(p []byte) (n int, err error) {
	last := len(p) - 1
	for i := range p {
		var v byte
		if i == last {
			v, err = b.ReadNack()
		} else {
			v, err = b.ReadAck()
		}
		if err != nil {
			return i, err
		}
		p[i] = v
	}
	return len(p), nil
}

// release issues Stop and reports its failure only if nothing failed
// earlier.
func (b *Bus) release(err *error) {
	if serr := b.Stop(); *err == nil {
		*err = serr
	}
}

// WriteToSlave is Start, SLA+W, WriteBurst(p), Stop.
func (b *Bus) WriteToSlave(addr uint8, p []byte) (n int, err error) {
	if !b.configured {
		return 0, errcode.Wrap(errcode.HALNotReady, "twi.write", "bus not configured")
	}
	defer b.release(&err)
	if err = b.Start(); err != nil {
		return 0, err
	}
	if err = b.AddressWrite(addr); err != nil {
		return 0, err
	}
	return b.WriteBurst(p)
}

// ReadFromSlave is Start, SLA+R, ReadBurst(p), Stop. p must not be empty:
// after an acknowledged SLA+R only a NACKed byte hands the bus back for a
// STOP.
func (b *Bus) ReadFromSlave(addr uint8, p []byte) (n int, err error) {
	if !b.configured {
		return 0, errcode.Wrap(errcode.HALNotReady, "twi.read", "bus not configured")
	}
	if len(p) == 0 {
		return 0, errcode.Wrap(errcode.InvalidParams, "twi.read", "empty read buffer")
	}
	defer b.release(&err)
	if err = b.Start(); err != nil {
		return 0, err
	}
	if err = b.AddressRead(addr); err != nil {
		return 0, err
	}
	return b.ReadBurst(p)
}

// Tx implements drivers.I2C: write w, then read r after a repeated start,
// then stop. With both empty it only probes the address.
func (b *Bus) Tx(addr uint16, w, r []byte) (err error) {
	if addr > 0x7F {
		return errcode.Wrap(errcode.InvalidParams, "twi.tx", "address exceeds 7 bits")
	}
	if !b.configured {
		return errcode.Wrap(errcode.HALNotReady, "twi.tx", "bus not configured")
	}
	a := uint8(addr)
	defer b.release(&err)
	if err = b.Start(); err != nil {
		return err
	}
	if len(w) > 0 || len(r) == 0 {
		if err = b.AddressWrite(a); err != nil {
			return err
		}
		if _, err = b.WriteBurst(w); err != nil {
			return err
		}
		if len(r) == 0 {
			return nil
		}
		if err = b.RepeatedStart(); err != nil {
			return err
		}
	}
	if err = b.AddressRead(a); err != nil {
		return err
	}
	_, err = b.ReadBurst(r)
	return err
}

// ReadRegister reads len(data) bytes starting at register reg.
func (b *Bus) ReadRegister(addr uint8, reg uint8, data []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, data)
}

// WriteRegister writes data starting at register reg.
func (b *Bus) WriteRegister(addr uint8, reg uint8, data []byte) error {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, reg)
	return b.Tx(uint16(addr), append(buf, data...), nil)
}

// Probe reports whether a device acknowledges addr.
func (b *Bus) Probe(addr uint8) bool { return b.Tx(uint16(addr), nil, nil) == nil }

// Scan probes the non-reserved addresses 0x08..0x77 and returns those
// that answered.
func (b *Bus) Scan() []uint8 {
	var found []uint8
	for a := uint8(0x08); a <= 0x77; a++ {
		if b.Probe(a) {
			found = append(found, a)
		}
	}
	return found
}
