package sim

// ScriptSlave acknowledges according to a fixed script and records what it
// was sent.
type ScriptSlave struct {
	// NackAddress refuses every address phase.
	NackAddress bool
	// NackData makes the slave acknowledge NackAfter data bytes of each
	// write and NACK the next one.
	NackData  bool
	NackAfter int
	// Reply is served to reads in order; 0xFF once exhausted.
	Reply []byte

	Received []byte
	Acks     []bool // master ACK/NACK for every byte read

	inWrite int
	next    int
}

func (s *ScriptSlave) Address(read bool) bool {
	if s.NackAddress {
		return false
	}
	if !read {
		s.inWrite = 0
	}
	return true
}

func (s *ScriptSlave) Write(b byte) bool {
	s.Received = append(s.Received, b)
	s.inWrite++
	return !s.NackData || s.inWrite <= s.NackAfter
}

func (s *ScriptSlave) Read(ack bool) byte {
	s.Acks = append(s.Acks, ack)
	if s.next >= len(s.Reply) {
		return 0xFF
	}
	b := s.Reply[s.next]
	s.next++
	return b
}

// Memory is a register-file device: the first byte of a write sets the
// register pointer, further bytes are stored at the pointer and advance
// it, and reads return bytes from the pointer onward.
type Memory struct {
	Regs [256]byte

	ptr   uint8
	first bool
}

func (d *Memory) Address(read bool) bool {
	if !read {
		d.first = true
	}
	return true
}

func (d *Memory) Write(b byte) bool {
	if d.first {
		d.ptr = b
		d.first = false
		return true
	}
	d.Regs[d.ptr] = b
	d.ptr++
	return true
}

func (d *Memory) Read(bool) byte {
	b := d.Regs[d.ptr]
	d.ptr++
	return b
}
