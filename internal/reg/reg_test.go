package reg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// memBus records every access so tests can check nothing is cached.
type memBus struct {
	mem    [0x200]uint8
	loads  int
	stores int
}

func (m *memBus) Load(addr uintptr) uint8     { m.loads++; return m.mem[addr] }
func (m *memBus) Store(addr uintptr, v uint8) { m.stores++; m.mem[addr] = v }

func TestRegister8_BitHelpers(t *testing.T) {
	b := &memBus{}
	r := At(b, 0xC2)

	r.Set(0x06)
	r.SetBits(0x30)
	require.Equal(t, uint8(0x36), b.mem[0xC2])

	r.ClearBits(0x10)
	require.Equal(t, uint8(0x26), r.Get())
	require.True(t, r.HasBits(0x20))
	require.False(t, r.HasBits(0x10))

	r.ReplaceBits(0b11, 0b11, 4)
	require.Equal(t, uint8(0x36), r.Get())
	r.ReplaceBits(0, 0b11, 4)
	require.Equal(t, uint8(0x06), r.Get())

	r.Update(func(v uint8) uint8 { return v ^ 0xFF })
	require.Equal(t, uint8(0xF9), r.Get())
}

func TestRegister8_EveryAccessHitsBus(t *testing.T) {
	b := &memBus{}
	r := At(b, 0x5F)
	for i := 0; i < 5; i++ {
		_ = r.Get()
	}
	require.Equal(t, 5, b.loads)

	r.SetBits(0x80)
	require.Equal(t, 6, b.loads)
	require.Equal(t, 1, b.stores)
}

func TestRegister8_Aliasing(t *testing.T) {
	b := &memBus{}
	a := At(b, 0xB9)
	c := At(b, 0xB9)
	a.Set(0x08)
	require.Equal(t, uint8(0x08), c.Get())
	require.Equal(t, uintptr(0xB9), c.Addr())
	require.True(t, c.Valid())
	require.False(t, Register8{}.Valid())
}
