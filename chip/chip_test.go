package chip

import (
	"testing"

	"github.com/stretchr/testify/require"

	"avrhal-go/errcode"
)

type memBus [DataSpaceSize]uint8

func (m *memBus) Load(addr uintptr) uint8     { return m[addr] }
func (m *memBus) Store(addr uintptr, v uint8) { m[addr] = v }

func TestUSARTAddressMap(t *testing.T) {
	want := map[Variant][]uintptr{
		ATmega328P: {0xC0},
		ATmega2560: {0xC0, 0xC8, 0xD0, 0x130},
	}
	for v, bases := range want {
		require.Len(t, v.USARTs(), len(bases), v.String())
		for i, base := range bases {
			id := USARTID(i)
			got, ok := USARTBase(v, id)
			require.True(t, ok)
			require.Equal(t, base, got, "%s %s", v, id)

			back, ok := USARTAt(v, base)
			require.True(t, ok)
			require.Equal(t, id, back)
		}
		_, ok := USARTBase(v, USARTID(len(bases)))
		require.False(t, ok)
		_, ok = USARTAt(v, 0xC4)
		require.False(t, ok)
	}
}

func TestOpenValidates(t *testing.T) {
	var m memBus
	_, err := Open(Config{Variant: 0, CPUHz: 16_000_000}, &m)
	require.Equal(t, errcode.InvalidParams, errcode.Of(err))
	_, err = Open(Config{Variant: ATmega328P}, &m)
	require.Equal(t, errcode.InvalidParams, errcode.Of(err))
	_, err = Open(Config{Variant: ATmega328P, CPUHz: 16_000_000}, nil)
	require.Equal(t, errcode.InvalidParams, errcode.Of(err))
}

func TestUSARTBlock(t *testing.T) {
	var m memBus
	dev, err := Open(Config{Variant: ATmega2560, CPUHz: 16_000_000}, &m)
	require.NoError(t, err)

	u3, err := dev.USART(USART3)
	require.NoError(t, err)
	require.Equal(t, uintptr(0x130), u3.UCSRA.Addr())
	require.Equal(t, uintptr(0x134), u3.UBRRL.Addr())
	require.Equal(t, uintptr(0x136), u3.UDR.Addr())
	require.Equal(t, uintptr(0x65), u3.PRR.Addr())
	require.Equal(t, uint8(1<<2), u3.PRBit)

	u3.UDR.Set('x')
	require.Equal(t, uint8('x'), m[0x136])

	small, err := Open(Config{Variant: ATmega328P, CPUHz: 16_000_000}, &m)
	require.NoError(t, err)
	_, err = small.USART(USART1)
	require.Equal(t, errcode.UnknownBus, errcode.Of(err))
}

func TestTWIAndSystemBlocks(t *testing.T) {
	var m memBus
	dev, err := Open(Config{Variant: ATmega328P, CPUHz: 16_000_000}, &m)
	require.NoError(t, err)

	tw := dev.TWI()
	require.Equal(t, uintptr(0xB8), tw.TWBR.Addr())
	require.Equal(t, uintptr(0xB9), tw.TWSR.Addr())
	require.Equal(t, uintptr(0xBB), tw.TWDR.Addr())
	require.Equal(t, uintptr(0xBC), tw.TWCR.Addr())

	sys := dev.System()
	require.Equal(t, uintptr(0x5F), sys.SREG.Addr())
	require.Equal(t, uintptr(0x60), sys.WDTCSR.Addr())
	require.Len(t, sys.PRR, 1)

	big, err := Open(Config{Variant: ATmega2560, CPUHz: 16_000_000}, &m)
	require.NoError(t, err)
	require.Len(t, big.System().PRR, 2)
}

func TestLayoutCheckRejectsOverlap(t *testing.T) {
	bad := atmega2560
	bad.usart = append([]usartLayout(nil), atmega2560.usart...)
	bad.usart[1].base = 0xC3
	require.NotEmpty(t, bad.check())
	require.Empty(t, atmega328p.check())
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("ATmega2560P")
	require.NoError(t, err)
	require.Equal(t, ATmega2560, v)
	v, err = ParseVariant("atmega328p")
	require.NoError(t, err)
	require.Equal(t, ATmega328P, v)
	_, err = ParseVariant("attiny85")
	require.Error(t, err)
}
