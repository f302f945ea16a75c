package sysctl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"avrhal-go/chip"
	"avrhal-go/errcode"
)

const (
	sreg   = 0x5F
	wdtcsr = 0x60
	mcusr  = 0x54
	smcr   = 0x53
	clkpr  = 0x61
)

type store struct {
	addr uintptr
	v    uint8
	iOn  bool // global interrupts enabled when the store happened
}

// recBus is plain memory that logs every store outside SREG.
type recBus struct {
	mem [chip.DataSpaceSize]uint8
	log []store
}

func (b *recBus) Load(addr uintptr) uint8 { return b.mem[addr] }
func (b *recBus) Store(addr uintptr, v uint8) {
	b.mem[addr] = v
	if addr != sreg {
		b.log = append(b.log, store{addr, v, b.mem[sreg]&chip.SREG_I != 0})
	}
}

func (b *recBus) stores(addr uintptr) []store {
	var out []store
	for _, s := range b.log {
		if s.addr == addr {
			out = append(out, s)
		}
	}
	return out
}

func newController(t *testing.T, v chip.Variant) (*Controller, *recBus) {
	t.Helper()
	b := &recBus{}
	b.mem[sreg] = chip.SREG_I
	dev, err := chip.Open(chip.Config{Variant: v, CPUHz: 16_000_000}, b)
	require.NoError(t, err)
	return New(dev), b
}

func TestClockPrescaleTimedSequence(t *testing.T) {
	c, b := newController(t, chip.ATmega328P)
	require.NoError(t, c.SetClockPrescale(8))
	require.Equal(t, []store{
		{clkpr, chip.CLKPR_CLKPCE, false},
		{clkpr, 3, false},
	}, b.stores(clkpr))
	require.Equal(t, uint32(2_000_000), c.ClockHz())
	require.Equal(t, uint8(chip.SREG_I), b.mem[sreg], "interrupts restored")

	for _, bad := range []uint16{0, 3, 512} {
		require.Equal(t, errcode.InvalidParams, errcode.Of(c.SetClockPrescale(bad)), "div %d", bad)
	}
	require.NoError(t, c.SetClockPrescale(1))
	require.Equal(t, uint32(16_000_000), c.ClockHz())
}

func TestWatchdog(t *testing.T) {
	c, b := newController(t, chip.ATmega2560)
	cases := []struct {
		ms, want uint32
		bits     uint8
	}{
		{1, 16, chip.WDTCSR_WDE},
		{16, 16, chip.WDTCSR_WDE},
		{17, 32, chip.WDTCSR_WDE | 1},
		{1000, 1024, chip.WDTCSR_WDE | 6},
		{2048, 2048, chip.WDTCSR_WDE | 7},
		{4000, 4096, chip.WDTCSR_WDE | chip.WDTCSR_WDP3},
		{8192, 8192, chip.WDTCSR_WDE | chip.WDTCSR_WDP3 | 1},
	}
	for _, tc := range cases {
		b.log = nil
		got, err := c.EnableWatchdog(tc.ms)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%d ms", tc.ms)
		w := b.stores(wdtcsr)
		require.Len(t, w, 2)
		require.Equal(t, uint8(chip.WDTCSR_WDCE|chip.WDTCSR_WDE), w[0].v&(chip.WDTCSR_WDCE|chip.WDTCSR_WDE))
		require.Equal(t, tc.bits, w[1].v, "%d ms", tc.ms)
		require.False(t, w[0].iOn || w[1].iOn)
	}

	_, err := c.EnableWatchdog(8193)
	require.Equal(t, errcode.InvalidParams, errcode.Of(err))
	_, err = c.EnableWatchdog(0)
	require.Equal(t, errcode.InvalidParams, errcode.Of(err))

	b.mem[mcusr] = chip.MCUSR_WDRF | 0x01
	b.log = nil
	c.DisableWatchdog()
	require.Equal(t, uint8(0x01), b.mem[mcusr])
	require.Equal(t, uint8(0), b.mem[wdtcsr])
	require.Equal(t, mcusr, int(b.log[0].addr), "WDRF cleared first")
	require.True(t, b.mem[sreg]&chip.SREG_I != 0)
}

func TestNestedCriticalKeepsInterruptsOff(t *testing.T) {
	c, b := newController(t, chip.ATmega328P)
	b.mem[sreg] = 0
	require.NoError(t, c.SetClockPrescale(2))
	c.DisableWatchdog()
	require.Equal(t, uint8(0), b.mem[sreg]&chip.SREG_I)
}

func TestSleepMode(t *testing.T) {
	c, b := newController(t, chip.ATmega328P)
	b.mem[smcr] = 0xF0
	require.NoError(t, c.SetSleepMode(SleepPowerDown))
	require.Equal(t, uint8(0xF0|2<<1), b.mem[smcr])
	c.SleepEnable(true)
	require.Equal(t, uint8(0xF0|2<<1|chip.SMCR_SE), b.mem[smcr])
	require.NoError(t, c.SetSleepMode(SleepExtendedStandby))
	require.Equal(t, uint8(0xF0|7<<1|chip.SMCR_SE), b.mem[smcr])
	c.SleepEnable(false)
	require.Equal(t, uint8(0xF0|7<<1), b.mem[smcr])

	require.Equal(t, errcode.InvalidParams, errcode.Of(c.SetSleepMode(4)))
	require.Equal(t, errcode.InvalidParams, errcode.Of(c.SetSleepMode(5)))
}

func TestGates(t *testing.T) {
	b := &recBus{}
	dev, err := chip.Open(chip.Config{Variant: chip.ATmega2560, CPUHz: 16_000_000}, b)
	require.NoError(t, err)
	u3, err := dev.USART(chip.USART3)
	require.NoError(t, err)

	b.mem[0x65] = 0xFF
	g := USARTGate(u3)
	require.False(t, g.Powered())
	PowerUp(g)
	require.True(t, g.Powered())
	require.Equal(t, uint8(0xFF&^(1<<2)), b.mem[0x65])
	PowerDown(g)
	require.Equal(t, uint8(0xFF), b.mem[0x65])

	tg := TWIGate(dev.TWI())
	PowerDown(tg)
	require.Equal(t, uint8(1<<7), b.mem[0x64]&(1<<7))
	require.False(t, tg.Powered())
}
