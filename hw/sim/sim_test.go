package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"avrhal-go/bus"
	"avrhal-go/chip"
)

func TestUSARTModelFlags(t *testing.T) {
	m := New(chip.ATmega2560)
	dev, err := m.Open(16_000_000)
	require.NoError(t, err)
	u3, err := dev.USART(chip.USART3)
	require.NoError(t, err)
	model := m.USART(chip.USART3)
	require.NotNil(t, model)

	// Transmitter disabled: the write is dropped.
	u3.UDR.Set('x')
	require.Empty(t, model.Transmitted())

	u3.UCSRB.Set(chip.UCSRB_TXEN | chip.UCSRB_RXEN)
	require.True(t, u3.UCSRA.HasBits(chip.UCSRA_UDRE))
	u3.UDR.Set('a')
	require.True(t, u3.UCSRA.HasBits(chip.UCSRA_TXC))
	u3.UCSRA.SetBits(chip.UCSRA_TXC)
	require.False(t, u3.UCSRA.HasBits(chip.UCSRA_TXC))
	require.Equal(t, []byte("a"), model.TransmittedBytes())

	require.False(t, u3.UCSRA.HasBits(chip.UCSRA_RXC))
	model.Inject(Frame{Data: 0x1A5, Flags: chip.UCSRA_UPE})
	a := u3.UCSRA.Get()
	require.Equal(t, uint8(chip.UCSRA_RXC|chip.UCSRA_UPE), a&(chip.UCSRA_RXC|chip.UCSRA_UPE))
	require.True(t, u3.UCSRB.HasBits(chip.UCSRB_RXB8))
	require.Equal(t, uint8(0xA5), u3.UDR.Get())
	require.False(t, u3.UCSRA.HasBits(chip.UCSRA_RXC))
	require.Equal(t, 0, model.Pending())
}

func TestUSARTModelStall(t *testing.T) {
	m := New(chip.ATmega328P)
	dev, err := m.Open(16_000_000)
	require.NoError(t, err)
	u0, err := dev.USART(chip.USART0)
	require.NoError(t, err)
	model := m.USART(chip.USART0)
	require.Nil(t, m.USART(chip.USART1))

	model.StallTX = true
	require.False(t, u0.UCSRA.HasBits(chip.UCSRA_UDRE))

	model.StallTX = false
	model.TXLatency = 2
	u0.UCSRB.Set(chip.UCSRB_TXEN)
	u0.UDR.Set(1)
	require.False(t, u0.UCSRA.HasBits(chip.UCSRA_UDRE))
	require.False(t, u0.UCSRA.HasBits(chip.UCSRA_UDRE))
	require.True(t, u0.UCSRA.HasBits(chip.UCSRA_UDRE))

	u0.UCSRB.SetBits(chip.UCSRB_RXEN)
	model.StallRX = true
	model.InjectBytes([]byte{7})
	require.False(t, u0.UCSRA.HasBits(chip.UCSRA_RXC))
}

func TestUSARTModelFormat(t *testing.T) {
	m := New(chip.ATmega328P)
	model := m.USART(chip.USART0)
	bits, parity, stop := model.Format()
	require.Equal(t, uint8(8), bits)
	require.Equal(t, uint8(0), parity)
	require.Equal(t, uint8(1), stop)

	base, _ := chip.USARTBase(chip.ATmega328P, chip.USART0)
	m.Store(base+1, chip.UCSRB_UCSZ2)
	m.Store(base+2, chip.UCSRC_UCSZ1|chip.UCSRC_UCSZ0|chip.UCSRC_UPM1|chip.UCSRC_USBS)
	m.Store(base+4, 0x67)
	m.Store(base+5, 0xF1)
	bits, parity, stop = model.Format()
	require.Equal(t, uint8(9), bits)
	require.Equal(t, uint8(2), parity)
	require.Equal(t, uint8(2), stop)
	require.Equal(t, uint16(0x167), model.Divisor())
}

func twiRegs(t *testing.T, m *Machine) chip.TWI {
	t.Helper()
	dev, err := m.Open(16_000_000)
	require.NoError(t, err)
	return dev.TWI()
}

func command(r chip.TWI, bits uint8) uint8 {
	r.TWCR.Set(chip.TWCR_TWINT | chip.TWCR_TWEN | bits)
	return r.TWSR.Get() & chip.TWSR_STATUS
}

func TestTWIModelWriteTransaction(t *testing.T) {
	m := New(chip.ATmega328P)
	r := twiRegs(t, m)
	slave := &ScriptSlave{NackData: true, NackAfter: 1}
	m.TWI().Attach(0x38, slave)

	require.Equal(t, uint8(stIdle), r.TWSR.Get()&chip.TWSR_STATUS)
	require.Equal(t, uint8(stStart), command(r, chip.TWCR_TWSTA))
	require.True(t, r.TWCR.HasBits(chip.TWCR_TWINT))

	r.TWDR.Set(0x38 << 1)
	require.Equal(t, uint8(stMTSLAAck), command(r, 0))
	r.TWDR.Set(0xE1)
	require.Equal(t, uint8(stMTDataAck), command(r, 0))
	r.TWDR.Set(0x08)
	require.Equal(t, uint8(stMTDataNack), command(r, 0))

	require.Equal(t, uint8(stRepStart), command(r, chip.TWCR_TWSTA))
	command(r, chip.TWCR_TWSTO)
	require.Equal(t, 1, m.TWI().Stops())
	require.True(t, m.TWI().Idle())
	require.False(t, r.TWCR.HasBits(chip.TWCR_TWINT))
	require.Equal(t, []byte{0xE1, 0x08}, slave.Received)
}

func TestTWIModelReadAndNack(t *testing.T) {
	m := New(chip.ATmega2560)
	r := twiRegs(t, m)
	slave := &ScriptSlave{Reply: []byte{1, 2}}
	m.TWI().Attach(0x40, slave)

	command(r, chip.TWCR_TWSTA)
	r.TWDR.Set(0x40<<1 | 1)
	require.Equal(t, uint8(stMRSLAAck), command(r, 0))
	require.Equal(t, uint8(stMRDataAck), command(r, chip.TWCR_TWEA))
	require.Equal(t, uint8(1), r.TWDR.Get())
	require.Equal(t, uint8(stMRDataNack), command(r, 0))
	require.Equal(t, uint8(2), r.TWDR.Get())
	require.Equal(t, []bool{true, false}, slave.Acks)

	command(r, chip.TWCR_TWSTA)
	r.TWDR.Set(0x11 << 1)
	require.Equal(t, uint8(stMTSLANack), command(r, 0))
	// Data after a refused address is a bus error.
	require.Equal(t, uint8(stBusError), command(r, 0))
}

func TestTWIModelHangAndLatency(t *testing.T) {
	m := New(chip.ATmega328P)
	r := twiRegs(t, m)

	m.TWI().Latency = 2
	command(r, chip.TWCR_TWSTA)
	require.False(t, r.TWCR.HasBits(chip.TWCR_TWINT))
	require.False(t, r.TWCR.HasBits(chip.TWCR_TWINT))
	require.True(t, r.TWCR.HasBits(chip.TWCR_TWINT))

	m.TWI().Hang = true
	command(r, chip.TWCR_TWSTA)
	for i := 0; i < 10; i++ {
		require.False(t, r.TWCR.HasBits(chip.TWCR_TWINT))
	}
}

func TestMemorySlave(t *testing.T) {
	d := &Memory{}
	require.True(t, d.Address(false))
	d.Write(0x10)
	d.Write(0xAA)
	d.Write(0xBB)
	require.Equal(t, byte(0xAA), d.Regs[0x10])
	require.Equal(t, byte(0xBB), d.Regs[0x11])

	d.Address(false)
	d.Write(0x10)
	d.Address(true)
	require.Equal(t, byte(0xAA), d.Read(true))
	require.Equal(t, byte(0xBB), d.Read(false))
}

func TestEventsPublished(t *testing.T) {
	m := New(chip.ATmega328P)
	b := bus.NewBus(8)
	conn := b.NewConnection("trace")
	sub := conn.Subscribe(bus.T("sim", "twi", "#"))
	m.Publish(conn)

	r := twiRegs(t, m)
	command(r, chip.TWCR_TWSTA)
	command(r, chip.TWCR_TWSTO)

	var kinds []string
	for len(kinds) < 2 {
		select {
		case msg := <-sub.Channel():
			kinds = append(kinds, msg.Payload.(Event).Kind)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	require.Equal(t, []string{"start", "stop"}, kinds)
	require.Len(t, m.Events(), 2)
	m.ResetEvents()
	require.Empty(t, m.Events())
}
