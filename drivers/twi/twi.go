// Package twi is a polling master for the AVR two-wire interface.
//
// A transaction is Start, an address phase, a data burst and Stop, with
// optional repeated starts in between. Each phase writes TWCR, waits for
// TWINT under a bounded poll.Budget and compares TWSR[7:3] against the
// status code the phase expects:
//
//   - budget exhausted: errcode.Timeout (retryable)
//   - any other status: *StatusError carrying errcode.Protocol
//
// The engine never retries. WriteToSlave, ReadFromSlave and Tx always end
// with Stop once Start has been attempted, whatever failed on the way.
package twi

import (
	"tinygo.org/x/drivers"

	"avrhal-go/chip"
	"avrhal-go/drivers/sysctl"
	"avrhal-go/errcode"
	"avrhal-go/x/delay"
	"avrhal-go/x/mathx"
	"avrhal-go/x/poll"
)

var _ drivers.I2C = (*Bus)(nil)

// DefaultFrequency is the standard-mode bus clock.
const DefaultFrequency = 100_000

// DefaultBudget bounds every wait on TWINT: 100 checks, 10 µs apart,
// stretched on slow buses to span waitBits SCL periods.
var DefaultBudget = poll.Budget{Attempts: 100, IntervalUs: 10}

// An address or data phase is nine SCL periods; the wait allows twice
// that.
const waitBits = 18

// Config for the bus. Zero Frequency means DefaultFrequency.
type Config struct {
	Frequency uint32
	// NoPullups leaves the internal SDA/SCL pull-ups off.
	NoPullups bool
}

// Bus is the TWI unit of one device.
type Bus struct {
	regs  chip.TWI
	cpuHz uint32

	// Budget bounds each wait for TWINT or for a stop to complete.
	Budget poll.Budget

	pre        Prescaler
	bitUs      uint64 // one SCL period, rounded up
	configured bool
}

// New binds the TWI unit of dev. Call Configure before use.
func New(dev *chip.Device) *Bus {
	return &Bus{
		regs:   dev.TWI(),
		cpuHz:  dev.CPUHz(),
		Budget: DefaultBudget.WithDelay(delay.Spin{CPUHz: dev.CPUHz()}),
	}
}

// Configure powers the unit, programs the bit rate and enables it.
func (b *Bus) Configure(cfg Config) error {
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultFrequency
	}
	p, err := Prescale(b.cpuHz, cfg.Frequency)
	if err != nil {
		return err
	}
	sysctl.PowerUp(sysctl.TWIGate(b.regs))

	pins := b.regs.SDABit | b.regs.SCLBit
	b.regs.DDR.ClearBits(pins)
	if cfg.NoPullups {
		b.regs.PORT.ClearBits(pins)
	} else {
		b.regs.PORT.SetBits(pins)
	}

	b.regs.TWSR.ReplaceBits(p.Bits, chip.TWSR_TWPS, 0)
	b.regs.TWBR.Set(p.TWBR)
	b.regs.TWCR.Set(chip.TWCR_TWEN)

	b.pre = p
	b.bitUs = mathx.CeilDiv(1_000_000, uint64(p.Frequency(b.cpuHz)))
	b.configured = true
	return nil
}

// wait is Budget stretched to the bus speed.
func (b *Bus) wait() poll.Budget { return b.Budget.Covering(waitBits * b.bitUs) }

// Prescaler returns the bit-rate setting in use.
func (b *Bus) Prescaler() Prescaler { return b.pre }

// Frequency returns the actual SCL rate.
func (b *Bus) Frequency() uint32 { return b.pre.Frequency(b.cpuHz) }

// Status returns TWSR with the prescaler bits masked off.
func (b *Bus) Status() uint8 { return b.regs.TWSR.Get() & chip.TWSR_STATUS }

func (b *Bus) command(bits uint8) {
	b.regs.TWCR.Set(chip.TWCR_TWINT | chip.TWCR_TWEN | bits)
}

func (b *Bus) twint() bool { return b.regs.TWCR.HasBits(chip.TWCR_TWINT) }

func (b *Bus) await(op string, want uint8) error {
	if !b.wait().Wait(b.twint) {
		return errcode.Wrap(errcode.Timeout, "twi."+op, "TWINT never set")
	}
	if got := b.Status(); got != want {
		return &StatusError{Op: op, Want: want, Got: got}
	}
	return nil
}

// Start drives SDA as an output and sends a START condition.
func (b *Bus) Start() error {
	if !b.configured {
		return errcode.Wrap(errcode.HALNotReady, "twi.start", "bus not configured")
	}
	b.regs.DDR.SetBits(b.regs.SDABit)
	b.command(chip.TWCR_TWSTA)
	return b.await("start", StatusStart)
}

// RepeatedStart sends a START without releasing the bus.
func (b *Bus) RepeatedStart() error {
	b.command(chip.TWCR_TWSTA)
	return b.await("restart", StatusRepStart)
}

func (b *Bus) address(op string, sla uint8, want uint8) error {
	b.regs.TWDR.Set(sla)
	b.command(0)
	return b.await(op, want)
}

// AddressWrite sends SLA+W for the 7-bit addr.
func (b *Bus) AddressWrite(addr uint8) error {
	if addr > 0x7F {
		return errcode.Wrap(errcode.InvalidParams, "twi.address", "address exceeds 7 bits")
	}
	return b.address("address", addr<<1, StatusMTSLAAck)
}

// AddressRead sends SLA+R for the 7-bit addr.
func (b *Bus) AddressRead(addr uint8) error {
	if addr > 0x7F {
		return errcode.Wrap(errcode.InvalidParams, "twi.address", "address exceeds 7 bits")
	}
	return b.address("address", addr<<1|1, StatusMRSLAAck)
}

// WriteByte transmits one data byte and expects an ACK.
func (b *Bus) WriteByte(v byte) error {
	b.regs.TWDR.Set(v)
	b.command(0)
	return b.await("write", StatusMTDataAck)
}

// ReadAck receives one byte and acknowledges it.
func (b *Bus) ReadAck() (byte, error) {
	b.command(chip.TWCR_TWEA)
	if err := b.await("read", StatusMRDataAck); err != nil {
		return 0, err
	}
	return b.regs.TWDR.Get(), nil
}

// ReadNack receives one byte and answers NACK, ending the slave's burst.
func (b *Bus) ReadNack() (byte, error) {
	b.command(0)
	if err := b.await("read", StatusMRDataNack); err != nil {
		return 0, err
	}
	return b.regs.TWDR.Get(), nil
}

// Stop sends a STOP condition and waits for the hardware to finish it.
// TWINT is not raised after a stop, so completion is TWSTO clearing.
func (b *Bus) Stop() error {
	b.command(chip.TWCR_TWSTO)
	if !b.wait().Wait(b.stopped) {
		return errcode.Wrap(errcode.Timeout, "twi.stop", "stop condition not completed")
	}
	return nil
}

func (b *Bus) stopped() bool { return !b.regs.TWCR.HasBits(chip.TWCR_TWSTO) }
