// Package sysctl holds the timed register sequences for the system clock
// prescaler, the watchdog and sleep mode, plus the power-reduction gates
// the peripheral engines open before touching a unit.
//
// The clock and watchdog changes must complete within four cycles of the
// enable write, so they run with interrupts held off through irq.Save and
// irq.Restore.
package sysctl

import (
	"avrhal-go/chip"
	"avrhal-go/drivers/irq"
	"avrhal-go/errcode"
)

// Gate is one power-reduction bit. A set bit stops the unit's clock.
type Gate struct {
	PRR chip.Register8
	Bit uint8
}

func PowerUp(g Gate)   { g.PRR.ClearBits(g.Bit) }
func PowerDown(g Gate) { g.PRR.SetBits(g.Bit) }

// Powered reports whether the unit's clock is running.
func (g Gate) Powered() bool { return !g.PRR.HasBits(g.Bit) }

// USARTGate and TWIGate return the gate of a register block.
func USARTGate(u chip.USART) Gate { return Gate{PRR: u.PRR, Bit: u.PRBit} }
func TWIGate(t chip.TWI) Gate     { return Gate{PRR: t.PRR, Bit: t.PRBit} }

// SleepMode is the SMCR SM2:0 field.
type SleepMode uint8

const (
	SleepIdle              SleepMode = 0
	SleepADCNoiseReduction SleepMode = 1
	SleepPowerDown         SleepMode = 2
	SleepPowerSave         SleepMode = 3
	SleepStandby           SleepMode = 6
	SleepExtendedStandby   SleepMode = 7
)

// Controller owns the system registers of one device.
type Controller struct {
	sys   chip.System
	irq   *irq.Controller
	fosc  uint32
	clkps uint8
}

// New binds the system registers of dev. The device clock is taken to be
// the undivided oscillator.
func New(dev *chip.Device) *Controller {
	sys := dev.System()
	return &Controller{sys: sys, irq: irq.New(sys.SREG), fosc: dev.CPUHz()}
}

// ClockHz is the system clock after the prescaler.
func (c *Controller) ClockHz() uint32 { return c.fosc >> c.clkps }

// SetClockPrescale divides the oscillator by div, a power of two from 1
// to 256. Baud and bit-rate settings computed for the old clock become
// wrong; reconfigure the engines afterwards.
func (c *Controller) SetClockPrescale(div uint16) error {
	ps, ok := log2(div)
	if !ok || ps > 8 {
		return errcode.Wrap(errcode.InvalidParams, "sysctl.clock", "divider must be a power of two up to 256")
	}
	c.irq.Critical(func() {
		c.sys.CLKPR.Set(chip.CLKPR_CLKPCE)
		c.sys.CLKPR.Set(ps)
	})
	c.clkps = ps
	return nil
}

func log2(v uint16) (uint8, bool) {
	if v == 0 || v&(v-1) != 0 {
		return 0, false
	}
	var n uint8
	for v > 1 {
		v >>= 1
		n++
	}
	return n, true
}

// MaxWatchdogMs is the longest watchdog period (1024K cycles at 128 kHz).
const MaxWatchdogMs = 8192

// DisableWatchdog clears WDRF and turns the watchdog off. WDRF overrides
// WDE, so it has to go first.
func (c *Controller) DisableWatchdog() {
	c.irq.Critical(func() {
		c.sys.MCUSR.ClearBits(chip.MCUSR_WDRF)
		c.sys.WDTCSR.SetBits(chip.WDTCSR_WDCE | chip.WDTCSR_WDE)
		c.sys.WDTCSR.Set(0)
	})
}

// EnableWatchdog arms a system-reset watchdog with the shortest period of
// at least timeoutMs and returns that period.
func (c *Controller) EnableWatchdog(timeoutMs uint32) (uint32, error) {
	if timeoutMs == 0 || timeoutMs > MaxWatchdogMs {
		return 0, errcode.Wrap(errcode.InvalidParams, "sysctl.watchdog", "timeout must be 1..8192 ms")
	}
	// Periods are 16 ms << n for n = 0..9.
	n := uint8(0)
	for uint32(16)<<n < timeoutMs {
		n++
	}
	bits := chip.WDTCSR_WDE | n&chip.WDTCSR_WDP
	if n&8 != 0 {
		bits |= chip.WDTCSR_WDP3
	}
	c.irq.Critical(func() {
		c.sys.WDTCSR.SetBits(chip.WDTCSR_WDCE | chip.WDTCSR_WDE)
		c.sys.WDTCSR.Set(bits)
	})
	return uint32(16) << n, nil
}

// SetSleepMode selects what the next SLEEP instruction enters.
func (c *Controller) SetSleepMode(m SleepMode) error {
	switch m {
	case SleepIdle, SleepADCNoiseReduction, SleepPowerDown, SleepPowerSave, SleepStandby, SleepExtendedStandby:
	default:
		return errcode.Wrap(errcode.InvalidParams, "sysctl.sleep", "reserved sleep mode")
	}
	c.sys.SMCR.ReplaceBits(uint8(m), chip.SMCR_SM>>1, 1)
	return nil
}

// SleepEnable sets or clears SE.
func (c *Controller) SleepEnable(on bool) {
	if on {
		c.sys.SMCR.SetBits(chip.SMCR_SE)
	} else {
		c.sys.SMCR.ClearBits(chip.SMCR_SE)
	}
}
