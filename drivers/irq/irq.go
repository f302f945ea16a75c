// Package irq controls the CPU's global interrupt flag (SREG.I).
//
// Register sequences that must appear atomic to interrupt handlers (USART
// mode switch, clock prescaler change, watchdog timed sequence) are wrapped
// in Save/Restore. Plain Disable/Enable are kept for callers that own the
// flag outright; an Enable inside someone else's Disable re-enables
// interrupts early, which Save/Restore avoids.
package irq

import "avrhal-go/chip"

// Controller owns the I bit of one status register.
type Controller struct {
	sreg chip.Register8
}

// New binds the controller to the device's SREG.
func New(sreg chip.Register8) *Controller { return &Controller{sreg: sreg} }

// Disable clears the global interrupt enable bit (cli).
func (c *Controller) Disable() { c.sreg.ClearBits(chip.SREG_I) }

// Enable sets the global interrupt enable bit (sei).
func (c *Controller) Enable() { c.sreg.SetBits(chip.SREG_I) }

// Enabled reports the current state of the flag.
func (c *Controller) Enabled() bool { return c.sreg.HasBits(chip.SREG_I) }

// State is the interrupt flag captured by Save.
type State bool

// Save disables interrupts and returns the previous state.
func (c *Controller) Save() State {
	s := State(c.Enabled())
	c.Disable()
	return s
}

// Restore re-enables interrupts only if they were enabled at Save.
func (c *Controller) Restore(s State) {
	if s {
		c.Enable()
	}
}

// Critical runs fn with interrupts disabled and restores the previous state.
func (c *Controller) Critical(fn func()) {
	s := c.Save()
	defer c.Restore(s)
	fn()
}
