package interrupt

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
)

const (
	// mask of the five interrupt lines
	lineMask uint8 = 0x1F
	// IF bits 5-7 are unused and always read back as 1
	flagsUnusedBits uint8 = 0xE0
)

// Controller holds the interrupt enable (IE) and request (IF) latches.
//
// Components raise requests through Request; the CPU inspects Pending once per
// step and acknowledges the line it services, which clears exactly that bit.
type Controller struct {
	enable uint8
	flags  uint8
}

// New returns a controller with both latches cleared.
func New() *Controller {
	return &Controller{}
}

// Request latches the given interrupt in IF.
func (c *Controller) Request(interrupt addr.Interrupt) {
	c.flags |= uint8(interrupt) & lineMask
}

// Pending returns the set of interrupts that are both enabled and requested.
func (c *Controller) Pending() uint8 {
	return c.enable & c.flags & lineMask
}

// Next returns the highest priority pending interrupt, if any.
func (c *Controller) Next() (addr.Interrupt, bool) {
	pending := c.Pending()
	if pending == 0 {
		return 0, false
	}
	for _, interrupt := range addr.Interrupts {
		if pending&uint8(interrupt) != 0 {
			return interrupt, true
		}
	}
	return 0, false
}

// Acknowledge clears the request bit of a serviced interrupt.
func (c *Controller) Acknowledge(interrupt addr.Interrupt) {
	c.flags &^= uint8(interrupt)
}

// Read implements the register contract for IF and IE.
func (c *Controller) Read(address uint16) byte {
	switch address {
	case addr.IF:
		return c.flags | flagsUnusedBits
	case addr.IE:
		return c.enable
	default:
		return 0xFF
	}
}

// Write implements the register contract for IF and IE.
func (c *Controller) Write(address uint16, value byte) {
	switch address {
	case addr.IF:
		c.flags = value & lineMask
	case addr.IE:
		c.enable = value
	}
}

// Tick is a no-op, latches change only on requests and register writes.
func (c *Controller) Tick(int) {}
