package serial

import (
	"io"

	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

const (
	// DMG internal clock: 8192 Hz, 8 bits per byte
	cyclesPerByte = 4096

	scTransferStart = 7
	scInternalClock = 0
	// SC bits 1-6 are unused and read back as 1
	scUnusedBits uint8 = 0x7E

	// value shifted in when no link partner is connected
	disconnectedRX = 0xFF
)

// InterruptRequester raises the serial interrupt.
type InterruptRequester interface {
	Request(interrupt addr.Interrupt)
}

// Port is the SB/SC register pair. Transfers clocked internally are sent to
// the output writer one byte at a time; externally clocked transfers never
// complete since no link partner exists.
type Port struct {
	irq InterruptRequester
	out io.ByteWriter

	sb, sc    byte
	active    bool
	countdown int

	immediate bool
}

// PortOption configures a Port.
type PortOption func(*Port)

// WithFixedTiming completes transfers after the DMG byte time (4096 cycles)
// instead of immediately.
func WithFixedTiming() PortOption { return func(p *Port) { p.immediate = false } }

// NewPort creates a serial port writing transferred bytes to out. A nil out discards them.
func NewPort(irq InterruptRequester, out io.ByteWriter, opts ...PortOption) *Port {
	if out == nil {
		out = Discard
	}
	p := &Port{
		irq:       irq,
		out:       out,
		immediate: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Reset restores the post-boot register values.
func (p *Port) Reset() {
	p.sb = 0x00
	p.sc = 0x00
	p.active = false
	p.countdown = 0
}

func (p *Port) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return p.sb
	case addr.SC:
		return p.sc | scUnusedBits
	default:
		return 0xFF
	}
}

func (p *Port) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		p.sb = value
	case addr.SC:
		p.sc = value & 0x81
		p.maybeStartTransfer()
	}
}

// Tick advances a timed transfer.
func (p *Port) Tick(cycles int) {
	if !p.active {
		return
	}
	p.countdown -= cycles
	if p.countdown <= 0 {
		p.completeTransfer()
	}
}

// Active reports whether a transfer is in progress.
func (p *Port) Active() bool {
	return p.active
}

func (p *Port) maybeStartTransfer() {
	if p.active {
		return
	}
	// a transfer should start when bit 7 (start) and bit 0 (clock source) of SC are set.
	if !bit.IsSet(scTransferStart, p.sc) || !bit.IsSet(scInternalClock, p.sc) {
		return
	}

	// output errors cannot reach the emulated program, the byte is dropped
	_ = p.out.WriteByte(p.sb)

	if p.immediate {
		p.completeTransfer()
		return
	}
	p.active = true
	p.countdown = cyclesPerByte
}

func (p *Port) completeTransfer() {
	p.sb = disconnectedRX
	// Clear start bit (bit7) to indicate completion
	p.sc = bit.Clear(scTransferStart, p.sc)
	p.active = false
	p.countdown = 0
	p.irq.Request(addr.SerialInterrupt)
}
