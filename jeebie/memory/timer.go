package memory

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// tacLookup maps TAC input clock select (bits 1–0) to the bit position
// of the 16‑bit internal divider used as the timer's clock source.
// TIMA increments on falling edges of the selected bit while TAC bit 2 is set.
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint16{9, 3, 5, 7}

// TAC bits 3-7 are unused and read as 1
const tacUnusedBits = 0xF8

// overflowDelay is the number of cycles TIMA reads 0x00 after overflowing,
// before TMA is reloaded and the interrupt requested.
const overflowDelay = 4

// Requester raises interrupt requests.
type Requester interface {
	Request(interrupt addr.Interrupt)
}

// Timer implements DIV, TIMA, TMA and TAC on top of the 16 bit system counter.
type Timer struct {
	irq Requester

	counter  uint16 // DIV is the upper byte
	lastBit  bool
	overflow int

	tima byte
	tma  byte
	tac  byte
}

// NewTimer returns a stopped timer with a zero divider.
func NewTimer(irq Requester) *Timer {
	return &Timer{irq: irq}
}

// SetSeed sets the internal divider, used to reproduce the post-boot DIV value.
func (t *Timer) SetSeed(seed uint16) {
	t.counter = seed
	t.lastBit = t.selectedBit()
	t.overflow = 0
}

func (t *Timer) Tick(cycles int) {
	for range cycles {
		t.counter++

		if t.overflow > 0 {
			t.overflow--
			if t.overflow == 0 {
				t.tima = t.tma
				t.irq.Request(addr.TimerInterrupt)
			}
		}

		t.detectEdge()
	}
}

func (t *Timer) selectedBit() bool {
	return bit.IsSet(2, t.tac) && bit.IsSet16(tacLookup[t.tac&0x03], t.counter)
}

// detectEdge increments TIMA on a falling edge of the selected divider bit.
// Resetting DIV or disabling the timer can produce such an edge too.
func (t *Timer) detectEdge() {
	current := t.selectedBit()
	if t.lastBit && !current {
		t.incrementTIMA()
	}
	t.lastBit = current
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima == 0 {
		t.overflow = overflowDelay
	}
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return byte(t.counter >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | tacUnusedBits
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.counter = 0
		t.detectEdge()
	case addr.TIMA:
		// a write during the reload delay cancels the reload
		t.tima = value
		t.overflow = 0
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value & 0x07
		t.detectEdge()
	}
}
