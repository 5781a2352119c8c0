package memory

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
)

// DMAAccuracy selects how much of the bus an OAM DMA transfer takes away from the CPU.
type DMAAccuracy uint8

const (
	// DMAStandard blocks only OAM for the 640 cycles of the transfer.
	DMAStandard DMAAccuracy = iota
	// DMAStrict waits one machine cycle before starting and then also blocks
	// the external and VRAM buses below 0xFE00, as the DMG does. I/O, HRAM
	// and IE stay reachable.
	DMAStrict
)

const (
	dmaCyclesPerByte = 4
	dmaStartupCycles = 4
)

// DMA copies 160 bytes from page XX00 to OAM after a write of XX to FF46,
// one byte per machine cycle.
type DMA struct {
	bus      *Bus
	accuracy DMAAccuracy

	value   byte
	source  uint16
	index   uint16
	active  bool
	startup int
	delay   int
	cycles  int
}

func newDMA(b *Bus) *DMA {
	return &DMA{bus: b, value: 0xFF}
}

// Read returns the last value written to FF46.
func (d *DMA) Read(uint16) byte {
	return d.value
}

// Write starts, or restarts, a transfer from value<<8.
func (d *DMA) Write(_ uint16, value byte) {
	d.value = value
	d.source = uint16(value) << 8
	d.index = 0
	d.cycles = 0
	d.active = true
	d.startup = 0
	d.delay = 0
	if d.accuracy == DMAStrict {
		d.startup = dmaStartupCycles
	}
}

// Active reports whether a transfer is copying bytes.
func (d *DMA) Active() bool {
	return d.active && d.startup == 0
}

// startAfter skips the first cycles of the next Tick, which elapsed before
// the write that started the transfer.
func (d *DMA) startAfter(cycles int) {
	d.delay = cycles
}

func (d *DMA) Tick(cycles int) {
	if d.delay > 0 {
		skip := min(cycles, d.delay)
		d.delay -= skip
		cycles -= skip
	}
	for cycles > 0 && d.active {
		if d.startup > 0 {
			step := min(cycles, d.startup)
			d.startup -= step
			cycles -= step
			continue
		}

		d.cycles += cycles
		cycles = 0
		for d.cycles >= dmaCyclesPerByte && d.active {
			d.cycles -= dmaCyclesPerByte
			d.copyByte()
		}
	}
}

func (d *DMA) copyByte() {
	d.bus.video.Write(addr.OAMStart+d.index, d.bus.Peek(d.sourceAddress()))
	d.index++
	if d.index == addr.OAMSize {
		d.active = false
		d.cycles = 0
	}
}

// sources above 0xDFFF read from work RAM, the DMA unit only sees the external bus
func (d *DMA) sourceAddress() uint16 {
	src := d.source + d.index
	if src >= addr.EchoStart {
		src -= addr.EchoStart - addr.WRAMStart
	}
	return src
}

// blocks reports whether a CPU access to address is rejected outright by the transfer.
func (d *DMA) blocks(address uint16) bool {
	if d.accuracy != DMAStrict || !d.Active() {
		return false
	}
	return address < addr.OAMStart
}
