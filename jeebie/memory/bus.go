package memory

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/cart"
	"github.com/valerio/jeebie-core/jeebie/interrupt"
)

// Peripheral is the contract shared by every memory mapped component:
// register reads and writes plus advancing its state by a number of clock cycles.
type Peripheral interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	Tick(cycles int)
}

// Video is the PPU as seen from the bus. Read and Write cover VRAM, OAM and
// the LCD registers and never filter; the bus consults the blocked queries
// before forwarding CPU accesses.
type Video interface {
	Peripheral
	VRAMBlocked() bool
	OAMBlocked() bool
}

type region uint8

const (
	regionCart region = iota
	regionVRAM
	regionWRAM
	regionEcho
	regionHigh // 0xFE00-0xFFFF, decoded per address
)

// each CPU bus access takes one machine cycle
const accessCycles = 4

// Bus routes every read and write to the component owning the address.
// The high byte of an address selects a page; the last two pages hold OAM,
// the unusable area, the I/O table, HRAM and IE.
type Bus struct {
	pages [256]region
	io    [0x80]Peripheral

	cart  cart.Backend
	video Video
	irq   *interrupt.Controller

	wram [0x2000]byte
	hram [0x7F]byte

	dma    *DMA
	timer  *Timer
	joypad *Joypad

	// ticked after the timer and before video, in attach order
	attached []Peripheral

	// cycles spent on CPU accesses since the last Tick
	accessed int
}

// Option configures a Bus.
type Option func(*Bus)

// WithDMAAccuracy selects the DMA bus blocking model.
func WithDMAAccuracy(accuracy DMAAccuracy) Option {
	return func(b *Bus) {
		b.dma.accuracy = accuracy
	}
}

// New builds a bus over the given cartridge, video unit and interrupt controller.
// Timer, joypad and DMA are owned by the bus; other peripherals are added with Attach.
func New(cartridge cart.Backend, video Video, irq *interrupt.Controller, opts ...Option) *Bus {
	if cartridge == nil {
		cartridge = cart.NoCartridge{}
	}

	b := &Bus{
		cart:  cartridge,
		video: video,
		irq:   irq,
	}
	b.dma = newDMA(b)
	b.timer = NewTimer(irq)
	b.joypad = NewJoypad(irq)

	initPages(b)

	b.mapIO(b.joypad, addr.P1, addr.P1)
	b.mapIO(b.timer, addr.DIV, addr.TAC)
	b.mapIO(irq, addr.IF, addr.IF)
	b.mapIO(video, addr.LCDC, addr.WX)
	b.mapIO(b.dma, addr.DMA, addr.DMA)

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func initPages(b *Bus) {
	for i := 0x00; i <= 0x7F; i++ {
		b.pages[i] = regionCart
	}
	for i := 0x80; i <= 0x9F; i++ {
		b.pages[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		b.pages[i] = regionCart
	}
	for i := 0xC0; i <= 0xDF; i++ {
		b.pages[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		b.pages[i] = regionEcho
	}
	b.pages[0xFE] = regionHigh
	b.pages[0xFF] = regionHigh
}

func (b *Bus) mapIO(p Peripheral, low, high uint16) {
	for address := low; address <= high; address++ {
		b.io[address-addr.IOStart] = p
	}
}

// Attach maps a peripheral onto the I/O registers in [low, high] and ticks it on every Tick.
func (b *Bus) Attach(p Peripheral, low, high uint16) {
	if low < addr.IOStart || high > addr.IOEnd || low > high {
		panic("memory: peripheral attached outside of the I/O block")
	}
	b.mapIO(p, low, high)
	b.attached = append(b.attached, p)
}

// Timer returns the DIV/TIMA/TMA/TAC unit.
func (b *Bus) Timer() *Timer {
	return b.timer
}

// Joypad returns the P1 latch.
func (b *Bus) Joypad() *Joypad {
	return b.joypad
}

// DMA returns the OAM transfer engine.
func (b *Bus) DMA() *DMA {
	return b.dma
}

// Tick advances DMA, timer, attached peripherals and video by the given number of cycles.
func (b *Bus) Tick(cycles int) {
	b.accessed = 0
	b.dma.Tick(cycles)
	b.timer.Tick(cycles)
	for _, p := range b.attached {
		p.Tick(cycles)
	}
	b.video.Tick(cycles)
}

// Read performs a CPU read: regions the PPU or DMA currently own read as 0xFF.
func (b *Bus) Read(address uint16) byte {
	b.accessed += accessCycles
	if b.dma.blocks(address) {
		return 0xFF
	}
	switch b.pages[address>>8] {
	case regionVRAM:
		if b.video.VRAMBlocked() {
			return 0xFF
		}
	case regionHigh:
		if address <= addr.UnusableEnd && b.oamBlocked() {
			return 0xFF
		}
	}
	return b.Peek(address)
}

// Write performs a CPU write: writes to regions the PPU or DMA currently own are dropped.
func (b *Bus) Write(address uint16, value byte) {
	b.accessed += accessCycles
	if address == addr.DMA {
		b.Poke(address, value)
		b.dma.startAfter(b.accessed)
		return
	}
	if b.dma.blocks(address) {
		return
	}
	switch b.pages[address>>8] {
	case regionVRAM:
		if b.video.VRAMBlocked() {
			return
		}
	case regionHigh:
		if address <= addr.OAMEnd && b.oamBlocked() {
			return
		}
	}
	b.Poke(address, value)
}

func (b *Bus) oamBlocked() bool {
	return b.dma.Active() || b.video.OAMBlocked()
}

// Peek reads an address without access restrictions.
func (b *Bus) Peek(address uint16) byte {
	switch b.pages[address>>8] {
	case regionCart:
		return b.cart.Read(address)
	case regionVRAM:
		return b.video.Read(address)
	case regionWRAM:
		return b.wram[address-addr.WRAMStart]
	case regionEcho:
		return b.wram[address-addr.EchoStart]
	}

	switch {
	case address <= addr.OAMEnd:
		return b.video.Read(address)
	case address <= addr.UnusableEnd:
		return 0x00
	case address <= addr.IOEnd:
		if p := b.io[address-addr.IOStart]; p != nil {
			return p.Read(address)
		}
		return 0xFF
	case address <= addr.HRAMEnd:
		return b.hram[address-addr.HRAMStart]
	default:
		return b.irq.Read(address)
	}
}

// Poke writes an address without access restrictions. Writes to the ROM area
// still reach the cartridge as bank controller commands.
func (b *Bus) Poke(address uint16, value byte) {
	switch b.pages[address>>8] {
	case regionCart:
		b.cart.Write(address, value)
		return
	case regionVRAM:
		b.video.Write(address, value)
		return
	case regionWRAM:
		b.wram[address-addr.WRAMStart] = value
		return
	case regionEcho:
		b.wram[address-addr.EchoStart] = value
		return
	}

	switch {
	case address <= addr.OAMEnd:
		b.video.Write(address, value)
	case address <= addr.UnusableEnd:
		// ignored
	case address <= addr.IOEnd:
		if p := b.io[address-addr.IOStart]; p != nil {
			p.Write(address, value)
		}
	case address <= addr.HRAMEnd:
		b.hram[address-addr.HRAMStart] = value
	default:
		b.irq.Write(address, value)
	}
}
