package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/cart"
	"github.com/valerio/jeebie-core/jeebie/interrupt"
)

// fakeVideo stores VRAM, OAM and LCD registers flat and lets tests pick the blocked state.
type fakeVideo struct {
	vram        [0x2000]byte
	oam         [0xA0]byte
	regs        [0x0C]byte
	vramBlocked bool
	oamBlocked  bool
	ticks       int
}

func (v *fakeVideo) Read(address uint16) byte {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		return v.vram[address-addr.VRAMStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return v.oam[address-addr.OAMStart]
	default:
		return v.regs[address-addr.LCDC]
	}
}

func (v *fakeVideo) Write(address uint16, value byte) {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		v.vram[address-addr.VRAMStart] = value
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		v.oam[address-addr.OAMStart] = value
	default:
		v.regs[address-addr.LCDC] = value
	}
}

func (v *fakeVideo) Tick(cycles int)   { v.ticks += cycles }
func (v *fakeVideo) VRAMBlocked() bool { return v.vramBlocked }
func (v *fakeVideo) OAMBlocked() bool  { return v.oamBlocked }

// recorder logs register traffic and ticks of an attached peripheral.
type recorder struct {
	regs  map[uint16]byte
	ticks int
}

func (r *recorder) Read(address uint16) byte         { return r.regs[address] }
func (r *recorder) Write(address uint16, value byte) { r.regs[address] = value }
func (r *recorder) Tick(cycles int)                  { r.ticks += cycles }

func newTestBus(opts ...Option) (*Bus, *fakeVideo, *interrupt.Controller) {
	video := &fakeVideo{}
	irq := interrupt.New()
	rom := make([]byte, 0x8000)
	for i := range rom {
		rom[i] = byte(i)
	}
	return New(cart.NewNoMBC(rom, 0x2000), video, irq, opts...), video, irq
}

func TestBus_RoundTrip(t *testing.T) {
	testCases := []struct {
		desc    string
		address uint16
		value   byte
		want    byte
	}{
		{desc: "wram start", address: 0xC000, value: 0x12, want: 0x12},
		{desc: "wram end", address: 0xDFFF, value: 0x34, want: 0x34},
		{desc: "vram", address: 0x8123, value: 0x56, want: 0x56},
		{desc: "oam", address: 0xFE10, value: 0x78, want: 0x78},
		{desc: "external ram", address: 0xA010, value: 0x9A, want: 0x9A},
		{desc: "hram", address: 0xFF80, value: 0xBC, want: 0xBC},
		{desc: "hram end", address: 0xFFFE, value: 0xDE, want: 0xDE},
		{desc: "ie stores all bits", address: addr.IE, value: 0xFF, want: 0xFF},
		{desc: "if unused bits read 1", address: addr.IF, value: 0x01, want: 0xE1},
		{desc: "lcd register", address: addr.SCX, value: 0x07, want: 0x07},
		{desc: "tac unused bits read 1", address: addr.TAC, value: 0x05, want: 0xFD},
		{desc: "dma reads last value", address: addr.DMA, value: 0xC1, want: 0xC1},
		{desc: "p1 only selection is writable", address: addr.P1, value: 0x0F, want: 0xCF},
		{desc: "unmapped io reads 0xFF", address: 0xFF4D, value: 0x00, want: 0xFF},
		{desc: "rom writes are ignored", address: 0x0010, value: 0xAA, want: 0x10},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus, _, _ := newTestBus()
			if tC.address >= 0xA000 && tC.address <= 0xBFFF {
				bus.Write(0x0000, 0x0A)
			}
			bus.Write(tC.address, tC.value)
			assert.Equal(t, tC.want, bus.Read(tC.address))
		})
	}
}

func TestBus_Echo(t *testing.T) {
	bus, _, _ := newTestBus()

	bus.Write(0xC123, 0x42)
	assert.Equal(t, byte(0x42), bus.Read(0xE123))

	bus.Write(0xFDFF, 0x24)
	assert.Equal(t, byte(0x24), bus.Read(0xDDFF))
}

func TestBus_UnusableRegion(t *testing.T) {
	bus, video, _ := newTestBus()

	bus.Write(0xFEA0, 0x55)
	assert.Equal(t, byte(0x00), bus.Read(0xFEA0))
	assert.Equal(t, byte(0x00), bus.Read(0xFEFF))

	video.oamBlocked = true
	assert.Equal(t, byte(0xFF), bus.Read(0xFEA0))
}

func TestBus_Contention(t *testing.T) {
	testCases := []struct {
		desc        string
		address     uint16
		vramBlocked bool
		oamBlocked  bool
		wantBlocked bool
	}{
		{desc: "vram during pixel transfer", address: 0x9000, vramBlocked: true, oamBlocked: true, wantBlocked: true},
		{desc: "vram during oam scan", address: 0x9000, oamBlocked: true, wantBlocked: false},
		{desc: "oam during oam scan", address: 0xFE00, oamBlocked: true, wantBlocked: true},
		{desc: "oam during hblank", address: 0xFE00, wantBlocked: false},
		{desc: "wram is never contended", address: 0xC000, vramBlocked: true, oamBlocked: true, wantBlocked: false},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus, video, _ := newTestBus()
			bus.Poke(tC.address, 0x11)

			video.vramBlocked = tC.vramBlocked
			video.oamBlocked = tC.oamBlocked

			bus.Write(tC.address, 0x22)
			if tC.wantBlocked {
				assert.Equal(t, byte(0xFF), bus.Read(tC.address))
				assert.Equal(t, byte(0x11), bus.Peek(tC.address), "blocked write must be dropped")
				return
			}
			assert.Equal(t, byte(0x22), bus.Read(tC.address))
		})
	}
}

func TestBus_Attach(t *testing.T) {
	bus, video, _ := newTestBus()
	rec := &recorder{regs: map[uint16]byte{}}
	bus.Attach(rec, addr.SB, addr.SC)

	bus.Write(addr.SB, 0x41)
	assert.Equal(t, byte(0x41), rec.regs[addr.SB])
	assert.Equal(t, byte(0x41), bus.Read(addr.SB))

	bus.Tick(12)
	assert.Equal(t, 12, rec.ticks)
	assert.Equal(t, 12, video.ticks)

	assert.Panics(t, func() { bus.Attach(rec, 0xFF80, 0xFF81) })
}

func TestBus_TimerInterrupt(t *testing.T) {
	bus, _, irq := newTestBus()
	bus.Write(addr.IE, 0xFF)
	bus.Write(addr.TIMA, 0xFF)
	bus.Write(addr.TAC, 0x05) // 262144 Hz, 16 cycles per increment

	bus.Tick(16)
	assert.Equal(t, byte(0x00), bus.Read(addr.TIMA))
	assert.Zero(t, irq.Pending())

	bus.Tick(4)
	assert.Equal(t, uint8(addr.TimerInterrupt), irq.Pending())
}

func TestBus_NoCartridge(t *testing.T) {
	bus := New(nil, &fakeVideo{}, interrupt.New())
	assert.Equal(t, byte(0xFF), bus.Read(0x0100))
	assert.Equal(t, byte(0xFF), bus.Read(0xA000))
	require.NotNil(t, bus.Timer())
}
