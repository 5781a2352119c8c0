package jeebie

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/audio"
	"github.com/valerio/jeebie-core/jeebie/cart"
	"github.com/valerio/jeebie-core/jeebie/cpu"
	"github.com/valerio/jeebie-core/jeebie/interrupt"
	"github.com/valerio/jeebie-core/jeebie/memory"
	"github.com/valerio/jeebie-core/jeebie/serial"
	"github.com/valerio/jeebie-core/jeebie/video"
)

const (
	// ClockSpeed is the DMG master clock in Hz; one cycle is one PPU dot.
	ClockSpeed = 4194304
	// CyclesPerFrame is the length of one LCD frame: 154 lines of 456 dots.
	CyclesPerFrame = video.DotsPerLine * video.LinesPerFrame

	// divider value at the end of the DMG boot ROM
	postBootDivider = 0xABCC
)

// DMG wires the CPU, bus and peripherals of an original Game Boy together.
// It is not safe for concurrent use.
type DMG struct {
	cpu    *cpu.CPU
	bus    *memory.Bus
	irq    *interrupt.Controller
	ppu    *video.PPU
	apu    *audio.APU
	serial *serial.Port
	cart   *cart.Cartridge

	frame  *video.FrameBuffer
	logger *slog.Logger

	cyclesPerFrame int
	cycles         uint64
}

// New builds a DMG in its post-boot state around cartridge. A nil cartridge
// reads as an empty slot.
func New(cartridge *cart.Cartridge, opts ...Option) *DMG {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &DMG{
		cart:           cartridge,
		frame:          video.NewFrameBuffer(),
		logger:         cfg.logger,
		cyclesPerFrame: CyclesPerFrame,
	}

	var backend cart.Backend = cart.NoCartridge{}
	if cartridge != nil {
		backend = cartridge
	}

	var screen video.Screen = d.frame
	if cfg.screen != nil {
		screen = teeScreen{d.frame, cfg.screen}
	}

	d.irq = interrupt.New()
	d.ppu = video.New(d.irq, screen, video.WithLogger(cfg.logger))
	d.bus = memory.New(backend, d.ppu, d.irq, memory.WithDMAAccuracy(cfg.dmaAccuracy))

	// attach order is tick order: serial, then audio, both before video
	d.serial = serial.NewPort(d.irq, cfg.serialOut, cfg.serialOpts...)
	d.bus.Attach(d.serial, addr.SB, addr.SC)
	d.apu = audio.New(cfg.speaker, audio.WithSampleRate(cfg.sampleRate))
	d.bus.Attach(d.apu, addr.AudioStart, addr.AudioEnd)

	d.cpu = cpu.New(d.bus, d.irq, cpu.WithStopBehavior(cfg.stopBehavior), cpu.WithLogger(cfg.logger))

	d.initIO()
	if cfg.fps > 0 {
		d.SetFrameRate(cfg.fps)
	}

	return d
}

// NewWithFile loads the ROM at path and builds a DMG around it.
func NewWithFile(path string, opts ...Option) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	cartridge, err := cart.Load(data, cfg.cartOpts...)
	if err != nil {
		return nil, err
	}

	cfg.logger.Info("cartridge loaded",
		"title", cartridge.Header.Title,
		"type", cartridge.Header.Controller,
		"rom_banks", cartridge.Header.ROMBanks,
		"ram_size", cartridge.Header.RAMSize,
		"bytes", len(data))

	return New(cartridge, opts...), nil
}

// initIO writes the I/O register values the boot ROM leaves behind.
// Reference: https://gbdev.io/pandocs/Power_Up_Sequence.html#hardware-registers
func (d *DMG) initIO() {
	d.bus.Timer().SetSeed(postBootDivider)
	d.bus.Poke(addr.TAC, 0xF8)
	d.bus.Poke(addr.IF, 0xE1)
	d.bus.Poke(addr.LCDC, 0x91)
	d.bus.Poke(addr.BGP, 0xFC)
	d.bus.Poke(addr.OBP0, 0xFF)
	d.bus.Poke(addr.OBP1, 0xFF)
}

// Step executes one CPU instruction (or idle machine cycle) and advances
// every peripheral by the same number of cycles. While the CPU is stopped
// waiting for a button press the peripherals stay frozen.
func (d *DMG) Step() int {
	cycles := d.cpu.Step()
	if !d.frozen() {
		d.bus.Tick(cycles)
	}
	d.cycles += uint64(cycles)
	return cycles
}

func (d *DMG) frozen() bool {
	return d.cpu.Stopped() && d.cpu.StopBehavior() == cpu.StopUntilJoypad
}

// RunUntilFrame steps until the PPU enters VBlank. With the LCD off no frame
// ever completes, so it gives up after two frames' worth of cycles and
// reports false.
func (d *DMG) RunUntilFrame() bool {
	start := d.ppu.Frames()
	budget := 0
	for d.ppu.Frames() == start {
		if budget >= 2*CyclesPerFrame {
			return false
		}
		budget += d.Step()
	}
	return true
}

// RunFrame steps for the cycle budget set by SetFrameRate and returns the
// cycles actually run.
func (d *DMG) RunFrame() int {
	cycles := 0
	for cycles < d.cyclesPerFrame {
		cycles += d.Step()
	}
	return cycles
}

// SetFrameRate sets the RunFrame budget to ClockSpeed/fps cycles. Rates
// outside (0, ClockSpeed) are ignored.
func (d *DMG) SetFrameRate(fps int) {
	if fps <= 0 || fps >= ClockSpeed {
		d.logger.Debug("ignoring frame rate", "fps", fps)
		return
	}
	d.cyclesPerFrame = ClockSpeed / fps
}

// CyclesPerFrame returns the RunFrame budget.
func (d *DMG) CyclesPerFrame() int {
	return d.cyclesPerFrame
}

// SetButton updates a joypad button. A press also ends STOP.
func (d *DMG) SetButton(button Button, pressed bool) {
	d.bus.Joypad().SetButton(button, pressed)
	if pressed {
		d.cpu.Wake()
	}
}

// Peek reads memory ignoring PPU and DMA access restrictions.
func (d *DMG) Peek(address uint16) uint8 {
	return d.bus.Peek(address)
}

// Poke writes memory bypassing access restrictions.
func (d *DMG) Poke(address uint16, value uint8) {
	d.bus.Poke(address, value)
}

// Frame returns the frame buffer holding the last completed frame.
func (d *DMG) Frame() *video.FrameBuffer {
	return d.frame
}

// Cycles returns the number of cycles run since New.
func (d *DMG) Cycles() uint64 {
	return d.cycles
}

// CPU exposes the processor for tooling.
func (d *DMG) CPU() *cpu.CPU {
	return d.cpu
}

// PPU exposes the video unit for tooling.
func (d *DMG) PPU() *video.PPU {
	return d.ppu
}

// Audio exposes the channel debugging controls.
func (d *DMG) Audio() audio.Controls {
	return d.apu
}

// Cartridge returns the loaded cartridge, nil for an empty slot.
func (d *DMG) Cartridge() *cart.Cartridge {
	return d.cart
}
