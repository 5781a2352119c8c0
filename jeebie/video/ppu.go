package video

import (
	"fmt"
	"log/slog"

	"github.com/valerio/jeebie-core/jeebie/addr"
)

const (
	DotsPerLine    = 456
	LinesPerFrame  = 154
	DotsPerFrame   = DotsPerLine * LinesPerFrame
	oamScanDots    = 80
	warmupDots     = 6
	firstVBlankRow = FramebufferHeight
)

// InterruptRequester raises interrupt requests.
type InterruptRequester interface {
	Request(interrupt addr.Interrupt)
}

// PPU is the DMG pixel processing unit, advanced one dot per clock cycle.
// It owns VRAM, OAM and the LCD registers; the bus decides when the CPU may
// reach them.
type PPU struct {
	irq    InterruptRequester
	screen Screen
	frames FrameSink
	logger *slog.Logger

	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc, stat uint8
	scy, scx   uint8
	ly, lyc    uint8
	bgp        uint8
	obp        [2]uint8
	wy, wx     uint8

	mode       Mode
	dot        int
	statLine   bool
	frameCount uint64

	lineSprites     [maxLineSprites]Sprite
	lineSpriteCount int

	// pixel transfer state
	bg           pixelFIFO
	obj          pixelFIFO
	fetcher      fetcher
	warmup       int
	lx           uint8
	discard      int
	nextSprite   int
	spriteTicks  int
	spriteActive bool
	windowY      bool // WY matched LY at some point in this frame
	windowActive bool // window reached on the current line
	windowLine   int
}

// Option configures a PPU.
type Option func(*PPU)

// WithLogger sets the logger used for LCD power changes.
func WithLogger(logger *slog.Logger) Option {
	return func(p *PPU) {
		p.logger = logger
	}
}

// New creates a PPU with the LCD off. screen may be NoScreen; if it also
// implements FrameSink it is notified on every VBlank.
func New(irq InterruptRequester, screen Screen, opts ...Option) *PPU {
	if screen == nil {
		screen = NoScreen{}
	}
	p := &PPU{
		irq:    irq,
		screen: screen,
		logger: slog.Default(),
	}
	p.frames, _ = screen.(FrameSink)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the current PPU mode, HBlank while the LCD is off.
func (p *PPU) Mode() Mode {
	return p.mode
}

// LY returns the current scanline.
func (p *PPU) LY() uint8 {
	return p.ly
}

// Dot returns the position within the current scanline (0-455).
func (p *PPU) Dot() int {
	return p.dot
}

// Frames returns the number of VBlank periods entered.
func (p *PPU) Frames() uint64 {
	return p.frameCount
}

func (p *PPU) enabled() bool {
	return p.lcdc&lcdcEnable != 0
}

// VRAMBlocked reports whether the CPU is locked out of VRAM (pixel transfer).
func (p *PPU) VRAMBlocked() bool {
	return p.enabled() && p.mode == ModePixelTransfer
}

// OAMBlocked reports whether the CPU is locked out of OAM (OAM scan and pixel transfer).
func (p *PPU) OAMBlocked() bool {
	return p.enabled() && (p.mode == ModeOAMScan || p.mode == ModePixelTransfer)
}

// Tick advances the PPU by the given number of dots.
func (p *PPU) Tick(cycles int) {
	if !p.enabled() {
		return
	}
	for range cycles {
		p.step()
	}
}

func (p *PPU) step() {
	switch p.mode {
	case ModeOAMScan:
		if p.dot%oamDotsPerSprite == 0 {
			p.scanEntry(p.dot / oamDotsPerSprite)
		}
		p.dot++
		if p.dot == oamScanDots {
			p.sortLineSprites()
			p.startTransfer()
		}
	case ModePixelTransfer:
		p.transferDot()
		p.dot++
		if p.lx == FramebufferWidth {
			p.mode = ModeHBlank
			if p.windowActive {
				p.windowLine++
			}
		} else if p.dot == DotsPerLine {
			panic(fmt.Sprintf("video: pixel transfer overran line %d (%d pixels output)", p.ly, p.lx))
		}
	default:
		p.dot++
	}

	if p.dot == DotsPerLine {
		p.dot = 0
		p.nextLine()
	}
	p.updateStatLine()
}

func (p *PPU) nextLine() {
	p.ly++
	switch {
	case p.ly == firstVBlankRow:
		p.mode = ModeVBlank
		p.frameCount++
		p.irq.Request(addr.VBlankInterrupt)
		if p.frames != nil {
			p.frames.FrameComplete()
		}
	case p.ly == LinesPerFrame:
		p.ly = 0
		p.windowY = false
		p.windowLine = 0
		p.startLine()
	case p.ly < firstVBlankRow:
		p.startLine()
	}
}

// startLine enters OAM scan for the current line.
func (p *PPU) startLine() {
	p.mode = ModeOAMScan
	p.lineSpriteCount = 0
	if p.ly == p.wy {
		p.windowY = true
	}
}

func (p *PPU) startTransfer() {
	p.mode = ModePixelTransfer
	p.bg.clear()
	p.obj.clear()
	p.fetcher.reset(false)
	p.warmup = warmupDots
	p.lx = 0
	p.discard = int(p.scx % 8)
	p.nextSprite = 0
	p.spriteActive = false
	p.spriteTicks = 0
	p.windowActive = false
}

// transferDot runs one dot of pixel transfer: sprite fetch, BG fetcher, then mixer.
func (p *PPU) transferDot() {
	if p.warmup > 0 {
		p.warmup--
		return
	}

	if p.spriteActive {
		p.stepSpriteFetch()
		return
	}

	if p.spriteTriggered() {
		// the mixer stays paused while the BG fetcher finishes its tile
		if p.fetcher.stage != fetchPush {
			p.stepFetcher()
			return
		}
		p.spriteActive = true
		p.spriteTicks = 0
		p.stepSpriteFetch()
		return
	}

	p.stepFetcher()

	if p.windowTriggered() {
		p.startWindow()
		return
	}

	p.mix()
}

func (p *PPU) spriteTriggered() bool {
	if p.lcdc&lcdcObj == 0 || p.nextSprite >= p.lineSpriteCount {
		return false
	}
	return int(p.lineSprites[p.nextSprite].X) <= int(p.lx)+8
}

func (p *PPU) stepSpriteFetch() {
	p.spriteTicks++
	if p.spriteTicks < spriteFetchDots {
		return
	}
	p.fetchSprite(p.lineSprites[p.nextSprite])
	p.nextSprite++
	p.spriteActive = false
}

func (p *PPU) windowTriggered() bool {
	return !p.windowActive &&
		p.lcdc&lcdcWindow != 0 &&
		p.windowY &&
		int(p.lx)+7 >= int(p.wx)
}

// startWindow flushes the BG FIFO and restarts the fetcher on the window tile map.
func (p *PPU) startWindow() {
	p.windowActive = true
	p.bg.clear()
	p.fetcher.reset(true)
	p.discard = 0
	if p.wx < 7 {
		p.discard = int(7 - p.wx)
	}
}

// mix pops one pixel from each FIFO and sends the result to the screen.
func (p *PPU) mix() {
	if p.bg.len() == 0 {
		return
	}

	bg := p.bg.pop()
	if p.discard > 0 {
		p.discard--
		return
	}

	bgColor := bg.color
	if p.lcdc&lcdcBG == 0 {
		bgColor = 0
	}
	shade := applyPalette(p.bgp, bgColor)

	if p.obj.len() > 0 {
		obj := p.obj.pop()
		if obj.color != 0 && !(obj.priority && bgColor != 0) && p.lcdc&lcdcObj != 0 {
			shade = applyPalette(p.obp[obj.palette], obj.color)
		}
	}

	p.screen.SetPixel(p.lx, p.ly, ByteToColor(shade))
	p.lx++
}

func applyPalette(palette, color uint8) uint8 {
	return (palette >> (color * 2)) & 0x03
}

func (p *PPU) coincidence() bool {
	return p.ly == p.lyc
}

// updateStatLine requests LCDSTAT on a rising edge of the OR of all enabled sources.
func (p *PPU) updateStatLine() {
	line := false
	if p.enabled() {
		line = (p.mode == ModeHBlank && p.stat&statHBlankSource != 0) ||
			(p.mode == ModeVBlank && p.stat&statVBlankSource != 0) ||
			(p.mode == ModeOAMScan && p.stat&statOAMSource != 0) ||
			(p.coincidence() && p.stat&statLYCSource != 0)
	}
	if line && !p.statLine {
		p.irq.Request(addr.LCDSTATInterrupt)
	}
	p.statLine = line
}

func (p *PPU) setLCDC(value uint8) {
	wasOn := p.enabled()
	p.lcdc = value
	isOn := p.enabled()

	switch {
	case wasOn && !isOn:
		p.logger.Debug("LCD off", "ly", p.ly)
		p.ly = 0
		p.dot = 0
		p.mode = ModeHBlank
		p.bg.clear()
		p.obj.clear()
		p.blank()
	case !wasOn && isOn:
		p.logger.Debug("LCD on")
		p.ly = 0
		p.dot = 0
		p.windowY = false
		p.windowLine = 0
		p.startLine()
	}
}

// blank paints the whole screen white, as a disabled LCD shows.
func (p *PPU) blank() {
	for y := range FramebufferHeight {
		for x := range FramebufferWidth {
			p.screen.SetPixel(uint8(x), uint8(y), WhiteColor)
		}
	}
	if p.frames != nil {
		p.frames.FrameComplete()
	}
}

func (p *PPU) vramAt(address uint16) byte {
	return p.vram[address-addr.VRAMStart]
}

// Read returns VRAM, OAM or LCD register contents without access checks.
func (p *PPU) Read(address uint16) byte {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		return p.vram[address-addr.VRAMStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return p.oam[address-addr.OAMStart]
	}

	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		value := statUnused | p.stat&statWritable | uint8(p.mode)
		if p.coincidence() {
			value |= statCoincidence
		}
		return value
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp[0]
	case addr.OBP1:
		return p.obp[1]
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	default:
		return 0xFF
	}
}

// Write updates VRAM, OAM or LCD registers without access checks.
func (p *PPU) Write(address uint16, value byte) {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		p.vram[address-addr.VRAMStart] = value
		return
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		p.oam[address-addr.OAMStart] = value
		return
	}

	switch address {
	case addr.LCDC:
		p.setLCDC(value)
	case addr.STAT:
		p.stat = value & statWritable
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		// read only
	case addr.LYC:
		p.lyc = value
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp[0] = value
	case addr.OBP1:
		p.obp[1] = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	default:
		return
	}
	p.updateStatLine()
}
