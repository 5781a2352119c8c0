package video

type fetchStage uint8

const (
	fetchTileIndex fetchStage = iota
	fetchDataLow
	fetchDataHigh
	fetchPush
)

const (
	dotsPerFetchStage = 2
	spriteFetchDots   = 6
)

// fetcher is the background/window tile fetcher. Each of the first three
// stages takes 2 dots; the push stage retries every dot until the BG FIFO is
// empty and then pushes all 8 pixels at once.
type fetcher struct {
	stage  fetchStage
	ticks  int
	x      uint8 // tile column, relative to SCX or to the window start
	window bool

	tile uint8
	row  TileRow
}

func (f *fetcher) reset(window bool) {
	*f = fetcher{window: window}
}

// stepFetcher runs one dot of the BG fetcher.
func (p *PPU) stepFetcher() {
	f := &p.fetcher

	if f.stage == fetchPush {
		if p.bg.len() > 0 {
			return
		}
		for i := range 8 {
			p.bg.push(pixel{color: f.row.GetPixel(i)})
		}
		f.x++
		f.stage = fetchTileIndex
		f.ticks = 0
		return
	}

	f.ticks++
	if f.ticks < dotsPerFetchStage {
		return
	}
	f.ticks = 0

	switch f.stage {
	case fetchTileIndex:
		f.tile = p.vramAt(p.tileMapAddress())
		f.stage = fetchDataLow
	case fetchDataLow:
		f.row.Low = p.vramAt(p.tileRowAddress())
		f.stage = fetchDataHigh
	case fetchDataHigh:
		f.row.High = p.vramAt(p.tileRowAddress() + 1)
		f.stage = fetchPush
	}
}

func (p *PPU) tileMapAddress() uint16 {
	f := &p.fetcher
	base := uint16(0x9800)

	var column, row uint16
	if f.window {
		if p.lcdc&lcdcWindowMap != 0 {
			base = 0x9C00
		}
		column = uint16(f.x) & 31
		row = uint16(p.windowLine) / 8
	} else {
		if p.lcdc&lcdcBGMap != 0 {
			base = 0x9C00
		}
		column = (uint16(p.scx/8) + uint16(f.x)) & 31
		row = uint16(p.ly+p.scy) / 8
	}

	return base + row*32 + column
}

func (p *PPU) tileRowAddress() uint16 {
	f := &p.fetcher
	line := uint16(p.ly+p.scy) % 8
	if f.window {
		line = uint16(p.windowLine) % 8
	}
	return tileDataAddress(f.tile, p.lcdc&lcdcTileData != 0) + line*2
}

// fetchSprite reads the current line of a sprite and merges it into the
// sprite FIFO. Slots already holding an opaque pixel are kept: the sprite
// fetched first wins, and fetch order is X then OAM index.
func (p *PPU) fetchSprite(s Sprite) {
	height := p.spriteHeight()
	line := int(p.ly) + 16 - int(s.Y)
	if s.FlipY {
		line = height - 1 - line
	}

	tile := s.TileIndex
	if height == 16 {
		tile &= 0xFE
	}
	address := 0x8000 + uint16(tile)*16 + uint16(line)*2
	row := TileRow{Low: p.vramAt(address), High: p.vramAt(address + 1)}

	var palette uint8
	if s.PaletteOBP1 {
		palette = 1
	}

	// pixels left of the current output position are gone, including those
	// of sprites partially off the left edge
	skip := int(p.lx) + 8 - int(s.X)

	for i := skip; i < 8; i++ {
		color := row.GetPixel(i)
		if s.FlipX {
			color = row.GetPixelFlipped(i)
		}
		px := pixel{color: color, palette: palette, priority: s.BehindBG}

		slot := i - skip
		if slot >= p.obj.len() {
			p.obj.push(px)
			continue
		}
		if existing := p.obj.at(slot); existing.color == 0 {
			*existing = px
		}
	}
}
