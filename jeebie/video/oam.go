package video

import (
	"github.com/valerio/jeebie-core/jeebie/bit"
)

const (
	spritesInOAM     = 40
	maxLineSprites   = 10
	oamDotsPerSprite = 2
)

// Sprite represents a single sprite/object in OAM memory.
// Y and X keep the hardware offsets (+16 and +8), so a sprite at X=8 starts
// at the left edge of the screen.
type Sprite struct {
	Y         uint8
	X         uint8
	TileIndex uint8
	Flags     uint8
	OAMIndex  int

	// parsed attribute flags for convenience
	PaletteOBP1 bool // false = OBP0, true = OBP1
	FlipX       bool
	FlipY       bool
	BehindBG    bool // BG colors 1-3 are drawn over the sprite
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// readSprite decodes OAM entry index (0-39).
func (p *PPU) readSprite(index int) Sprite {
	base := index * 4
	s := Sprite{
		Y:         p.oam[base],
		X:         p.oam[base+1],
		TileIndex: p.oam[base+2],
		Flags:     p.oam[base+3],
		OAMIndex:  index,
	}
	s.parseFlags()
	return s
}

// Sprites returns all 40 OAM entries, for debug views.
func (p *PPU) Sprites() [spritesInOAM]Sprite {
	var all [spritesInOAM]Sprite
	for i := range all {
		all[i] = p.readSprite(i)
	}
	return all
}

// LineSprites returns the sprites selected by the last OAM scan, in fetch order.
func (p *PPU) LineSprites() []Sprite {
	return p.lineSprites[:p.lineSpriteCount]
}

func (p *PPU) spriteHeight() int {
	if p.lcdc&lcdcObjSize != 0 {
		return 16
	}
	return 8
}

// scanEntry checks one OAM entry against the current line; the scan visits
// one entry every 2 dots and keeps at most 10 sprites, in OAM order.
func (p *PPU) scanEntry(index int) {
	if p.lineSpriteCount == maxLineSprites {
		return
	}

	y := int(p.oam[index*4])
	line := int(p.ly) + 16
	if line < y || line >= y+p.spriteHeight() {
		return
	}

	p.lineSprites[p.lineSpriteCount] = p.readSprite(index)
	p.lineSpriteCount++
}

// sortLineSprites orders the selected sprites by X. The sort is stable so
// that sprites sharing an X keep their OAM order, which is also their
// drawing priority.
func (p *PPU) sortLineSprites() {
	sprites := p.lineSprites[:p.lineSpriteCount]
	for i := 1; i < len(sprites); i++ {
		for j := i; j > 0 && sprites[j].X < sprites[j-1].X; j-- {
			sprites[j], sprites[j-1] = sprites[j-1], sprites[j]
		}
	}
}
