// Package debug decodes video memory for inspection tools.
package debug

import (
	"fmt"

	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

const (
	SpriteCount       = 40
	MaxSpritesPerLine = 10

	bytesPerSprite = 4
	spriteYOffset  = 16
	spriteXOffset  = 8
)

// Reader reads memory without side effects, such as DMG.Peek.
type Reader interface {
	Peek(address uint16) uint8
}

// Sprite is one decoded OAM entry, in screen coordinates.
type Sprite struct {
	Index    int
	Y, X     int
	Tile     uint8
	Flags    uint8
	BehindBG bool
	FlipY    bool
	FlipX    bool
	OBP1     bool
}

func (s Sprite) String() string {
	palette := "OBP0"
	if s.OBP1 {
		palette = "OBP1"
	}
	return fmt.Sprintf("Sprite %2d: Y=%4d X=%4d Tile=0x%02X Flags=0x%02X %s",
		s.Index, s.Y, s.X, s.Tile, s.Flags, palette)
}

// OnLine reports whether the sprite covers scanline ly for the given height.
func (s Sprite) OnLine(ly, height int) bool {
	return s.Y <= ly && ly < s.Y+height
}

// SpriteHeight returns 8 or 16 depending on LCDC bit 2.
func SpriteHeight(lcdc uint8) int {
	if bit.IsSet(2, lcdc) {
		return 16
	}
	return 8
}

// Sprites decodes all 40 OAM entries.
func Sprites(r Reader) []Sprite {
	sprites := make([]Sprite, SpriteCount)
	for i := range sprites {
		base := addr.OAMStart + uint16(i*bytesPerSprite)
		flags := r.Peek(base + 3)
		sprites[i] = Sprite{
			Index:    i,
			Y:        int(r.Peek(base)) - spriteYOffset,
			X:        int(r.Peek(base+1)) - spriteXOffset,
			Tile:     r.Peek(base + 2),
			Flags:    flags,
			BehindBG: bit.IsSet(7, flags),
			FlipY:    bit.IsSet(6, flags),
			FlipX:    bit.IsSet(5, flags),
			OBP1:     bit.IsSet(4, flags),
		}
	}
	return sprites
}

// SpritesOnLine returns the sprites the PPU selects for scanline ly: the
// first ten in OAM order that cover the line, whatever their X.
func SpritesOnLine(r Reader, ly int) []Sprite {
	height := SpriteHeight(r.Peek(addr.LCDC))
	var selected []Sprite
	for _, s := range Sprites(r) {
		if len(selected) == MaxSpritesPerLine {
			break
		}
		if s.OnLine(ly, height) {
			selected = append(selected, s)
		}
	}
	return selected
}
