package render

import "github.com/valerio/jeebie-core/jeebie/video"

// Shade is a DMG gray level, 0 being black and 3 white.
type Shade int

const (
	ShadeBlack Shade = iota
	ShadeDark
	ShadeLight
	ShadeWhite
)

// PixelToShade maps a frame pixel to the closest DMG shade, using the red
// channel for colors outside the palette.
func PixelToShade(pixel uint32) Shade {
	switch video.GBColor(pixel) {
	case video.BlackColor:
		return ShadeBlack
	case video.DarkGreyColor:
		return ShadeDark
	case video.LightGreyColor:
		return ShadeLight
	case video.WhiteColor:
		return ShadeWhite
	}

	red := uint8(pixel >> 16)
	switch {
	case red < 0x26:
		return ShadeBlack
	case red < 0x72:
		return ShadeDark
	case red < 0xCC:
		return ShadeLight
	default:
		return ShadeWhite
	}
}

// HalfBlock returns the glyph drawing two vertically stacked pixels in one
// terminal cell: the upper half block takes the top shade as foreground and
// the bottom shade as background. Equal shades use a full block.
func HalfBlock(top, bottom Shade) rune {
	if top == bottom {
		return '█'
	}
	return '▀'
}
