package debug

import (
	"image"
	"image/color"

	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/video"
)

const (
	TileCount   = 384
	TilesPerRow = 16
	TileRows    = TileCount / TilesPerRow

	tileSize  = 8
	tileBytes = 16
)

// Tile reads the 8 rows of tile index from the 0x8000-0x97FF pattern table.
func Tile(r Reader, index int) [tileSize]video.TileRow {
	var rows [tileSize]video.TileRow
	base := addr.VRAMStart + uint16(index*tileBytes)
	for y := range rows {
		rows[y] = video.TileRow{
			Low:  r.Peek(base + uint16(y*2)),
			High: r.Peek(base + uint16(y*2) + 1),
		}
	}
	return rows
}

// TileSheet draws every tile of the pattern table in a 16x24 grid, shaded
// through the current BGP palette.
func TileSheet(r Reader) *image.RGBA {
	bgp := r.Peek(addr.BGP)
	img := image.NewRGBA(image.Rect(0, 0, TilesPerRow*tileSize, TileRows*tileSize))

	for index := range TileCount {
		originX := (index % TilesPerRow) * tileSize
		originY := (index / TilesPerRow) * tileSize
		for y, row := range Tile(r, index) {
			for x := range tileSize {
				shade := (bgp >> (row.GetPixel(x) * 2)) & 0x03
				img.SetRGBA(originX+x, originY+y, rgba(video.ByteToColor(shade)))
			}
		}
	}
	return img
}

func rgba(c video.GBColor) color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}
}
