package video

// LCDC (LCD Control) register bits
//
//	Bit 7 - LCD Display Enable (0=Off, 1=On)
//	Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
//	Bit 5 - Window Display Enable (0=Off, 1=On)
//	Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
//	Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
//	Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
//	Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
//	Bit 0 - BG Display (0=Off, 1=On)
const (
	lcdcEnable    uint8 = 1 << 7
	lcdcWindowMap uint8 = 1 << 6
	lcdcWindow    uint8 = 1 << 5
	lcdcTileData  uint8 = 1 << 4
	lcdcBGMap     uint8 = 1 << 3
	lcdcObjSize   uint8 = 1 << 2
	lcdcObj       uint8 = 1 << 1
	lcdcBG        uint8 = 1 << 0
)

// STAT interrupt source enables, the only writable STAT bits
const (
	statHBlankSource uint8 = 1 << 3
	statVBlankSource uint8 = 1 << 4
	statOAMSource    uint8 = 1 << 5
	statLYCSource    uint8 = 1 << 6
	statWritable           = statHBlankSource | statVBlankSource | statOAMSource | statLYCSource
	statCoincidence  uint8 = 1 << 2
	statUnused       uint8 = 1 << 7
)

// Mode is the PPU state reported in STAT bits 0-1.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModePixelTransfer
)

func (m Mode) String() string {
	switch m {
	case ModeHBlank:
		return "HBlank"
	case ModeVBlank:
		return "VBlank"
	case ModeOAMScan:
		return "OAM scan"
	case ModePixelTransfer:
		return "pixel transfer"
	default:
		return "unknown"
	}
}
