package video

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// GBColor is a 0xAARRGGBB color.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0xFF989898
	DarkGreyColor  GBColor = 0xFF4C4C4C
	BlackColor     GBColor = 0xFF000000
)

var shades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// ByteToColor maps a 2 bit DMG shade (after palette lookup) to a color.
func ByteToColor(shade byte) GBColor {
	return shades[shade&0x03]
}

// Screen receives finished pixels from the pixel mixer, one at a time.
type Screen interface {
	SetPixel(x, y uint8, color GBColor)
}

// FrameSink is optionally implemented by a Screen to learn when the PPU enters VBlank.
type FrameSink interface {
	FrameComplete()
}

// NoScreen drops every pixel.
type NoScreen struct{}

func (NoScreen) SetPixel(uint8, uint8, GBColor) {}

// FrameBuffer is a Screen keeping the last completed frame: pixels are drawn
// into a back buffer which is copied to the front one on FrameComplete.
type FrameBuffer struct {
	back   [FramebufferWidth * FramebufferHeight]uint32
	front  [FramebufferWidth * FramebufferHeight]uint32
	frames uint64
}

// NewFrameBuffer creates a white frame buffer.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{}
	for i := range fb.back {
		fb.back[i] = uint32(WhiteColor)
		fb.front[i] = uint32(WhiteColor)
	}
	return fb
}

func (fb *FrameBuffer) SetPixel(x, y uint8, color GBColor) {
	fb.back[int(y)*FramebufferWidth+int(x)] = uint32(color)
}

func (fb *FrameBuffer) FrameComplete() {
	fb.front = fb.back
	fb.frames++
}

// GetPixel returns a pixel of the last completed frame.
func (fb *FrameBuffer) GetPixel(x, y int) uint32 {
	return fb.front[y*FramebufferWidth+x]
}

// ToSlice returns the last completed frame, row-major. The slice aliases
// the buffer and is overwritten on the next FrameComplete.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.front[:]
}

// Frames returns the number of completed frames.
func (fb *FrameBuffer) Frames() uint64 {
	return fb.frames
}
