// Package snapshot writes frames as PNG images.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/valerio/jeebie-core/jeebie/video"
)

// Image converts a frame to an RGBA image, upscaled scale times with
// nearest neighbour sampling so pixels stay sharp. Scales below 1 are
// treated as 1.
func Image(frame *video.FrameBuffer, scale int) *image.RGBA {
	native := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			native.SetRGBA(x, y, toRGBA(frame.GetPixel(x, y)))
		}
	}

	if scale <= 1 {
		return native
	}

	scaled := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth*scale, video.FramebufferHeight*scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), native, native.Bounds(), draw.Src, nil)
	return scaled
}

// toRGBA unpacks a 0xAARRGGBB pixel.
func toRGBA(pixel uint32) color.RGBA {
	return color.RGBA{
		R: uint8(pixel >> 16),
		G: uint8(pixel >> 8),
		B: uint8(pixel),
		A: uint8(pixel >> 24),
	}
}

// Save encodes the frame as PNG at path.
func Save(frame *video.FrameBuffer, path string, scale int) error {
	return SaveImage(Image(frame, scale), path)
}

// SaveImage encodes any image as PNG at path.
func SaveImage(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("snapshot: encoding %s: %w", path, err)
	}
	return file.Close()
}

// SaveToDir saves the frame in dir as <name>_<timestamp>.png and returns
// the path written. An empty dir means the working directory.
func SaveToDir(frame *video.FrameBuffer, dir, name string, scale int) (string, error) {
	filename := fmt.Sprintf("%s_%s.png", name, time.Now().Format("20060102_150405.000"))
	path := filepath.Join(dir, filename)
	return path, Save(frame, path, scale)
}
