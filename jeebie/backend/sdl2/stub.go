//go:build !sdl2

package sdl2

import (
	"errors"
	"log/slog"

	"github.com/valerio/jeebie-core/jeebie/audio"
	"github.com/valerio/jeebie-core/jeebie/backend"
	"github.com/valerio/jeebie-core/jeebie/video"
)

// ErrUnavailable is returned by Init when built without the sdl2 tag.
var ErrUnavailable = errors.New("SDL2 backend not available, build with -tags sdl2 to enable")

// Backend stub for when SDL2 is not available
type Backend struct{}

// New creates a stub SDL2 backend that fails to initialize.
func New(sampleRate int, logger *slog.Logger) *Backend {
	return &Backend{}
}

// Speaker returns nil, the stub plays no audio.
func (s *Backend) Speaker() *audio.Buffer {
	return nil
}

func (s *Backend) Init(config backend.Config) error {
	return ErrUnavailable
}

func (s *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	return nil, ErrUnavailable
}

func (s *Backend) Cleanup() error {
	return nil
}
