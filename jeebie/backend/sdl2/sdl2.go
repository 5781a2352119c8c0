//go:build sdl2

package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/jeebie-core/jeebie/audio"
	"github.com/valerio/jeebie-core/jeebie/backend"
	"github.com/valerio/jeebie-core/jeebie/input/action"
	"github.com/valerio/jeebie-core/jeebie/input/event"
	"github.com/valerio/jeebie-core/jeebie/video"
)

const bytesPerPixel = 4

// Backend implements backend.Backend using SDL2 bindings.
// Building it requires the SDL2 development libraries, see the sdl2 build tag.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	config   backend.Config
	logger   *slog.Logger

	speaker *audio.Buffer
	output  *audioOutput
	rate    int
}

// New creates a new SDL2 backend. Audio samples pushed to Speaker are
// played at sampleRate; a rate of 0 disables audio.
func New(sampleRate int, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{rate: sampleRate, logger: logger}
	if sampleRate > 0 {
		b.speaker = audio.NewBuffer(sampleRate / 5 * 2)
	}
	return b
}

// Speaker returns the sink for APU samples, nil with audio disabled.
func (s *Backend) Speaker() *audio.Buffer {
	return s.speaker
}

// Init initializes the SDL2 backend
func (s *Backend) Init(config backend.Config) error {
	s.config = config
	scale := int32(config.ScaleOrDefault())

	flags := uint32(sdl.INIT_VIDEO | sdl.INIT_EVENTS)
	if s.speaker != nil {
		flags |= sdl.INIT_AUDIO
	}
	if err := sdl.Init(flags); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %w", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		video.FramebufferWidth*scale,
		video.FramebufferHeight*scale,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		s.Cleanup()
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	s.renderer = renderer

	// ARGB8888 matches the 0xAARRGGBB frame pixels, so frames upload as is
	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		s.Cleanup()
		return fmt.Errorf("failed to create texture: %w", err)
	}
	s.texture = texture

	if s.speaker != nil {
		output, err := openAudio(s.rate)
		if err != nil {
			// keep going without sound
			s.logger.Warn("audio disabled", "error", err)
		} else {
			s.output = output
		}
	}

	s.logger.Info("SDL2 backend initialized", "scale", scale, "audio", s.output != nil)
	return nil
}

// Update renders a frame and processes events
func (s *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	var events []backend.InputEvent
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		events = append(events, s.translate(e)...)
	}

	if s.output != nil {
		if err := s.output.queue(s.speaker); err != nil {
			s.logger.Debug("failed to queue audio", "error", err)
		}
	}

	if err := s.renderFrame(frame); err != nil {
		return events, err
	}
	if s.config.ShowDebug && s.config.Inspector != nil {
		s.window.SetTitle(debugTitle(s.config.Title, s.config.Inspector))
	}
	return events, nil
}

// HandleAction processes the actions owned by the SDL2 backend.
func (s *Backend) HandleAction(act action.Action) {
	if act != action.EmulatorDebugToggle {
		return
	}
	s.config.ShowDebug = !s.config.ShowDebug
	if !s.config.ShowDebug {
		s.window.SetTitle(s.config.Title)
	}
}

// Cleanup cleans up SDL2 resources
func (s *Backend) Cleanup() error {
	if s.output != nil {
		s.output.close()
	}
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

// translate converts an SDL event to input events. Key repeats are dropped,
// releases are only reported for Game Boy buttons.
func (s *Backend) translate(e sdl.Event) []backend.InputEvent {
	switch e := e.(type) {
	case *sdl.QuitEvent:
		return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}

	case *sdl.KeyboardEvent:
		act, ok := keyAction(e.Keysym.Sym)
		if !ok {
			return nil
		}
		switch {
		case e.Type == sdl.KEYDOWN && e.Repeat == 0:
			return []backend.InputEvent{{Action: act, Type: event.Press}}
		case e.Type == sdl.KEYUP && action.GetInfo(act).Category == action.CategoryGameInput:
			return []backend.InputEvent{{Action: act, Type: event.Release}}
		}
	}
	return nil
}

func (s *Backend) renderFrame(frame *video.FrameBuffer) error {
	pixels := frame.ToSlice()
	if err := s.texture.Update(nil, unsafe.Pointer(&pixels[0]), video.FramebufferWidth*bytesPerPixel); err != nil {
		return fmt.Errorf("updating texture: %w", err)
	}

	s.renderer.SetDrawColor(0, 0, 0, 0xFF)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
	return nil
}
