package backend

import (
	"github.com/valerio/jeebie-core/jeebie/cpu"
	"github.com/valerio/jeebie-core/jeebie/input/action"
	"github.com/valerio/jeebie-core/jeebie/input/event"
	"github.com/valerio/jeebie-core/jeebie/video"
)

// Backend represents a complete emulator platform (rendering + input + audio).
// Backends render frames to their own output and translate platform input
// into InputEvents; the Loop decides what the events mean.
type Backend interface {
	// Init configures the backend. It must be called before Update.
	Init(config Config) error

	// Update renders the frame, polls platform events and returns them as
	// actions.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases resources when shutting down.
	Cleanup() error
}

// ActionHandler is implemented by backends owning some actions themselves,
// e.g. toggling a debug view. The Loop forwards the debug actions to it.
type ActionHandler interface {
	HandleAction(act action.Action)
}

// InputEvent is a platform input translated to an action.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Inspector exposes machine state to debug views.
type Inspector interface {
	CPU() *cpu.CPU
	Peek(address uint16) uint8
}

// Config holds configuration for backends.
type Config struct {
	Title     string
	Scale     int
	ShowDebug bool // backends may ignore unsupported features

	// Inspector is optional, debug views stay empty without it.
	Inspector Inspector
}

// DefaultScale is the window scale used when Config.Scale is not set.
const DefaultScale = 4

// ScaleOrDefault returns the configured scale, or DefaultScale.
func (c Config) ScaleOrDefault() int {
	if c.Scale <= 0 {
		return DefaultScale
	}
	return c.Scale
}
