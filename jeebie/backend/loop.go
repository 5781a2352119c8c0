package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/valerio/jeebie-core/jeebie/audio"
	"github.com/valerio/jeebie-core/jeebie/backend/snapshot"
	"github.com/valerio/jeebie-core/jeebie/debug"
	"github.com/valerio/jeebie-core/jeebie/input"
	"github.com/valerio/jeebie-core/jeebie/input/action"
	"github.com/valerio/jeebie-core/jeebie/input/event"
	"github.com/valerio/jeebie-core/jeebie/timing"
	"github.com/valerio/jeebie-core/jeebie/video"
)

// backendActions are forwarded to backends implementing ActionHandler.
var backendActions = []action.Action{
	action.EmulatorDebugToggle,
	action.EmulatorPauseToggle,
	action.DebugLogLevelIncrease,
	action.DebugLogLevelDecrease,
}

// Emulator is the machine driven by a Loop.
type Emulator interface {
	input.ButtonSetter
	// RunUntilFrame runs to the next VBlank, false if none came (LCD off).
	RunUntilFrame() bool
	Frame() *video.FrameBuffer
}

// Loop runs the emulator one frame at a time, hands each frame to the
// backend and dispatches the returned input events.
type Loop struct {
	emu     Emulator
	backend Backend
	config  Config
	input   *input.Manager
	limiter timing.Limiter
	logger  *slog.Logger

	snapshotDir   string
	snapshotScale int

	paused   bool
	stepping bool
	quit     bool
	frames   uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLimiter paces the loop, it runs unthrottled by default.
func WithLimiter(limiter timing.Limiter) LoopOption {
	return func(l *Loop) {
		l.limiter = limiter
	}
}

// WithLoopLogger sets the loop logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithAudioControls binds the audio actions to the given channel controls.
func WithAudioControls(controls audio.Controls) LoopOption {
	return func(l *Loop) {
		l.bindAudio(controls)
	}
}

// WithSnapshotDir sets where the snapshot action writes PNG files.
func WithSnapshotDir(dir string) LoopOption {
	return func(l *Loop) {
		l.snapshotDir = dir
	}
}

// NewLoop creates a loop driving emu through b.
func NewLoop(emu Emulator, b Backend, config Config, opts ...LoopOption) *Loop {
	l := &Loop{
		emu:           emu,
		backend:       b,
		config:        config,
		input:         input.NewManager(emu),
		limiter:       timing.NewNoOpLimiter(),
		logger:        slog.Default(),
		snapshotScale: config.ScaleOrDefault(),
	}

	l.input.On(action.EmulatorQuit, event.Press, func() { l.quit = true })
	l.input.On(action.EmulatorPauseToggle, event.Press, l.togglePause)
	l.input.On(action.EmulatorStepFrame, event.Press, func() {
		if l.paused {
			l.stepping = true
		}
	})
	l.input.On(action.EmulatorSnapshot, event.Press, l.snapshot)

	if handler, ok := b.(ActionHandler); ok {
		for _, act := range backendActions {
			l.input.On(act, event.Press, func() { handler.HandleAction(act) })
		}
	}

	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loop) bindAudio(controls audio.Controls) {
	toggles := []action.Action{action.AudioToggleChannel1, action.AudioToggleChannel2, action.AudioToggleChannel3, action.AudioToggleChannel4}
	solos := []action.Action{action.AudioSoloChannel1, action.AudioSoloChannel2, action.AudioSoloChannel3, action.AudioSoloChannel4}
	for i := range toggles {
		channel := i + 1
		l.input.On(toggles[i], event.Press, func() {
			controls.ToggleChannel(channel)
			l.logger.Info("audio channels", "status", formatChannels(controls))
		})
		l.input.On(solos[i], event.Press, func() {
			controls.SoloChannel(channel)
			l.logger.Info("audio channels", "status", formatChannels(controls))
		})
	}
	l.input.On(action.AudioUnmuteAll, event.Press, func() {
		controls.UnmuteAll()
		l.logger.Info("audio channels", "status", formatChannels(controls))
	})
}

// formatChannels renders audible channels as digits, e.g. "1-3-".
func formatChannels(controls audio.Controls) string {
	ch1, ch2, ch3, ch4 := controls.ChannelStatus()
	out := []byte("1234")
	for i, on := range []bool{ch1, ch2, ch3, ch4} {
		if !on {
			out[i] = '-'
		}
	}
	return string(out)
}

func (l *Loop) togglePause() {
	l.paused = !l.paused
	if !l.paused {
		l.limiter.Reset()
	}
	l.logger.Info("emulation paused", "paused", l.paused)
}

func (l *Loop) snapshot() {
	path, err := snapshot.SaveToDir(l.emu.Frame(), l.snapshotDir, "jeebie_snapshot", l.snapshotScale)
	if err != nil {
		l.logger.Error("failed to save snapshot", "error", err)
		return
	}
	l.logger.Info("snapshot saved", "path", path)

	if l.config.Inspector == nil {
		return
	}
	tiles := strings.TrimSuffix(path, ".png") + "_tiles.png"
	if err := snapshot.SaveImage(debug.TileSheet(l.config.Inspector), tiles); err != nil {
		l.logger.Error("failed to save tile data", "error", err)
		return
	}
	l.logger.Info("tile data saved", "path", tiles)
}

// Run initializes the backend and loops until a quit action, a backend
// error or ctx being done. The backend is always cleaned up.
func (l *Loop) Run(ctx context.Context) (err error) {
	if err := l.backend.Init(l.config); err != nil {
		return fmt.Errorf("initializing backend: %w", err)
	}
	defer func() {
		if cerr := l.backend.Cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("cleaning up backend: %w", cerr)
		}
	}()
	if stopper, ok := l.limiter.(interface{ Stop() }); ok {
		defer stopper.Stop()
	}

	for !l.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Frame(); err != nil {
			return err
		}
		l.limiter.WaitForNextFrame()
	}
	return nil
}

// Frame runs a single loop iteration: one emulated frame unless paused,
// then one backend update.
func (l *Loop) Frame() error {
	if !l.paused || l.stepping {
		l.stepping = false
		if !l.emu.RunUntilFrame() {
			l.logger.Debug("no frame completed, LCD is off", "frame", l.frames)
		}
		l.frames++
	}

	events, err := l.backend.Update(l.emu.Frame())
	if err != nil {
		return fmt.Errorf("updating backend: %w", err)
	}

	for _, evt := range events {
		l.input.Trigger(evt.Action, evt.Type)
	}
	return nil
}

// Paused reports whether emulation is paused.
func (l *Loop) Paused() bool { return l.paused }

// Frames returns the number of emulated frames.
func (l *Loop) Frames() uint64 { return l.frames }

// Quit reports whether a quit action was received.
func (l *Loop) Quit() bool { return l.quit }
