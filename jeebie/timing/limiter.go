// Package timing paces the frontend loop to the DMG frame rate.
package timing

import (
	"errors"
	"fmt"
	"time"

	"github.com/valerio/jeebie-core/jeebie/video"
)

const (
	CyclesPerFrame = video.DotsPerFrame
	CPUFrequency   = 4194304
)

// ErrUnknownPacing is returned by New for an unsupported pacing name.
var ErrUnknownPacing = errors.New("unknown pacing")

// Limiter controls frame rate timing for emulation.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset restarts the schedule from now, e.g. after a pause.
	Reset()
}

// Pacing names a Limiter implementation.
type Pacing string

const (
	PacingAdaptive Pacing = "adaptive"
	PacingTicker   Pacing = "ticker"
	PacingNone     Pacing = "none"
)

// New returns the limiter for pacing, releasing one frame per frame duration.
func New(pacing Pacing, frame time.Duration) (Limiter, error) {
	switch pacing {
	case PacingAdaptive:
		return NewAdaptiveLimiter(frame), nil
	case PacingTicker:
		return NewTickerLimiter(frame), nil
	case PacingNone:
		return NewNoOpLimiter(), nil
	default:
		return nil, fmt.Errorf("%w %q, want %s, %s or %s", ErrUnknownPacing, pacing, PacingAdaptive, PacingTicker, PacingNone)
	}
}

// NewNoOpLimiter returns a limiter that never waits, for headless runs and benchmarks.
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}

// TargetFPS is the native DMG refresh rate, about 59.73 Hz.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the wall time taken by cycles clock cycles, e.g. one
// DMG RunFrame budget.
func FrameDuration(cycles int) time.Duration {
	return time.Duration(float64(cycles) * float64(time.Second) / CPUFrequency)
}

// FrameDurationAt returns the length of one frame at fps, the native LCD
// frame when fps is not positive.
func FrameDurationAt(fps float64) time.Duration {
	if fps <= 0 {
		return FrameDuration(CyclesPerFrame)
	}
	return time.Duration(float64(time.Second) / fps)
}
