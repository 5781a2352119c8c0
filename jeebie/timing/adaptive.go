package timing

import (
	"log/slog"
	"time"
)

const (
	// waits shorter than this spin instead of sleeping
	spinThreshold = 2 * time.Millisecond
	// sleep wakes this much early and spins the rest
	sleepMargin = time.Millisecond
	// further behind than this, the backlog is dropped
	resyncThreshold = 5 * time.Millisecond
)

// AdaptiveLimiter keeps an absolute deadline per frame so that sleep jitter
// does not accumulate. It sleeps for long waits and spins for the last
// stretch.
type AdaptiveLimiter struct {
	frame    time.Duration
	deadline time.Time
	resyncs  int

	now    func() time.Time
	sleep  func(time.Duration)
	logger *slog.Logger
}

// AdaptiveOption configures an AdaptiveLimiter.
type AdaptiveOption func(*AdaptiveLimiter)

// WithClock replaces time.Now and time.Sleep.
func WithClock(now func() time.Time, sleep func(time.Duration)) AdaptiveOption {
	return func(a *AdaptiveLimiter) {
		a.now = now
		a.sleep = sleep
	}
}

// WithLogger sets the logger used to report dropped frames.
func WithLogger(logger *slog.Logger) AdaptiveOption {
	return func(a *AdaptiveLimiter) {
		a.logger = logger
	}
}

// NewAdaptiveLimiter paces frames of the given duration, see FrameDurationAt.
func NewAdaptiveLimiter(frame time.Duration, opts ...AdaptiveOption) *AdaptiveLimiter {
	a := &AdaptiveLimiter{
		frame:  frame,
		now:    time.Now,
		sleep:  time.Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.deadline = a.now()
	return a
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.now()
	wait := a.deadline.Sub(now)

	switch {
	case wait > spinThreshold:
		a.sleep(wait - sleepMargin)
		a.spin()
	case wait > 0:
		a.spin()
	case wait < -resyncThreshold:
		a.resyncs++
		a.logger.Debug("frame pacing behind, resyncing", "behind", -wait, "resyncs", a.resyncs)
		a.deadline = now
	}

	a.deadline = a.deadline.Add(a.frame)
}

func (a *AdaptiveLimiter) spin() {
	for a.now().Before(a.deadline) {
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.deadline = a.now()
}

// Resyncs counts how often the limiter fell behind and dropped its backlog.
func (a *AdaptiveLimiter) Resyncs() int {
	return a.resyncs
}
