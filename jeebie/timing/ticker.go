package timing

import "time"

// TickerLimiter waits on a time.Ticker. Ticks missed while the emulator was
// busy are dropped by the runtime, so it never bursts to catch up.
type TickerLimiter struct {
	ticker *time.Ticker
	frame  time.Duration
}

// NewTickerLimiter ticks once per frame of the given duration. Stop releases the ticker.
func NewTickerLimiter(frame time.Duration) *TickerLimiter {
	return &TickerLimiter{
		ticker: time.NewTicker(frame),
		frame:  frame,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.frame)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
