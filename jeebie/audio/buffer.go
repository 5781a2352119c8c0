package audio

import "sync"

// initialBufferCapacity holds roughly 100ms of stereo samples at the default rate.
const initialBufferCapacity = DefaultSampleRate / 10 * 2

// Controls are the channel debugging toggles exposed to frontends.
type Controls interface {
	ToggleChannel(channel int)
	SoloChannel(channel int)
	UnmuteAll()
	ChannelStatus() (ch1, ch2, ch3, ch4 bool)
}

var _ Controls = (*APU)(nil)

// Buffer is a Speaker that queues interleaved stereo samples for an audio
// callback running on another goroutine.
type Buffer struct {
	mu       sync.Mutex
	samples  []int16
	capacity int
}

var _ Speaker = (*Buffer)(nil)

// NewBuffer returns a Buffer holding at most capacity interleaved samples.
// Older samples are dropped when the consumer falls behind.
func NewBuffer(capacity int) *Buffer {
	if capacity < 2 {
		capacity = initialBufferCapacity
	}
	return &Buffer{
		samples:  make([]int16, 0, capacity),
		capacity: capacity,
	}
}

func (b *Buffer) SetSamples(left, right int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples)+2 > b.capacity {
		b.samples = append(b.samples[:0], b.samples[2:]...)
	}
	b.samples = append(b.samples, left, right)
}

// GetSamples removes and returns count interleaved samples, padding with
// silence when fewer are queued.
func (b *Buffer) GetSamples(count int) []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]int16, count)
	n := copy(out, b.samples)
	b.samples = append(b.samples[:0], b.samples[n:]...)
	return out
}

// Len returns the number of queued interleaved samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
