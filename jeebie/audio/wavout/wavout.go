// Package wavout records APU output to a 16-bit stereo WAV file.
package wavout

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	channels  = 2
	pcmFormat = 1

	// samples are handed to the encoder in chunks of this many frames
	chunkFrames = 4096
)

// Writer is an audio.Speaker that encodes every sample it receives.
// Encoding errors are kept and returned by Close.
type Writer struct {
	encoder *wav.Encoder
	buffer  *audio.IntBuffer
	closer  io.Closer
	frames  int
	err     error
}

// New writes a WAV stream at sampleRate to w. The header is finalized on Close.
func New(w io.WriteSeeker, sampleRate int) *Writer {
	return &Writer{
		encoder: wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat),
		buffer: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:           make([]int, 0, chunkFrames*channels),
			SourceBitDepth: bitDepth,
		},
	}
}

// Create opens path for writing and returns a Writer that closes the file on Close.
func Create(path string, sampleRate int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavout: %w", err)
	}
	w := New(f, sampleRate)
	w.closer = f
	return w, nil
}

func (w *Writer) SetSamples(left, right int16) {
	w.buffer.Data = append(w.buffer.Data, int(left), int(right))
	w.frames++
	if len(w.buffer.Data) >= chunkFrames*channels {
		w.flush()
	}
}

// Frames returns the number of stereo frames received.
func (w *Writer) Frames() int {
	return w.frames
}

func (w *Writer) flush() {
	if len(w.buffer.Data) == 0 {
		return
	}
	if w.err == nil {
		w.err = w.encoder.Write(w.buffer)
	}
	w.buffer.Data = w.buffer.Data[:0]
}

// Close flushes pending samples and writes the final WAV header. A Writer
// that never received a sample leaves an incomplete file behind.
func (w *Writer) Close() error {
	w.flush()
	if err := w.encoder.Close(); err != nil && w.err == nil {
		w.err = err
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && w.err == nil {
			w.err = err
		}
	}
	if w.err != nil {
		return fmt.Errorf("wavout: %w", w.err)
	}
	return nil
}
