package serial

import (
	"bytes"
	"log/slog"
)

// LogSink is a serial output that logs transferred bytes as text, one line
// at a time. Handy for debugging test roms that output to serial.
type LogSink struct {
	logger *slog.Logger
	line   []byte
	output bytes.Buffer
}

type LogSinkOption func(*LogSink)

// WithLogger sets the logger receiving completed lines.
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

// NewLogSink creates a new logging serial output.
func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WriteByte implements io.ByteWriter.
func (s *LogSink) WriteByte(b byte) error {
	s.output.WriteByte(b)

	// buffer until newline for readability
	if b == 0 || b == '\n' || b == '\r' {
		s.Flush()
		return nil
	}
	s.line = append(s.line, b)
	return nil
}

// Flush logs a partial line, if any.
func (s *LogSink) Flush() {
	if len(s.line) == 0 {
		return
	}
	s.logger.Info("serial", "line", string(s.line))
	s.line = s.line[:0]
}

// String returns every byte received so far.
func (s *LogSink) String() string {
	return s.output.String()
}
