package jeebie

import (
	"io"
	"log/slog"

	"github.com/valerio/jeebie-core/jeebie/audio"
	"github.com/valerio/jeebie-core/jeebie/cart"
	"github.com/valerio/jeebie-core/jeebie/cpu"
	"github.com/valerio/jeebie-core/jeebie/memory"
	"github.com/valerio/jeebie-core/jeebie/serial"
	"github.com/valerio/jeebie-core/jeebie/video"
)

// Button is a joypad key.
type Button = memory.Button

const (
	ButtonRight  = memory.ButtonRight
	ButtonLeft   = memory.ButtonLeft
	ButtonUp     = memory.ButtonUp
	ButtonDown   = memory.ButtonDown
	ButtonA      = memory.ButtonA
	ButtonB      = memory.ButtonB
	ButtonSelect = memory.ButtonSelect
	ButtonStart  = memory.ButtonStart
)

type config struct {
	screen       video.Screen
	serialOut    io.ByteWriter
	serialOpts   []serial.PortOption
	speaker      audio.Speaker
	sampleRate   int
	dmaAccuracy  memory.DMAAccuracy
	stopBehavior cpu.StopBehavior
	cartOpts     []cart.LoadOption
	logger       *slog.Logger
	fps          int
}

func defaultConfig() config {
	return config{
		sampleRate:   audio.DefaultSampleRate,
		dmaAccuracy:  memory.DMAStandard,
		stopBehavior: cpu.StopUntilJoypad,
		logger:       slog.Default(),
	}
}

// Option configures a DMG.
type Option func(*config)

// WithScreen sends every pixel to screen as well as to the DMG frame buffer.
func WithScreen(screen video.Screen) Option {
	return func(c *config) {
		c.screen = screen
	}
}

// WithSerialOutput writes every byte sent over the link port to w.
func WithSerialOutput(w io.ByteWriter, opts ...serial.PortOption) Option {
	return func(c *config) {
		c.serialOut = w
		c.serialOpts = opts
	}
}

// WithSpeaker sends audio samples to speaker at sampleRate Hz.
func WithSpeaker(speaker audio.Speaker, sampleRate int) Option {
	return func(c *config) {
		c.speaker = speaker
		c.sampleRate = sampleRate
	}
}

// WithDMAAccuracy selects the OAM DMA bus blocking model.
func WithDMAAccuracy(accuracy memory.DMAAccuracy) Option {
	return func(c *config) {
		c.dmaAccuracy = accuracy
	}
}

// WithStopBehavior selects what ends a STOP instruction.
func WithStopBehavior(behavior cpu.StopBehavior) Option {
	return func(c *config) {
		c.stopBehavior = behavior
	}
}

// WithChecksumVerification makes NewWithFile reject ROMs with a bad header checksum.
func WithChecksumVerification() Option {
	return func(c *config) {
		c.cartOpts = append(c.cartOpts, cart.WithChecksumVerification())
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFrameRate sets the RunFrame budget, see DMG.SetFrameRate.
func WithFrameRate(fps int) Option {
	return func(c *config) {
		c.fps = fps
	}
}
