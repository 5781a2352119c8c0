package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/valerio/jeebie-core/jeebie"
	"github.com/valerio/jeebie-core/jeebie/audio"
	"github.com/valerio/jeebie-core/jeebie/audio/wavout"
	"github.com/valerio/jeebie-core/jeebie/backend"
	"github.com/valerio/jeebie-core/jeebie/backend/headless"
	"github.com/valerio/jeebie-core/jeebie/backend/sdl2"
	"github.com/valerio/jeebie-core/jeebie/backend/terminal"
	"github.com/valerio/jeebie-core/jeebie/cpu"
	"github.com/valerio/jeebie-core/jeebie/memory"
	"github.com/valerio/jeebie-core/jeebie/serial"
	"github.com/valerio/jeebie-core/jeebie/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "Jeebie"
	app.Description = "A cycle accurate gameboy emulator"
	app.Usage = "jeebie [options] <ROM file>"
	app.Version = "2.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory in headless mode, working directory otherwise)",
		},
		cli.BoolFlag{
			Name:  "sdl2",
			Usage: "Use the SDL2 window instead of the terminal (needs a -tags sdl2 build)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window and snapshot scale factor",
			Value: backend.DefaultScale,
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Start with the debug view enabled",
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record audio to a WAV file",
		},
		cli.IntFlag{
			Name:  "sample-rate",
			Usage: "Audio sample rate in Hz",
			Value: audio.DefaultSampleRate,
		},
		cli.BoolFlag{
			Name:  "serial",
			Usage: "Log bytes sent over the link port, one line at a time",
		},
		cli.BoolFlag{
			Name:  "dma-strict",
			Usage: "Also block cartridge, VRAM and WRAM access during OAM DMA",
		},
		cli.BoolFlag{
			Name:  "stop-interrupt",
			Usage: "Let any pending interrupt end STOP, not just a button press",
		},
		cli.Float64Flag{
			Name:  "fps",
			Usage: "Frontend frame rate (0 = native DMG rate)",
		},
		cli.StringFlag{
			Name:  "pacing",
			Usage: "Frame pacing: adaptive, ticker or none",
			Value: string(timing.PacingAdaptive),
		},
		cli.BoolFlag{
			Name:  "verify-checksum",
			Usage: "Refuse ROMs whose header checksum does not match",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Minimum log level: debug, info, warn or error",
			Value: "info",
		},
	}
	app.Action = runEmulator
	app.Commands = []cli.Command{
		{
			Name:      "disasm",
			Usage:     "Disassemble a ROM",
			ArgsUsage: "<ROM file>",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "start", Usage: "First address", Value: 0x100},
				cli.IntFlag{Name: "count", Usage: "Number of instructions", Value: 32},
			},
			Action: runDisasm,
		},
		{
			Name:      "info",
			Usage:     "Print the cartridge header of a ROM",
			ArgsUsage: "<ROM file>",
			Action:    runInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func romPath(c *cli.Context) (string, error) {
	if path := c.GlobalString("rom"); path != "" {
		return path, nil
	}
	if path := c.String("rom"); path != "" {
		return path, nil
	}
	if c.NArg() > 0 {
		return c.Args().Get(0), nil
	}
	cli.ShowAppHelp(c)
	return "", errors.New("no ROM path provided")
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func runEmulator(c *cli.Context) error {
	path, err := romPath(c)
	if err != nil {
		return err
	}

	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	config := backend.Config{
		Title:     "Jeebie",
		Scale:     c.Int("scale"),
		ShowDebug: c.Bool("debug"),
	}

	var (
		b       backend.Backend
		logger  *slog.Logger
		limiter timing.Limiter
		speaker audio.Speaker
	)

	switch {
	case c.Bool("headless"):
		snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), path)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		b = headless.New(c.Int("frames"), snapshots, logger)
		limiter = timing.NewNoOpLimiter()

	case c.Bool("sdl2"):
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		window := sdl2.New(c.Int("sample-rate"), logger)
		if buffer := window.Speaker(); buffer != nil {
			speaker = buffer
		}
		b = window

	default:
		term := terminal.New(terminal.WithLogLevel(level))
		logger = term.Logger()
		b = term
	}
	slog.SetDefault(logger)

	if limiter == nil {
		if limiter, err = frameLimiter(c.String("pacing"), c.Float64("fps")); err != nil {
			return err
		}
	}

	var recorder *wavout.Writer
	if out := c.String("wav"); out != "" {
		recorder, err = wavout.Create(out, c.Int("sample-rate"))
		if err != nil {
			return err
		}
		speaker = teeSpeaker(speaker, recorder)
	}

	opts := []jeebie.Option{
		jeebie.WithLogger(logger),
		jeebie.WithSpeaker(speaker, c.Int("sample-rate")),
	}
	var serialLog *serial.LogSink
	if c.Bool("serial") {
		serialLog = serial.NewLogSink(serial.WithLogger(logger))
		opts = append(opts, jeebie.WithSerialOutput(serialLog))
	}
	if c.Bool("dma-strict") {
		opts = append(opts, jeebie.WithDMAAccuracy(memory.DMAStrict))
	}
	if c.Bool("stop-interrupt") {
		opts = append(opts, jeebie.WithStopBehavior(cpu.StopUntilInterrupt))
	}
	if c.Bool("verify-checksum") {
		opts = append(opts, jeebie.WithChecksumVerification())
	}

	dmg, err := jeebie.NewWithFile(path, opts...)
	if err != nil {
		return err
	}
	config.Inspector = dmg

	save := newBatterySave(dmg.Cartridge(), path, logger)
	if err := save.load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := backend.NewLoop(dmg, b, config,
		backend.WithLimiter(limiter),
		backend.WithLoopLogger(logger),
		backend.WithAudioControls(dmg.Audio()),
		backend.WithSnapshotDir(c.String("snapshot-dir")),
	)
	runErr := loop.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	if serialLog != nil {
		serialLog.Flush()
	}
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			runErr = errors.Join(runErr, err)
		} else {
			logger.Info("audio recorded", "path", c.String("wav"), "frames", recorder.Frames())
		}
	}
	if err := save.store(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

func frameLimiter(pacing string, fps float64) (timing.Limiter, error) {
	return timing.New(timing.Pacing(pacing), timing.FrameDurationAt(fps))
}

// speakers fans samples out to several sinks.
type speakers []audio.Speaker

func (s speakers) SetSamples(left, right int16) {
	for _, speaker := range s {
		speaker.SetSamples(left, right)
	}
}

func teeSpeaker(first, second audio.Speaker) audio.Speaker {
	if first == nil {
		return second
	}
	return speakers{first, second}
}

func runInfo(c *cli.Context) error {
	path, err := romPath(c)
	if err != nil {
		return err
	}
	cartridge, err := loadCartridge(path)
	if err != nil {
		return err
	}

	h := cartridge.Header
	fmt.Printf("Title:       %s\n", h.Title)
	fmt.Printf("Controller:  %s (type 0x%02X)\n", h.Controller, h.CartType)
	fmt.Printf("ROM:         %d KiB, %d banks\n", h.ROMSize/1024, h.ROMBanks)
	fmt.Printf("RAM:         %d bytes\n", h.RAMSize)
	fmt.Printf("Battery:     %t\n", h.HasBattery)
	fmt.Printf("RTC:         %t\n", h.HasRTC)
	fmt.Printf("Version:     %d\n", h.Version)
	fmt.Printf("Checksum:    0x%02X\n", h.HeaderChecksum)
	return nil
}

func runDisasm(c *cli.Context) error {
	path, err := romPath(c)
	if err != nil {
		return err
	}
	cartridge, err := loadCartridge(path)
	if err != nil {
		return err
	}

	start := uint16(c.Int("start"))
	lines := disassemble(cartridge, start, c.Int("count"))
	fmt.Println(strings.Join(lines, "\n"))
	return nil
}
