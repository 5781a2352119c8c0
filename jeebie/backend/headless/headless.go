package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/jeebie-core/jeebie/backend"
	"github.com/valerio/jeebie-core/jeebie/backend/snapshot"
	"github.com/valerio/jeebie-core/jeebie/input/action"
	"github.com/valerio/jeebie-core/jeebie/input/event"
	"github.com/valerio/jeebie-core/jeebie/video"
)

// progressInterval is how often, in frames, progress is logged.
const progressInterval = 60

// Backend implements backend.Backend for automated testing and batch runs:
// it renders nothing and quits after a fixed amount of frames.
type Backend struct {
	config         backend.Config
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
	logger         *slog.Logger
}

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // save a snapshot every N frames
	Directory string // directory to save snapshots
	ROMName   string // ROM name for snapshot filenames
}

// New returns a backend quitting after maxFrames updates.
func New(maxFrames int, snapshotConfig SnapshotConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
		logger:         logger,
	}
}

func (h *Backend) Init(config backend.Config) error {
	if h.maxFrames <= 0 {
		return fmt.Errorf("headless: frame count must be positive, got %d", h.maxFrames)
	}
	h.config = config

	h.logger.Info("running headless",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

// Update counts the frame, saves snapshots and asks to quit on the last one.
func (h *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	h.frameCount++

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%progressInterval == 0 {
		h.logger.Debug("frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.frameCount < h.maxFrames {
		return nil, nil
	}

	// final frame always gets a snapshot
	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
		h.saveSnapshot(frame)
	}

	if h.snapshotConfig.Enabled {
		h.logger.Info("headless run completed", "frames", h.frameCount, "snapshots_saved_to", h.snapshotConfig.Directory)
	} else {
		h.logger.Info("headless run completed", "frames", h.frameCount)
	}

	return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// Frames returns the number of frames seen so far.
func (h *Backend) Frames() int {
	return h.frameCount
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters.
// An empty directory means a fresh temporary one.
func CreateSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "jeebie-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("creating snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("creating snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	config.ROMName = filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(config.ROMName, filepath.Ext(config.ROMName))

	return config, nil
}

// SnapshotPath returns where the snapshot of the given frame is written.
func (c SnapshotConfig) SnapshotPath(frame int) string {
	return filepath.Join(c.Directory, fmt.Sprintf("%s_frame_%d.png", c.ROMName, frame))
}

func (h *Backend) saveSnapshot(frame *video.FrameBuffer) {
	path := h.snapshotConfig.SnapshotPath(h.frameCount)
	if err := snapshot.Save(frame, path, h.config.ScaleOrDefault()); err != nil {
		h.logger.Error("failed to save snapshot", "frame", h.frameCount, "error", err)
		return
	}
	h.logger.Debug("snapshot saved", "frame", h.frameCount, "path", path)
}
