package headless_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-core/jeebie/backend"
	"github.com/valerio/jeebie-core/jeebie/backend/headless"
	"github.com/valerio/jeebie-core/jeebie/input/action"
	"github.com/valerio/jeebie-core/jeebie/input/event"
	"github.com/valerio/jeebie-core/jeebie/video"
)

func TestHeadlessBackend(t *testing.T) {
	t.Run("normal operation", func(t *testing.T) {
		h := headless.New(3, headless.SnapshotConfig{}, nil)
		require.NoError(t, h.Init(backend.Config{Title: "Test"}))

		frame := video.NewFrameBuffer()
		for i := 0; i < 3; i++ {
			events, err := h.Update(frame)
			require.NoError(t, err)

			if i < 2 {
				assert.Empty(t, events)
			} else {
				require.Len(t, events, 1)
				assert.Equal(t, action.EmulatorQuit, events[0].Action)
				assert.Equal(t, event.Press, events[0].Type)
			}
		}

		assert.Equal(t, 3, h.Frames())
		assert.NoError(t, h.Cleanup())
	})

	t.Run("zero frames is rejected", func(t *testing.T) {
		h := headless.New(0, headless.SnapshotConfig{}, nil)
		assert.Error(t, h.Init(backend.Config{}))
	})
}

func TestHeadlessSnapshots(t *testing.T) {
	dir := t.TempDir()
	config, err := headless.CreateSnapshotConfig(2, dir, "/roms/tetris.gb")
	require.NoError(t, err)
	assert.True(t, config.Enabled)
	assert.Equal(t, "tetris", config.ROMName)

	h := headless.New(5, config, nil)
	require.NoError(t, h.Init(backend.Config{Scale: 1}))

	frame := video.NewFrameBuffer()
	for i := 0; i < 5; i++ {
		_, err := h.Update(frame)
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		config.SnapshotPath(2),
		config.SnapshotPath(4),
		config.SnapshotPath(5),
	}, matches)
}

func TestCreateSnapshotConfig(t *testing.T) {
	testCases := []struct {
		desc     string
		interval int
		enabled  bool
	}{
		{desc: "disabled", interval: 0, enabled: false},
		{desc: "enabled", interval: 10, enabled: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested")
			config, err := headless.CreateSnapshotConfig(tC.interval, dir, "game.gb")
			require.NoError(t, err)
			assert.Equal(t, tC.enabled, config.Enabled)
			if tC.enabled {
				assert.DirExists(t, dir)
				assert.Equal(t, dir, config.Directory)
			} else {
				assert.NoDirExists(t, dir)
			}
		})
	}
}

func TestHeadlessImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*headless.Backend)(nil)
}
