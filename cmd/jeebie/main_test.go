package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-core/jeebie/cart"
	"github.com/valerio/jeebie-core/jeebie/cart/carttest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeROM(t *testing.T, rom []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.gb")
	require.NoError(t, os.WriteFile(path, rom, 0o644))
	return path
}

func TestDisassemble(t *testing.T) {
	path := writeROM(t, carttest.Build([]byte{0x3E, 0x42, 0x76}))
	cartridge, err := loadCartridge(path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		" 0x0100: NOP",
		" 0x0101: JP $0150",
	}, disassemble(cartridge, 0x100, 2))

	assert.Equal(t, []string{
		" 0x0150: LD A, $42",
		" 0x0152: HALT",
	}, disassemble(cartridge, carttest.CodeStart, 2))
}

func TestLoadCartridgeErrors(t *testing.T) {
	_, err := loadCartridge(filepath.Join(t.TempDir(), "missing.gb"))
	assert.ErrorContains(t, err, "reading ROM")

	_, err = loadCartridge(writeROM(t, make([]byte, 0x100)))
	assert.ErrorIs(t, err, cart.ErrROMTooSmall)
}

func TestBatterySave(t *testing.T) {
	path := writeROM(t, carttest.Build(nil, carttest.WithType(0x03, 0x02)))
	savePath := filepath.Join(filepath.Dir(path), "game.sav")
	logger := discardLogger()

	cartridge, err := loadCartridge(path)
	require.NoError(t, err)

	save := newBatterySave(cartridge, path, logger)
	assert.Equal(t, savePath, save.path)
	require.NoError(t, save.load(), "a missing save is not an error")

	// enable RAM and write through the controller
	cartridge.Write(0x0000, 0x0A)
	cartridge.Write(0xA000, 0x5A)
	require.NoError(t, save.store())

	data, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Len(t, data, 8*1024)
	assert.Equal(t, uint8(0x5A), data[0])

	reloaded, err := loadCartridge(path)
	require.NoError(t, err)
	require.NoError(t, newBatterySave(reloaded, path, logger).load())
	reloaded.Write(0x0000, 0x0A)
	assert.Equal(t, uint8(0x5A), reloaded.Read(0xA000))
}

func TestBatterySaveWrongSize(t *testing.T) {
	path := writeROM(t, carttest.Build(nil, carttest.WithType(0x03, 0x02)))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "game.sav"), []byte{1, 2, 3}, 0o644))

	cartridge, err := loadCartridge(path)
	require.NoError(t, err)
	assert.Error(t, newBatterySave(cartridge, path, discardLogger()).load())
}

func TestNoBattery(t *testing.T) {
	path := writeROM(t, carttest.Build(nil))
	cartridge, err := loadCartridge(path)
	require.NoError(t, err)

	save := newBatterySave(cartridge, path, discardLogger())
	require.NoError(t, save.store())
	assert.NoFileExists(t, save.path)
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		desc  string
		name  string
		level slog.Level
		err   bool
	}{
		{desc: "debug", name: "debug", level: slog.LevelDebug},
		{desc: "upper case", name: "WARN", level: slog.LevelWarn},
		{desc: "invalid", name: "loud", err: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			level, err := parseLevel(tC.name)
			if tC.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tC.level, level)
		})
	}
}

type countingSpeaker struct{ samples int }

func (c *countingSpeaker) SetSamples(left, right int16) { c.samples++ }

func TestTeeSpeaker(t *testing.T) {
	a, b := &countingSpeaker{}, &countingSpeaker{}

	assert.Same(t, b, teeSpeaker(nil, b))

	tee := teeSpeaker(a, b)
	tee.SetSamples(1, 2)
	assert.Equal(t, 1, a.samples)
	assert.Equal(t, 1, b.samples)
}
