package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/jeebie-core/jeebie/cart"
	"github.com/valerio/jeebie-core/jeebie/disasm"
)

func loadCartridge(path string) (*cart.Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}
	return cart.Load(data)
}

// disassemble lists count instructions from start, reading through the
// cartridge bank controller.
func disassemble(rom disasm.Reader, start uint16, count int) []string {
	var lines []string
	for _, line := range disasm.DisassembleRange(start, count, rom) {
		lines = append(lines, disasm.FormatDisassemblyLine(line, false))
	}
	return lines
}

// batterySave persists cartridge RAM next to the ROM, as <rom>.sav.
type batterySave struct {
	battery cart.Battery
	path    string
	logger  *slog.Logger
}

func newBatterySave(cartridge *cart.Cartridge, romPath string, logger *slog.Logger) *batterySave {
	s := &batterySave{
		path:   strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav",
		logger: logger,
	}
	if cartridge != nil {
		if battery, ok := cartridge.Battery(); ok {
			s.battery = battery
		}
	}
	return s
}

// load restores RAM from the save file, a missing file is not an error.
func (s *batterySave) load() error {
	if s.battery == nil {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading save: %w", err)
	}
	if err := s.battery.LoadRAM(data); err != nil {
		return fmt.Errorf("loading save %s: %w", s.path, err)
	}
	s.logger.Info("save loaded", "path", s.path, "bytes", len(data))
	return nil
}

func (s *batterySave) store() error {
	if s.battery == nil || len(s.battery.RAM()) == 0 {
		return nil
	}
	if err := os.WriteFile(s.path, s.battery.RAM(), 0o644); err != nil {
		return fmt.Errorf("writing save: %w", err)
	}
	s.logger.Info("save written", "path", s.path)
	return nil
}
