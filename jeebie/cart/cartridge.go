package cart

import (
	"fmt"
)

// Cartridge is a loaded ROM image together with the bank controller its header selects.
type Cartridge struct {
	Backend
	Header Header
}

type loadConfig struct {
	verifyChecksum bool
	clock          Clock
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithChecksumVerification rejects images whose header checksum does not match.
func WithChecksumVerification() LoadOption {
	return func(c *loadConfig) {
		c.verifyChecksum = true
	}
}

// WithClock sets the time source of MBC3 real time clocks.
func WithClock(clock Clock) LoadOption {
	return func(c *loadConfig) {
		c.clock = clock
	}
}

// Load parses the header of rom and builds the matching backend.
// The ROM slice is referenced, not copied.
func Load(rom []byte, opts ...LoadOption) (*Cartridge, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	header, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}

	if len(rom) < header.ROMSize {
		return nil, fmt.Errorf("loading %q: %w", header.Title, &ROMSizeError{Got: len(rom), Want: header.ROMSize})
	}

	if cfg.verifyChecksum {
		if computed := computeHeaderChecksum(rom); computed != header.HeaderChecksum {
			return nil, fmt.Errorf("loading %q: %w", header.Title, &ChecksumError{Stored: header.HeaderChecksum, Computed: computed})
		}
	}

	var backend Backend
	switch header.Controller {
	case NoMBCType:
		backend = NewNoMBC(rom, header.RAMSize)
	case MBC1Type:
		backend = NewMBC1(rom, header.RAMSize)
	case MBC2Type:
		backend = NewMBC2(rom)
	case MBC3Type:
		backend = NewMBC3(rom, header.RAMSize, header.HasRTC, cfg.clock)
	case MBC5Type:
		backend = NewMBC5(rom, header.RAMSize, header.HasRumble)
	default:
		return nil, fmt.Errorf("loading %q: %w", header.Title, &UnsupportedTypeError{CartType: header.CartType})
	}

	return &Cartridge{Backend: backend, Header: header}, nil
}

// Battery returns the persistable RAM of a battery-backed cartridge.
func (c *Cartridge) Battery() (Battery, bool) {
	if !c.Header.HasBattery {
		return nil, false
	}
	b, ok := c.Backend.(Battery)
	return b, ok
}
