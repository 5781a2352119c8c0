package cart

import (
	"strings"
	"unicode"
)

const (
	titleAddress          = 0x134
	titleLength           = 16
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E

	// HeaderSize is the minimum number of bytes a ROM needs to carry a full header.
	HeaderSize = 0x150

	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// ControllerType identifies the bank controller family of a cartridge.
type ControllerType uint8

const (
	NoMBCType ControllerType = iota
	MBC1Type
	MBC2Type
	MBC3Type
	MBC5Type
)

func (t ControllerType) String() string {
	switch t {
	case NoMBCType:
		return "ROM ONLY"
	case MBC1Type:
		return "MBC1"
	case MBC2Type:
		return "MBC2"
	case MBC3Type:
		return "MBC3"
	case MBC5Type:
		return "MBC5"
	default:
		return "unknown"
	}
}

// Header holds the cartridge header fields needed to configure a backend.
type Header struct {
	Title          string
	CGBFlag        uint8
	CartType       uint8
	Controller     ControllerType
	ROMSizeCode    uint8
	ROMSize        int
	ROMBanks       int
	RAMSizeCode    uint8
	RAMSize        int
	Version        uint8
	HeaderChecksum uint8
	GlobalChecksum uint16

	HasBattery bool
	HasRTC     bool
	HasRumble  bool
}

// controllerFeatures maps the cartridge type byte (0x147) to its controller and extras.
// Types missing from this table are rejected at load time.
var controllerFeatures = map[uint8]struct {
	controller ControllerType
	battery    bool
	rtc        bool
	rumble     bool
}{
	0x00: {controller: NoMBCType},
	0x08: {controller: NoMBCType},
	0x09: {controller: NoMBCType, battery: true},
	0x01: {controller: MBC1Type},
	0x02: {controller: MBC1Type},
	0x03: {controller: MBC1Type, battery: true},
	0x05: {controller: MBC2Type},
	0x06: {controller: MBC2Type, battery: true},
	0x0F: {controller: MBC3Type, battery: true, rtc: true},
	0x10: {controller: MBC3Type, battery: true, rtc: true},
	0x11: {controller: MBC3Type},
	0x12: {controller: MBC3Type},
	0x13: {controller: MBC3Type, battery: true},
	0x19: {controller: MBC5Type},
	0x1A: {controller: MBC5Type},
	0x1B: {controller: MBC5Type, battery: true},
	0x1C: {controller: MBC5Type, rumble: true},
	0x1D: {controller: MBC5Type, rumble: true},
	0x1E: {controller: MBC5Type, battery: true, rumble: true},
}

// ParseHeader decodes the header of a ROM image.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < HeaderSize {
		return Header{}, &ROMSizeError{Got: len(rom), Want: HeaderSize}
	}

	// on CGB-aware carts the last title byte doubles as the CGB flag
	titleEnd := titleAddress + titleLength
	if rom[cgbFlagAddress]&0x80 != 0 {
		titleEnd--
	}

	h := Header{
		Title:          cleanGameboyTitle(rom[titleAddress:titleEnd]),
		CGBFlag:        rom[cgbFlagAddress],
		CartType:       rom[cartridgeTypeAddress],
		ROMSizeCode:    rom[romSizeAddress],
		RAMSizeCode:    rom[ramSizeAddress],
		Version:        rom[versionNumberAddress],
		HeaderChecksum: rom[headerChecksumAddress],
		GlobalChecksum: uint16(rom[globalChecksumAddress])<<8 | uint16(rom[globalChecksumAddress+1]),
	}

	features, ok := controllerFeatures[h.CartType]
	if !ok {
		return h, &UnsupportedTypeError{CartType: h.CartType}
	}
	h.Controller = features.controller
	h.HasBattery = features.battery
	h.HasRTC = features.rtc
	h.HasRumble = features.rumble

	var err error
	if h.ROMSize, h.ROMBanks, err = decodeROMSize(h.ROMSizeCode); err != nil {
		return h, err
	}
	if h.RAMSize, err = decodeRAMSize(h.RAMSizeCode); err != nil {
		return h, err
	}
	if h.Controller == MBC2Type {
		// the built-in 512x4 bit RAM is not declared in the header
		h.RAMSize = 512
	}

	return h, nil
}

// HeaderChecksumOK verifies the header checksum at 0x14D.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < HeaderSize {
		return false
	}
	return computeHeaderChecksum(rom) == rom[headerChecksumAddress]
}

func computeHeaderChecksum(rom []byte) uint8 {
	var sum uint8
	for address := titleAddress; address < headerChecksumAddress; address++ {
		sum = sum - rom[address] - 1
	}
	return sum
}

func decodeROMSize(code uint8) (size, banks int, err error) {
	if code > 0x08 {
		return 0, 0, &HeaderFieldError{Field: "rom size", Value: code}
	}
	banks = 2 << code
	return banks * romBankSize, banks, nil
}

func decodeRAMSize(code uint8) (int, error) {
	switch code {
	case 0x00, 0x01:
		return 0, nil
	case 0x02:
		return 8 * 1024, nil
	case 0x03:
		return 32 * 1024, nil
	case 0x04:
		return 128 * 1024, nil
	case 0x05:
		return 64 * 1024, nil
	default:
		return 0, &HeaderFieldError{Field: "ram size", Value: code}
	}
}

// cleanGameboyTitle converts NULL bytes to spaces, replaces non-printable
// characters and trims the result.
func cleanGameboyTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))

	for _, b := range titleBytes {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}

	return title
}
