package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrROMTooSmall is returned when the image is shorter than its header or declared size.
	ErrROMTooSmall = errors.New("rom image too small")
	// ErrUnsupportedCartridge is returned for cartridge types without a bank controller implementation.
	ErrUnsupportedCartridge = errors.New("unsupported cartridge type")
	// ErrInvalidHeader is returned when a header field holds an undocumented value.
	ErrInvalidHeader = errors.New("invalid cartridge header")
)

// ROMSizeError reports a ROM image that is too short.
type ROMSizeError struct {
	Got  int
	Want int
}

func (e *ROMSizeError) Error() string {
	return fmt.Sprintf("rom image too small: got %d bytes, need %d", e.Got, e.Want)
}

func (e *ROMSizeError) Unwrap() error { return ErrROMTooSmall }

// UnsupportedTypeError reports the raw cartridge type byte that has no backend.
type UnsupportedTypeError struct {
	CartType uint8
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported cartridge type: 0x%02X", e.CartType)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedCartridge }

// HeaderFieldError reports a header field with an undocumented value.
type HeaderFieldError struct {
	Field string
	Value uint8
}

func (e *HeaderFieldError) Error() string {
	return fmt.Sprintf("invalid cartridge header: %s code 0x%02X", e.Field, e.Value)
}

func (e *HeaderFieldError) Unwrap() error { return ErrInvalidHeader }

// ChecksumError reports a header checksum mismatch, only raised when verification is requested.
type ChecksumError struct {
	Stored   uint8
	Computed uint8
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid cartridge header: checksum 0x%02X, computed 0x%02X", e.Stored, e.Computed)
}

func (e *ChecksumError) Unwrap() error { return ErrInvalidHeader }
