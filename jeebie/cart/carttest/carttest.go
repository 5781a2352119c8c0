// Package carttest builds small ROM images with valid headers for tests
// and benchmarks.
package carttest

const (
	// CodeStart is where Build places the program; the entry point jumps here.
	CodeStart = 0x150

	bankSize       = 0x4000
	titleStart     = 0x134
	titleEnd       = 0x143
	typeAddress    = 0x147
	romSizeAddress = 0x148
	ramSizeAddress = 0x149
	checksumStart  = 0x134
	checksumAddr   = 0x14D
)

type options struct {
	title    string
	cartType uint8
	romCode  uint8
	ramCode  uint8
}

// Option configures Build.
type Option func(*options)

// WithTitle sets the header title, truncated to 15 bytes.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithType sets the cartridge type byte and the RAM size code.
func WithType(cartType, ramCode uint8) Option {
	return func(o *options) {
		o.cartType = cartType
		o.ramCode = ramCode
	}
}

// WithROMSize sets the ROM size code; the image has 2<<code banks.
func WithROMSize(code uint8) Option {
	return func(o *options) { o.romCode = code }
}

// Build returns a ROM whose entry point (NOP; JP CodeStart) runs code.
// The rest of the image is filled with 0xFF, RST 38.
func Build(code []byte, opts ...Option) []byte {
	o := options{title: "TEST"}
	for _, opt := range opts {
		opt(&o)
	}

	rom := make([]byte, (2<<o.romCode)*bankSize)
	for i := range rom {
		rom[i] = 0xFF
	}
	for i := 0x100; i < CodeStart; i++ {
		rom[i] = 0x00
	}

	copy(rom[0x100:], []byte{0x00, 0xC3, CodeStart & 0xFF, CodeStart >> 8})
	copy(rom[titleStart:titleEnd], o.title)
	rom[typeAddress] = o.cartType
	rom[romSizeAddress] = o.romCode
	rom[ramSizeAddress] = o.ramCode
	copy(rom[CodeStart:], code)

	var sum uint8
	for address := checksumStart; address < checksumAddr; address++ {
		sum = sum - rom[address] - 1
	}
	rom[checksumAddr] = sum
	return rom
}
