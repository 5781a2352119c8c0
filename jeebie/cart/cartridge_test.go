package cart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeROM builds a ROM image sized to its header with a valid header checksum.
func makeROM(title string, cartType, romCode, ramCode uint8) []byte {
	banks := 2 << romCode
	rom := make([]byte, banks*romBankSize)
	copy(rom[titleAddress:], title)
	rom[cartridgeTypeAddress] = cartType
	rom[romSizeAddress] = romCode
	rom[ramSizeAddress] = ramCode
	rom[headerChecksumAddress] = computeHeaderChecksum(rom)
	return rom
}

func TestParseHeader(t *testing.T) {
	testCases := []struct {
		desc       string
		cartType   uint8
		romCode    uint8
		ramCode    uint8
		controller ControllerType
		romSize    int
		ramSize    int
		battery    bool
		rtc        bool
	}{
		{desc: "rom only", cartType: 0x00, romCode: 0, ramCode: 0, controller: NoMBCType, romSize: 32 * 1024},
		{desc: "mbc1 with ram and battery", cartType: 0x03, romCode: 2, ramCode: 3, controller: MBC1Type, romSize: 128 * 1024, ramSize: 32 * 1024, battery: true},
		{desc: "mbc2 has built-in ram", cartType: 0x06, romCode: 1, ramCode: 0, controller: MBC2Type, romSize: 64 * 1024, ramSize: 512, battery: true},
		{desc: "mbc3 timer", cartType: 0x10, romCode: 3, ramCode: 2, controller: MBC3Type, romSize: 256 * 1024, ramSize: 8 * 1024, battery: true, rtc: true},
		{desc: "mbc5", cartType: 0x19, romCode: 0, ramCode: 4, controller: MBC5Type, romSize: 32 * 1024, ramSize: 128 * 1024},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			h, err := ParseHeader(makeROM("TEST GAME", tC.cartType, tC.romCode, tC.ramCode))
			require.NoError(t, err)

			assert.Equal(t, "TEST GAME", h.Title)
			assert.Equal(t, tC.controller, h.Controller)
			assert.Equal(t, tC.romSize, h.ROMSize)
			assert.Equal(t, tC.ramSize, h.RAMSize)
			assert.Equal(t, tC.battery, h.HasBattery)
			assert.Equal(t, tC.rtc, h.HasRTC)
		})
	}
}

func TestParseHeader_Title(t *testing.T) {
	rom := makeROM("", 0x00, 0, 0)
	assert.Equal(t, "(Untitled)", mustHeader(t, rom).Title)

	rom = makeROM("POKEMON\x00\x00\x00", 0x00, 0, 0)
	assert.Equal(t, "POKEMON", mustHeader(t, rom).Title)

	rom = makeROM("ABCDEFGHIJKLMNOP", 0x00, 0, 0)
	rom[cgbFlagAddress] = 0x80
	assert.Equal(t, "ABCDEFGHIJKLMNO", mustHeader(t, rom).Title, "cgb flag shortens the title")
}

func mustHeader(t *testing.T, rom []byte) Header {
	t.Helper()
	h, err := ParseHeader(rom)
	require.NoError(t, err)
	return h
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		desc   string
		rom    func() []byte
		opts   []LoadOption
		target error
	}{
		{
			desc:   "shorter than the header",
			rom:    func() []byte { return make([]byte, 0x100) },
			target: ErrROMTooSmall,
		},
		{
			desc: "shorter than the declared size",
			rom: func() []byte {
				return makeROM("SHORT", 0x01, 2, 0)[:0x8000]
			},
			target: ErrROMTooSmall,
		},
		{
			desc:   "unknown controller",
			rom:    func() []byte { return makeROM("HUC", 0xFE, 0, 0) },
			target: ErrUnsupportedCartridge,
		},
		{
			desc:   "undocumented ram size",
			rom:    func() []byte { return makeROM("RAM", 0x00, 0, 0x09) },
			target: ErrInvalidHeader,
		},
		{
			desc: "bad checksum when verifying",
			rom: func() []byte {
				rom := makeROM("SUM", 0x00, 0, 0)
				rom[headerChecksumAddress]++
				return rom
			},
			opts:   []LoadOption{WithChecksumVerification()},
			target: ErrInvalidHeader,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, err := Load(tC.rom(), tC.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tC.target)
		})
	}
}

func TestLoad_TypedErrors(t *testing.T) {
	_, err := Load(makeROM("HUC", 0xFE, 0, 0))
	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, uint8(0xFE), unsupported.CartType)

	rom := makeROM("SUM", 0x00, 0, 0)
	stored := rom[headerChecksumAddress]
	rom[headerChecksumAddress] = stored + 1
	_, err = Load(rom, WithChecksumVerification())
	var checksum *ChecksumError
	require.True(t, errors.As(err, &checksum))
	assert.Equal(t, stored, checksum.Computed)

	// without verification a bad checksum still loads
	_, err = Load(rom)
	assert.NoError(t, err)
}

func TestLoad_Backends(t *testing.T) {
	testCases := []struct {
		desc     string
		cartType uint8
		want     Backend
	}{
		{desc: "rom only", cartType: 0x00, want: &NoMBC{}},
		{desc: "mbc1", cartType: 0x01, want: &MBC1{}},
		{desc: "mbc2", cartType: 0x05, want: &MBC2{}},
		{desc: "mbc3", cartType: 0x13, want: &MBC3{}},
		{desc: "mbc5", cartType: 0x1B, want: &MBC5{}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, err := Load(makeROM("GAME", tC.cartType, 1, 0))
			require.NoError(t, err)
			assert.IsType(t, tC.want, c.Backend)
		})
	}
}

func TestCartridge_Battery(t *testing.T) {
	c, err := Load(makeROM("SAVE", 0x03, 1, 2))
	require.NoError(t, err)
	b, ok := c.Battery()
	require.True(t, ok)
	assert.Len(t, b.RAM(), 8*1024)

	c, err = Load(makeROM("NOSAVE", 0x01, 1, 0))
	require.NoError(t, err)
	_, ok = c.Battery()
	assert.False(t, ok)
}

func TestNoCartridge(t *testing.T) {
	var c Backend = NoCartridge{}
	c.Write(0x2000, 0x01)
	assert.Equal(t, uint8(0xFF), c.Read(0x0100))
	assert.Equal(t, uint8(0xFF), c.Read(0xA000))
}
