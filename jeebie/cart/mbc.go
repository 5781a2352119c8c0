package cart

import (
	"fmt"
	"time"
)

// Backend is the bank-switched view of a cartridge seen by the bus: ROM at
// 0x0000-0x7FFF (writes there are controller commands) and external RAM at
// 0xA000-0xBFFF.
type Backend interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Battery is implemented by backends whose external RAM can be persisted.
type Battery interface {
	RAM() []byte
	LoadRAM(data []byte) error
}

// NoCartridge is the backend of an empty slot: reads float high, writes are dropped.
type NoCartridge struct{}

func (NoCartridge) Read(uint16) uint8   { return 0xFF }
func (NoCartridge) Write(uint16, uint8) {}

// romBank returns the byte at offset within the given 16KB bank, wrapping
// the bank number to the ROM size.
func romBank(rom []uint8, bank int, offset uint16) uint8 {
	banks := len(rom) / romBankSize
	if banks == 0 {
		return 0xFF
	}
	return rom[(bank%banks)*romBankSize+int(offset)]
}

// ramOffset returns the index in ram for a 0xA000-0xBFFF address in bank, or -1 if there is no RAM.
func ramOffset(ram []uint8, bank int, address uint16) int {
	if len(ram) == 0 {
		return -1
	}
	return (bank*ramBankSize + int(address-0xA000)) % len(ram)
}

type batteryRAM struct {
	ram []uint8
}

func (b *batteryRAM) RAM() []byte {
	return b.ram
}

func (b *batteryRAM) LoadRAM(data []byte) error {
	if len(data) != len(b.ram) {
		return fmt.Errorf("battery ram size mismatch: got %d bytes, cartridge has %d", len(data), len(b.ram))
	}
	copy(b.ram, data)
	return nil
}

// NoMBC represents cartridges with no memory banking capabilities.
// The cartridge ROM is directly mapped to 0x0000-0x7FFF and an optional 8KB
// RAM to 0xA000-0xBFFF.
type NoMBC struct {
	batteryRAM
	rom []uint8
}

// NewNoMBC creates a new NoMBC controller
func NewNoMBC(rom []uint8, ramSize int) *NoMBC {
	return &NoMBC{rom: rom, batteryRAM: batteryRAM{ram: make([]uint8, ramSize)}}
}

func (m *NoMBC) Read(address uint16) uint8 {
	switch {
	case address <= 0x7FFF:
		if int(address) >= len(m.rom) {
			return 0xFF
		}
		return m.rom[address]
	case address >= 0xA000 && address <= 0xBFFF:
		if i := ramOffset(m.ram, 0, address); i >= 0 {
			return m.ram[i]
		}
	}
	return 0xFF
}

func (m *NoMBC) Write(address uint16, value uint8) {
	if address >= 0xA000 && address <= 0xBFFF {
		if i := ramOffset(m.ram, 0, address); i >= 0 {
			m.ram[i] = value
		}
	}
}

// MBC1 is the first and most common MBC chip. Features include:
//   - up to 2MB ROM (125 16KB banks) and 32KB RAM (4 8KB banks)
//   - a 5 bit register (bank1) and a 2 bit register (bank2)
//   - mode 0: bank2 extends the ROM bank number at 0x4000-0x7FFF
//   - mode 1: bank2 also selects the RAM bank and the bank mapped at 0x0000-0x3FFF
type MBC1 struct {
	batteryRAM
	rom        []uint8
	bank1      uint8
	bank2      uint8
	ramEnabled bool
	mode       uint8
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(rom []uint8, ramSize int) *MBC1 {
	return &MBC1{
		rom:        rom,
		batteryRAM: batteryRAM{ram: make([]uint8, ramSize)},
		bank1:      1,
	}
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		bank := 0
		if m.mode == 1 {
			bank = int(m.bank2) << 5
		}
		return romBank(m.rom, bank, address)
	case address <= 0x7FFF:
		bank := int(m.bank2)<<5 | int(m.bank1)
		return romBank(m.rom, bank, address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if i := ramOffset(m.ram, m.ramBank(), address); i >= 0 {
			return m.ram[i]
		}
	}
	return 0xFF
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case address <= 0x3FFF:
		m.bank1 = value & 0x1F
		if m.bank1 == 0 {
			m.bank1 = 1
		}
	case address <= 0x5FFF:
		m.bank2 = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if i := ramOffset(m.ram, m.ramBank(), address); i >= 0 {
			m.ram[i] = value
		}
	}
}

func (m *MBC1) ramBank() int {
	if m.mode == 1 {
		return int(m.bank2)
	}
	return 0
}

// MBC2 is a simpler MBC chip with built-in RAM:
//   - up to 256KB ROM (16 banks)
//   - built-in 512x4 bits RAM, mirrored across 0xA000-0xBFFF
//   - bit 8 of the address selects between RAM enable and ROM bank writes
type MBC2 struct {
	batteryRAM
	rom        []uint8
	romBank    uint8
	ramEnabled bool
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(rom []uint8) *MBC2 {
	return &MBC2{
		rom:        rom,
		batteryRAM: batteryRAM{ram: make([]uint8, 512)},
		romBank:    1,
	}
}

func (m *MBC2) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return romBank(m.rom, 0, address)
	case address <= 0x7FFF:
		return romBank(m.rom, int(m.romBank), address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// only the low nibble exists, the upper one floats high
		return m.ram[address&0x1FF] | 0xF0
	}
	return 0xFF
}

func (m *MBC2) Write(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		if address&0x0100 == 0 {
			m.ramEnabled = (value & 0x0F) == 0x0A
			return
		}
		m.romBank = value & 0x0F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled {
			m.ram[address&0x1FF] = value & 0x0F
		}
	}
}

// Clock provides the wall time used by the MBC3 real time clock.
type Clock interface {
	Now() time.Time
}

type systemClockFunc func() time.Time

func (s systemClockFunc) Now() time.Time {
	return s()
}

// rtc register indexes, selected by writing 0x08-0x0C to 0x4000-0x5FFF
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
)

// MBC3 adds a real time clock to MBC1-style banking:
//   - up to 2MB ROM (128 banks) with a 7 bit bank register
//   - up to 32KB RAM (4 banks)
//   - RTC registers mapped in place of RAM when 0x08-0x0C is selected
//   - writing 0x00 then 0x01 to 0x6000-0x7FFF latches the clock
type MBC3 struct {
	batteryRAM
	rom        []uint8
	romBank    uint8
	ramBank    uint8
	ramEnabled bool

	hasRTC     bool
	clock      Clock
	rtcBase    time.Time // wall time at which the running counter was zero
	rtcHalted  bool
	haltedAt   int64 // counter value frozen while halted, in seconds
	latched    [5]uint8
	latchArmed bool
}

// NewMBC3 creates a new MBC3 controller, clock may be nil to use the system clock.
func NewMBC3(rom []uint8, ramSize int, hasRTC bool, clock Clock) *MBC3 {
	if clock == nil {
		clock = systemClockFunc(time.Now)
	}
	return &MBC3{
		rom:        rom,
		batteryRAM: batteryRAM{ram: make([]uint8, ramSize)},
		romBank:    1,
		hasRTC:     hasRTC,
		clock:      clock,
		rtcBase:    clock.Now(),
	}
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return romBank(m.rom, 0, address)
	case address <= 0x7FFF:
		return romBank(m.rom, int(m.romBank), address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramBank <= 0x03 {
			if i := ramOffset(m.ram, int(m.ramBank), address); i >= 0 {
				return m.ram[i]
			}
			return 0xFF
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.latched[m.ramBank-0x08]
		}
	}
	return 0xFF
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case address <= 0x3FFF:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address <= 0x5FFF:
		m.ramBank = value
	case address <= 0x7FFF:
		if value == 0x01 && m.latchArmed {
			m.latchRTC()
		}
		m.latchArmed = value == 0x00
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.ramBank <= 0x03 {
			if i := ramOffset(m.ram, int(m.ramBank), address); i >= 0 {
				m.ram[i] = value
			}
			return
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.writeRTC(int(m.ramBank-0x08), value)
		}
	}
}

func (m *MBC3) counter() int64 {
	if m.rtcHalted {
		return m.haltedAt
	}
	return int64(m.clock.Now().Sub(m.rtcBase) / time.Second)
}

func (m *MBC3) latchRTC() {
	seconds := m.counter()
	days := seconds / 86400

	m.latched[rtcSeconds] = uint8(seconds % 60)
	m.latched[rtcMinutes] = uint8(seconds / 60 % 60)
	m.latched[rtcHours] = uint8(seconds / 3600 % 24)
	m.latched[rtcDaysLow] = uint8(days)

	high := uint8(days>>8) & 0x01
	if m.rtcHalted {
		high |= 0x40
	}
	if days > 0x1FF {
		high |= 0x80
	}
	m.latched[rtcDaysHigh] = high
}

// writeRTC updates one clock register and rebases the running counter on it.
func (m *MBC3) writeRTC(register int, value uint8) {
	m.latchRTC()
	m.latched[register] = value

	days := int64(m.latched[rtcDaysLow]) | int64(m.latched[rtcDaysHigh]&0x01)<<8
	seconds := days*86400 +
		int64(m.latched[rtcHours])*3600 +
		int64(m.latched[rtcMinutes])*60 +
		int64(m.latched[rtcSeconds])

	m.rtcHalted = m.latched[rtcDaysHigh]&0x40 != 0
	m.haltedAt = seconds
	m.rtcBase = m.clock.Now().Add(-time.Duration(seconds) * time.Second)
}

// MBC5 is the most advanced DMG-compatible MBC chip:
//   - up to 8MB ROM with a 9 bit bank number, bank 0 selectable at 0x4000
//   - up to 128KB RAM (16 banks)
//   - optional rumble motor (bit 3 of the RAM bank register on rumble carts)
type MBC5 struct {
	batteryRAM
	rom        []uint8
	romBank    uint16
	ramBank    uint8
	ramEnabled bool
	hasRumble  bool
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(rom []uint8, ramSize int, hasRumble bool) *MBC5 {
	return &MBC5{
		rom:        rom,
		batteryRAM: batteryRAM{ram: make([]uint8, ramSize)},
		romBank:    1,
		hasRumble:  hasRumble,
	}
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return romBank(m.rom, 0, address)
	case address <= 0x7FFF:
		return romBank(m.rom, int(m.romBank), address-0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if i := ramOffset(m.ram, int(m.ramBank), address); i >= 0 {
			return m.ram[i]
		}
	}
	return 0xFF
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case address <= 0x2FFF:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case address <= 0x3FFF:
		m.romBank = (m.romBank & 0xFF) | (uint16(value&0x01) << 8)
	case address <= 0x5FFF:
		if m.hasRumble {
			value &= 0x07
		}
		m.ramBank = value & 0x0F
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if i := ramOffset(m.ram, int(m.ramBank), address); i >= 0 {
			m.ram[i] = value
		}
	}
}
