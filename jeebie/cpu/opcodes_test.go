package cpu

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// primaryMachineCycles is the cost of every primary opcode in machine cycles
// (4 clock cycles each), with conditional branches not taken. HALT, STOP, the
// CB prefix and the illegal opcodes count as a single machine cycle.
var primaryMachineCycles = [256]int{
	1, 3, 2, 2, 1, 1, 2, 1, 5, 2, 2, 2, 1, 1, 2, 1, // 0x00
	1, 3, 2, 2, 1, 1, 2, 1, 3, 2, 2, 2, 1, 1, 2, 1, // 0x10
	2, 3, 2, 2, 1, 1, 2, 1, 2, 2, 2, 2, 1, 1, 2, 1, // 0x20
	2, 3, 2, 2, 3, 3, 3, 1, 2, 2, 2, 2, 1, 1, 2, 1, // 0x30
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, // 0x40
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, // 0x50
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, // 0x60
	2, 2, 2, 2, 2, 2, 1, 2, 1, 1, 1, 1, 1, 1, 2, 1, // 0x70
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, // 0x80
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, // 0x90
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, // 0xA0
	1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1, 2, 1, // 0xB0
	2, 3, 3, 4, 3, 4, 2, 4, 2, 4, 3, 1, 3, 6, 2, 4, // 0xC0
	2, 3, 3, 1, 3, 4, 2, 4, 2, 4, 3, 1, 3, 1, 2, 4, // 0xD0
	3, 3, 2, 1, 1, 4, 2, 4, 4, 1, 4, 1, 1, 1, 2, 4, // 0xE0
	3, 3, 2, 1, 1, 4, 2, 4, 3, 2, 4, 1, 1, 1, 2, 4, // 0xF0
}

// takenMachineCycles lists the cost of conditional branches when taken.
var takenMachineCycles = map[uint8]int{
	0x20: 3, 0x28: 3, 0x30: 3, 0x38: 3, // JR cc
	0xC0: 5, 0xC8: 5, 0xD0: 5, 0xD8: 5, // RET cc
	0xC2: 4, 0xCA: 4, 0xD2: 4, 0xDA: 4, // JP cc
	0xC4: 6, 0xCC: 6, 0xD4: 6, 0xDC: 6, // CALL cc
}

var primaryLengths = [256]int{
	1, 3, 1, 1, 1, 1, 2, 1, 3, 1, 1, 1, 1, 1, 2, 1, // 0x00
	2, 3, 1, 1, 1, 1, 2, 1, 2, 1, 1, 1, 1, 1, 2, 1, // 0x10
	2, 3, 1, 1, 1, 1, 2, 1, 2, 1, 1, 1, 1, 1, 2, 1, // 0x20
	2, 3, 1, 1, 1, 1, 2, 1, 2, 1, 1, 1, 1, 1, 2, 1, // 0x30
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x40
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x50
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x60
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x70
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x80
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x90
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0xA0
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0xB0
	1, 1, 3, 3, 3, 1, 2, 1, 1, 1, 3, 2, 3, 3, 2, 1, // 0xC0
	1, 1, 3, 1, 3, 1, 2, 1, 1, 1, 3, 1, 3, 1, 2, 1, // 0xD0
	2, 1, 1, 1, 1, 1, 2, 1, 2, 1, 3, 1, 1, 1, 2, 1, // 0xE0
	2, 1, 1, 1, 1, 1, 2, 1, 2, 1, 3, 1, 1, 1, 2, 1, // 0xF0
}

func TestOpcodeTables_Complete(t *testing.T) {
	for i := range 256 {
		assert.NotNilf(t, opcodes[i].exec, "opcode 0x%02X has no handler", i)
		assert.NotEmptyf(t, opcodes[i].mnemonic, "opcode 0x%02X has no mnemonic", i)
		assert.NotNilf(t, opcodesCB[i].exec, "opcode 0xCB%02X has no handler", i)
		assert.NotEmptyf(t, opcodesCB[i].mnemonic, "opcode 0xCB%02X has no mnemonic", i)
	}
}

func TestOpcodeTables_Cycles(t *testing.T) {
	for i := range 256 {
		opcode := uint8(i)
		notTaken, taken := Cycles(opcode, false)
		assert.Equalf(t, primaryMachineCycles[i]*4, notTaken, "0x%02X %s", i, Mnemonic(opcode, false))

		wantTaken := primaryMachineCycles[i] * 4
		if mc, ok := takenMachineCycles[opcode]; ok {
			wantTaken = mc * 4
		}
		assert.Equalf(t, wantTaken, taken, "0x%02X %s taken", i, Mnemonic(opcode, false))
	}
}

func TestOpcodeTables_CyclesCB(t *testing.T) {
	for i := range 256 {
		want := 8
		if i&0x07 == operandHL {
			want = 16
			if i >= 0x40 && i < 0x80 {
				want = 12
			}
		}
		got, _ := Cycles(uint8(i), true)
		assert.Equalf(t, want, got, "0xCB%02X %s", i, Mnemonic(uint8(i), true))
	}
}

func TestOpcodeTables_Lengths(t *testing.T) {
	for i := range 256 {
		want := primaryLengths[i]
		if i == 0xCB {
			want = 2
		}
		assert.Equalf(t, want, InstructionLength(uint8(i)), "0x%02X %s", i, Mnemonic(uint8(i), false))
	}
	for i := range 256 {
		assert.Equal(t, 2, opcodesCB[i].length)
	}
}

// Every primary opcode executed from the post-boot state costs what the table
// says. Post-boot F is Z-H-C, so NZ and NC fall through while Z and C branch.
func TestStep_PrimaryCycles(t *testing.T) {
	for i := range 256 {
		opcode := uint8(i)
		if opcode == 0xCB {
			continue
		}
		t.Run(fmt.Sprintf("%02X %s", i, Mnemonic(opcode, false)), func(t *testing.T) {
			cpu, bus, _ := newTestCPU()
			bus.load(0x100, opcode)

			want := primaryMachineCycles[i] * 4
			if mc, ok := takenMachineCycles[opcode]; ok && (opcode&0x08 != 0) {
				want = mc * 4
			}
			assert.Equal(t, want, cpu.Step())
		})
	}
}

func TestStep_ConditionalBranches(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		flags   Flag
		cycles  int
		pc      uint16
	}{
		{desc: "JR NZ taken", program: []byte{0x20, 0x05}, cycles: 12, pc: 0x107},
		{desc: "JR NZ not taken", program: []byte{0x20, 0x05}, flags: zeroFlag, cycles: 8, pc: 0x102},
		{desc: "JR backwards", program: []byte{0x18, 0xFE}, cycles: 12, pc: 0x100},
		{desc: "JP C taken", program: []byte{0xDA, 0x00, 0x20}, flags: carryFlag, cycles: 16, pc: 0x2000},
		{desc: "JP C not taken", program: []byte{0xDA, 0x00, 0x20}, cycles: 12, pc: 0x103},
		{desc: "CALL NC taken", program: []byte{0xD4, 0x34, 0x12}, cycles: 24, pc: 0x1234},
		{desc: "CALL NC not taken", program: []byte{0xD4, 0x34, 0x12}, flags: carryFlag, cycles: 12, pc: 0x103},
		{desc: "RET Z taken", program: []byte{0xC8}, flags: zeroFlag, cycles: 20, pc: 0x0000},
		{desc: "RET Z not taken", program: []byte{0xC8}, cycles: 8, pc: 0x101},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu, bus, _ := newTestCPU()
			bus.load(0x100, tC.program...)
			cpu.f = uint8(tC.flags)

			assert.Equal(t, tC.cycles, cpu.Step())
			assert.Equal(t, tC.pc, cpu.PC())
		})
	}
}

func TestStep_CBCycles(t *testing.T) {
	for _, cb := range []uint8{0x00, 0x06, 0x11, 0x37, 0x46, 0x7C, 0x86, 0xBF, 0xC6, 0xFF} {
		t.Run(Mnemonic(cb, true), func(t *testing.T) {
			cpu, bus, _ := newTestCPU()
			bus.load(0x100, 0xCB, cb)

			want, _ := Cycles(cb, true)
			assert.Equal(t, want, cpu.Step())
			assert.Equal(t, uint16(0x102), cpu.PC())
		})
	}
}

func TestStep_Instructions(t *testing.T) {
	testCases := []struct {
		desc    string
		setup   func(c *CPU)
		program []byte
		check   func(t *testing.T, c *CPU, bus *flatBus)
	}{
		{
			desc:    "LD (HL+), A",
			setup:   func(c *CPU) { c.setHL(0xC000); c.a = 0x42 },
			program: []byte{0x22},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0x42), bus.mem[0xC000])
				assert.Equal(t, uint16(0xC001), c.getHL())
			},
		},
		{
			desc:    "LD A, (HL-)",
			setup:   func(c *CPU) { c.setHL(0xC000) },
			program: []byte{0x3A},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0), c.a)
				assert.Equal(t, uint16(0xBFFF), c.getHL())
			},
		},
		{
			desc:    "LD (a16), SP",
			setup:   func(c *CPU) { c.sp = 0xBEEF },
			program: []byte{0x08, 0x00, 0xC0},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0xEF), bus.mem[0xC000])
				assert.Equal(t, uint8(0xBE), bus.mem[0xC001])
			},
		},
		{
			desc:    "LDH (a8), A",
			setup:   func(c *CPU) { c.a = 0x99 },
			program: []byte{0xE0, 0x80},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0x99), bus.mem[0xFF80])
			},
		},
		{
			desc:    "LD A, (C)",
			setup:   func(c *CPU) { c.c = 0x81 },
			program: []byte{0xF2},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0x77), c.a)
			},
		},
		{
			desc:    "LD H, (HL)",
			setup:   func(c *CPU) { c.setHL(0xFF81) },
			program: []byte{0x66},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0x77), c.h)
			},
		},
		{
			desc:    "INC (HL)",
			setup:   func(c *CPU) { c.setHL(0xFF81) },
			program: []byte{0x34},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0x78), bus.mem[0xFF81])
			},
		},
		{
			desc:    "CP d8",
			setup:   func(c *CPU) { c.a = 0x10 },
			program: []byte{0xFE, 0x10},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, "ZN--", c.FlagString())
			},
		},
		{
			desc:    "RST 38H",
			program: []byte{0xFF},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint16(0x0038), c.PC())
				assert.Equal(t, uint16(0x0101), c.popStack())
			},
		},
		{
			desc:    "JP HL",
			setup:   func(c *CPU) { c.setHL(0x4000) },
			program: []byte{0xE9},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint16(0x4000), c.PC())
			},
		},
		{
			desc:    "LD HL, SP+r8",
			setup:   func(c *CPU) { c.sp = 0xFFF8 },
			program: []byte{0xF8, 0x02},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint16(0xFFFA), c.getHL())
				assert.Equal(t, uint16(0xFFF8), c.sp)
			},
		},
		{
			desc:    "SET 7, (HL)",
			setup:   func(c *CPU) { c.setHL(0xFF81) },
			program: []byte{0xCB, 0xFE},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0xF7), bus.mem[0xFF81])
			},
		},
		{
			desc:    "RES 0, A",
			setup:   func(c *CPU) { c.a = 0xFF },
			program: []byte{0xCB, 0x87},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, uint8(0xFE), c.a)
			},
		},
		{
			desc:    "RLCA clears Z",
			setup:   func(c *CPU) { c.a = 0; c.f = uint8(zeroFlag) },
			program: []byte{0x07},
			check: func(t *testing.T, c *CPU, bus *flatBus) {
				assert.Equal(t, "----", c.FlagString())
			},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu, bus, _ := newTestCPU()
			bus.mem[0xFF81] = 0x77
			bus.load(0x100, tC.program...)
			if tC.setup != nil {
				tC.setup(cpu)
			}

			cpu.Step()
			tC.check(t, cpu, bus)
		})
	}
}

func TestMnemonic(t *testing.T) {
	assert.Equal(t, "LD BC, d16", Mnemonic(0x01, false))
	assert.Equal(t, "BIT 7, H", Mnemonic(0x7C, true))
	assert.Equal(t, "SWAP (HL)", Mnemonic(0x36, true))
	assert.True(t, strings.HasPrefix(Mnemonic(0xDD, false), "ILLEGAL"))
}
