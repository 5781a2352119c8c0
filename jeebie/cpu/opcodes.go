package cpu

import (
	"fmt"

	"github.com/valerio/jeebie-core/jeebie/bit"
)

// instruction is one entry of the opcode dispatch tables.
//
// Mnemonics use d8/d16 for immediate data, a8/a16 for immediate addresses and
// r8 for signed jump offsets.
type instruction struct {
	mnemonic string
	length   int
	cycles   int // cost when a conditional branch is not taken, or the only cost
	taken    int // cost when a conditional branch is taken
	// exec runs the instruction with PC already past the opcode; it reports
	// whether a conditional branch was taken.
	exec func(c *CPU) bool
}

var (
	opcodes   [256]instruction
	opcodesCB [256]instruction
)

// illegal opcodes hang the CPU on hardware
var illegalOpcodes = []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

var conditionNames = [4]string{"NZ", "Z", "NC", "C"}

func init() {
	buildOpcodes()
	buildOpcodesCB()
}

// op builds an instruction with a fixed cost.
func op(mnemonic string, length, cycles int, exec func(c *CPU)) instruction {
	return instruction{
		mnemonic: mnemonic,
		length:   length,
		cycles:   cycles,
		taken:    cycles,
		exec: func(c *CPU) bool {
			exec(c)
			return false
		},
	}
}

// branch builds a conditional instruction; exec returns true when the branch is taken.
func branch(mnemonic string, length, notTaken, taken int, exec func(c *CPU) bool) instruction {
	return instruction{
		mnemonic: mnemonic,
		length:   length,
		cycles:   notTaken,
		taken:    taken,
		exec:     exec,
	}
}

func (c *CPU) condition(index int) bool {
	switch index {
	case 0:
		return !c.isSetFlag(zeroFlag)
	case 1:
		return c.isSetFlag(zeroFlag)
	case 2:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}

// operandCycles returns the cost of an instruction with an 8 bit register
// operand, adding extra when the operand is (HL).
func operandCycles(index, base, extra int) int {
	if index == operandHL {
		return base + extra
	}
	return base
}

func (c *CPU) jumpRelative(e int8) {
	c.pc = uint16(int32(c.pc) + int32(e))
}

func (c *CPU) call(address uint16) {
	c.pushStack(c.pc)
	c.pc = address
}

func buildOpcodes() {
	opcodes[0x00] = op("NOP", 1, 4, func(*CPU) {})

	// 16 bit loads and arithmetic, one row per pair
	for p := range 4 {
		row := uint8(p) << 4
		name := pairNames[p]

		opcodes[0x01|row] = op(fmt.Sprintf("LD %s, d16", name), 3, 12, func(c *CPU) {
			c.writePair(p, c.readImmediateWord())
		})
		opcodes[0x03|row] = op(fmt.Sprintf("INC %s", name), 1, 8, func(c *CPU) {
			c.writePair(p, c.readPair(p)+1)
		})
		opcodes[0x09|row] = op(fmt.Sprintf("ADD HL, %s", name), 1, 8, func(c *CPU) {
			c.addToHL(c.readPair(p))
		})
		opcodes[0x0B|row] = op(fmt.Sprintf("DEC %s", name), 1, 8, func(c *CPU) {
			c.writePair(p, c.readPair(p)-1)
		})
	}

	// indirect accumulator loads
	opcodes[0x02] = op("LD (BC), A", 1, 8, func(c *CPU) { c.bus.Write(c.getBC(), c.a) })
	opcodes[0x12] = op("LD (DE), A", 1, 8, func(c *CPU) { c.bus.Write(c.getDE(), c.a) })
	opcodes[0x22] = op("LD (HL+), A", 1, 8, func(c *CPU) {
		hl := c.getHL()
		c.bus.Write(hl, c.a)
		c.setHL(hl + 1)
	})
	opcodes[0x32] = op("LD (HL-), A", 1, 8, func(c *CPU) {
		hl := c.getHL()
		c.bus.Write(hl, c.a)
		c.setHL(hl - 1)
	})
	opcodes[0x0A] = op("LD A, (BC)", 1, 8, func(c *CPU) { c.a = c.bus.Read(c.getBC()) })
	opcodes[0x1A] = op("LD A, (DE)", 1, 8, func(c *CPU) { c.a = c.bus.Read(c.getDE()) })
	opcodes[0x2A] = op("LD A, (HL+)", 1, 8, func(c *CPU) {
		hl := c.getHL()
		c.a = c.bus.Read(hl)
		c.setHL(hl + 1)
	})
	opcodes[0x3A] = op("LD A, (HL-)", 1, 8, func(c *CPU) {
		hl := c.getHL()
		c.a = c.bus.Read(hl)
		c.setHL(hl - 1)
	})

	// 8 bit INC, DEC and immediate loads, one column per register
	for r := range 8 {
		col := uint8(r) << 3
		name := operandNames[r]

		opcodes[0x04|col] = op("INC "+name, 1, operandCycles(r, 4, 8), func(c *CPU) {
			c.writeOperand(r, c.inc(c.readOperand(r)))
		})
		opcodes[0x05|col] = op("DEC "+name, 1, operandCycles(r, 4, 8), func(c *CPU) {
			c.writeOperand(r, c.dec(c.readOperand(r)))
		})
		opcodes[0x06|col] = op(fmt.Sprintf("LD %s, d8", name), 2, operandCycles(r, 8, 4), func(c *CPU) {
			c.writeOperand(r, c.readImmediate())
		})
	}

	// accumulator rotates always clear Z
	opcodes[0x07] = op("RLCA", 1, 4, func(c *CPU) {
		c.a = c.rlc(c.a)
		c.resetFlag(zeroFlag)
	})
	opcodes[0x0F] = op("RRCA", 1, 4, func(c *CPU) {
		c.a = c.rrc(c.a)
		c.resetFlag(zeroFlag)
	})
	opcodes[0x17] = op("RLA", 1, 4, func(c *CPU) {
		c.a = c.rl(c.a)
		c.resetFlag(zeroFlag)
	})
	opcodes[0x1F] = op("RRA", 1, 4, func(c *CPU) {
		c.a = c.rr(c.a)
		c.resetFlag(zeroFlag)
	})

	opcodes[0x08] = op("LD (a16), SP", 3, 20, func(c *CPU) {
		address := c.readImmediateWord()
		c.bus.Write(address, bit.Low(c.sp))
		c.bus.Write(address+1, bit.High(c.sp))
	})

	opcodes[0x10] = op("STOP", 2, 4, (*CPU).stop)
	opcodes[0x76] = op("HALT", 1, 4, (*CPU).halt)

	opcodes[0x27] = op("DAA", 1, 4, (*CPU).daa)
	opcodes[0x2F] = op("CPL", 1, 4, (*CPU).cpl)
	opcodes[0x37] = op("SCF", 1, 4, (*CPU).scf)
	opcodes[0x3F] = op("CCF", 1, 4, (*CPU).ccf)

	// relative jumps
	opcodes[0x18] = op("JR r8", 2, 12, func(c *CPU) {
		c.jumpRelative(c.readSignedImmediate())
	})
	for cc := range 4 {
		opcodes[0x20|uint8(cc)<<3] = branch(fmt.Sprintf("JR %s, r8", conditionNames[cc]), 2, 8, 12, func(c *CPU) bool {
			e := c.readSignedImmediate()
			if !c.condition(cc) {
				return false
			}
			c.jumpRelative(e)
			return true
		})
	}

	// LD r, r' fills 0x40-0x7F, except for HALT at 0x76
	for dst := range 8 {
		for src := range 8 {
			opcode := 0x40 | uint8(dst)<<3 | uint8(src)
			if opcode == 0x76 {
				continue
			}
			cycles := 4
			if dst == operandHL || src == operandHL {
				cycles = 8
			}
			opcodes[opcode] = op(fmt.Sprintf("LD %s, %s", operandNames[dst], operandNames[src]), 1, cycles, func(c *CPU) {
				c.writeOperand(dst, c.readOperand(src))
			})
		}
	}

	// ALU block 0x80-0xBF and its immediate forms 0xC6-0xFE
	alu := []struct {
		name string
		exec func(c *CPU, value uint8)
	}{
		{"ADD A,", func(c *CPU, v uint8) { c.add(v, false) }},
		{"ADC A,", func(c *CPU, v uint8) { c.add(v, true) }},
		{"SUB", func(c *CPU, v uint8) { c.sub(v, false) }},
		{"SBC A,", func(c *CPU, v uint8) { c.sub(v, true) }},
		{"AND", (*CPU).and},
		{"XOR", (*CPU).xor},
		{"OR", (*CPU).or},
		{"CP", (*CPU).cp},
	}
	for i, a := range alu {
		for r := range 8 {
			opcodes[0x80|uint8(i)<<3|uint8(r)] = op(fmt.Sprintf("%s %s", a.name, operandNames[r]), 1, operandCycles(r, 4, 4), func(c *CPU) {
				a.exec(c, c.readOperand(r))
			})
		}
		opcodes[0xC6|uint8(i)<<3] = op(a.name+" d8", 2, 8, func(c *CPU) {
			a.exec(c, c.readImmediate())
		})
	}

	// conditional control flow
	for cc := range 4 {
		col := uint8(cc) << 3
		name := conditionNames[cc]

		opcodes[0xC0|col] = branch("RET "+name, 1, 8, 20, func(c *CPU) bool {
			if !c.condition(cc) {
				return false
			}
			c.pc = c.popStack()
			return true
		})
		opcodes[0xC2|col] = branch(fmt.Sprintf("JP %s, a16", name), 3, 12, 16, func(c *CPU) bool {
			address := c.readImmediateWord()
			if !c.condition(cc) {
				return false
			}
			c.pc = address
			return true
		})
		opcodes[0xC4|col] = branch(fmt.Sprintf("CALL %s, a16", name), 3, 12, 24, func(c *CPU) bool {
			address := c.readImmediateWord()
			if !c.condition(cc) {
				return false
			}
			c.call(address)
			return true
		})
	}

	// stack, AF in place of SP
	stackPairs := [4]string{"BC", "DE", "HL", "AF"}
	for p := range 4 {
		row := uint8(p) << 4
		opcodes[0xC1|row] = op("POP "+stackPairs[p], 1, 12, func(c *CPU) {
			value := c.popStack()
			if p == 3 {
				c.setAF(value)
				return
			}
			c.writePair(p, value)
		})
		opcodes[0xC5|row] = op("PUSH "+stackPairs[p], 1, 16, func(c *CPU) {
			if p == 3 {
				c.pushStack(c.getAF())
				return
			}
			c.pushStack(c.readPair(p))
		})
	}

	for n := range 8 {
		vector := uint16(n) * 8
		opcodes[0xC7|uint8(n)<<3] = op(fmt.Sprintf("RST %02XH", vector), 1, 16, func(c *CPU) {
			c.call(vector)
		})
	}

	opcodes[0xC3] = op("JP a16", 3, 16, func(c *CPU) { c.pc = c.readImmediateWord() })
	opcodes[0xE9] = op("JP HL", 1, 4, func(c *CPU) { c.pc = c.getHL() })
	opcodes[0xCD] = op("CALL a16", 3, 24, func(c *CPU) { c.call(c.readImmediateWord()) })
	opcodes[0xC9] = op("RET", 1, 16, func(c *CPU) { c.pc = c.popStack() })
	opcodes[0xD9] = op("RETI", 1, 16, func(c *CPU) {
		c.pc = c.popStack()
		c.ime = true
		c.eiPending = false
	})

	// the prefix byte is decoded by execute, this entry only describes it
	opcodes[0xCB] = op("PREFIX CB", 1, 4, func(*CPU) {})

	// high page loads
	opcodes[0xE0] = op("LDH (a8), A", 2, 12, func(c *CPU) {
		c.bus.Write(0xFF00|uint16(c.readImmediate()), c.a)
	})
	opcodes[0xF0] = op("LDH A, (a8)", 2, 12, func(c *CPU) {
		c.a = c.bus.Read(0xFF00 | uint16(c.readImmediate()))
	})
	opcodes[0xE2] = op("LD (C), A", 1, 8, func(c *CPU) {
		c.bus.Write(0xFF00|uint16(c.c), c.a)
	})
	opcodes[0xF2] = op("LD A, (C)", 1, 8, func(c *CPU) {
		c.a = c.bus.Read(0xFF00 | uint16(c.c))
	})
	opcodes[0xEA] = op("LD (a16), A", 3, 16, func(c *CPU) {
		c.bus.Write(c.readImmediateWord(), c.a)
	})
	opcodes[0xFA] = op("LD A, (a16)", 3, 16, func(c *CPU) {
		c.a = c.bus.Read(c.readImmediateWord())
	})

	// stack pointer arithmetic
	opcodes[0xE8] = op("ADD SP, r8", 2, 16, func(c *CPU) {
		c.sp = c.offsetSP(c.readSignedImmediate())
	})
	opcodes[0xF8] = op("LD HL, SP+r8", 2, 12, func(c *CPU) {
		c.setHL(c.offsetSP(c.readSignedImmediate()))
	})
	opcodes[0xF9] = op("LD SP, HL", 1, 8, func(c *CPU) { c.sp = c.getHL() })

	opcodes[0xF3] = op("DI", 1, 4, func(c *CPU) {
		c.ime = false
		c.eiPending = false
	})
	opcodes[0xFB] = op("EI", 1, 4, func(c *CPU) {
		if !c.ime {
			c.eiPending = true
		}
	})

	for _, opcode := range illegalOpcodes {
		opcodes[opcode] = op(fmt.Sprintf("ILLEGAL_%02X", opcode), 1, 4, (*CPU).lock)
	}
}

func buildOpcodesCB() {
	shifts := []struct {
		name string
		exec func(c *CPU, value uint8) uint8
	}{
		{"RLC", (*CPU).rlc},
		{"RRC", (*CPU).rrc},
		{"RL", (*CPU).rl},
		{"RR", (*CPU).rr},
		{"SLA", (*CPU).sla},
		{"SRA", (*CPU).sra},
		{"SWAP", (*CPU).swap},
		{"SRL", (*CPU).srl},
	}

	for r := range 8 {
		name := operandNames[r]
		rmw := operandCycles(r, 8, 8)

		for i, s := range shifts {
			opcodesCB[uint8(i)<<3|uint8(r)] = op(fmt.Sprintf("%s %s", s.name, name), 2, rmw, func(c *CPU) {
				c.writeOperand(r, s.exec(c, c.readOperand(r)))
			})
		}

		for n := range uint8(8) {
			opcodesCB[0x40|n<<3|uint8(r)] = op(fmt.Sprintf("BIT %d, %s", n, name), 2, operandCycles(r, 8, 4), func(c *CPU) {
				c.bit(n, c.readOperand(r))
			})
			opcodesCB[0x80|n<<3|uint8(r)] = op(fmt.Sprintf("RES %d, %s", n, name), 2, rmw, func(c *CPU) {
				c.writeOperand(r, bit.Clear(n, c.readOperand(r)))
			})
			opcodesCB[0xC0|n<<3|uint8(r)] = op(fmt.Sprintf("SET %d, %s", n, name), 2, rmw, func(c *CPU) {
				c.writeOperand(r, bit.Set(n, c.readOperand(r)))
			})
		}
	}
}

// Mnemonic returns the assembly template of an opcode, from the CB table when cb is set.
func Mnemonic(opcode uint8, cb bool) string {
	if cb {
		return opcodesCB[opcode].mnemonic
	}
	return opcodes[opcode].mnemonic
}

// InstructionLength returns the length in bytes of a primary opcode, including operands.
// CB-prefixed instructions are 2 bytes long.
func InstructionLength(opcode uint8) int {
	if opcode == 0xCB {
		return 2
	}
	return opcodes[opcode].length
}

// Cycles returns the not-taken and taken cycle costs of an opcode.
func Cycles(opcode uint8, cb bool) (notTaken, taken int) {
	instr := opcodes[opcode]
	if cb {
		instr = opcodesCB[opcode]
	}
	return instr.cycles, instr.taken
}
