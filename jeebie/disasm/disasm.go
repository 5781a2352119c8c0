// Package disasm renders SM83 instructions from raw memory reads.
package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/jeebie-core/jeebie/bit"
	"github.com/valerio/jeebie-core/jeebie/cpu"
)

// Reader is the read side of a bus.
type Reader interface {
	Read(address uint16) uint8
}

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

// DisassembleAt disassembles the instruction at the given program counter
func DisassembleAt(pc uint16, mem Reader) DisassemblyLine {
	opcode := mem.Read(pc)
	length := cpu.InstructionLength(opcode)

	if opcode == 0xCB {
		return DisassemblyLine{
			Address:     pc,
			Instruction: cpu.Mnemonic(mem.Read(pc+1), true),
			Length:      length,
		}
	}

	mnemonic := cpu.Mnemonic(opcode, false)
	n := mem.Read(pc + 1)
	nn := bit.Combine(mem.Read(pc+2), n)
	// relative jumps are shown as their absolute target
	target := pc + uint16(length) + uint16(int16(int8(n)))

	r := strings.NewReplacer(
		"d16", fmt.Sprintf("$%04X", nn),
		"a16", fmt.Sprintf("$%04X", nn),
		"d8", fmt.Sprintf("$%02X", n),
		"a8", fmt.Sprintf("$%02X", n),
		"SP+r8", fmt.Sprintf("SP%+d", int8(n)),
		"SP, r8", fmt.Sprintf("SP, %+d", int8(n)),
		"r8", fmt.Sprintf("$%04X", target),
	)

	return DisassemblyLine{
		Address:     pc,
		Instruction: r.Replace(mnemonic),
		Length:      length,
	}
}

// DisassembleRange disassembles multiple instructions starting from the given PC
func DisassembleRange(startPC uint16, count int, mem Reader) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC

	for i := 0; i < count; i++ {
		line := DisassembleAt(pc, mem)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}

	return lines
}

// DisassembleAround disassembles up to before instructions leading to pc, the
// instruction at pc and after instructions following it.
func DisassembleAround(pc uint16, before, after int, mem Reader) []DisassemblyLine {
	// instructions are at most 3 bytes long: try every start in range and keep
	// the earliest one that decodes exactly onto pc
	start := pc
	found := 0
	for offset := before * 3; offset > 0; offset-- {
		if int(pc) < offset {
			continue
		}
		candidate := pc - uint16(offset)
		count := 0
		addr := candidate
		for addr < pc {
			addr += uint16(DisassembleAt(addr, mem).Length)
			count++
		}
		if addr == pc && count <= before && count > found {
			start, found = candidate, count
		}
	}

	return DisassembleRange(start, found+1+after, mem)
}

// FormatDisassemblyLine formats a disassembly line for display
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = ">"
	}

	return fmt.Sprintf("%s0x%04X: %s", prefix, line.Address, line.Instruction)
}
