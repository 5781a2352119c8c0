package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/interrupt"
)

// flatBus is 64KiB of plain memory.
type flatBus struct {
	mem [0x10000]byte
}

func (b *flatBus) Read(address uint16) byte         { return b.mem[address] }
func (b *flatBus) Write(address uint16, value byte) { b.mem[address] = value }

func (b *flatBus) load(address uint16, program ...byte) {
	copy(b.mem[address:], program)
}

func newTestCPU(opts ...Option) (*CPU, *flatBus, *interrupt.Controller) {
	bus := &flatBus{}
	irq := interrupt.New()
	return New(bus, irq, opts...), bus, irq
}

func TestCPU_PostBoot(t *testing.T) {
	cpu, bus, _ := newTestCPU()
	bus.load(0x100, 0x00)

	want := Registers{A: 0x01, F: 0xB0, B: 0x00, C: 0x13, D: 0x00, E: 0xD8, H: 0x01, L: 0x4D, SP: 0xFFFE, PC: 0x0100}
	require.Equal(t, want, cpu.Registers())
	assert.Equal(t, uint16(0x01B0), cpu.Registers().AF())
	assert.Equal(t, uint16(0x014D), cpu.Registers().HL())
	assert.False(t, cpu.IME())

	cycles := cpu.Step()

	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0x0101), cpu.PC())
	assert.Equal(t, uint8(0xB0), cpu.Registers().F, "NOP leaves flags untouched")
	assert.Equal(t, uint64(4), cpu.Cycles())
}

func TestCPU_SetRegisters(t *testing.T) {
	cpu, _, _ := newTestCPU()

	cpu.SetRegisters(Registers{A: 0x12, F: 0xFF, B: 0x34, SP: 0xC000, PC: 0x0150})

	r := cpu.Registers()
	assert.Equal(t, uint8(0xF0), r.F, "low nibble of F always reads 0")
	assert.Equal(t, uint16(0x3400), r.BC())
	assert.Equal(t, uint16(0xC000), r.SP)
	assert.Equal(t, "ZNHC", cpu.FlagString())
}

func TestCPU_Stack(t *testing.T) {
	cpu, bus, _ := newTestCPU()

	cpu.sp = 0xFFFE
	cpu.pushStack(0x0102)

	assert.Equal(t, uint16(0xFFFC), cpu.sp)
	assert.Equal(t, uint8(0x01), bus.mem[0xFFFD])
	assert.Equal(t, uint8(0x02), bus.mem[0xFFFC])

	assert.Equal(t, uint16(0x0102), cpu.popStack())
	assert.Equal(t, uint16(0xFFFE), cpu.sp)
}

func TestCPU_PushPopAF(t *testing.T) {
	cpu, bus, _ := newTestCPU()
	// LD BC, 0x12FF; PUSH BC; POP AF
	bus.load(0x100, 0x01, 0xFF, 0x12, 0xC5, 0xF1)

	cpu.Step()
	cpu.Step()
	cpu.Step()

	assert.Equal(t, uint8(0x12), cpu.a)
	assert.Equal(t, uint8(0xF0), cpu.f)
}

func TestCPU_HaltBug(t *testing.T) {
	cpu, bus, irq := newTestCPU()
	// HALT; INC A; NOP
	bus.load(0x100, 0x76, 0x3C, 0x00)
	irq.Write(addr.IE, 0x04)
	irq.Request(addr.TimerInterrupt)

	cpu.Step()
	assert.False(t, cpu.Halted(), "HALT with IME=0 and a pending interrupt does not halt")
	assert.Equal(t, uint16(0x0101), cpu.PC())

	cpu.Step()
	assert.Equal(t, uint16(0x0101), cpu.PC(), "PC increment is skipped once")
	assert.Equal(t, uint8(0x02), cpu.a)

	cpu.Step()
	assert.Equal(t, uint16(0x0102), cpu.PC())
	assert.Equal(t, uint8(0x03), cpu.a, "the byte after HALT runs twice")
}

func TestCPU_HaltBugWithEI(t *testing.T) {
	cpu, bus, irq := newTestCPU()
	// EI; HALT; NOP, handler INC A; RETI
	bus.load(0x100, 0xFB, 0x76, 0x00)
	bus.load(0x50, 0x3C, 0xD9)
	irq.Write(addr.IE, 0x04)
	irq.Request(addr.TimerInterrupt)

	cpu.Step()
	cpu.Step()
	assert.False(t, cpu.Halted())

	assert.Equal(t, interruptDispatchCycles, cpu.Step())
	assert.Equal(t, uint16(0x0050), cpu.PC())
	sp := cpu.Registers().SP
	assert.Equal(t, uint8(0x01), bus.mem[sp], "return address points at HALT")
	assert.Equal(t, uint8(0x01), bus.mem[sp+1])

	cpu.Step()
	assert.Equal(t, uint16(0x0051), cpu.PC(), "the handler's first opcode runs once")
	assert.Equal(t, uint8(0x02), cpu.a)

	cpu.Step()
	assert.Equal(t, uint16(0x0101), cpu.PC())
	assert.Equal(t, uint16(0xFFFE), cpu.Registers().SP)

	cpu.Step()
	assert.True(t, cpu.Halted(), "HALT runs again with IME set")
}

func TestCPU_HaltBugOperand(t *testing.T) {
	cpu, bus, irq := newTestCPU()
	// HALT; LD B, d8 with the opcode itself read as the operand
	bus.load(0x100, 0x76, 0x06, 0x42)
	irq.Write(addr.IE, 0x01)
	irq.Request(addr.VBlankInterrupt)

	cpu.Step()
	cpu.Step()

	assert.Equal(t, uint8(0x06), cpu.b)
	assert.Equal(t, uint16(0x0102), cpu.PC())
}

func TestCPU_Halt(t *testing.T) {
	t.Run("wakes without servicing when IME is clear", func(t *testing.T) {
		cpu, bus, irq := newTestCPU()
		bus.load(0x100, 0x76, 0x00)
		irq.Write(addr.IE, 0x04)

		assert.Equal(t, 4, cpu.Step())
		require.True(t, cpu.Halted())
		assert.Equal(t, 4, cpu.Step())
		assert.Equal(t, uint16(0x0101), cpu.PC())

		irq.Request(addr.TimerInterrupt)
		assert.Equal(t, 4, cpu.Step())
		assert.False(t, cpu.Halted())
		assert.Equal(t, uint16(0x0102), cpu.PC(), "fetch resumes after HALT")
		assert.Equal(t, uint8(0x04), irq.Pending(), "request stays latched")
	})

	t.Run("disabled interrupts do not wake", func(t *testing.T) {
		cpu, bus, irq := newTestCPU()
		bus.load(0x100, 0x76)
		irq.Write(addr.IE, 0x01)

		cpu.Step()
		irq.Request(addr.JoypadInterrupt)
		cpu.Step()
		assert.True(t, cpu.Halted())
	})

	t.Run("wakes and services when IME is set", func(t *testing.T) {
		cpu, bus, irq := newTestCPU()
		bus.load(0x100, 0x76, 0x00)
		irq.Write(addr.IE, 0x04)
		cpu.ime = true

		cpu.Step()
		require.True(t, cpu.Halted())

		irq.Request(addr.TimerInterrupt)
		assert.Equal(t, 20, cpu.Step())
		assert.False(t, cpu.Halted())
		assert.Equal(t, uint16(0x0050), cpu.PC())
		assert.Equal(t, uint16(0x0101), cpu.popStack())
	})
}

func TestCPU_Interrupts(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		cpu, bus, irq := newTestCPU()
		bus.load(0x100, 0x00)
		irq.Write(addr.IE, 0x01)
		irq.Request(addr.VBlankInterrupt)

		assert.Equal(t, 4, cpu.Step())
		assert.Equal(t, uint16(0x0101), cpu.PC())
	})

	t.Run("EI enables interrupts after the next instruction", func(t *testing.T) {
		cpu, bus, irq := newTestCPU()
		// EI; NOP; NOP
		bus.load(0x100, 0xFB, 0x00, 0x00)
		irq.Write(addr.IE, 0x01)
		irq.Request(addr.VBlankInterrupt)

		cpu.Step()
		assert.False(t, cpu.IME())

		cpu.Step()
		assert.True(t, cpu.IME())
		assert.Equal(t, uint16(0x0102), cpu.PC(), "the instruction after EI always runs")

		assert.Equal(t, 20, cpu.Step())
		assert.Equal(t, uint16(0x0040), cpu.PC())
		assert.False(t, cpu.IME())
		assert.Equal(t, uint8(0xE0), irq.Read(addr.IF))
		assert.Equal(t, uint16(0x0102), cpu.popStack())
	})

	t.Run("DI cancels a pending EI", func(t *testing.T) {
		cpu, bus, irq := newTestCPU()
		// EI; DI; NOP
		bus.load(0x100, 0xFB, 0xF3, 0x00)
		irq.Write(addr.IE, 0x01)
		irq.Request(addr.VBlankInterrupt)

		cpu.Step()
		cpu.Step()
		assert.False(t, cpu.IME())
		assert.Equal(t, 4, cpu.Step())
		assert.Equal(t, uint16(0x0103), cpu.PC())
	})

	t.Run("DI disables interrupts immediately", func(t *testing.T) {
		cpu, bus, _ := newTestCPU()
		bus.load(0x100, 0xF3)
		cpu.ime = true

		cpu.Step()
		assert.False(t, cpu.IME())
	})

	t.Run("RETI enables interrupts and returns", func(t *testing.T) {
		cpu, bus, _ := newTestCPU()
		cpu.pc = 0x200
		bus.load(0x200, 0xD9)
		cpu.pushStack(0x150)

		assert.Equal(t, 16, cpu.Step())
		assert.True(t, cpu.IME())
		assert.Equal(t, uint16(0x150), cpu.PC())
	})
}

func TestCPU_InterruptPriority(t *testing.T) {
	testCases := []struct {
		desc      string
		requested uint8
		vector    uint16
		remaining uint8
	}{
		{desc: "vblank first", requested: 0x1F, vector: 0x40, remaining: 0x1E},
		{desc: "lcd stat over timer", requested: 0x06, vector: 0x48, remaining: 0x04},
		{desc: "timer over serial", requested: 0x1C, vector: 0x50, remaining: 0x18},
		{desc: "serial over joypad", requested: 0x18, vector: 0x58, remaining: 0x10},
		{desc: "joypad alone", requested: 0x10, vector: 0x60, remaining: 0x00},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu, _, irq := newTestCPU()
			cpu.ime = true
			irq.Write(addr.IE, 0x1F)
			irq.Write(addr.IF, tC.requested)

			assert.Equal(t, 20, cpu.Step())
			assert.Equal(t, tC.vector, cpu.PC())
			assert.Equal(t, tC.remaining|0xE0, irq.Read(addr.IF))
		})
	}

	t.Run("disabled lines are skipped", func(t *testing.T) {
		cpu, _, irq := newTestCPU()
		cpu.ime = true
		irq.Write(addr.IE, 0x04)
		irq.Write(addr.IF, 0x05)

		cpu.Step()
		assert.Equal(t, uint16(0x50), cpu.PC())
		assert.Equal(t, uint8(0xE1), irq.Read(addr.IF))
	})
}

func TestCPU_Stop(t *testing.T) {
	t.Run("until joypad", func(t *testing.T) {
		cpu, bus, irq := newTestCPU()
		// STOP 0x00; INC A
		bus.load(0x100, 0x10, 0x00, 0x3C)
		bus.mem[addr.DIV] = 0xAB
		irq.Write(addr.IE, 0x1F)

		assert.Equal(t, 4, cpu.Step())
		require.True(t, cpu.Stopped())
		assert.Equal(t, uint16(0x0102), cpu.PC(), "STOP consumes its padding byte")
		assert.Equal(t, uint8(0), bus.mem[addr.DIV], "STOP resets DIV")

		irq.Request(addr.TimerInterrupt)
		assert.Equal(t, 4, cpu.Step())
		assert.True(t, cpu.Stopped(), "interrupts do not end STOP")

		cpu.Wake()
		cpu.Step()
		assert.False(t, cpu.Stopped())
		assert.Equal(t, uint8(0x02), cpu.a)
	})

	t.Run("until interrupt", func(t *testing.T) {
		cpu, bus, irq := newTestCPU(WithStopBehavior(StopUntilInterrupt))
		bus.load(0x100, 0x10, 0x00, 0x3C)
		irq.Write(addr.IE, 0x04)

		cpu.Step()
		assert.Equal(t, 4, cpu.Step())
		require.True(t, cpu.Stopped())

		irq.Request(addr.TimerInterrupt)
		cpu.Step()
		assert.False(t, cpu.Stopped())
		assert.Equal(t, uint8(0x02), cpu.a)
		assert.Equal(t, "interrupt", cpu.StopBehavior().String())
	})
}

func TestCPU_IllegalOpcodeLocks(t *testing.T) {
	for _, opcode := range illegalOpcodes {
		t.Run(Mnemonic(opcode, false), func(t *testing.T) {
			cpu, bus, irq := newTestCPU()
			bus.load(0x100, opcode, 0x3C)

			assert.Equal(t, 4, cpu.Step())
			require.True(t, cpu.Locked())

			cpu.ime = true
			irq.Write(addr.IE, 0x1F)
			irq.Write(addr.IF, 0x1F)
			for range 10 {
				assert.Equal(t, 4, cpu.Step())
			}
			assert.Equal(t, uint16(0x0101), cpu.PC())
			assert.Equal(t, uint8(0x01), cpu.a)
		})
	}
}

func TestCPU_MissingHandlerPanics(t *testing.T) {
	saved := opcodes[0xD3]
	defer func() { opcodes[0xD3] = saved }()
	opcodes[0xD3].exec = nil

	cpu, bus, _ := newTestCPU()
	bus.load(0x100, 0xD3)

	assert.Panics(t, func() { cpu.Step() })
}

func TestCPU_Reset(t *testing.T) {
	cpu, bus, _ := newTestCPU()
	bus.load(0x100, 0xD3)
	cpu.Step()
	require.True(t, cpu.Locked())

	cpu.Reset()

	assert.False(t, cpu.Locked())
	assert.Equal(t, uint16(0x0100), cpu.PC())
	assert.Equal(t, uint64(0), cpu.Cycles())
}
