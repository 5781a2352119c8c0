package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// Bus is the CPU view of the address space.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// InterruptController is the CPU view of the IE/IF latches.
type InterruptController interface {
	Pending() uint8
	Next() (addr.Interrupt, bool)
	Acknowledge(interrupt addr.Interrupt)
}

// StopBehavior selects what ends the STOP state.
type StopBehavior uint8

const (
	// StopUntilJoypad keeps the CPU stopped until Wake is called (a button press), as on a DMG.
	StopUntilJoypad StopBehavior = iota
	// StopUntilInterrupt treats STOP like HALT: any pending enabled interrupt resumes execution.
	StopUntilInterrupt
)

func (s StopBehavior) String() string {
	switch s {
	case StopUntilJoypad:
		return "joypad"
	case StopUntilInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("StopBehavior(%d)", uint8(s))
	}
}

const (
	interruptDispatchCycles = 20
	idleCycles              = 4
)

// CPU is the main struct holding the SM83 state
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// metadata
	ime       bool
	eiPending bool // EI delay: interrupts enable after next instruction
	halted    bool
	stopped   bool
	locked    bool // an illegal opcode hung the CPU
	cycles    uint64

	// haltBug makes the next opcode fetch skip its PC increment, so the byte
	// after HALT is read twice.
	haltBug bool

	currentOpcode uint16
	stopBehavior  StopBehavior

	bus    Bus
	irq    InterruptController
	logger *slog.Logger
}

// Option configures a CPU.
type Option func(*CPU)

// WithStopBehavior selects the STOP wake condition.
func WithStopBehavior(behavior StopBehavior) Option {
	return func(c *CPU) {
		c.stopBehavior = behavior
	}
}

// WithLogger sets the logger used for STOP and lockup events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CPU) {
		c.logger = logger
	}
}

// New returns a CPU with the DMG post-boot register values.
func New(bus Bus, irq InterruptController, opts ...Option) *CPU {
	c := &CPU{
		bus:    bus,
		irq:    irq,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset restores the register file and state flags to their post-boot values.
func (c *CPU) Reset() {
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100

	c.ime = false
	c.eiPending = false
	c.halted = false
	c.stopped = false
	c.locked = false
	c.haltBug = false
	c.cycles = 0
}

// Step executes a single instruction, or services an interrupt, or idles one
// machine cycle while halted, stopped or locked.
// Returns the amount of cycles that have elapsed.
func (c *CPU) Step() int {
	cycles := c.step()
	c.cycles += uint64(cycles)
	return cycles
}

func (c *CPU) step() int {
	if c.locked {
		return idleCycles
	}

	if c.stopped {
		if c.stopBehavior != StopUntilInterrupt || c.irq.Pending() == 0 {
			return idleCycles
		}
		c.stopped = false
	}

	if c.halted {
		// wake on any pending interrupt, service it only when IME is set
		if c.irq.Pending() == 0 {
			return idleCycles
		}
		c.halted = false
	}

	if c.ime {
		if interrupt, ok := c.irq.Next(); ok {
			return c.serviceInterrupt(interrupt)
		}
	}

	enableAfter := c.eiPending
	cycles := c.execute()

	// EI takes effect once the following instruction has completed, unless
	// that instruction was DI.
	if enableAfter && c.eiPending {
		c.eiPending = false
		c.ime = true
	}

	return cycles
}

func (c *CPU) serviceInterrupt(interrupt addr.Interrupt) int {
	c.irq.Acknowledge(interrupt)
	c.ime = false
	// EI; HALT with an interrupt already pending: the handler returns to the HALT
	if c.haltBug {
		c.haltBug = false
		c.pushStack(c.pc - 1)
	} else {
		c.pushStack(c.pc)
	}
	c.pc = interrupt.Vector()
	return interruptDispatchCycles
}

// execute fetches, decodes and runs one instruction.
func (c *CPU) execute() int {
	opcode := c.fetch()
	instr := &opcodes[opcode]
	c.currentOpcode = uint16(opcode)

	if opcode == 0xCB {
		cb := c.readImmediate()
		instr = &opcodesCB[cb]
		c.currentOpcode = bit.Combine(0xCB, cb)
	}

	if instr.exec == nil {
		panic(fmt.Sprintf("cpu: no handler for opcode 0x%04X at 0x%04X", c.currentOpcode, c.pc))
	}

	if instr.exec(c) {
		return instr.taken
	}
	return instr.cycles
}

// fetch reads the opcode byte at PC. Right after a HALT bug the increment
// is skipped once.
func (c *CPU) fetch() uint8 {
	opcode := c.bus.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
		return opcode
	}
	c.pc++
	return opcode
}

// readImmediate returns the byte at PC ('n' in mnemonics) and advances PC.
func (c *CPU) readImmediate() uint8 {
	n := c.bus.Read(c.pc)
	c.pc++
	return n
}

// readImmediateWord returns the little endian word at PC ('nn' in mnemonics) and advances PC twice.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// readSignedImmediate returns the byte at PC as a signed offset ('e' in mnemonics).
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) halt() {
	if !c.ime && c.irq.Pending() != 0 {
		c.haltBug = true
		return
	}
	c.halted = true
}

func (c *CPU) stop() {
	// the byte after STOP is padding
	c.readImmediate()
	c.stopped = true
	c.bus.Write(addr.DIV, 0)
	c.logger.Debug("CPU stopped", "pc", fmt.Sprintf("0x%04X", c.pc), "wake", c.stopBehavior)
}

func (c *CPU) lock() {
	c.locked = true
	c.logger.Debug("CPU locked by illegal opcode",
		"opcode", fmt.Sprintf("0x%02X", c.currentOpcode),
		"pc", fmt.Sprintf("0x%04X", c.pc-1))
}

// Wake ends a STOP, as a joypad press does on hardware.
func (c *CPU) Wake() {
	c.stopped = false
}

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.pc }

// Cycles returns the total amount of cycles elapsed since Reset.
func (c *CPU) Cycles() uint64 { return c.cycles }

// IME reports the interrupt master enable.
func (c *CPU) IME() bool { return c.ime }

// Halted reports whether the CPU is waiting in HALT.
func (c *CPU) Halted() bool { return c.halted }

// Stopped reports whether the CPU is waiting in STOP.
func (c *CPU) Stopped() bool { return c.stopped }

// Locked reports whether an illegal opcode hung the CPU.
func (c *CPU) Locked() bool { return c.locked }

// StopBehavior returns the configured STOP wake condition.
func (c *CPU) StopBehavior() StopBehavior { return c.stopBehavior }
