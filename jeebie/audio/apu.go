package audio

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// Speaker receives one stereo sample per sample period.
type Speaker interface {
	SetSamples(left, right int16)
}

// NoSpeaker drops every sample.
type NoSpeaker struct{}

func (NoSpeaker) SetSamples(int16, int16) {}

// APU implements the Game Boy's Audio Processing Unit
// Reference: https://gbdev.io/pandocs/Audio.html
type APU struct {
	speaker    Speaker
	sampleRate int

	powered   bool       // Master audio enable (NR52 bit 7)
	registers [0x17]byte // last values written to FF10-FF26
	nr50      uint8
	nr51      uint8

	// Frame sequencer state
	// Runs at 512 Hz, advances every cyclesPerStep (8192) CPU cycles
	frameStep   uint8
	frameCycles int

	// sampleClock accumulates cycles*sampleRate; a sample is due every clockSpeed units
	sampleClock int

	ch1 square
	ch2 square
	ch3 wave
	ch4 noise
}

// Option configures an APU.
type Option func(*APU)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(a *APU) {
		if rate > 0 && rate < clockSpeed {
			a.sampleRate = rate
		}
	}
}

// New creates an APU with the DMG post-boot register values. speaker may be nil.
func New(speaker Speaker, opts ...Option) *APU {
	if speaker == nil {
		speaker = NoSpeaker{}
	}
	a := &APU{
		speaker:    speaker,
		sampleRate: DefaultSampleRate,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Reset()
	return a
}

// Reset sets the initial power-on values for audio registers
// Reference: https://gbdev.io/pandocs/Power_Up_Sequence.html#hardware-registers
func (a *APU) Reset() {
	ram := a.ch3.ram
	a.ch1, a.ch2, a.ch3, a.ch4 = square{}, square{}, wave{ram: ram}, noise{}
	a.registers = [0x17]byte{}
	a.frameStep = 0
	a.frameCycles = 0
	a.sampleClock = 0
	a.powered = true

	a.Write(addr.NR10, 0x80)
	a.Write(addr.NR11, 0xBF)
	a.Write(addr.NR12, 0xF3)
	a.Write(addr.NR14, 0x3F) // trigger bit left out, no sound at boot
	a.Write(addr.NR21, 0x3F)
	a.Write(addr.NR22, 0x00)
	a.Write(addr.NR24, 0x3F)
	a.Write(addr.NR30, 0x7F)
	a.Write(addr.NR31, 0xFF)
	a.Write(addr.NR32, 0x9F)
	a.Write(addr.NR34, 0x3F)
	a.Write(addr.NR41, 0xFF)
	a.Write(addr.NR42, 0x00)
	a.Write(addr.NR43, 0x00)
	a.Write(addr.NR44, 0x3F)
	a.Write(addr.NR50, 0x77)
	a.Write(addr.NR51, 0xF3)

	// the boot ROM beep leaves channel 1 on
	a.ch1.enabled = true
}

// Tick advances the channels and the frame sequencer, emitting samples as they come due.
func (a *APU) Tick(cycles int) {
	if a.powered {
		a.ch1.tick(cycles)
		a.ch2.tick(cycles)
		a.ch3.tick(cycles)
		a.ch4.tick(cycles)

		a.frameCycles += cycles
		for a.frameCycles >= cyclesPerStep {
			a.frameCycles -= cyclesPerStep
			a.stepFrameSequencer()
		}
	}

	a.sampleClock += cycles * a.sampleRate
	for a.sampleClock >= clockSpeed {
		a.sampleClock -= clockSpeed
		a.speaker.SetSamples(a.mix())
	}
}

// stepFrameSequencer clocks sweep, length counters and envelopes
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#frame-sequencer
func (a *APU) stepFrameSequencer() {
	switch a.frameStep {
	case 0, 4:
		a.clockLengths()
	case 2, 6:
		a.clockLengths()
		a.ch1.clockSweep()
	case 7:
		a.ch1.envelope.clock()
		a.ch2.envelope.clock()
		a.ch4.envelope.clock()
	}
	a.frameStep = (a.frameStep + 1) & 7
}

func (a *APU) clockLengths() {
	a.ch1.enabled = a.ch1.length.clock() && a.ch1.enabled
	a.ch2.enabled = a.ch2.length.clock() && a.ch2.enabled
	a.ch3.enabled = a.ch3.length.clock() && a.ch3.enabled
	a.ch4.enabled = a.ch4.length.clock() && a.ch4.enabled
}

// mix combines the channel outputs routed by NR51, scaled by the NR50 volumes.
func (a *APU) mix() (left, right int16) {
	if !a.powered {
		return 0, 0
	}

	outputs := [4]int{}
	for i, out := range []struct {
		value uint8
		muted bool
	}{
		{a.ch1.output(), a.ch1.muted},
		{a.ch2.output(), a.ch2.muted},
		{a.ch3.output(), a.ch3.muted},
		{a.ch4.output(), a.ch4.muted},
	} {
		if !out.muted {
			outputs[i] = int(out.value)
		}
	}

	var sumLeft, sumRight int
	for i, v := range outputs {
		if bit.IsSet(uint8(i+4), a.nr51) {
			sumLeft += v
		}
		if bit.IsSet(uint8(i), a.nr51) {
			sumRight += v
		}
	}

	volLeft := int(a.nr50>>4&0x07) + 1
	volRight := int(a.nr50&0x07) + 1
	return int16(sumLeft * volLeft * sampleAmplitude), int16(sumRight * volRight * sampleAmplitude)
}

// Read returns an audio register, with write-only and unused bits reading 1.
func (a *APU) Read(address uint16) uint8 {
	switch {
	case address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd:
		return a.ch3.ram[address-addr.WaveRAMStart]
	case address == addr.NR52:
		status := readMasks[address-addr.AudioStart]
		if a.powered {
			status |= 0x80
		}
		for i, on := range []bool{a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled} {
			if on {
				status |= 1 << i
			}
		}
		return status
	case address >= addr.NR10 && address < addr.NR52:
		index := address - addr.AudioStart
		return a.registers[index] | readMasks[index]
	default:
		return 0xFF
	}
}

// Write updates an audio register. While powered off only NR52, wave RAM and
// the length timers accept writes.
func (a *APU) Write(address uint16, value uint8) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.ch3.ram[address-addr.WaveRAMStart] = value
		return
	}
	if address < addr.NR10 || address > addr.NR52 {
		return
	}

	if address == addr.NR52 {
		a.setPower(bit.IsSet(7, value))
		return
	}

	if !a.powered {
		switch address {
		case addr.NR11:
			a.ch1.length.load(int(value&0x3F), squareLength)
		case addr.NR21:
			a.ch2.length.load(int(value&0x3F), squareLength)
		case addr.NR31:
			a.ch3.length.load(int(value), waveLength)
		case addr.NR41:
			a.ch4.length.load(int(value&0x3F), squareLength)
		}
		return
	}

	a.registers[address-addr.AudioStart] = value

	switch address {
	case addr.NR10:
		a.ch1.sweepPace = value >> 4 & 0x07
		a.ch1.sweepDown = bit.IsSet(3, value)
		a.ch1.sweepStep = value & 0x07
	case addr.NR11:
		writeSquareLength(&a.ch1, value)
	case addr.NR12:
		writeSquareEnvelope(&a.ch1, value)
	case addr.NR13:
		a.ch1.period = a.ch1.period&0x700 | uint16(value)
	case addr.NR14:
		writeSquareControl(&a.ch1, value)
	case addr.NR21:
		writeSquareLength(&a.ch2, value)
	case addr.NR22:
		writeSquareEnvelope(&a.ch2, value)
	case addr.NR23:
		a.ch2.period = a.ch2.period&0x700 | uint16(value)
	case addr.NR24:
		writeSquareControl(&a.ch2, value)
	case addr.NR30:
		a.ch3.dac = bit.IsSet(7, value)
		if !a.ch3.dac {
			a.ch3.enabled = false
		}
	case addr.NR31:
		a.ch3.length.load(int(value), waveLength)
	case addr.NR32:
		a.ch3.level = value >> 5 & 0x03
	case addr.NR33:
		a.ch3.period = a.ch3.period&0x700 | uint16(value)
	case addr.NR34:
		a.ch3.period = a.ch3.period&0xFF | uint16(value&0x07)<<8
		a.ch3.length.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch3.trigger()
		}
	case addr.NR41:
		a.ch4.length.load(int(value&0x3F), squareLength)
	case addr.NR42:
		a.ch4.envelope.write(value)
		a.ch4.dac = value&0xF8 != 0
		if !a.ch4.dac {
			a.ch4.enabled = false
		}
	case addr.NR43:
		a.ch4.shift = value >> 4
		a.ch4.narrow = bit.IsSet(3, value)
		a.ch4.divisor = value & 0x07
	case addr.NR44:
		a.ch4.length.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch4.trigger()
		}
	case addr.NR50:
		a.nr50 = value
	case addr.NR51:
		a.nr51 = value
	}
}

func writeSquareLength(s *square, value uint8) {
	s.duty = value >> 6
	s.length.load(int(value&0x3F), squareLength)
}

func writeSquareEnvelope(s *square, value uint8) {
	s.envelope.write(value)
	// DAC enabled if bits 3-7 are not all zero
	s.dac = value&0xF8 != 0
	if !s.dac {
		s.enabled = false
	}
}

func writeSquareControl(s *square, value uint8) {
	s.period = s.period&0xFF | uint16(value&0x07)<<8
	s.length.enabled = bit.IsSet(6, value)
	if bit.IsSet(7, value) {
		s.trigger()
	}
}

// setPower handles NR52 bit 7: powering off clears every register except wave RAM.
func (a *APU) setPower(on bool) {
	switch {
	case a.powered && !on:
		for address := addr.NR10; address < addr.NR52; address++ {
			a.Write(address, 0)
		}
		a.powered = false
		a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled = false, false, false, false
	case !a.powered && on:
		a.powered = true
		a.frameStep = 0
	}
}

// Powered reports NR52 bit 7.
func (a *APU) Powered() bool {
	return a.powered
}

// ToggleChannel toggles muting for a specific channel (1-4)
func (a *APU) ToggleChannel(channel int) {
	if muted := a.muteFlag(channel); muted != nil {
		*muted = !*muted
	}
}

// SoloChannel mutes all channels except the specified one
func (a *APU) SoloChannel(channel int) {
	for i := 1; i <= 4; i++ {
		*a.muteFlag(i) = i != channel
	}
}

// UnmuteAll unmutes all channels
func (a *APU) UnmuteAll() {
	for i := 1; i <= 4; i++ {
		*a.muteFlag(i) = false
	}
}

// ChannelStatus reports which channels are enabled and audible.
func (a *APU) ChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	return !a.ch1.muted && a.ch1.enabled,
		!a.ch2.muted && a.ch2.enabled,
		!a.ch3.muted && a.ch3.enabled,
		!a.ch4.muted && a.ch4.enabled
}

func (a *APU) muteFlag(channel int) *bool {
	switch channel {
	case 1:
		return &a.ch1.muted
	case 2:
		return &a.ch2.muted
	case 3:
		return &a.ch3.muted
	case 4:
		return &a.ch4.muted
	default:
		return nil
	}
}
