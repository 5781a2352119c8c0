package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	clockSpeed = 4194304

	// cyclesPerStep is the number of CPU cycles per frame sequencer tick.
	// The frame sequencer runs at 512 Hz: 4194304 Hz / 512 Hz = 8192 t-cycles
	cyclesPerStep = 8192

	// DefaultSampleRate is the rate samples are sent to the Speaker at.
	DefaultSampleRate = 44100
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles)
	waveRAMSize = 16

	lfsrInitialValue = 0x7FFF

	squareLength = 64
	waveLength   = 256

	// largest mixed amplitude is 4 channels * 15 * 8 volume steps
	sampleAmplitude = 32767 / (4 * 15 * 8)
)

// dutyPatterns holds the 8 step waveforms for 12.5%, 25%, 50% and 75% duty
var dutyPatterns = [4]uint8{0b00000001, 0b10000001, 0b10000111, 0b01111110}

// noiseDivisors maps NR43 bits 0-2 to the noise timer divisor
var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// waveShift maps the NR32 output level to a right shift of the 4 bit sample
var waveShift = [4]uint8{4, 0, 1, 2}

// readMasks are OR-ed into register reads FF10-FF26: write-only and unused
// bits read back as 1.
var readMasks = [0x17]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50-NR52
}
