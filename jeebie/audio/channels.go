package audio

// lengthCounter silences a channel once it has counted down to zero.
type lengthCounter struct {
	counter int
	enabled bool
}

func (l *lengthCounter) load(value, max int) {
	l.counter = max - value
}

// clock returns false when the channel must be disabled.
func (l *lengthCounter) clock() bool {
	if !l.enabled || l.counter == 0 {
		return true
	}
	l.counter--
	return l.counter != 0
}

func (l *lengthCounter) trigger(max int) {
	if l.counter == 0 {
		l.counter = max
	}
}

type envelope struct {
	initial uint8
	up      bool
	pace    uint8
	timer   uint8
	volume  uint8
}

func (e *envelope) write(value uint8) {
	e.initial = value >> 4
	e.up = value&0x08 != 0
	e.pace = value & 0x07
}

func (e *envelope) trigger() {
	e.volume = e.initial
	e.timer = e.pace
}

func (e *envelope) clock() {
	if e.pace == 0 {
		return
	}
	e.timer--
	if e.timer > 0 {
		return
	}
	e.timer = e.pace
	if e.up && e.volume < 15 {
		e.volume++
	} else if !e.up && e.volume > 0 {
		e.volume--
	}
}

// square is a pulse channel; channel 1 adds the frequency sweep.
type square struct {
	enabled bool
	dac     bool
	muted   bool

	duty     uint8
	dutyStep uint8
	period   uint16 // 11 bit
	timer    int

	length   lengthCounter
	envelope envelope

	sweepPace    uint8
	sweepDown    bool
	sweepStep    uint8
	sweepTimer   uint8
	sweepEnabled bool
	shadow       uint16
}

func (s *square) timerPeriod() int {
	return (2048 - int(s.period)) * 4
}

func (s *square) tick(cycles int) {
	s.timer -= cycles
	for s.timer <= 0 {
		s.timer += s.timerPeriod()
		s.dutyStep = (s.dutyStep + 1) & 7
	}
}

func (s *square) output() uint8 {
	if !s.enabled || !s.dac {
		return 0
	}
	if dutyPatterns[s.duty]>>(7-s.dutyStep)&1 == 0 {
		return 0
	}
	return s.envelope.volume
}

func (s *square) trigger() {
	s.enabled = s.dac
	s.length.trigger(squareLength)
	s.timer = s.timerPeriod()
	s.envelope.trigger()

	s.shadow = s.period
	s.sweepTimer = s.sweepPace
	if s.sweepTimer == 0 {
		s.sweepTimer = 8
	}
	s.sweepEnabled = s.sweepPace != 0 || s.sweepStep != 0
	if s.sweepStep != 0 {
		s.nextSweep()
	}
}

// nextSweep computes the next swept period, disabling the channel on overflow.
func (s *square) nextSweep() uint16 {
	delta := s.shadow >> s.sweepStep
	next := s.shadow + delta
	if s.sweepDown {
		next = s.shadow - delta
	}
	if next > 2047 {
		s.enabled = false
	}
	return next
}

func (s *square) clockSweep() {
	if s.sweepTimer > 0 {
		s.sweepTimer--
	}
	if s.sweepTimer > 0 {
		return
	}
	s.sweepTimer = s.sweepPace
	if s.sweepTimer == 0 {
		s.sweepTimer = 8
	}
	if !s.sweepEnabled || s.sweepPace == 0 {
		return
	}

	next := s.nextSweep()
	if next <= 2047 && s.sweepStep != 0 {
		s.shadow = next
		s.period = next
		s.nextSweep()
	}
}

// wave plays 32 4-bit samples from wave RAM.
type wave struct {
	enabled bool
	dac     bool
	muted   bool

	level    uint8
	period   uint16
	timer    int
	position uint8
	ram      [waveRAMSize]uint8

	length lengthCounter
}

func (w *wave) timerPeriod() int {
	return (2048 - int(w.period)) * 2
}

func (w *wave) tick(cycles int) {
	w.timer -= cycles
	for w.timer <= 0 {
		w.timer += w.timerPeriod()
		w.position = (w.position + 1) & 31
	}
}

func (w *wave) output() uint8 {
	if !w.enabled || !w.dac {
		return 0
	}
	sample := w.ram[w.position/2]
	if w.position&1 == 0 {
		sample >>= 4
	}
	return (sample & 0x0F) >> waveShift[w.level]
}

func (w *wave) trigger() {
	w.enabled = w.dac
	w.length.trigger(waveLength)
	w.timer = w.timerPeriod()
	w.position = 0
}

// noise outputs the low bit of a 15 (or 7) bit LFSR.
type noise struct {
	enabled bool
	dac     bool
	muted   bool

	shift   uint8
	narrow  bool
	divisor uint8
	timer   int
	lfsr    uint16

	length   lengthCounter
	envelope envelope
}

func (n *noise) timerPeriod() int {
	return noiseDivisors[n.divisor] << n.shift
}

func (n *noise) tick(cycles int) {
	n.timer -= cycles
	for n.timer <= 0 {
		n.timer += n.timerPeriod()
		feedback := (n.lfsr ^ n.lfsr>>1) & 1
		n.lfsr = n.lfsr>>1 | feedback<<14
		if n.narrow {
			n.lfsr = n.lfsr&^(1<<6) | feedback<<6
		}
	}
}

func (n *noise) output() uint8 {
	if !n.enabled || !n.dac || n.lfsr&1 != 0 {
		return 0
	}
	return n.envelope.volume
}

func (n *noise) trigger() {
	n.enabled = n.dac
	n.length.trigger(squareLength)
	n.timer = n.timerPeriod()
	n.lfsr = lfsrInitialValue
	n.envelope.trigger()
}
