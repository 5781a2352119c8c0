package memory

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// Button is a key on the Game Boy joypad.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

func (b Button) String() string {
	switch b {
	case ButtonRight:
		return "Right"
	case ButtonLeft:
		return "Left"
	case ButtonUp:
		return "Up"
	case ButtonDown:
		return "Down"
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonSelect:
		return "Select"
	case ButtonStart:
		return "Start"
	default:
		return "Unknown"
	}
}

// Joypad is the P1 register: a selector (bits 4-5) choosing which button
// group is visible on bits 0-3. A pressed button reads as 0.
type Joypad struct {
	irq Requester

	selection uint8
	buttons   uint8 // A, B, Select, Start in bits 0-3
	dpad      uint8 // Right, Left, Up, Down in bits 0-3
}

// NewJoypad returns a joypad with every button released and no group selected.
func NewJoypad(irq Requester) *Joypad {
	return &Joypad{
		irq:       irq,
		selection: 0x30,
		buttons:   0x0F,
		dpad:      0x0F,
	}
}

// Read composes P1:
//   - if bit 4 is clear, bits 0-3 are mapped to the 4 d-pad directions
//   - if bit 5 is clear, bits 0-3 are mapped to A, B, Select, Start
//   - if both are clear, both groups are ANDed together
//   - if neither is clear, bits 0-3 read 0x0F
//
// Bits 6-7 are unused and always read as 1.
func (j *Joypad) Read(uint16) byte {
	result := uint8(0xC0) | j.selection
	lines := uint8(0x0F)

	if !bit.IsSet(4, j.selection) {
		lines &= j.dpad
	}
	if !bit.IsSet(5, j.selection) {
		lines &= j.buttons
	}

	return result | lines
}

// Write updates the selection, only bits 4-5 are writable.
func (j *Joypad) Write(_ uint16, value byte) {
	j.selection = value & 0x30
}

func (j *Joypad) Tick(int) {}

// SetButton presses or releases a button. A press requests the joypad
// interrupt only while the button's group is selected in P1.
func (j *Joypad) SetButton(button Button, pressed bool) {
	group, index, selectBit := &j.dpad, uint8(button), uint8(4)
	if button >= ButtonA {
		group, index, selectBit = &j.buttons, uint8(button-ButtonA), 5
	}

	old := *group
	*group = bit.SetTo(index, *group, !pressed)

	if old&^*group != 0 && !bit.IsSet(selectBit, j.selection) {
		j.irq.Request(addr.JoypadInterrupt)
	}
}

// Pressed reports whether any button is currently held.
func (j *Joypad) Pressed() bool {
	return j.buttons&j.dpad != 0x0F
}
