package input

import (
	"time"

	"github.com/valerio/jeebie-core/jeebie/input/action"
	"github.com/valerio/jeebie-core/jeebie/input/event"
	"github.com/valerio/jeebie-core/jeebie/memory"
)

const (
	// debounceDuration is the minimum time between debounced events
	debounceDuration = 300 * time.Millisecond
)

// ButtonSetter receives Game Boy button state, usually a DMG.
type ButtonSetter interface {
	SetButton(button memory.Button, pressed bool)
}

// Manager handles input actions and their associated callbacks
type Manager struct {
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
	buttons       ButtonSetter
	now           func() time.Time
}

func NewManager(buttons ButtonSetter) *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
		buttons:       buttons,
		now:           time.Now,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type. Game Boy controls go
// straight to the button setter; presses of every other action are debounced.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if button, ok := Button(act); ok {
		if m.buttons == nil {
			return
		}
		switch evt {
		case event.Press:
			m.buttons.SetButton(button, true)
		case event.Release:
			m.buttons.SetButton(button, false)
		}
		return
	}

	if evt == event.Press {
		now := m.now()
		if m.lastTriggered[act] == nil {
			m.lastTriggered[act] = make(map[event.Type]time.Time)
		}
		if last, ok := m.lastTriggered[act][evt]; ok && now.Sub(last) < debounceDuration {
			return
		}
		m.lastTriggered[act][evt] = now
	}

	for _, callback := range m.handlers[act][evt] {
		callback()
	}
}

// Button maps Game Boy actions to joypad buttons
func Button(act action.Action) (memory.Button, bool) {
	switch act {
	case action.GBButtonA:
		return memory.ButtonA, true
	case action.GBButtonB:
		return memory.ButtonB, true
	case action.GBButtonStart:
		return memory.ButtonStart, true
	case action.GBButtonSelect:
		return memory.ButtonSelect, true
	case action.GBDPadUp:
		return memory.ButtonUp, true
	case action.GBDPadDown:
		return memory.ButtonDown, true
	case action.GBDPadLeft:
		return memory.ButtonLeft, true
	case action.GBDPadRight:
		return memory.ButtonRight, true
	default:
		return 0, false
	}
}
