package action

import "fmt"

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorDebugToggle
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorQuit

	// Audio debugging
	AudioToggleChannel1
	AudioToggleChannel2
	AudioToggleChannel3
	AudioToggleChannel4
	AudioSoloChannel1
	AudioSoloChannel2
	AudioSoloChannel3
	AudioSoloChannel4
	AudioUnmuteAll

	// Log filtering
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

// Category groups actions by who consumes them.
type Category int

const (
	CategoryGameInput Category = iota
	CategoryEmulator
	CategoryAudio
	CategoryDebug
)

// Info describes an action.
type Info struct {
	Description string
	Category    Category
}

var infos = map[Action]Info{
	GBButtonA:             {"A", CategoryGameInput},
	GBButtonB:             {"B", CategoryGameInput},
	GBButtonStart:         {"Start", CategoryGameInput},
	GBButtonSelect:        {"Select", CategoryGameInput},
	GBDPadUp:              {"Up", CategoryGameInput},
	GBDPadDown:            {"Down", CategoryGameInput},
	GBDPadLeft:            {"Left", CategoryGameInput},
	GBDPadRight:           {"Right", CategoryGameInput},
	EmulatorDebugToggle:   {"Toggle debug view", CategoryEmulator},
	EmulatorSnapshot:      {"Snapshot", CategoryEmulator},
	EmulatorPauseToggle:   {"Pause/resume", CategoryEmulator},
	EmulatorStepFrame:     {"Step frame", CategoryEmulator},
	EmulatorQuit:          {"Quit", CategoryEmulator},
	AudioToggleChannel1:   {"Toggle channel 1", CategoryAudio},
	AudioToggleChannel2:   {"Toggle channel 2", CategoryAudio},
	AudioToggleChannel3:   {"Toggle channel 3", CategoryAudio},
	AudioToggleChannel4:   {"Toggle channel 4", CategoryAudio},
	AudioSoloChannel1:     {"Solo channel 1", CategoryAudio},
	AudioSoloChannel2:     {"Solo channel 2", CategoryAudio},
	AudioSoloChannel3:     {"Solo channel 3", CategoryAudio},
	AudioSoloChannel4:     {"Solo channel 4", CategoryAudio},
	AudioUnmuteAll:        {"Unmute all channels", CategoryAudio},
	DebugLogLevelIncrease: {"More logs", CategoryDebug},
	DebugLogLevelDecrease: {"Fewer logs", CategoryDebug},
}

// GetInfo returns the description and category of an action.
func GetInfo(act Action) Info {
	if info, ok := infos[act]; ok {
		return info
	}
	return Info{Description: fmt.Sprintf("Action(%d)", int(act)), Category: CategoryDebug}
}

func (a Action) String() string {
	return GetInfo(a).Description
}
