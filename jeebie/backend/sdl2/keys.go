//go:build sdl2

package sdl2

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/jeebie-core/jeebie/backend"
	"github.com/valerio/jeebie-core/jeebie/input"
	"github.com/valerio/jeebie-core/jeebie/input/action"
)

// sdlKeyNames converts SDL keycodes to key names used in default mappings
var sdlKeyNames = map[sdl.Keycode]string{
	sdl.K_RETURN: "Enter",
	sdl.K_RSHIFT: "Shift",
	sdl.K_LSHIFT: "Shift",
	sdl.K_UP:     "Up",
	sdl.K_DOWN:   "Down",
	sdl.K_LEFT:   "Left",
	sdl.K_RIGHT:  "Right",
	sdl.K_ESCAPE: "Escape",
	sdl.K_SPACE:  "Space",
	sdl.K_F1:     "F1",
	sdl.K_F2:     "F2",
	sdl.K_F3:     "F3",
	sdl.K_F4:     "F4",
	sdl.K_F10:    "F10",
	sdl.K_F12:    "F12",
	sdl.K_PLUS:   "+",
	sdl.K_EQUALS: "=",
	sdl.K_MINUS:  "-",
}

// keyAction maps an SDL keycode to its default action. Printable keys use
// their character as name.
func keyAction(key sdl.Keycode) (action.Action, bool) {
	if name, ok := sdlKeyNames[key]; ok {
		return input.GetDefaultMapping(name)
	}
	if key >= sdl.K_0 && key <= sdl.K_9 || key >= sdl.K_a && key <= sdl.K_z {
		return input.GetDefaultMapping(string(rune(key)))
	}
	return 0, false
}

// debugTitle renders the CPU state for the window title.
func debugTitle(title string, inspector backend.Inspector) string {
	r := inspector.CPU().Registers()
	return fmt.Sprintf("%s | PC=%04X SP=%04X AF=%04X BC=%04X DE=%04X HL=%04X",
		title, r.PC, r.SP, r.AF(), r.BC(), r.DE(), r.HL())
}
