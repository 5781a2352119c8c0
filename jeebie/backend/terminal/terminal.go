package terminal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/backend"
	"github.com/valerio/jeebie-core/jeebie/backend/terminal/render"
	"github.com/valerio/jeebie-core/jeebie/debug"
	"github.com/valerio/jeebie-core/jeebie/disasm"
	"github.com/valerio/jeebie-core/jeebie/input"
	"github.com/valerio/jeebie-core/jeebie/input/action"
	"github.com/valerio/jeebie-core/jeebie/input/event"
	"github.com/valerio/jeebie-core/jeebie/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	registerHeight = 10
	disasmHeight   = 9
	minTermWidth   = 80
	minTermHeight  = 24
	logCapacity    = 200

	// terminals have no key release events: a game key counts as held
	// until no repeat arrived for this long
	keyTimeout = 100 * time.Millisecond
)

// Backend implements backend.Backend on a tcell screen: the frame is drawn
// with half blocks, two pixels per cell, next to register, disassembly and
// log panels.
type Backend struct {
	screen    tcell.Screen
	logBuffer *render.LogBuffer
	logLevel  *slog.LevelVar
	config    backend.Config
	paused    bool

	eventQueue []backend.InputEvent        // non game actions, returned on the next Update
	keyStates  map[action.Action]time.Time // last time each game key was seen
	activeKeys map[action.Action]bool      // game keys held in the previous Update
	now        func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithScreen draws on the given screen instead of the terminal, e.g. a
// tcell simulation screen.
func WithScreen(screen tcell.Screen) Option {
	return func(t *Backend) {
		t.screen = screen
	}
}

// WithLogLevel sets the initial log panel filter.
func WithLogLevel(level slog.Level) Option {
	return func(t *Backend) {
		t.logLevel.Set(level)
	}
}

// New creates a new terminal backend
func New(opts ...Option) *Backend {
	t := &Backend{
		logBuffer:  render.NewLogBuffer(logCapacity),
		logLevel:   new(slog.LevelVar),
		keyStates:  make(map[action.Action]time.Time),
		activeKeys: make(map[action.Action]bool),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Logger returns a logger writing to the log panel. Its level follows the
// panel filter.
func (t *Backend) Logger() *slog.Logger {
	return slog.New(render.NewLogBufferHandler(t.logBuffer, t.logLevel))
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.Config) error {
	t.config = config

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}

	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()
	return nil
}

// Update renders a frame and processes events
func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.gameKeyEvents(now)
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	t.render(frame)
	t.screen.Show()

	return events, nil
}

// gameKeyEvents turns the key timestamps into press, hold and release events.
func (t *Backend) gameKeyEvents(now time.Time) []backend.InputEvent {
	var events []backend.InputEvent
	active := make(map[action.Action]bool)

	for act, lastSeen := range t.keyStates {
		if now.Sub(lastSeen) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		active[act] = true
		if t.activeKeys[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		}
	}

	for act := range t.activeKeys {
		if !active[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}

	t.activeKeys = active
	return events
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// HandleAction processes the actions owned by the terminal backend.
func (t *Backend) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
	case action.EmulatorPauseToggle:
		t.paused = !t.paused
	case action.DebugLogLevelIncrease:
		t.changeLogLevel(-4)
	case action.DebugLogLevelDecrease:
		t.changeLogLevel(4)
	}
}

// changeLogLevel moves the panel filter by delta, one slog level being 4
// apart, clamped to [Debug, Error].
func (t *Backend) changeLogLevel(delta slog.Level) {
	level := min(max(t.logLevel.Level()+delta, slog.LevelDebug), slog.LevelError)
	t.logLevel.Set(level)
}

// tcellKeyNames converts tcell keys to key names used in default mappings
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF1:     "F1",
	tcell.KeyF2:     "F2",
	tcell.KeyF3:     "F3",
	tcell.KeyF4:     "F4",
	tcell.KeyF10:    "F10",
	tcell.KeyF12:    "F12",
	// no modifier-only key events, so backspace stands in for Select
	tcell.KeyBackspace:  "Select",
	tcell.KeyBackspace2: "Select",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, name := range tcellKeyNames {
		if act, ok := input.GetDefaultMapping(name); ok {
			mapping[key] = act
		}
	}
	mapping[tcell.KeyCtrlC] = action.EmulatorQuit
	return mapping
}

// keyMapping maps tcell keys to actions
var keyMapping = buildKeyMapping()

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	act, ok := keyMapping[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		name := string(ev.Rune())
		if ev.Rune() == ' ' {
			name = "Space"
		}
		act, ok = input.GetDefaultMapping(name)
	}
	if !ok {
		return
	}

	if action.GetInfo(act).Category != action.CategoryGameInput {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
		return
	}

	// a terminal delivers one key at a time, so directions are exclusive
	if isDirection(act) {
		for _, dir := range []action.Action{action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight} {
			delete(t.keyStates, dir)
		}
	}
	t.keyStates[act] = now
}

func isDirection(act action.Action) bool {
	return act >= action.GBDPadUp && act <= action.GBDPadRight
}

func (t *Backend) render(frame *video.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	dividerX := width + 1
	panelX := dividerX + 2
	panelWidth := max(termWidth-panelX, 0)

	t.drawBorders(termWidth, termHeight, dividerX)
	t.drawGameBoy(frame)

	logsY := 1
	if t.config.ShowDebug && t.config.Inspector != nil {
		t.drawRegisters(panelX, 1, panelWidth)
		t.drawDisassembly(panelX, registerHeight+2, panelWidth)
		logsY = registerHeight + disasmHeight + 3
	}
	t.drawLogs(panelX, logsY, panelWidth, termHeight-logsY-1)
}

func (t *Backend) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		if i >= maxWidth {
			return
		}
		t.screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}

func (t *Backend) drawBorders(termWidth, termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	titleX := dividerX + 2
	titleWidth := termWidth - titleX

	for y := 0; y < termHeight-1; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}

	title := " Game Boy "
	if t.paused {
		title = " Game Boy [PAUSED] "
	}
	if t.config.Title != "" {
		title = strings.Replace(title, "Game Boy", t.config.Title, 1)
	}
	t.drawText(1, 0, dividerX-1, title, titleStyle)

	logsTitleY := 0
	if t.config.ShowDebug && t.config.Inspector != nil {
		for _, y := range []int{registerHeight + 1, registerHeight + disasmHeight + 2} {
			for x := dividerX + 1; x < termWidth; x++ {
				t.screen.SetContent(x, y, '─', nil, borderStyle)
			}
			t.screen.SetContent(dividerX, y, '├', nil, borderStyle)
		}
		t.drawText(titleX, 0, titleWidth, " CPU Registers ", titleStyle)
		t.drawText(titleX, registerHeight+1, titleWidth, " Disassembly ", titleStyle)
		logsTitleY = registerHeight + disasmHeight + 2
	}
	t.drawText(titleX, logsTitleY, titleWidth, fmt.Sprintf(" Logs [%s] (-/+ filter) ", t.logLevel.Level()), titleStyle)

	help := " F10=debug view  SPACE=pause  F=step frame  F12=snapshot  F1-F4/1-4/0=audio  Q=quit "
	t.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

var shadeColors = [4]tcell.Color{
	render.ShadeBlack: tcell.ColorBlack,
	render.ShadeDark:  tcell.ColorGray,
	render.ShadeLight: tcell.ColorSilver,
	render.ShadeWhite: tcell.ColorWhite,
}

func (t *Backend) drawGameBoy(frame *video.FrameBuffer) {
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := render.PixelToShade(frame.GetPixel(x, y))
			bottom := render.PixelToShade(frame.GetPixel(x, y+1))

			style := tcell.StyleDefault.Foreground(shadeColors[top]).Background(shadeColors[bottom])
			t.screen.SetContent(x, y/2+1, render.HalfBlock(top, bottom), nil, style)
		}
	}
}

func (t *Backend) drawRegisters(x, y, maxWidth int) {
	c := t.config.Inspector.CPU()
	r := c.Registers()
	ie := t.config.Inspector.Peek(addr.IE)
	iflag := t.config.Inspector.Peek(addr.IF)
	ly := t.config.Inspector.Peek(addr.LY)

	status := "RUNNING"
	switch {
	case t.paused:
		status = "PAUSED"
	case c.Locked():
		status = "LOCKED"
	case c.Stopped():
		status = "STOPPED"
	case c.Halted():
		status = "HALTED"
	}

	ime := "OFF"
	if c.IME() {
		ime = "ON"
	}

	var pending []string
	for _, interrupt := range addr.Interrupts {
		if ie&iflag&uint8(interrupt) != 0 {
			pending = append(pending, interrupt.String())
		}
	}
	if len(pending) == 0 {
		pending = append(pending, "none")
	}

	lines := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("A: 0x%02X  F: 0x%02X  [%s]", r.A, r.F, c.FlagString()),
		fmt.Sprintf("B: 0x%02X  C: 0x%02X", r.B, r.C),
		fmt.Sprintf("D: 0x%02X  E: 0x%02X", r.D, r.E),
		fmt.Sprintf("H: 0x%02X  L: 0x%02X", r.H, r.L),
		fmt.Sprintf("SP: 0x%04X  PC: 0x%04X", r.SP, r.PC),
		fmt.Sprintf("IME: %s  IE: 0x%02X  IF: 0x%02X", ime, ie, iflag),
		fmt.Sprintf("Pending: %s", strings.Join(pending, ", ")),
		fmt.Sprintf("LY: %d  OBJ on line: %d/%d", ly, len(debug.SpritesOnLine(t.config.Inspector, int(ly))), debug.MaxSpritesPerLine),
		fmt.Sprintf("Cycles: %d", c.Cycles()),
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range lines[:min(len(lines), registerHeight)] {
		t.drawText(x, y+i, maxWidth, line, style)
	}
}

// peekReader adapts an Inspector to the disassembler.
type peekReader struct {
	inspector backend.Inspector
}

func (p peekReader) Read(address uint16) uint8 {
	return p.inspector.Peek(address)
}

func (t *Backend) drawDisassembly(x, y, maxWidth int) {
	pc := t.config.Inspector.CPU().PC()
	lines := disasm.DisassembleAround(pc, disasmHeight/2, disasmHeight/2, peekReader{t.config.Inspector})

	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, line := range lines[:min(len(lines), disasmHeight)] {
		lineStyle := style
		if line.Address == pc {
			lineStyle = currentStyle
		}
		t.drawText(x, y+i, maxWidth, disasm.FormatDisassemblyLine(line, line.Address == pc), lineStyle)
	}
}

func (t *Backend) drawLogs(x, y, maxWidth, rows int) {
	if maxWidth <= 0 || rows <= 0 {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}

	for i, entry := range t.logBuffer.GetRecent(rows, t.logLevel.Level()) {
		text := render.FormatLogEntry(entry)
		if len(text) > maxWidth && maxWidth > 3 {
			text = text[:maxWidth-3] + "..."
		}
		style, ok := styles[entry.Level]
		if !ok {
			style = styles[slog.LevelInfo]
		}
		t.drawText(x, y+i, maxWidth, text, style)
	}
}
