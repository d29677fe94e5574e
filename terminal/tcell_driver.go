// @focus: #sys { term } #adapter { tcell }
package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// TcellDriver adapts a tcell.Screen to the Driver contract.
// A tcell.SimulationScreen makes it a headless, non-exclusive driver.
type TcellDriver struct {
	screen tcell.Screen

	mu         sync.Mutex
	shadow     *CellBuffer
	outputMode OutputMode
	active     bool

	pipe atomic.Pointer[eventPipe]
	quit chan struct{}
	done chan struct{}
}

// NewTcellDriver wraps screen; nil creates a screen for the current terminal on Init
func NewTcellDriver(screen tcell.Screen) *TcellDriver {
	return &TcellDriver{
		screen:     screen,
		shadow:     NewCellBuffer(0, 0),
		outputMode: OutputNormal,
	}
}

// Screen exposes the wrapped screen, mainly for injecting simulated input
func (d *TcellDriver) Screen() tcell.Screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen
}

// Name identifies the driver
func (d *TcellDriver) Name() string {
	if d.simulated() {
		return "tcell-sim"
	}
	return "tcell"
}

// Exclusive reports whether the screen is bound to the process terminal
func (d *TcellDriver) Exclusive() bool {
	return !d.simulated()
}

func (d *TcellDriver) simulated() bool {
	_, ok := d.screen.(tcell.SimulationScreen)
	return ok
}

// Init initializes the screen and starts the event pump
func (d *TcellDriver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	if d.screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return &InitError{Code: initCode(err), Err: err}
		}
		d.screen = s
	}
	if err := d.screen.Init(); err != nil {
		return &InitError{Code: initCode(err), Err: err}
	}

	d.screen.HideCursor()
	d.screen.DisableMouse()
	d.outputMode = OutputNormal

	w, h := d.screen.Size()
	d.shadow.Resize(w, h)
	d.shadow.Clear(Cell{Ch: ' '})

	p := &eventPipe{
		events: make(chan Event, eventQueueSize),
		closed: make(chan struct{}),
	}
	d.quit = make(chan struct{})
	d.done = make(chan struct{})
	d.pipe.Store(p)
	go d.pump(p, d.quit, d.done)

	d.active = true
	return nil
}

// pump translates tcell events until quit or Fini closes the source
func (d *TcellDriver) pump(p *eventPipe, quit, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			if d.Exclusive() {
				EmergencyReset(os.Stdout)
			}
			err := fmt.Errorf("tcell event pump panic: %v\n%s", r, debug.Stack())
			select {
			case p.events <- ErrorEvent(err):
			default:
			}
		}
	}()

	src := make(chan tcell.Event, eventQueueSize)
	go d.screen.ChannelEvents(src, quit)

	for tev := range src {
		ev, ok := translateEvent(tev)
		if !ok {
			continue
		}
		if ev.Type == EventResize {
			d.mu.Lock()
			d.shadow.Resize(int(ev.Width), int(ev.Height))
			d.mu.Unlock()
		}
		select {
		case p.events <- ev:
		case <-quit:
			// Drain so ChannelEvents can observe quit and return
			for range src {
			}
			return
		}
	}
}

// Fini finalizes the screen; pending PollEvent calls return ErrClosed
func (d *TcellDriver) Fini() {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	close(d.pipe.Load().closed)
	close(d.quit)
	done := d.done
	screen := d.screen
	d.mu.Unlock()

	// pump takes d.mu on resize, wait outside the lock
	<-done
	screen.Fini()
}

// Size returns current screen dimensions
func (d *TcellDriver) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		d.syncSize()
	}
	return d.shadow.Size()
}

// Clear fills the screen with blanks in the given attributes
func (d *TcellDriver) Clear(fg, bg Attribute) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen == nil {
		return
	}
	d.syncSize()
	d.shadow.Clear(Cell{Ch: ' ', Fg: fg, Bg: bg})
	d.screen.Fill(' ', d.style(fg, bg))
}

// syncSize catches up with a resize the pump has not delivered yet; caller holds d.mu
func (d *TcellDriver) syncSize() {
	w, h := d.screen.Size()
	d.shadow.Resize(w, h)
}

// SetCell writes one cell
func (d *TcellDriver) SetCell(x, y int, ch rune, fg, bg Attribute) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen == nil || !d.shadow.InBounds(x, y) {
		return
	}
	d.shadow.Set(x, y, Cell{Ch: ch, Fg: fg, Bg: bg})
	if ch == 0 {
		ch = ' '
	}
	d.screen.SetContent(x, y, ch, nil, d.style(fg, bg))
}

// CellAt reads back one cell from the shadow buffer
func (d *TcellDriver) CellAt(x, y int) (Cell, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shadow.Get(x, y)
}

// Present flushes pending changes
func (d *TcellDriver) Present() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return ErrClosed
	}
	d.screen.Show()
	return nil
}

// SetCursor positions the cursor; (-1, -1) hides it
func (d *TcellDriver) SetCursor(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen == nil {
		return
	}
	if x == HideCursor && y == HideCursor {
		d.screen.HideCursor()
		return
	}
	d.screen.ShowCursor(x, y)
}

// SetInputMode toggles mouse reporting; ESC handling is tcell's own
func (d *TcellDriver) SetInputMode(mode InputMode) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen == nil {
		return
	}
	if mode&InputMouse != 0 {
		d.screen.EnableMouse(tcell.MouseButtonEvents, tcell.MouseDragEvents)
	} else {
		d.screen.DisableMouse()
	}
}

// SetOutputMode changes color translation for cells written afterwards
func (d *TcellDriver) SetOutputMode(mode OutputMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputMode = mode
}

// PollEvent blocks until next input event
func (d *TcellDriver) PollEvent(ctx context.Context) (Event, error) {
	p := d.pipe.Load()
	if p == nil {
		return Event{}, ErrClosed
	}

	select {
	case <-p.closed:
		return Event{}, ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-p.closed:
		return Event{}, ErrClosed
	case ev := <-p.events:
		return ev, nil
	}
}

// style maps attributes to a tcell style under the current output mode
func (d *TcellDriver) style(fg, bg Attribute) tcell.Style {
	st := tcell.StyleDefault.
		Foreground(tcellColor(fg, d.outputMode)).
		Background(tcellColor(bg, d.outputMode))
	if fg&AttrBold != 0 {
		st = st.Bold(true)
	}
	if bg&AttrBold != 0 {
		st = st.Blink(true)
	}
	if fg&AttrUnderline != 0 {
		st = st.Underline(true)
	}
	if (fg|bg)&AttrReverse != 0 {
		st = st.Reverse(true)
	}
	return st
}

func tcellColor(a Attribute, mode OutputMode) tcell.Color {
	idx, ok := ColorIndex(a, mode)
	if !ok {
		return tcell.ColorDefault
	}
	return tcell.PaletteColor(idx)
}

// initCode maps tcell init failures onto the classic codes
func initCode(err error) int {
	switch {
	case errors.Is(err, tcell.ErrTermNotFound), errors.Is(err, tcell.ErrNoCharset):
		return CodeUnsupportedTerminal
	default:
		return CodeFailedToOpenTTY
	}
}

// namedKeys maps tcell special keys onto termbox codes
var namedKeys = map[tcell.Key]Key{
	tcell.KeyF1:      KeyF1,
	tcell.KeyF2:      KeyF2,
	tcell.KeyF3:      KeyF3,
	tcell.KeyF4:      KeyF4,
	tcell.KeyF5:      KeyF5,
	tcell.KeyF6:      KeyF6,
	tcell.KeyF7:      KeyF7,
	tcell.KeyF8:      KeyF8,
	tcell.KeyF9:      KeyF9,
	tcell.KeyF10:     KeyF10,
	tcell.KeyF11:     KeyF11,
	tcell.KeyF12:     KeyF12,
	tcell.KeyInsert:  KeyInsert,
	tcell.KeyDelete:  KeyDelete,
	tcell.KeyHome:    KeyHome,
	tcell.KeyEnd:     KeyEnd,
	tcell.KeyPgUp:    KeyPgup,
	tcell.KeyPgDn:    KeyPgdn,
	tcell.KeyUp:      KeyArrowUp,
	tcell.KeyDown:    KeyArrowDown,
	tcell.KeyLeft:    KeyArrowLeft,
	tcell.KeyRight:   KeyArrowRight,
	tcell.KeyBacktab: KeyTab,
}

// translateEvent converts a tcell event; ok is false for events with no equivalent
func translateEvent(tev tcell.Event) (Event, bool) {
	switch ev := tev.(type) {
	case *tcell.EventKey:
		return translateKey(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		return Event{Type: EventResize, Width: int32(w), Height: int32(h)}, true
	case *tcell.EventMouse:
		return translateMouse(ev), true
	case *tcell.EventError:
		return ErrorEvent(ev), true
	default:
		return Event{}, false
	}
}

func translateKey(ev *tcell.EventKey) (Event, bool) {
	out := Event{Type: EventKey}
	if ev.Modifiers()&tcell.ModAlt != 0 {
		out.Mod |= ModAlt
	}

	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		if ev.Rune() == ' ' {
			out.Key = KeySpace
		} else {
			out.Ch = ev.Rune()
		}
	case k >= tcell.KeyCtrlSpace && k <= tcell.KeyCtrlUnderscore:
		// tcell offsets Ctrl+letter by '@', termbox uses the control byte
		out.Key = Key(k - tcell.KeyCtrlSpace)
	case k < 0x20 || k == 0x7F:
		out.Key = Key(k)
	default:
		named, ok := namedKeys[k]
		if !ok {
			return Event{}, false
		}
		out.Key = named
	}
	return out, true
}

func translateMouse(ev *tcell.EventMouse) Event {
	x, y := ev.Position()
	out := Event{Type: EventMouse, X: int32(x), Y: int32(y)}
	if ev.Modifiers()&tcell.ModAlt != 0 {
		out.Mod |= ModAlt
	}

	btn := ev.Buttons()
	switch {
	case btn&tcell.WheelUp != 0:
		out.Key = MouseWheelUp
	case btn&tcell.WheelDown != 0:
		out.Key = MouseWheelDown
	case btn&tcell.Button1 != 0:
		out.Key = MouseLeft
	case btn&tcell.Button3 != 0:
		out.Key = MouseMiddle
	case btn&tcell.Button2 != 0:
		out.Key = MouseRight
	default:
		out.Key = MouseRelease
	}
	return out
}
