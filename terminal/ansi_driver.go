package terminal

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// eventQueueSize bounds events parsed ahead of the consumer
const eventQueueSize = 256

// eventPipe is the per-Init delivery path; replaced on every Init
type eventPipe struct {
	events chan Event
	closed chan struct{}
}

// ANSIDriver drives an xterm-compatible terminal through a Backend,
// bypassing terminfo and emitting direct ANSI sequences.
type ANSIDriver struct {
	backend Backend

	mu        sync.Mutex
	back      *CellBuffer
	output    *outputBuffer
	parser    *inputParser
	inputMode InputMode
	cursorX   int
	cursorY   int
	active    bool

	escTimeout time.Duration

	resizePending atomic.Bool
	pipe          atomic.Pointer[eventPipe]
	cancel        context.CancelFunc
	group         *errgroup.Group
}

// ANSIOption configures an ANSIDriver
type ANSIOption func(*ANSIDriver)

// WithEscapeTimeout sets how long a lone ESC waits for a following sequence
func WithEscapeTimeout(timeout time.Duration) ANSIOption {
	return func(d *ANSIDriver) {
		if timeout > 0 {
			d.escTimeout = timeout
		}
	}
}

// NewANSIDriver creates a driver over backend; nil selects the controlling tty
func NewANSIDriver(backend Backend, opts ...ANSIOption) *ANSIDriver {
	if backend == nil {
		backend = NewBackend()
	}
	d := &ANSIDriver{
		backend:    backend,
		back:       NewCellBuffer(0, 0),
		output:     newOutputBuffer(backend),
		parser:     newInputParser(),
		cursorX:    HideCursor,
		cursorY:    HideCursor,
		escTimeout: escapeTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name identifies the driver
func (d *ANSIDriver) Name() string { return "ansi" }

// Exclusive is always true: the driver owns the process tty
func (d *ANSIDriver) Exclusive() bool { return true }

// Init enters raw mode and sets up terminal
func (d *ANSIDriver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	// Initialize backend (raw mode)
	if err := d.backend.Init(); err != nil {
		var initErr *InitError
		if errors.As(err, &initErr) {
			return err
		}
		return &InitError{Code: CodeFailedToOpenTTY, Err: err}
	}

	w, h := d.backend.Size()
	d.back.Resize(w, h)
	d.back.Clear(Cell{Ch: ' '})
	d.output.resize(w, h)
	d.output.setMode(OutputNormal)
	d.inputMode = InputEsc
	d.parser.setMode(InputEsc)
	d.cursorX, d.cursorY = HideCursor, HideCursor
	d.resizePending.Store(false)

	// Enter alternate screen, keypad mode, hide cursor, disable auto-wrap
	// Auto-wrap off prevents terminal scroll on bottom-right corner write
	if err := d.output.writeRaw(csiAltScreenEnter, csiKeypadOn, csiCursorHide, csiAutoWrapOff); err != nil {
		d.backend.Fini()
		return &InitError{Code: CodeFailedToOpenTTY, Err: err}
	}
	d.output.clear()

	p := &eventPipe{
		events: make(chan Event, eventQueueSize),
		closed: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	emit := func(ev Event) {
		select {
		case p.events <- ev:
		case <-gctx.Done():
		}
	}

	d.backend.SetResizeHandler(func(w, h int) {
		d.resizePending.Store(true)
		emit(Event{Type: EventResize, Width: int32(w), Height: int32(h)})
	})

	raw := make(chan []byte, 16)
	g.Go(func() error { return d.readLoop(gctx, raw, emit) })
	timeout := d.escTimeout
	g.Go(func() error { return d.parseLoop(gctx, raw, emit, timeout) })

	d.cancel = cancel
	d.group = g
	d.pipe.Store(p)
	d.active = true
	return nil
}

// readLoop moves raw bytes from the backend to the parser
func (d *ANSIDriver) readLoop(ctx context.Context, raw chan<- []byte, emit func(Event)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("input reader panic: %v\n%s", r, debug.Stack())
			EmergencyReset(d.backend)
			emit(ErrorEvent(err))
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := d.backend.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrClosed) {
				return nil
			}
			emit(ErrorEvent(fmt.Errorf("terminal read: %w", err)))
			return err
		}
		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case raw <- data:
		case <-ctx.Done():
			return nil
		}
	}
}

// parseLoop owns the escape timer; a lone ESC is resolved after timeout
func (d *ANSIDriver) parseLoop(ctx context.Context, raw <-chan []byte, emit func(Event), timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-raw:
			if d.parser.feed(data, emit) {
				timer.Reset(timeout)
			} else {
				timer.Stop()
			}
		case <-timer.C:
			d.parser.flush(emit)
		}
	}
}

// Fini restores terminal state
func (d *ANSIDriver) Fini() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return
	}
	d.active = false

	// Unblock pollers first, then stop the input goroutines
	close(d.pipe.Load().closed)
	d.cancel()
	d.backend.CancelRead()
	d.group.Wait()

	// Disable mouse before other cleanup
	if d.inputMode&InputMouse != 0 {
		d.output.writeRaw(csiMouseDragOff, csiMouseClickOff, csiMouseSGROff)
	}

	// Re-enable Auto-Wrap AFTER exiting alt screen to ensure the main buffer has wrap enabled
	d.output.writeRaw(csiKeypadOff, csiCursorShow, csiSGR0, csiClear, csiAltScreenExit, csiAutoWrapOn)

	d.backend.Fini()
}

// Size returns current terminal dimensions
func (d *ANSIDriver) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncSize()
	return d.back.Size()
}

// syncSize applies a pending resize to the back buffer; caller holds d.mu
func (d *ANSIDriver) syncSize() {
	if !d.resizePending.Swap(false) {
		return
	}
	w, h := d.backend.Size()
	d.back.Resize(w, h)
	d.output.resize(w, h)
	d.output.clear()
}

// Clear fills the back buffer with blanks
func (d *ANSIDriver) Clear(fg, bg Attribute) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncSize()
	d.back.Clear(Cell{Ch: ' ', Fg: fg, Bg: bg})
}

// SetCell writes one cell to the back buffer
func (d *ANSIDriver) SetCell(x, y int, ch rune, fg, bg Attribute) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.back.Set(x, y, Cell{Ch: ch, Fg: fg, Bg: bg})
}

// CellAt reads back one cell
func (d *ANSIDriver) CellAt(x, y int) (Cell, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.back.Get(x, y)
}

// Present flushes the back buffer to the terminal
func (d *ANSIDriver) Present() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return ErrClosed
	}
	d.syncSize()
	if err := d.output.flush(d.back); err != nil {
		return err
	}
	if d.cursorX != HideCursor || d.cursorY != HideCursor {
		d.output.moveCursor(d.cursorX, d.cursorY)
	}
	return d.output.writer.Flush()
}

// SetCursor positions the cursor; it becomes visible on the next Present
func (d *ANSIDriver) SetCursor(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if x == HideCursor && y == HideCursor {
		if d.cursorX != HideCursor || d.cursorY != HideCursor {
			d.output.moveCursor(HideCursor, HideCursor)
		}
	} else {
		d.output.moveCursor(x, y)
	}
	d.cursorX, d.cursorY = x, y
}

// SetInputMode applies ESC handling and toggles mouse reporting
func (d *ANSIDriver) SetInputMode(mode InputMode) {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.inputMode
	d.inputMode = mode
	d.parser.setMode(mode)

	if !d.active {
		return
	}
	switch {
	case mode&InputMouse != 0 && old&InputMouse == 0:
		// Enable SGR first so the first report already uses extended coordinates
		d.output.writeRaw(csiMouseSGROn, csiMouseClickOn, csiMouseDragOn)
	case mode&InputMouse == 0 && old&InputMouse != 0:
		d.output.writeRaw(csiMouseDragOff, csiMouseClickOff, csiMouseSGROff)
	}
}

// SetOutputMode changes color translation for subsequent presents
func (d *ANSIDriver) SetOutputMode(mode OutputMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.output.setMode(mode)
}

// PollEvent blocks until next input event
func (d *ANSIDriver) PollEvent(ctx context.Context) (Event, error) {
	p := d.pipe.Load()
	if p == nil {
		return Event{}, ErrClosed
	}

	// Closed takes priority over queued input
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
