package screen

import (
	"context"
	"sync"

	"github.com/lixenwraith/termbridge/terminal"
)

// fakeDriver is a scriptable in-memory driver; events are pushed through send
type fakeDriver struct {
	mu         sync.Mutex
	buf        *terminal.CellBuffer
	events     chan terminal.Event
	closed     chan struct{}
	active     bool
	exclusive  bool
	initErr    error
	inputMode  terminal.InputMode
	outputMode terminal.OutputMode
	presents   int
}

func newFakeDriver(exclusive bool) *fakeDriver {
	return &fakeDriver{
		buf:       terminal.NewCellBuffer(0, 0),
		events:    make(chan terminal.Event, 16),
		exclusive: exclusive,
	}
}

func (d *fakeDriver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initErr != nil {
		return d.initErr
	}
	d.buf.Resize(40, 10)
	d.closed = make(chan struct{})
	d.active = true
	return nil
}

func (d *fakeDriver) Fini() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		d.active = false
		close(d.closed)
	}
}

func (d *fakeDriver) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Size()
}

func (d *fakeDriver) Clear(fg, bg terminal.Attribute) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Clear(terminal.Cell{Ch: ' ', Fg: fg, Bg: bg})
}

func (d *fakeDriver) SetCell(x, y int, ch rune, fg, bg terminal.Attribute) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Set(x, y, terminal.Cell{Ch: ch, Fg: fg, Bg: bg})
}

func (d *fakeDriver) CellAt(x, y int) (terminal.Cell, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Get(x, y)
}

func (d *fakeDriver) Present() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return terminal.ErrClosed
	}
	d.presents++
	return nil
}

func (d *fakeDriver) SetCursor(x, y int) {}

func (d *fakeDriver) SetInputMode(mode terminal.InputMode) {
	d.mu.Lock()
	d.inputMode = mode
	d.mu.Unlock()
}

func (d *fakeDriver) SetOutputMode(mode terminal.OutputMode) {
	d.mu.Lock()
	d.outputMode = mode
	d.mu.Unlock()
}

func (d *fakeDriver) PollEvent(ctx context.Context) (terminal.Event, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed == nil {
		return terminal.Event{}, terminal.ErrClosed
	}
	select {
	case <-closed:
		return terminal.Event{}, terminal.ErrClosed
	case <-ctx.Done():
		return terminal.Event{}, ctx.Err()
	case ev := <-d.events:
		return ev, nil
	}
}

func (d *fakeDriver) Exclusive() bool { return d.exclusive }

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) send(ev terminal.Event) { d.events <- ev }
