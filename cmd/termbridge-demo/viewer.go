package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/termbridge/screen"
	"github.com/lixenwraith/termbridge/status"
	"github.com/lixenwraith/termbridge/terminal"
)

const (
	historySize  = 200
	metricsWidth = 36
)

// outputCycle is the order the 'o' key walks through
var outputCycle = []terminal.OutputMode{
	terminal.OutputNormal,
	terminal.Output256,
	terminal.Output216,
	terminal.OutputGrayscale,
}

// viewer renders the event history and bridge metrics
type viewer struct {
	s       *screen.Session
	reg     *status.Registry
	logger  *slog.Logger
	mailbox *screen.Mailbox
	history []terminal.Event
}

func newViewer(s *screen.Session, reg *status.Registry, logger *slog.Logger) *viewer {
	return &viewer{
		s:       s,
		reg:     reg,
		logger:  logger,
		mailbox: screen.NewMailbox(),
	}
}

// run alternates spawn, receive, release until a quit key or a poll error
func (v *viewer) run() error {
	ctx := context.Background()
	for {
		if err := v.draw(); err != nil {
			return err
		}

		h, err := v.s.PollAsync(v.mailbox)
		if err != nil {
			return err
		}
		msg, err := v.mailbox.Receive(ctx)
		h.Release()
		if err != nil {
			return err
		}

		ev := msg.Event
		v.logger.Debug("event received", "poll_id", h.ID(), "event", ev.String())
		if ev.Type == terminal.EventError {
			return ev.Err
		}

		v.record(ev)
		if quit, err := v.handle(ev); quit || err != nil {
			return err
		}
	}
}

func (v *viewer) record(ev terminal.Event) {
	v.history = append(v.history, ev)
	if len(v.history) > historySize {
		v.history = v.history[len(v.history)-historySize:]
	}
}

// handle applies demo key bindings
func (v *viewer) handle(ev terminal.Event) (quit bool, err error) {
	if ev.Type != terminal.EventKey {
		return false, nil
	}
	switch {
	case ev.Key == terminal.KeyEsc || ev.Key == terminal.KeyCtrlC || ev.Ch == 'q':
		return true, nil
	case ev.Ch == 'm':
		cur, err := v.s.SelectInputMode(terminal.InputCurrent)
		if err != nil {
			return false, err
		}
		_, err = v.s.SelectInputMode(cur ^ terminal.InputMouse)
		return false, err
	case ev.Ch == 'o':
		cur, err := v.s.SelectOutputMode(terminal.OutputCurrent)
		if err != nil {
			return false, err
		}
		next := outputCycle[0]
		for i, m := range outputCycle {
			if m == cur {
				next = outputCycle[(i+1)%len(outputCycle)]
				break
			}
		}
		_, err = v.s.SelectOutputMode(next)
		return false, err
	}
	return false, nil
}

func (v *viewer) draw() error {
	if err := v.s.Clear(); err != nil {
		return err
	}
	w, h := int(v.s.Width()), int(v.s.Height())

	input, _ := v.s.SelectInputMode(terminal.InputCurrent)
	output, _ := v.s.SelectOutputMode(terminal.OutputCurrent)
	title := fmt.Sprintf(" termbridge  %dx%d  input=%d output=%d ", w, h, input, output)
	v.fillRow(0, w, terminal.ColorBlack, terminal.ColorCyan)
	v.text(0, 0, title, terminal.ColorBlack|terminal.AttrBold, terminal.ColorCyan)
	v.text(0, 1, "m: mouse  o: output mode  q/Esc: quit", terminal.ColorYellow, terminal.ColorDefault)

	// Palette strip shows the effect of the output mode
	for i := 0; i < 16 && i*2+1 < w; i++ {
		v.s.ChangeCell(i*2, 2, ' ', terminal.ColorDefault, terminal.Attribute(i+1))
		v.s.ChangeCell(i*2+1, 2, ' ', terminal.ColorDefault, terminal.Attribute(i+1))
	}

	rows := max(h-4, 0)
	start := max(len(v.history)-rows, 0)
	for i, ev := range v.history[start:] {
		v.text(0, 4+i, ev.String(), eventColor(ev), terminal.ColorDefault)
	}

	if w > metricsWidth*2 {
		x := w - metricsWidth
		for i, sample := range v.reg.Snapshot() {
			line := fmt.Sprintf("%-22s %s", sample.Key, sample.Value)
			v.text(x, 4+i, line, terminal.ColorGreen, terminal.ColorDefault)
		}
	}
	return v.s.Present()
}

// text writes s from (x, y), advancing by display width
func (v *viewer) text(x, y int, s string, fg, bg terminal.Attribute) {
	for _, r := range s {
		v.s.ChangeCell(x, y, r, fg, bg)
		x += max(runewidth.RuneWidth(r), 1)
	}
}

func (v *viewer) fillRow(y, w int, fg, bg terminal.Attribute) {
	for x := 0; x < w; x++ {
		v.s.ChangeCell(x, y, ' ', fg, bg)
	}
}

func eventColor(ev terminal.Event) terminal.Attribute {
	switch ev.Type {
	case terminal.EventMouse:
		return terminal.ColorMagenta
	case terminal.EventResize:
		return terminal.ColorBlue | terminal.AttrBold
	case terminal.EventError:
		return terminal.ColorRed | terminal.AttrBold
	default:
		return terminal.ColorWhite
	}
}
