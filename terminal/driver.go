package terminal

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by PollEvent once the driver has been finalized
	ErrClosed = errors.New("terminal: driver closed")
	// ErrNotTerminal is returned when the controlling device is not a tty
	ErrNotTerminal = errors.New("terminal: not a terminal")
)

// Init failure codes, compatible with the classic termbox values
const (
	CodeUnsupportedTerminal = -1
	CodeFailedToOpenTTY     = -2
	CodePipeTrapError       = -3
)

// InitError reports why a driver refused to enter raw mode
type InitError struct {
	Code int
	Err  error
}

func (e *InitError) Error() string {
	var reason string
	switch e.Code {
	case CodeUnsupportedTerminal:
		reason = "unsupported terminal"
	case CodeFailedToOpenTTY:
		reason = "failed to open tty"
	case CodePipeTrapError:
		reason = "pipe trap error"
	default:
		reason = fmt.Sprintf("code %d", e.Code)
	}
	if e.Err == nil {
		return "terminal init: " + reason
	}
	return fmt.Sprintf("terminal init: %s: %v", reason, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Driver is the low-level terminal contract the screen session builds on.
//
// All methods except PollEvent are invoked by a single owner at a time.
// PollEvent may run concurrently with any other method and must return
// ErrClosed (promptly) once Fini has been called.
type Driver interface {
	// Init enters raw mode, alternate screen, hides cursor
	Init() error

	// Fini restores terminal state. Safe to call multiple times
	Fini()

	// Size returns current terminal dimensions
	Size() (width, height int)

	// Clear fills the back buffer with blanks in the given attributes
	Clear(fg, bg Attribute)

	// SetCell writes a cell into the back buffer, ignoring out-of-range coordinates
	SetCell(x, y int, ch rune, fg, bg Attribute)

	// CellAt reads back a cell from the back buffer
	CellAt(x, y int) (Cell, bool)

	// Present flushes the back buffer to the terminal
	Present() error

	// SetCursor positions the cursor; (-1, -1) hides it
	SetCursor(x, y int)

	// SetInputMode applies an already normalized input mode
	SetInputMode(mode InputMode)

	// SetOutputMode applies a concrete (non-current) output mode
	SetOutputMode(mode OutputMode)

	// PollEvent blocks until an event arrives, ctx is done, or the driver closes
	PollEvent(ctx context.Context) (Event, error)

	// Exclusive reports whether the driver owns the process terminal
	Exclusive() bool

	// Name identifies the driver in logs and metrics
	Name() string
}

// HideCursor passed as both coordinates to SetCursor hides the cursor
const HideCursor = -1
