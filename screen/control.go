package screen

import (
	"fmt"

	"github.com/lixenwraith/termbridge/terminal"
)

// Clear fills the back buffer with blanks in the clear attributes
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	s.drv.Clear(s.clearFg, s.clearBg)
	return nil
}

// SetClearAttributes sets the attributes used by Clear
func (s *Session) SetClearAttributes(fg, bg terminal.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	s.clearFg, s.clearBg = fg, bg
	return nil
}

// ChangeCell writes one cell to the back buffer; off-screen writes are ignored
func (s *Session) ChangeCell(x, y int, ch rune, fg, bg terminal.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	s.drv.SetCell(x, y, ch, fg, bg)
	return nil
}

// CellAt reads back one cell of the back buffer
func (s *Session) CellAt(x, y int) (terminal.Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return terminal.Cell{}, ErrInactive
	}
	c, ok := s.drv.CellAt(x, y)
	if !ok {
		return terminal.Cell{}, fmt.Errorf("%w: %d,%d", ErrOutOfRange, x, y)
	}
	return c, nil
}

// Present flushes the back buffer to the terminal
func (s *Session) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	if err := s.drv.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// SetCursor places the cursor; terminal.HideCursor for both hides it
func (s *Session) SetCursor(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	s.drv.SetCursor(x, y)
	return nil
}

// SelectInputMode applies mode and returns the mode in effect.
// InputCurrent only queries; other values are normalized first.
func (s *Session) SelectInputMode(mode terminal.InputMode) (terminal.InputMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, ErrInactive
	}
	if mode == terminal.InputCurrent {
		return s.inputMode, nil
	}
	mode = mode.Normalize()
	if mode != s.inputMode {
		s.drv.SetInputMode(mode)
		s.inputMode = mode
		s.logger.Debug("input mode changed", "mode", int(mode))
	}
	return mode, nil
}

// SelectOutputMode applies mode and returns the mode in effect.
// OutputCurrent only queries.
func (s *Session) SelectOutputMode(mode terminal.OutputMode) (terminal.OutputMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, ErrInactive
	}
	if !mode.Valid() {
		return s.outputMode, fmt.Errorf("%w: output mode %d", ErrInvalidMode, mode)
	}
	if mode == terminal.OutputCurrent {
		return s.outputMode, nil
	}
	if mode != s.outputMode {
		s.drv.SetOutputMode(mode)
		s.outputMode = mode
		s.logger.Debug("output mode changed", "mode", int(mode))
	}
	return mode, nil
}
