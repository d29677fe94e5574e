package screen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/termbridge/terminal"
)

// PollEvent blocks until the next input event
func (s *Session) PollEvent() (terminal.Event, error) {
	return s.PollEventContext(context.Background())
}

// PollEventContext blocks until the next input event or ctx ends.
// On failure the returned event is an EventError carrying the cause.
func (s *Session) PollEventContext(ctx context.Context) (terminal.Event, error) {
	if !s.Active() {
		return terminal.ErrorEvent(ErrInactive), ErrInactive
	}
	return s.poll(ctx)
}

// PeekEvent waits up to timeout; an EventNone result means nothing arrived
func (s *Session) PeekEvent(timeout time.Duration) (terminal.Event, error) {
	if !s.Active() {
		return terminal.ErrorEvent(ErrInactive), ErrInactive
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ev, err := s.poll(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return terminal.Event{Type: terminal.EventNone}, nil
	}
	return ev, err
}

// poll takes the poll lock and waits on the driver.
// Only one poll reads input at a time; others queue on pollLock.
func (s *Session) poll(ctx context.Context) (terminal.Event, error) {
	if err := s.pollLock.Acquire(ctx, 1); err != nil {
		err = fmt.Errorf("%w: %w", ErrPoll, err)
		return terminal.ErrorEvent(err), err
	}
	defer s.pollLock.Release(1)

	ev, err := s.drv.PollEvent(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPoll, err)
		return terminal.ErrorEvent(err), err
	}
	return ev, nil
}
