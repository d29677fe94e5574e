package screen

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/termbridge/status"
	"github.com/lixenwraith/termbridge/terminal"
)

func newFakeSession(t *testing.T, opts ...Option) (*Session, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver(false)
	s := New(drv, opts...)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s, drv
}

func receiveWithin(t *testing.T, mb *Mailbox, timeout time.Duration) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	msg, err := mb.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	return msg
}

// TestPollAsyncDeliversEvent tests the recipient gets exactly one tagged event
func TestPollAsyncDeliversEvent(t *testing.T) {
	s, drv := newFakeSession(t)
	defer s.Shutdown()

	mb := NewMailbox()
	h, err := s.PollAsync(mb)
	if err != nil {
		t.Fatalf("PollAsync: %v", err)
	}
	if h.Recipient() != mb {
		t.Errorf("Expected handle recipient to be the mailbox")
	}

	drv.send(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyEnter})
	msg := receiveWithin(t, mb, time.Second)
	if msg.Tag != TagEvent || msg.Event.Key != terminal.KeyEnter {
		t.Errorf("Expected event/Enter, got %+v", msg)
	}

	h.Release()
	if h.State() != HandleJoined {
		t.Errorf("Expected joined, got %s", h.State())
	}
	h.Release()

	// A second queued event must stay in the driver, not leak into the mailbox
	drv.send(terminal.Event{Type: terminal.EventKey, Ch: 'x'})
	time.Sleep(20 * time.Millisecond)
	if mb.Len() != 0 {
		t.Errorf("Expected exactly one delivery, mailbox holds %d", mb.Len())
	}
}

// TestPollAsyncShutdown tests shutdown turns a pending poll into one error message
func TestPollAsyncShutdown(t *testing.T) {
	s, _ := newSimSession(t)

	mb := NewMailbox()
	h, err := s.PollAsync(mb)
	if err != nil {
		t.Fatalf("PollAsync: %v", err)
	}
	s.Shutdown()

	msg := receiveWithin(t, mb, time.Second)
	if msg.Tag != TagEvent || msg.Event.Type != terminal.EventError {
		t.Fatalf("Expected event/EventError, got %+v", msg)
	}
	if !errors.Is(msg.Event.Err, terminal.ErrClosed) {
		t.Errorf("Expected ErrClosed cause, got %v", msg.Event.Err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.ReleaseContext(ctx); err != nil {
		t.Fatalf("Release blocked after shutdown: %v", err)
	}
	if mb.Len() != 0 {
		t.Errorf("Expected a single message, %d more queued", mb.Len())
	}
}

// TestReleaseWaitsForDelivery tests Release does not return before the recipient has the message
func TestReleaseWaitsForDelivery(t *testing.T) {
	s, drv := newFakeSession(t)
	defer s.Shutdown()

	gate := make(chan struct{})
	var delivered sync.WaitGroup
	delivered.Add(1)
	r := RecipientFunc(func(Message) {
		<-gate
		delivered.Done()
	})

	h, err := s.PollAsync(r)
	if err != nil {
		t.Fatalf("PollAsync: %v", err)
	}
	drv.send(terminal.Event{Type: terminal.EventKey, Ch: 'a'})

	released := make(chan struct{})
	go func() {
		h.Release()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("Release returned while recipient was still receiving")
	case <-time.After(50 * time.Millisecond):
	}
	if h.State() != HandleRunning {
		t.Errorf("Expected running while recipient is inside Deliver, got %s", h.State())
	}

	close(gate)
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Release did not return after delivery")
	}
	delivered.Wait()
}

// TestPollAsyncDistinctRecipients tests each handle delivers to its own recipient
func TestPollAsyncDistinctRecipients(t *testing.T) {
	s, drv := newFakeSession(t)
	defer s.Shutdown()

	a, b := NewMailbox(), NewMailbox()
	ha, err := s.PollAsync(a)
	if err != nil {
		t.Fatalf("PollAsync a: %v", err)
	}
	hb, err := s.PollAsync(b)
	if err != nil {
		t.Fatalf("PollAsync b: %v", err)
	}
	if ha.ID() == hb.ID() {
		t.Errorf("Expected distinct handle ids")
	}

	drv.send(terminal.Event{Type: terminal.EventKey, Ch: '1'})
	drv.send(terminal.Event{Type: terminal.EventKey, Ch: '2'})
	ha.Release()
	hb.Release()

	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("Expected one message each, got a=%d b=%d", a.Len(), b.Len())
	}
	ma, _ := a.TryReceive()
	mb, _ := b.TryReceive()
	if ma.Event.Ch == mb.Event.Ch {
		t.Errorf("Expected different events, both got %q", ma.Event.Ch)
	}
}

// TestPollAsyncSpawnLimit tests the worker cap and that released slots are reusable
func TestPollAsyncSpawnLimit(t *testing.T) {
	reg := status.NewRegistry()
	s, _ := newFakeSession(t, WithMaxWorkers(1), WithMetrics(reg))
	defer s.Shutdown()

	h, err := s.PollAsync(NewMailbox())
	if err != nil {
		t.Fatalf("PollAsync: %v", err)
	}
	if _, err := s.PollAsync(NewMailbox()); !errors.Is(err, ErrSpawn) {
		t.Fatalf("Expected ErrSpawn, got %v", err)
	}
	if got := reg.Ints.Get(status.KeyPollsRejected).Load(); got != 1 {
		t.Errorf("Expected 1 rejected spawn, got %d", got)
	}

	h.Cancel()
	h.Release()

	h2, err := s.PollAsync(NewMailbox())
	if err != nil {
		t.Fatalf("Expected free slot after release, got %v", err)
	}
	h2.Cancel()
	h2.Release()

	if got := reg.Ints.Get(status.KeyPollsJoined).Load(); got != 2 {
		t.Errorf("Expected 2 joined polls, got %d", got)
	}
	if got := reg.Ints.Get(status.KeyPollsInflight).Load(); got != 0 {
		t.Errorf("Expected no polls in flight, got %d", got)
	}
}

// TestPollHandleCancel tests a cancelled poll still delivers one error message
func TestPollHandleCancel(t *testing.T) {
	s, _ := newFakeSession(t)
	defer s.Shutdown()

	mb := NewMailbox()
	h, err := s.PollAsync(mb)
	if err != nil {
		t.Fatalf("PollAsync: %v", err)
	}
	h.Cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Cancelled worker did not finish")
	}
	msg := receiveWithin(t, mb, time.Second)
	if msg.Event.Type != terminal.EventError || !errors.Is(msg.Event.Err, context.Canceled) {
		t.Errorf("Expected cancellation error event, got %+v", msg)
	}
	if h.State() != HandleDelivered {
		t.Errorf("Expected delivered before release, got %s", h.State())
	}
	h.Release()
}

// TestReleaseContextTimeout tests a bounded release leaves a pending poll untouched
func TestReleaseContextTimeout(t *testing.T) {
	s, drv := newFakeSession(t)
	defer s.Shutdown()

	mb := NewMailbox()
	h, err := s.PollAsync(mb)
	if err != nil {
		t.Fatalf("PollAsync: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.ReleaseContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if h.State() != HandleRunning {
		t.Errorf("Expected still running, got %s", h.State())
	}

	drv.send(terminal.Event{Type: terminal.EventKey, Ch: 'k'})
	h.Release()
	if msg, ok := mb.TryReceive(); !ok || msg.Event.Ch != 'k' {
		t.Errorf("Expected 'k' after release, got %+v ok=%v", msg, ok)
	}
}

// TestPollAsyncRecipientPanic tests a panicking recipient does not leak the worker slot
func TestPollAsyncRecipientPanic(t *testing.T) {
	s, drv := newFakeSession(t, WithMaxWorkers(1))
	defer s.Shutdown()

	h, err := s.PollAsync(RecipientFunc(func(Message) { panic("boom") }))
	if err != nil {
		t.Fatalf("PollAsync: %v", err)
	}
	drv.send(terminal.Event{Type: terminal.EventKey, Ch: 'p'})
	h.Release()

	h2, err := s.PollAsync(NewMailbox())
	if err != nil {
		t.Fatalf("Expected slot reusable after panic, got %v", err)
	}
	h2.Cancel()
	h2.Release()
}

// TestPollAsyncNilRecipient tests a nil recipient is rejected up front
func TestPollAsyncNilRecipient(t *testing.T) {
	s, _ := newFakeSession(t)
	defer s.Shutdown()

	tests := map[string]Recipient{
		"nil":                nil,
		"nil mailbox":        (*Mailbox)(nil),
		"nil recipient func": RecipientFunc(nil),
	}
	for name, r := range tests {
		if _, err := s.PollAsync(r); !errors.Is(err, ErrNilRecipient) {
			t.Errorf("%s: expected ErrNilRecipient, got %v", name, err)
		}
	}
}

// TestPollHandleCollected tests a dropped handle is joined by the garbage collector
func TestPollHandleCollected(t *testing.T) {
	reg := status.NewRegistry()
	s, drv := newFakeSession(t, WithMetrics(reg))
	defer s.Shutdown()

	mb := NewMailbox()
	func() {
		if _, err := s.PollAsync(mb); err != nil {
			t.Fatalf("PollAsync: %v", err)
		}
	}()
	drv.send(terminal.Event{Type: terminal.EventKey, Ch: 'g'})

	joined := reg.Ints.Get(status.KeyPollsJoined)
	inflight := reg.Ints.Get(status.KeyPollsInflight)
	deadline := time.Now().Add(2 * time.Second)
	for joined.Load() < 1 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	if got := joined.Load(); got != 1 {
		t.Fatalf("Expected dropped handle joined once, got %d", got)
	}
	if got := inflight.Load(); got != 0 {
		t.Errorf("Expected no polls in flight, got %d", got)
	}
	if msg, ok := mb.TryReceive(); !ok || msg.Event.Ch != 'g' {
		t.Errorf("Expected 'g' delivered before join, got %+v ok=%v", msg, ok)
	}
}

// TestMailboxOrder tests FIFO order and blocking receive
func TestMailboxOrder(t *testing.T) {
	mb := NewMailbox()
	for _, ch := range "abc" {
		mb.Deliver(Message{Tag: TagEvent, Event: terminal.Event{Type: terminal.EventKey, Ch: ch}})
	}
	for _, want := range "abc" {
		if msg := receiveWithin(t, mb, time.Second); msg.Event.Ch != want {
			t.Errorf("Expected %q, got %q", want, msg.Event.Ch)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := mb.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline on empty mailbox, got %v", err)
	}
}
