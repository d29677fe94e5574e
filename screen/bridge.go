// @focus: #sys { session } #concurrency { bridge, worker }
package screen

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// HandleState is the lifecycle stage of an async poll
type HandleState int32

const (
	HandleRunning   HandleState = iota // Worker is polling
	HandleDelivered                    // Recipient's Deliver has returned
	HandleJoined                       // Handle released, worker gone
)

func (s HandleState) String() string {
	switch s {
	case HandleRunning:
		return "running"
	case HandleDelivered:
		return "delivered"
	case HandleJoined:
		return "joined"
	default:
		return fmt.Sprintf("HandleState(%d)", int32(s))
	}
}

// PollHandle tracks one async poll worker.
// A handle that becomes unreachable without Release is joined in the background.
type PollHandle struct {
	w       *pollWorker
	cleanup runtime.Cleanup
}

// pollWorker is the handle's shared state; it must never point back at the PollHandle
type pollWorker struct {
	id        uuid.UUID
	recipient Recipient
	state     atomic.Int32
	done      chan struct{}
	cancel    context.CancelFunc
	join      sync.Once
	joined    *atomic.Int64
}

// ID identifies the poll in logs
func (h *PollHandle) ID() uuid.UUID { return h.w.id }

// Recipient returns the recipient the message is delivered to
func (h *PollHandle) Recipient() Recipient { return h.w.recipient }

// State returns the current lifecycle stage
func (h *PollHandle) State() HandleState { return HandleState(h.w.state.Load()) }

// Done is closed once the message has been delivered and the worker has exited
func (h *PollHandle) Done() <-chan struct{} { return h.w.done }

// Cancel aborts a pending poll; the recipient still gets one EventError message
func (h *PollHandle) Cancel() { h.w.cancel() }

// Release blocks until the worker has delivered and exited.
// A poll still waiting for input keeps Release waiting; Cancel or
// Session.Shutdown unblocks it. Safe to call more than once.
func (h *PollHandle) Release() {
	h.cleanup.Stop()
	h.w.release()
}

// ReleaseContext is Release bounded by ctx. On ctx expiry the handle is
// left running and may be released again later.
func (h *PollHandle) ReleaseContext(ctx context.Context) error {
	select {
	case <-h.w.done:
		h.Release()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *pollWorker) release() {
	w.join.Do(func() {
		<-w.done
		w.cancel()
		w.state.Store(int32(HandleJoined))
		w.joined.Add(1)
	})
}

// PollAsync starts a worker that polls one event and delivers it to r
func (s *Session) PollAsync(r Recipient) (*PollHandle, error) {
	return s.PollAsyncContext(context.Background(), r)
}

// PollAsyncContext is PollAsync with a parent context; cancelling ctx
// makes the worker deliver an EventError message.
func (s *Session) PollAsyncContext(ctx context.Context, r Recipient) (*PollHandle, error) {
	if isNilRecipient(r) {
		return nil, ErrNilRecipient
	}
	if !s.Active() {
		return nil, ErrInactive
	}
	if !s.workers.TryAcquire(1) {
		s.statRejected.Add(1)
		s.logger.Warn("poll worker limit reached", "max_workers", s.maxWorkers)
		return nil, fmt.Errorf("%w: %d workers in flight", ErrSpawn, s.maxWorkers)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &pollWorker{
		id:        uuid.New(),
		recipient: r,
		done:      make(chan struct{}),
		cancel:    cancel,
		joined:    s.statJoined,
	}
	h := &PollHandle{w: w}
	h.cleanup = runtime.AddCleanup(h, func(w *pollWorker) {
		// Cleanups share one goroutine, do not block it on the join
		go w.release()
	}, w)

	s.statSpawned.Add(1)
	s.statInflight.Add(1)
	s.logger.Debug("poll worker spawned", "poll_id", w.id)

	go s.runWorker(ctx, w)
	return h, nil
}

// isNilRecipient catches typed nils of the recipients this package provides
func isNilRecipient(r Recipient) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *Mailbox:
		return v == nil
	case RecipientFunc:
		return v == nil
	default:
		return false
	}
}

// runWorker polls once, delivers exactly one message, then frees its slot
func (s *Session) runWorker(ctx context.Context, w *pollWorker) {
	start := time.Now()
	defer close(w.done)
	defer func() {
		s.statInflight.Add(-1)
		s.workers.Release(1)
	}()

	ev, err := s.poll(ctx)
	if err != nil {
		s.logger.Debug("poll worker failed", "poll_id", w.id, "error", err)
	}

	s.deliver(w, Message{Tag: TagEvent, Event: ev})
	w.state.Store(int32(HandleDelivered))

	ms := float64(time.Since(start).Microseconds()) / 1000
	s.statLatency.Set(ms)
	s.statLatencyMax.Max(ms)
	s.statDelivered.Add(1)
}

// deliver hands msg to the recipient; a panicking recipient is logged, not propagated
func (s *Session) deliver(w *pollWorker, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recipient panic", "poll_id", w.id, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	w.recipient.Deliver(msg)
}
