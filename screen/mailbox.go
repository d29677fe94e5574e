package screen

import (
	"context"
	"sync"

	"github.com/lixenwraith/termbridge/terminal"
)

// TagEvent tags every message produced by PollAsync
const TagEvent = "event"

// Message is what an async poll delivers: the tag and the polled event.
// Failed polls deliver an EventError event.
type Message struct {
	Tag   string
	Event terminal.Event
}

// Recipient receives async poll results. Deliver must not block for long;
// it runs on the poll worker and Release waits for it. A nil *Mailbox or nil
// RecipientFunc is rejected by PollAsync; other typed nils are the caller's bug.
type Recipient interface {
	Deliver(Message)
}

// RecipientFunc adapts a function to Recipient
type RecipientFunc func(Message)

// Deliver calls f(msg)
func (f RecipientFunc) Deliver(msg Message) { f(msg) }

// Mailbox is an unbounded FIFO Recipient
type Mailbox struct {
	mu     sync.Mutex
	queue  []Message
	signal chan struct{}
}

// NewMailbox creates an empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{signal: make(chan struct{}, 1)}
}

// Deliver enqueues msg without blocking
func (m *Mailbox) Deliver(msg Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// TryReceive dequeues the oldest message if any
func (m *Mailbox) TryReceive() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return Message{}, false
	}
	msg := m.queue[0]
	m.queue[0] = Message{}
	m.queue = m.queue[1:]
	return msg, true
}

// Receive blocks until a message arrives or ctx ends
func (m *Mailbox) Receive(ctx context.Context) (Message, error) {
	for {
		if msg, ok := m.TryReceive(); ok {
			return msg, nil
		}
		select {
		case <-m.signal:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Len returns the number of queued messages
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
