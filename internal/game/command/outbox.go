package command

import (
	"fmt"
	"sync"
)

// DefaultOutboxSize is used when a non-positive buffer size is requested.
const DefaultOutboxSize = 256

// Outbox routes outbound protocol messages to a buffered channel drained by
// the connection's writer. A message may span several lines (LOOKREPLY).
type Outbox struct {
	owner  int
	events chan string
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for connection number owner.
//
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(owner, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = DefaultOutboxSize
	}
	return &Outbox{
		owner:  owner,
		events: make(chan string, bufferSize),
	}
}

// Push enqueues msg without blocking.
//
// Postcondition: msg is enqueued, or an error is returned if the outbox is closed or full.
func (o *Outbox) Push(msg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %d is closed", o.owner)
	}
	select {
	case o.events <- msg:
		return nil
	default:
		return fmt.Errorf("outbox %d buffer full", o.owner)
	}
}

// Events returns the read-only message channel. It is closed by Close.
func (o *Outbox) Events() <-chan string {
	return o.events
}

// Close marks the outbox as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
