package registry

import (
	"sync"

	"github.com/google/uuid"
)

// Channel is one live delivery session for a recipient. It carries a bounded
// outbound queue; when the queue is full the oldest pending payload is dropped
// so a stalled consumer never blocks a publisher.
//
// A channel moves through exactly one lifecycle: created, registered, closed.
// Closed channels are never reused or re-registered.
type Channel[T any] struct {
	id          string
	recipientID string
	out         chan T
	done        chan struct{}
	closed      bool
	mu          sync.RWMutex
}

// NewChannel creates a channel for the given recipient with the given
// outbound queue capacity. A minimum capacity of 1 is enforced so sends are
// never unconditionally blocking.
func NewChannel[T any](recipientID string, bufferSize int) *Channel[T] {
	return &Channel[T]{
		id:          uuid.New().String(),
		recipientID: recipientID,
		out:         make(chan T, max(bufferSize, 1)),
		done:        make(chan struct{}),
	}
}

// ID returns the unique channel identity.
func (c *Channel[T]) ID() string { return c.id }

// RecipientID returns the recipient this channel delivers to.
func (c *Channel[T]) RecipientID() string { return c.recipientID }

// Receive returns the outbound queue. The channel is closed by Close, so a
// consumer may range over it directly.
func (c *Channel[T]) Receive() <-chan T { return c.out }

// Done is closed when the channel has been closed, either explicitly by the
// transport or by registry eviction.
func (c *Channel[T]) Done() <-chan struct{} { return c.done }

// Send enqueues a payload without blocking. When the queue is full the oldest
// pending payload is discarded to make room. Returns false if the channel is
// already closed or the payload could not be enqueued.
func (c *Channel[T]) Send(v T) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.out <- v:
		return true
	default:
	}

	// Queue full: drop the oldest entry, then retry once. The consumer may
	// have drained concurrently, so both selects stay non-blocking.
	select {
	case <-c.out:
	default:
	}
	select {
	case c.out <- v:
		return true
	default:
		return false
	}
}

// Close marks the channel closed and signals Done. It is idempotent and safe
// to call concurrently with Send.
func (c *Channel[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	close(c.out)
	return nil
}
