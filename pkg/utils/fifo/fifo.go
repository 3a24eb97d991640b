// Package fifo is an unbounded first-in first-out queue for handing messages
// from a connection's read loop to a consumer that may be slower than the
// wire. Send never blocks; a slow consumer costs memory, not data loss.
//
// One producer and one consumer are supported. Behaviour with concurrent
// consumers is undefined.
package fifo

import (
	"errors"
	"sync"

	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("fifo: closed")

// T is an unbounded FIFO of V.
type T[V any] struct {
	mu     sync.Mutex
	items  []V
	closed bool
	wake   chan struct{}
}

// New creates an empty queue.
func New[V any]() *T[V] {
	return &T[V]{wake: make(chan struct{}, 1)}
}

// Send enqueues v and wakes the consumer. It never blocks and fails with
// ErrClosed after Close.
func (q *T[V]) Send(v V) (err error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
	return
}

// Close marks the queue closed and wakes any waiter. Items already enqueued
// remain receivable; Close is idempotent.
func (q *T[V]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *T[V]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Receive returns the next item in send order. It blocks until an item is
// available, the queue is closed and drained (ok false), or c is done (ok
// false).
func (q *T[V]) Receive(c context.T) (v V, ok bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v, ok = q.items[0], true
			// drop the reference so retained backing memory can be collected
			var zero V
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
		select {
		case <-q.wake:
		case <-c.Done():
			return
		}
	}
}

// Len reports the number of items waiting.
func (q *T[V]) Len() (n int) {
	q.mu.Lock()
	n = len(q.items)
	q.mu.Unlock()
	return
}

// Closed reports whether Close has been called.
func (q *T[V]) Closed() (closed bool) {
	q.mu.Lock()
	closed = q.closed
	q.mu.Unlock()
	return
}
