// Package queue provides the unbounded, end-of-stream terminated queue that
// connects relay stages.
package queue

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned when pushing to a queue that has reached end of stream.
var ErrClosed = errors.New("queue: push after end of stream")

// Queue is an unbounded FIFO with an explicit end-of-stream marker.
//
// Push never blocks. Pop blocks until an item is available, the queue is
// closed and drained (io.EOF), or the context is done. Close marks end of
// stream and may be called any number of times.
type Queue[T any] struct {
	notify chan struct{}

	mu     sync.Mutex
	items  []T
	closed bool
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push appends v. It fails with ErrClosed once Close has been called.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.signal()
	return nil
}

// signal wakes one waiting reader. Callers hold q.mu.
func (q *Queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Close marks end of stream. Items already queued remain readable.
// Returns true only for the call that closed the queue.
func (q *Queue[T]) Close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.closed = true
	close(q.notify)
	return true
}

// Pop removes the oldest item. It returns io.EOF after end of stream once
// every queued item has been read.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) > 0 && !q.closed {
				q.signal()
			}
			q.mu.Unlock()
			return v, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, io.EOF
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

