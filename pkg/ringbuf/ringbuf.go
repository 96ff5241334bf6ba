// Package ringbuf provides a fixed-capacity ring buffer with an explicit,
// per-instance overflow policy. It backs both the order book's event queue
// and any other bounded record feed in the service.
package ringbuf

import "errors"

var (
	// ErrFull is returned by Push when the buffer is at capacity and the
	// instance was created with the Reject policy.
	ErrFull = errors.New("ring buffer is full")
	// ErrInvalidCapacity is returned by New for non-positive capacities.
	ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")
)

// OverflowPolicy selects what Push does when the buffer is full.
type OverflowPolicy int

const (
	// Reject makes Push fail with ErrFull when the buffer is at capacity.
	Reject OverflowPolicy = iota
	// Overwrite makes Push drop the oldest unread item to make room.
	Overwrite
)

// Buffer is a fixed-capacity FIFO ring. Capacity never changes after New.
// It is not safe for concurrent use; callers serialize access.
type Buffer[T any] struct {
	items  []T
	head   int
	count  int
	policy OverflowPolicy
}

// New creates a Buffer with the given capacity and overflow policy.
func New[T any](capacity int, policy OverflowPolicy) (*Buffer[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Buffer[T]{
		items:  make([]T, capacity),
		policy: policy,
	}, nil
}

// Push appends v to the tail of the buffer. On overflow the behavior depends
// on the buffer's policy: Reject returns ErrFull, Overwrite advances over the
// oldest unread item.
func (b *Buffer[T]) Push(v T) error {
	if b.count == len(b.items) {
		if b.policy == Reject {
			return ErrFull
		}
		// overwrite-oldest: the head slot becomes the tail slot
		b.items[b.head] = v
		b.head = (b.head + 1) % len(b.items)
		return nil
	}

	b.items[(b.head+b.count)%len(b.items)] = v
	b.count++
	return nil
}

// Pop removes and returns the oldest item. The second return value is false
// when the buffer is empty.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}

	v := b.items[b.head]
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.count--
	return v, true
}

// Peek returns the oldest item without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}
	return b.items[b.head], true
}

// Len returns the number of unread items.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Full reports whether a Push with the Reject policy would fail.
func (b *Buffer[T]) Full() bool {
	return b.count == len(b.items)
}
