package eventsv1

import (
	"errors"

	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/ringbuf"
)

// ErrQueueFull is returned when an append is rejected by a full queue.
var ErrQueueFull = errors.New("event queue is full")

// Queue is the fixed-capacity event log between the matching engine and the
// external crank. It rejects appends when full rather than overwriting:
// every fill drives settlement, so losing an undrained record silently is
// worse than failing the invocation that produced it.
type Queue struct {
	buf *ringbuf.Buffer[Event]
}

// NewQueue creates a queue holding up to capacity undrained events.
func NewQueue(capacity int) (*Queue, error) {
	buf, err := ringbuf.New[Event](capacity, ringbuf.Reject)
	if err != nil {
		return nil, err
	}
	return &Queue{buf: buf}, nil
}

// Append records an event, failing with ErrQueueFull at capacity.
func (q *Queue) Append(ev Event) error {
	if err := q.buf.Push(ev); err != nil {
		return ErrQueueFull
	}
	return nil
}

// Next removes and returns the oldest unread event.
func (q *Queue) Next() (Event, bool) {
	return q.buf.Pop()
}

// Drain pops events in order, passing each to fn, until the queue empties or
// fn returns false. The event fn rejected stays consumed; callers that need
// redelivery snapshot events before acting on them.
func (q *Queue) Drain(fn func(Event) bool) {
	for {
		ev, ok := q.buf.Pop()
		if !ok {
			return
		}
		if !fn(ev) {
			return
		}
	}
}

// Len returns the number of undrained events.
func (q *Queue) Len() int {
	return q.buf.Len()
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return q.buf.Cap()
}

// Full reports whether the next Append would fail.
func (q *Queue) Full() bool {
	return q.buf.Full()
}
