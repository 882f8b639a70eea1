package bus

import (
	"context"
	"sync/atomic"

	"main/internal/errors"
)

var (
	ErrQueueFull   = errors.New("message queue full")
	ErrQueueClosed = errors.New("message queue closed")
)

// Msg is the unit handed across goroutine boundaries. The topic decides
// where the owning goroutine publishes the payload.
type Msg struct {
	Topic   string
	Payload any
}

// Queue is a bounded, non-blocking handoff queue. Producers on other
// goroutines enqueue; the bus-owning goroutine drains.
type Queue struct {
	ch     chan Msg
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Msg, capacity)}
}

// TryPublish enqueues a message without blocking.
func (q *Queue) TryPublish(m Msg) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len returns the number of queued messages.
func (q *Queue) Len() int { return len(q.ch) }

// C exposes the receive side for callers multiplexing several queues.
func (q *Queue) C() <-chan Msg { return q.ch }

// Close stops the queue from accepting new messages. Messages already
// queued remain drainable.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes messages until the context is done or the queue is closed
// and drained.
func (q *Queue) Run(ctx context.Context, handler func(Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-q.ch:
			if !ok {
				return
			}
			handler(m)
		}
	}
}

// Drain synchronously consumes everything currently queued.
func (q *Queue) Drain(handler func(Msg)) {
	for {
		select {
		case m, ok := <-q.ch:
			if !ok {
				return
			}
			handler(m)
		default:
			return
		}
	}
}
