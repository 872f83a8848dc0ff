// Package queue holds summary email deliveries until a worker picks them up.
package queue

import (
	"context"
	"sync"

	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Delivery is the payload flowing through the queue.
type Delivery = model.Delivery

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a delivery. It fails with ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, d Delivery) error

	// Dequeue returns a channel of deliveries, closed once the queue is
	// closed and drained.
	Dequeue(ctx context.Context) <-chan Delivery

	Len(ctx context.Context) int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	items    chan Delivery
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue holding up to 1024 deliveries by default.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Delivery, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds a delivery without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, d Delivery) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- d:
		metrics.RecordQueueEnqueue()
		q.report()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue forwards deliveries until the queue is drained or ctx is done.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Delivery {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		for d := range q.items {
			select {
			case out <- d:
				metrics.RecordQueueDequeue()
				q.report()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of waiting deliveries.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.report()
	return len(q.items)
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting deliveries. Waiting ones are still handed out.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) report() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
