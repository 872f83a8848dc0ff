// Package worker sends queued summary emails.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/pkg/logger"
	"github.com/okian/tenderdesk/pkg/metrics"
)

const (
	defaultWorkerCount     = 4
	defaultDeliveryTimeout = 30 * time.Second
	poolShutdownTimeout    = 30 * time.Second
)

// Delivery is what workers read off the queue.
type Delivery = model.Delivery

// Deliverer renders and sends one delivery. Failures are not retried.
type Deliverer interface {
	Deliver(ctx context.Context, d Delivery) error
}

// Queue defines how workers receive deliveries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Delivery
}

// InMemoryWorker consumes deliveries until the queue drains or it is stopped.
type InMemoryWorker struct {
	queue     Queue
	deliverer Deliverer
	settings  settings

	processed *atomic.Int64
	failed    *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, d Deliverer, opts ...Option) *InMemoryWorker {
	s := settings{name: "worker", timeout: defaultDeliveryTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("dispatch")
	}
	s.logger = s.logger.With(logger.String("worker", s.name))

	return &InMemoryWorker{
		queue:     q,
		deliverer: d,
		settings:  s,
		processed: new(atomic.Int64),
		failed:    new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run processes deliveries until ctx is done, Stop is called or the queue drains.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, d); err != nil {
				w.settings.logger.Error(ctx, "delivery failed",
					logger.String("delivery", d.ID),
					logger.String("request", d.RequestID),
					logger.Error(err))
			}
		}
	}
}

// Stop signals the worker to return after the delivery in progress.
func (w *InMemoryWorker) Stop() {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
}

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, d Delivery) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	dctx, cancel := context.WithTimeout(ctx, w.settings.timeout)
	defer cancel()

	w.processed.Add(1)
	if err := w.deliverer.Deliver(dctx, d); err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordDelivery(metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("worker", "deliver")
		return fmt.Errorf("deliver %s: %w", d.ID, err)
	}
	metrics.RecordDelivery(metrics.OutcomeSent)
	w.settings.logger.Debug(ctx, "delivery sent", logger.String("delivery", d.ID))
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger

	started   atomic.Bool
	processed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates workerCount workers; a count below 1 falls back to 4.
func NewPool(workerCount int, q Queue, d Deliverer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("dispatch")
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  s.logger,
	}
	for i := range p.workers {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)), WithLogger(s.logger))
		w := NewInMemoryWorker(q, d, wopts...)
		w.processed = &p.processed
		w.failed = &p.failed
		p.workers[i] = w
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many deliveries were attempted.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns how many deliveries failed.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Stop stops every worker without draining the queue.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
	if !p.started.Load() {
		return
	}
	for _, w := range p.workers {
		<-w.done
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started.Load() {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-sctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker", i))
			w.Stop()
			metrics.UpdateWorkerActiveCount(0)
			return fmt.Errorf("shutdown timed out: %w", sctx.Err())
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
