// Package service wires the record store, the aggregation engine, the
// renderers and the delivery sinks behind the operations the HTTP API serves.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	deliveryqueue "github.com/okian/tenderdesk/internal/adapters/mq/queue"
	workerpool "github.com/okian/tenderdesk/internal/adapters/mq/worker"
	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/adapters/sink"
	"github.com/okian/tenderdesk/internal/domain/dedupe"
	"github.com/okian/tenderdesk/pkg/logger"
	"github.com/okian/tenderdesk/pkg/metrics"
)

// Service implements the API dependencies of the reporting engine.
type Service struct {
	mu sync.RWMutex

	store  repository.Store
	mailer sink.Mailer
	files  sink.FileSink

	deduper dedupe.Deduper
	queue   deliveryqueue.Queue
	pool    *workerpool.Pool

	excluded        []string
	publicBaseURL   string
	workerCount     int
	queueSize       int
	dedupeSize      int
	deliveryTimeout time.Duration
	now             func() time.Time
	loc             *time.Location

	started bool
	logger  logger.Logger
}

// New constructs a Service. Options are applied in order.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     4,
		queueSize:       1024,
		dedupeSize:      10_000,
		deliveryTimeout: 30 * time.Second,
		now:             time.Now,
		loc:             time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the dispatch pipeline and launches the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		return fmt.Errorf("start service: %w", errors.New("no store configured"))
	}
	if s.mailer == nil {
		s.mailer = sink.NewLogMailer(s.logger)
		s.logger.Warn(ctx, "no mail transport configured, summary emails will only be logged")
	}

	s.logger.Info(ctx, "starting reporting service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = deliveryqueue.NewInMemoryQueue(deliveryqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithLogger(s.logger.Named("dispatch")),
		workerpool.WithDeliveryTimeout(s.deliveryTimeout),
	)
	// Workers outlive the request that started the service.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "reporting service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("fileSink", s.files != nil),
	)
	return nil
}

// Stop closes the queue and waits for queued deliveries to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool := s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping reporting service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "reporting service stopped with pending deliveries", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "reporting service stopped",
		logger.Int64("delivered", pool.Processed()-pool.Failed()),
		logger.Int64("failed", pool.Failed()),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"fileSink":    s.files != nil,
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerActiveCount(s.pool.Size())
	}
	return stats
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}
