package service

import (
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/adapters/sink"
	"github.com/okian/tenderdesk/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. A Service cannot start without one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMailer sets the transport for summary emails.
func WithMailer(m sink.Mailer) Option {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}

// WithFileSink sets where exported workbooks are stored.
func WithFileSink(fs sink.FileSink) Option {
	return func(s *Service) {
		if fs != nil {
			s.files = fs
		}
	}
}

// WithExcludedAccounts leaves the given accounts out of population rollups.
func WithExcludedAccounts(ids ...string) Option {
	return func(s *Service) {
		s.excluded = append(s.excluded, ids...)
	}
}

// WithPublicBaseURL sets the prefix of public request links.
func WithPublicBaseURL(u string) Option {
	return func(s *Service) {
		s.publicBaseURL = u
	}
}

// WithWorkerCount sets the number of dispatch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the dispatch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many recent deliveries are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDeliveryTimeout bounds the time one delivery may take.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone in which activity days start.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
