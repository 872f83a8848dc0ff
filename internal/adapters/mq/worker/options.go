package worker

import (
	"time"

	"github.com/okian/tenderdesk/pkg/logger"
)

// Option applies a configuration option to a worker or pool.
type Option func(*settings)

type settings struct {
	name    string
	logger  logger.Logger
	timeout time.Duration
}

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDeliveryTimeout bounds the time spent on one delivery.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}
