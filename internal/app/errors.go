package service

import (
	"errors"

	"github.com/okian/tenderdesk/internal/adapters/repository"
)

// Sentinel errors returned by Service operations.
var (
	ErrNotFound         = repository.ErrNotFound
	ErrInvalidFilter    = repository.ErrInvalidFilter
	ErrNotStarted       = errors.New("service not started")
	ErrDuplicate        = errors.New("delivery already queued")
	ErrQueueFull        = errors.New("delivery queue is full")
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrNoFileSink       = errors.New("no file sink configured")
)
