package queue

import "errors"

// Sentinel errors of the dispatch queue.
var (
	ErrClosed = errors.New("dispatch queue closed")
	ErrFull   = errors.New("dispatch queue full")
)
