package repository

import "errors"

// Sentinel errors returned by every Store.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidFilter = errors.New("invalid request filter")
)
