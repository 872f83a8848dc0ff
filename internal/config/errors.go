package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrLoadConfig wraps file, parse and decode failures in Load.
	ErrLoadConfig = errors.New("load configuration")
)
