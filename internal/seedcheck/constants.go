package seedcheck

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	HealthCheckTimeout = 30 * time.Second
	filePermission     = 0o600
	dirPermission      = 0o750
)
