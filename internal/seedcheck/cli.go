package seedcheck

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/tenderdesk/pkg/logger"
)

// SetupLogging logs to both console and file. An empty logFile gets a
// timestamped name.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "seedcheck_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`tenderdesk seed check
=====================

Generates a synthetic marketplace seed with orphan and invalid bid lines,
computes the vendor totals the engine must report, and optionally verifies a
running server that was started on the seed (TENDERDESK_SEED_FILE).

Usage:
  go run ./cmd/seedcheck [options]

Options:
  -url string        Base URL of the service; empty only writes the seed
  -requests int      Number of sourcing requests (default 200)
  -vendors int       Vendor population (default 25)
  -items int         Maximum requested lines per request (default 8)
  -workers int       Concurrent verification workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -seed uint         Random seed (default 1)
  -out string        Seed file (default "seed.json")
  -expected string   Expected totals file (default "expected.json")
  -log string        Log file (default: seedcheck_TIMESTAMP.log)
  -verbose           Enable verbose logging
  -help              Show this help message

Examples:
  # Write a seed, start the server on it, then verify
  go run ./cmd/seedcheck -out seed.json
  TENDERDESK_SEED_FILE=seed.json go run ./cmd &
  go run ./cmd/seedcheck -out seed.json -url http://localhost:9080
`)
}
