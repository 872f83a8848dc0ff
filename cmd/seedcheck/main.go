package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/tenderdesk/internal/seedcheck"
)

// Default configuration constants.
const (
	defaultRequests  = 200
	defaultVendors   = 25
	defaultItems     = 8
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 30 * time.Second
	defaultRunBudget = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "", "Base URL of the service; empty only writes the seed")
		requests = flag.Int("requests", defaultRequests, "Number of sourcing requests")
		vendors  = flag.Int("vendors", defaultVendors, "Vendor population")
		items    = flag.Int("items", defaultItems, "Maximum requested lines per request")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", 1, "Random seed")
		out      = flag.String("out", "seed.json", "Seed file")
		expected = flag.String("expected", "expected.json", "Expected totals file")
		logFile  = flag.String("log", "", "Log file (default: seedcheck_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedcheck.ShowHelp()
		return
	}

	if err := seedcheck.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunBudget)
	defer cancel()

	cfg := &seedcheck.Config{
		BaseURL:  *baseURL,
		Requests: *requests,
		Vendors:  *vendors,
		Items:    *items,
		Workers:  *workers,
		Timeout:  *timeout,
		Seed:     *seed,
		SeedFile: *out,
		Expected: *expected,
		Verbose:  *verbose,
	}

	if err := seedcheck.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Seed check failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
