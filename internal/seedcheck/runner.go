package seedcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/pkg/logger"
)

// ErrMismatch is returned when the engine disagrees with the expectations.
var ErrMismatch = errors.New("summary mismatch")

// Run generates a seed, writes it out and, with a BaseURL, verifies a
// server that was started on that seed.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("seedcheck")

	log.Info(ctx, "starting seed check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.String("seedFile", cfg.SeedFile),
		logger.Bool("verbose", cfg.Verbose))

	var (
		seed         repository.Seed
		expectations []Expectation
		err          error
	)
	if cfg.BaseURL != "" && fileExists(cfg.SeedFile) && fileExists(cfg.Expected) {
		// A server is usually started on a seed from an earlier run.
		expectations, err = readExpectations(cfg.Expected)
		if err != nil {
			return err
		}
		log.Info(ctx, "reusing expectations", logger.String("file", cfg.Expected))
	} else {
		seed, expectations, err = Generate(ctx, cfg, time.Now(), stats)
		if err != nil {
			return fmt.Errorf("seed generation failed: %w", err)
		}
		if err := writeOutputs(cfg, seed, expectations); err != nil {
			return err
		}
		log.Info(ctx, "seed written",
			logger.String("seedFile", cfg.SeedFile),
			logger.String("expected", cfg.Expected))
	}

	if cfg.BaseURL != "" {
		if err := checkServiceHealth(ctx, cfg); err != nil {
			return fmt.Errorf("service health check failed: %w", err)
		}
		Verify(ctx, cfg, expectations, stats)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(stats.Mismatches) > 0 || stats.RequestsFailed > 0 {
		for _, m := range stats.Mismatches {
			log.Error(ctx, "mismatch",
				logger.String("request", m.RequestID),
				logger.String("vendor", m.Vendor),
				logger.String("field", m.Field),
				logger.String("want", m.Want),
				logger.String("got", m.Got))
		}
		return fmt.Errorf("%w: %d fields differ, %d requests failed", ErrMismatch, len(stats.Mismatches), stats.RequestsFailed)
	}
	log.Info(ctx, "seed check completed successfully")
	return nil
}

func checkServiceHealth(ctx context.Context, cfg *Config) error {
	hctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	resp, err := newHTTPClient(cfg.Timeout).Get(hctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

func writeOutputs(cfg *Config, seed repository.Seed, expectations []Expectation) error {
	for _, path := range []string{cfg.SeedFile, cfg.Expected} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, dirPermission); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
	}
	if err := repository.WriteSeed(cfg.SeedFile, seed); err != nil {
		return err
	}
	data, err := json.MarshalIndent(expectations, "", "  ")
	if err != nil {
		return fmt.Errorf("encode expectations: %w", err)
	}
	if err := os.WriteFile(cfg.Expected, data, filePermission); err != nil {
		return fmt.Errorf("write expectations: %w", err)
	}
	return nil
}

func readExpectations(path string) ([]Expectation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expectations: %w", err)
	}
	var out []Expectation
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode expectations %s: %w", path, err)
	}
	return out, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("requestsGenerated", stats.RequestsGenerated),
		logger.Int("linesGenerated", stats.LinesGenerated),
		logger.Int("orphansGenerated", stats.OrphansGenerated),
		logger.Int("invalidGenerated", stats.InvalidGenerated),
		logger.Int("requestsVerified", stats.RequestsVerified),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.String("duration", stats.Duration.String()))
}
