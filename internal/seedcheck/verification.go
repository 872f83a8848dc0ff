package seedcheck

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/okian/tenderdesk/pkg/logger"
)

// Verify fetches the summary of every expected request and compares it with
// the expectation. Fetch failures are counted, not returned.
func Verify(ctx context.Context, cfg *Config, expectations []Expectation, stats *Stats) []Mismatch {
	log := logger.Get().Named("seedcheck")
	log.Info(ctx, "verifying summaries",
		logger.Int("requests", len(expectations)),
		logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	jobs := make(chan Expectation, cfg.Workers*WorkerChannelMultiplier)

	var (
		mu         sync.Mutex
		mismatches []Mismatch
		verified   atomic.Int64
		failed     atomic.Int64
		wg         sync.WaitGroup
	)

	for range max(1, cfg.Workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for exp := range jobs {
				var got summaryResponse
				target := cfg.BaseURL + "/requests/" + url.PathEscape(exp.RequestID) + "/summary"
				if err := client.GetJSON(ctx, target, &got); err != nil {
					failed.Add(1)
					log.Warn(ctx, "summary fetch failed", logger.String("request", exp.RequestID), logger.Error(err))
					continue
				}
				verified.Add(1)
				if m := compare(exp, got); len(m) > 0 {
					mu.Lock()
					mismatches = append(mismatches, m...)
					mu.Unlock()
					if cfg.Verbose {
						log.Warn(ctx, "summary mismatch", logger.String("request", exp.RequestID), logger.Int("fields", len(m)))
					}
				}
			}
		}()
	}

feed:
	for _, exp := range expectations {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- exp:
		}
	}
	close(jobs)
	wg.Wait()

	stats.RequestsVerified = int(verified.Load())
	stats.RequestsFailed = int(failed.Load())
	stats.Mismatches = mismatches
	return mismatches
}

func compare(exp Expectation, got summaryResponse) []Mismatch {
	var out []Mismatch
	add := func(vendor, field, want, have string) {
		if want != have {
			out = append(out, Mismatch{RequestID: exp.RequestID, Vendor: vendor, Field: field, Want: want, Got: have})
		}
	}

	add("", "response_count", strconv.Itoa(exp.ResponseCount), strconv.Itoa(got.ResponseCount))

	seen := make(map[string]bool, len(got.Vendors))
	for _, v := range got.Vendors {
		seen[v.Vendor] = true
		want, ok := exp.Vendors[v.Vendor]
		if !ok {
			add(v.Vendor, "vendor", "absent", "present")
			continue
		}
		add(v.Vendor, "total", want.Total(), v.Total)
		add(v.Vendor, "orphan_count", strconv.Itoa(want.Orphans), strconv.Itoa(v.OrphanCount))
		add(v.Vendor, "invalid_count", strconv.Itoa(want.Invalid), strconv.Itoa(v.InvalidCount))
	}
	for vendor := range exp.Vendors {
		if !seen[vendor] {
			add(vendor, "vendor", "present", "absent")
		}
	}
	return out
}
