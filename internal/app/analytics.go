package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/domain/analytics"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/pkg/metrics"
)

// ListRequests returns requests matching the filter, newest first.
func (s *Service) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]model.SourcingRequest, error) {
	return s.store.ListRequests(ctx, filter)
}

// Analytics rolls up the population as of at. A zero at means now.
func (s *Service) Analytics(ctx context.Context, at time.Time) (analytics.Snapshot, error) {
	if at.IsZero() {
		at = s.clock()
	} else {
		at = at.In(s.loc)
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("accounts: %w", err)
	}
	requests, err := s.store.ListRequests(ctx, repository.RequestFilter{})
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("requests: %w", err)
	}
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("subscriptions: %w", err)
	}
	events, err := s.store.ListActivity(ctx, analytics.WindowsAt(at).Month)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("activity: %w", err)
	}

	start := time.Now()
	snap := analytics.Rollup(accounts, requests, subs, events, at,
		analytics.WithExcludedAccounts(s.excluded...))
	metrics.RecordRollupLatency(float64(time.Since(start).Milliseconds()))
	return snap, nil
}

// ActivityByDay groups activity since the given time by UTC day, newest day first.
func (s *Service) ActivityByDay(ctx context.Context, since time.Time) (analytics.DayGrouping, error) {
	events, err := s.store.ListActivity(ctx, since)
	if err != nil {
		return analytics.DayGrouping{}, fmt.Errorf("activity: %w", err)
	}
	return analytics.GroupByDay(events, analytics.WithExcludedAccounts(s.excluded...)), nil
}
