package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/pkg/metrics"
)

// Instrumented records latency and failures of every call to next.
func Instrumented(next Store) Store {
	return &instrumented{next: next}
}

type instrumented struct {
	next Store
}

// track returns a func to be deferred with a pointer to the named error result.
func track(op string) func(*error) {
	start := time.Now()
	return func(err *error) {
		metrics.RecordStoreQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
		if *err != nil && !errors.Is(*err, ErrNotFound) {
			metrics.RecordStoreError(op)
		}
	}
}

func (s *instrumented) GetRequest(ctx context.Context, id string) (_ model.SourcingRequest, err error) {
	defer track("get_request")(&err)
	return s.next.GetRequest(ctx, id)
}

func (s *instrumented) ListRequests(ctx context.Context, f RequestFilter) (_ []model.SourcingRequest, err error) {
	defer track("list_requests")(&err)
	return s.next.ListRequests(ctx, f)
}

func (s *instrumented) ListItems(ctx context.Context, requestID string) (_ []model.RequestedLineItem, err error) {
	defer track("list_items")(&err)
	return s.next.ListItems(ctx, requestID)
}

func (s *instrumented) ListBids(ctx context.Context, requestID string) (_ []model.VendorBid, err error) {
	defer track("list_bids")(&err)
	return s.next.ListBids(ctx, requestID)
}

func (s *instrumented) GetAccount(ctx context.Context, id string) (_ model.Account, err error) {
	defer track("get_account")(&err)
	return s.next.GetAccount(ctx, id)
}

func (s *instrumented) AccountsByID(ctx context.Context, ids []string) (_ map[string]model.Account, err error) {
	defer track("accounts_by_id")(&err)
	return s.next.AccountsByID(ctx, ids)
}

func (s *instrumented) ListAccounts(ctx context.Context) (_ []model.Account, err error) {
	defer track("list_accounts")(&err)
	return s.next.ListAccounts(ctx)
}

func (s *instrumented) ListSubscriptions(ctx context.Context) (_ []model.Subscription, err error) {
	defer track("list_subscriptions")(&err)
	return s.next.ListSubscriptions(ctx)
}

func (s *instrumented) ListActivity(ctx context.Context, since time.Time) (_ []model.ActivityEvent, err error) {
	defer track("list_activity")(&err)
	return s.next.ListActivity(ctx, since)
}

func (s *instrumented) Descriptors(ctx context.Context, catalogIDs []string) (_ catalog.Map, err error) {
	defer track("descriptors")(&err)
	return s.next.Descriptors(ctx, catalogIDs)
}
