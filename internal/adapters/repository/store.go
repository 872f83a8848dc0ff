// Package repository reads marketplace records from the record store.
//
// Stores only filter and sort. Every aggregation happens in the engine after
// retrieval.
package repository

import (
	"context"
	"time"

	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
)

// RequestFilter narrows ListRequests. Zero values match everything.
type RequestFilter struct {
	Statuses []model.RequestStatus
	Region   string
	Limit    int
}

// Store provides read access to every record the engine consumes.
type Store interface {
	GetRequest(ctx context.Context, id string) (model.SourcingRequest, error)
	// ListRequests returns matching requests, newest first.
	ListRequests(ctx context.Context, filter RequestFilter) ([]model.SourcingRequest, error)
	// ListItems returns the requested lines of a request in their stored order.
	ListItems(ctx context.Context, requestID string) ([]model.RequestedLineItem, error)
	// ListBids returns the bids of a request in submission order, lines attached.
	ListBids(ctx context.Context, requestID string) ([]model.VendorBid, error)

	GetAccount(ctx context.Context, id string) (model.Account, error)
	// AccountsByID returns the accounts found among ids; unknown ids are left out.
	AccountsByID(ctx context.Context, ids []string) (map[string]model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	// ListActivity returns events at or after since, oldest first. A zero since returns all.
	ListActivity(ctx context.Context, since time.Time) ([]model.ActivityEvent, error)

	// Descriptors resolves catalog ids; unknown ids are left out.
	Descriptors(ctx context.Context, catalogIDs []string) (catalog.Map, error)
}
