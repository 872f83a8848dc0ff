// Package model contains domain models passed between layers.
//
// Every type here is an immutable snapshot read from the record store. The
// engine packages never mutate them.
package model

import "time"

// RequestStatus is the stored lifecycle status of a sourcing request.
type RequestStatus string

const (
	RequestOpen                        RequestStatus = "open"
	RequestClosed                      RequestStatus = "closed"
	RequestCanceled                    RequestStatus = "canceled"
	RequestPending                     RequestStatus = "pending"
	RequestPendingDeliveryConfirmation RequestStatus = "pending_delivery_confirmation"
)

// DisplayExpired is the derived display state of an open request whose
// deadline has elapsed. It is never stored.
const DisplayExpired = "expired"

// Valid reports whether s is one of the known request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestOpen, RequestClosed, RequestCanceled, RequestPending, RequestPendingDeliveryConfirmation:
		return true
	default:
		return false
	}
}

// SourcingRequest is a buyer-published call for priced quotes.
type SourcingRequest struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Region    string        `json:"region"`
	Deadline  time.Time     `json:"deadline"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	// RequesterID is nil when an operator created the request on a requester's behalf.
	RequesterID *string `json:"requester_id,omitempty"`
}

// CreatedByOperator reports whether the request has no requester reference.
func (r SourcingRequest) CreatedByOperator() bool {
	return r.RequesterID == nil || *r.RequesterID == ""
}

// Expired reports whether the request is open but its deadline is before now.
func (r SourcingRequest) Expired(now time.Time) bool {
	return r.Status == RequestOpen && !r.Deadline.IsZero() && r.Deadline.Before(now)
}

// DisplayStatus returns the status shown to operators at now. Stored status
// and deadline are independent, so an open request past its deadline shows
// as expired without its status being rewritten.
func (r SourcingRequest) DisplayStatus(now time.Time) string {
	if r.Expired(now) {
		return DisplayExpired
	}
	return string(r.Status)
}

// RequestedLineItem is one item/quantity pair within a sourcing request.
type RequestedLineItem struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	CatalogID string `json:"catalog_id"`
	Quantity  int64  `json:"quantity"`
}
