package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Line validation errors.
var (
	ErrNegativePrice       = errors.New("unit price must not be negative")
	ErrNegativeFreeUnits   = errors.New("free units percentage must not be negative")
	ErrMissingDeliveryDate = errors.New("delivery date is required")
	ErrNonPositiveQuantity = errors.New("requested quantity must be positive")
)

// VendorBid is one vendor's full submission against a sourcing request.
type VendorBid struct {
	ID          string        `json:"id"`
	RequestID   string        `json:"request_id"`
	VendorID    string        `json:"vendor_id"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Lines       []BidLineItem `json:"lines"`
}

// BidLineItem is one priced quote within a vendor bid. It carries no quantity
// of its own; the quantity comes from the requested line it references.
type BidLineItem struct {
	ID              string          `json:"id"`
	BidID           string          `json:"bid_id"`
	RequestedItemID string          `json:"requested_item_id"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	// FreeUnitsPercent is shown next to the price and never applied to totals.
	FreeUnitsPercent *decimal.Decimal `json:"free_units_percent,omitempty"`
	DeliveryDate     time.Time        `json:"delivery_date"`
	ExpiryDate       *time.Time       `json:"expiry_date,omitempty"`
}

// Validate reports the first input-shape violation of the line, if any.
func (l BidLineItem) Validate() error {
	switch {
	case l.UnitPrice.IsNegative():
		return ErrNegativePrice
	case l.FreeUnitsPercent != nil && l.FreeUnitsPercent.IsNegative():
		return ErrNegativeFreeUnits
	case l.DeliveryDate.IsZero():
		return ErrMissingDeliveryDate
	}
	return nil
}
