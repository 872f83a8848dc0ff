// Package aggregate folds matched bid lines into per-vendor and per-request
// summaries.
//
// Line total is unit price times requested quantity. The free units
// percentage travels with the line for display and is never applied to any
// total. Sums keep full decimal precision; rounding belongs to the renderers.
package aggregate

import (
	"github.com/okian/tenderdesk/internal/domain/matcher"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/shopspring/decimal"
)

// LineTotal is a valid matched line with its computed total.
type LineTotal struct {
	matcher.MatchedLine
	Total decimal.Decimal
}

// InvalidLine is a matched line excluded from totals because its shape is
// invalid. Only the line is dropped, never the rest of the bid.
type InvalidLine struct {
	Vendor string
	BidID  string
	Line   model.BidLineItem
	Reason string
}

// VendorSummary aggregates one vendor's lines within a request.
type VendorSummary struct {
	Vendor       string
	Lines        []LineTotal
	Total        decimal.Decimal
	OrphanCount  int
	InvalidCount int
}

// ItemSummary compares the offers made for one requested line.
type ItemSummary struct {
	Item   model.RequestedLineItem
	Offers int
	// LowestUnitPrice is nil when no valid offer was made.
	LowestUnitPrice *decimal.Decimal
	// LowestVendors lists every vendor quoting the lowest price, in order of appearance.
	LowestVendors []string
}

// RequestSummary is the request-scoped aggregation result.
type RequestSummary struct {
	Request       model.SourcingRequest
	ItemCount     int
	ResponseCount int
	Items         []ItemSummary
	Vendors       []VendorSummary
	Orphans       []matcher.OrphanLine
	Invalid       []InvalidLine
	// DroppedItems are requested lines not counted in ItemCount.
	DroppedItems []matcher.DroppedItem
	// LowestTotalVendor is the vendor with the smallest total among vendors
	// with at least one valid line; "" when there is none.
	LowestTotalVendor string
}

// Summarize computes per-vendor totals and request-level figures.
//
// A set built by hand may name vendors or items missing from Vendors or
// Items; they are added on first sight, after the listed ones.
func Summarize(set matcher.MatchedBidSet) RequestSummary {
	sum := RequestSummary{
		Request:      set.Request,
		Orphans:      set.Orphans,
		DroppedItems: set.Dropped,
	}

	vendorIdx := make(map[string]int, len(set.Vendors))
	vendor := func(id string) *VendorSummary {
		i, ok := vendorIdx[id]
		if !ok {
			i = len(sum.Vendors)
			vendorIdx[id] = i
			sum.Vendors = append(sum.Vendors, VendorSummary{Vendor: id, Total: decimal.Zero})
		}
		return &sum.Vendors[i]
	}
	for _, v := range set.Vendors {
		vendor(v)
	}

	itemIdx := make(map[string]int, len(set.Items))
	item := func(it model.RequestedLineItem) *ItemSummary {
		i, ok := itemIdx[it.ID]
		if !ok {
			i = len(sum.Items)
			itemIdx[it.ID] = i
			sum.Items = append(sum.Items, ItemSummary{Item: it})
		}
		return &sum.Items[i]
	}
	for _, it := range set.Items {
		item(it)
	}

	for _, o := range set.Orphans {
		vendor(o.Vendor).OrphanCount++
	}

	for _, m := range set.Matched {
		vs := vendor(m.Vendor)
		if err := validate(m); err != nil {
			vs.InvalidCount++
			sum.Invalid = append(sum.Invalid, InvalidLine{
				Vendor: m.Vendor,
				BidID:  m.BidID,
				Line:   m.Line,
				Reason: err.Error(),
			})
			continue
		}

		total := LineAmount(m)
		vs.Lines = append(vs.Lines, LineTotal{MatchedLine: m, Total: total})
		vs.Total = vs.Total.Add(total)

		offer(item(m.Item), m)
	}

	sum.ItemCount = len(sum.Items)
	sum.ResponseCount = len(sum.Vendors)
	sum.LowestTotalVendor = lowestTotal(sum.Vendors)
	return sum
}

// LineAmount returns price times requested quantity at full precision.
func LineAmount(m matcher.MatchedLine) decimal.Decimal {
	return m.Line.UnitPrice.Mul(decimal.NewFromInt(m.Item.Quantity))
}

func validate(m matcher.MatchedLine) error {
	if m.Item.Quantity <= 0 {
		return model.ErrNonPositiveQuantity
	}
	return m.Line.Validate()
}

func offer(is *ItemSummary, m matcher.MatchedLine) {
	is.Offers++
	price := m.Line.UnitPrice
	switch {
	case is.LowestUnitPrice == nil || price.LessThan(*is.LowestUnitPrice):
		is.LowestUnitPrice = &price
		is.LowestVendors = []string{m.Vendor}
	case price.Equal(*is.LowestUnitPrice):
		for _, v := range is.LowestVendors {
			if v == m.Vendor {
				return
			}
		}
		is.LowestVendors = append(is.LowestVendors, m.Vendor)
	}
}

func lowestTotal(vendors []VendorSummary) string {
	best := -1
	for i, v := range vendors {
		if len(v.Lines) == 0 {
			continue
		}
		if best < 0 || v.Total.LessThan(vendors[best].Total) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return vendors[best].Vendor
}

// Vendor returns the summary of one vendor.
func (s RequestSummary) Vendor(id string) (VendorSummary, bool) {
	for _, v := range s.Vendors {
		if v.Vendor == id {
			return v, true
		}
	}
	return VendorSummary{}, false
}

// Lines returns every valid matched line grouped by vendor, vendors in order
// of first bid and lines in submission order.
func (s RequestSummary) Lines() []LineTotal {
	var out []LineTotal
	for _, v := range s.Vendors {
		out = append(out, v.Lines...)
	}
	return out
}
