// Package matcher pairs bid lines with the requested lines they quote.
package matcher

import "github.com/okian/tenderdesk/internal/domain/model"

// MatchedLine is a bid line whose referenced requested line exists.
type MatchedLine struct {
	Vendor string
	BidID  string
	Item   model.RequestedLineItem
	Line   model.BidLineItem
}

// OrphanLine is a bid line whose referenced requested line is not part of the
// request. Orphans are kept for diagnostics and never contribute to totals.
type OrphanLine struct {
	Vendor     string
	BidID      string
	Line       model.BidLineItem
	DanglingID string
}

// Reasons a requested line is left out of Items.
const (
	DroppedDuplicateID  = "duplicate item id"
	DroppedOtherRequest = "item belongs to another request"
)

// DroppedItem is a requested line Match refused to count, with the reason.
type DroppedItem struct {
	Item   model.RequestedLineItem
	Reason string
}

// MatchedBidSet is the request-scoped result of Match.
type MatchedBidSet struct {
	Request model.SourcingRequest
	// Items keeps the requested lines in input order.
	Items []model.RequestedLineItem
	// Vendors lists distinct vendor ids in order of their first bid. A vendor
	// appears here even if none of its lines matched.
	Vendors []string
	Matched []MatchedLine
	Orphans []OrphanLine
	// Dropped lists requested lines left out of Items. Lines referencing a
	// duplicate id match the first item with that id.
	Dropped []DroppedItem
}

// Match pairs every bid line with its requested line by identifier.
//
// Bids are walked in input order and lines in submission order, so output is
// stable per vendor. Bids for another request are ignored. Match never fails;
// an unknown reference becomes an orphan.
func Match(request model.SourcingRequest, items []model.RequestedLineItem, bids []model.VendorBid) MatchedBidSet {
	set := MatchedBidSet{
		Request: request,
		Items:   make([]model.RequestedLineItem, 0, len(items)),
	}

	byID := make(map[string]model.RequestedLineItem, len(items))
	for _, it := range items {
		if it.RequestID != "" && it.RequestID != request.ID {
			set.Dropped = append(set.Dropped, DroppedItem{Item: it, Reason: DroppedOtherRequest})
			continue
		}
		if _, dup := byID[it.ID]; dup {
			set.Dropped = append(set.Dropped, DroppedItem{Item: it, Reason: DroppedDuplicateID})
			continue
		}
		byID[it.ID] = it
		set.Items = append(set.Items, it)
	}

	seen := make(map[string]struct{})
	for _, bid := range bids {
		if bid.RequestID != "" && bid.RequestID != request.ID {
			continue
		}
		if _, ok := seen[bid.VendorID]; !ok {
			seen[bid.VendorID] = struct{}{}
			set.Vendors = append(set.Vendors, bid.VendorID)
		}
		for _, line := range bid.Lines {
			item, ok := byID[line.RequestedItemID]
			if !ok {
				set.Orphans = append(set.Orphans, OrphanLine{
					Vendor:     bid.VendorID,
					BidID:      bid.ID,
					Line:       line,
					DanglingID: line.RequestedItemID,
				})
				continue
			}
			set.Matched = append(set.Matched, MatchedLine{
				Vendor: bid.VendorID,
				BidID:  bid.ID,
				Item:   item,
				Line:   line,
			})
		}
	}
	return set
}

// ForVendor returns the matched lines of one vendor in submission order.
func (s MatchedBidSet) ForVendor(vendor string) []MatchedLine {
	var out []MatchedLine
	for _, m := range s.Matched {
		if m.Vendor == vendor {
			out = append(out, m)
		}
	}
	return out
}
