package api

import (
	"time"

	"github.com/okian/tenderdesk/internal/domain/aggregate"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/internal/domain/types"
	"github.com/shopspring/decimal"
)

// Money fields are strings with two decimal places.

type requestDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Region      string    `json:"region"`
	Status      string    `json:"status"`
	Display     string    `json:"display_status"`
	Deadline    string    `json:"deadline,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	RequesterID string    `json:"requester_id,omitempty"`
	ByOperator  bool      `json:"created_by_operator"`
}

func toRequestDTO(r model.SourcingRequest, now time.Time) requestDTO {
	dto := requestDTO{
		ID:         r.ID,
		Title:      r.Title,
		Region:     r.Region,
		Status:     string(r.Status),
		Display:    r.DisplayStatus(now),
		Deadline:   types.Date(r.Deadline),
		CreatedAt:  r.CreatedAt,
		ByOperator: r.CreatedByOperator(),
	}
	if !dto.ByOperator {
		dto.RequesterID = *r.RequesterID
	}
	return dto
}

type lineDTO struct {
	BidID            string  `json:"bid_id"`
	LineID           string  `json:"line_id"`
	ItemID           string  `json:"item_id"`
	Quantity         int64   `json:"quantity"`
	UnitPrice        string  `json:"unit_price"`
	FreeUnitsPercent *string `json:"free_units_percent,omitempty"`
	Total            string  `json:"total"`
	DeliveryDate     string  `json:"delivery_date"`
	ExpiryDate       string  `json:"expiry_date,omitempty"`
}

type vendorDTO struct {
	Vendor       string    `json:"vendor"`
	Total        string    `json:"total"`
	Lines        []lineDTO `json:"lines"`
	OrphanCount  int       `json:"orphan_count"`
	InvalidCount int       `json:"invalid_count"`
}

type itemDTO struct {
	ItemID          string   `json:"item_id"`
	CatalogID       string   `json:"catalog_id"`
	Quantity        int64    `json:"quantity"`
	Offers          int      `json:"offers"`
	LowestUnitPrice *string  `json:"lowest_unit_price"`
	LowestVendors   []string `json:"lowest_vendors"`
}

type orphanDTO struct {
	Vendor          string `json:"vendor"`
	BidID           string `json:"bid_id"`
	LineID          string `json:"line_id"`
	RequestedItemID string `json:"requested_item_id"`
}

type invalidDTO struct {
	Vendor string `json:"vendor"`
	BidID  string `json:"bid_id"`
	LineID string `json:"line_id"`
	Reason string `json:"reason"`
}

type droppedItemDTO struct {
	ItemID    string `json:"item_id"`
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

type summaryDTO struct {
	Request           requestDTO       `json:"request"`
	ItemCount         int              `json:"item_count"`
	ResponseCount     int              `json:"response_count"`
	LowestTotalVendor string           `json:"lowest_total_vendor,omitempty"`
	Items             []itemDTO        `json:"items"`
	Vendors           []vendorDTO      `json:"vendors"`
	Orphans           []orphanDTO      `json:"orphans"`
	Invalid           []invalidDTO     `json:"invalid"`
	DroppedItems      []droppedItemDTO `json:"dropped_items,omitempty"`
}

func money(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := types.Money(*d)
	return &s
}

func toSummaryDTO(s aggregate.RequestSummary, now time.Time) summaryDTO {
	dto := summaryDTO{
		Request:           toRequestDTO(s.Request, now),
		ItemCount:         s.ItemCount,
		ResponseCount:     s.ResponseCount,
		LowestTotalVendor: s.LowestTotalVendor,
		Items:             make([]itemDTO, 0, len(s.Items)),
		Vendors:           make([]vendorDTO, 0, len(s.Vendors)),
		Orphans:           make([]orphanDTO, 0, len(s.Orphans)),
		Invalid:           make([]invalidDTO, 0, len(s.Invalid)),
	}
	for _, it := range s.Items {
		lowest := it.LowestVendors
		if lowest == nil {
			lowest = []string{}
		}
		dto.Items = append(dto.Items, itemDTO{
			ItemID:          it.Item.ID,
			CatalogID:       it.Item.CatalogID,
			Quantity:        it.Item.Quantity,
			Offers:          it.Offers,
			LowestUnitPrice: money(it.LowestUnitPrice),
			LowestVendors:   lowest,
		})
	}
	for _, v := range s.Vendors {
		vd := vendorDTO{
			Vendor:       v.Vendor,
			Total:        types.Money(v.Total),
			Lines:        make([]lineDTO, 0, len(v.Lines)),
			OrphanCount:  v.OrphanCount,
			InvalidCount: v.InvalidCount,
		}
		for _, l := range v.Lines {
			vd.Lines = append(vd.Lines, lineDTO{
				BidID:            l.BidID,
				LineID:           l.Line.ID,
				ItemID:           l.Item.ID,
				Quantity:         l.Item.Quantity,
				UnitPrice:        types.Money(l.Line.UnitPrice),
				FreeUnitsPercent: money(l.Line.FreeUnitsPercent),
				Total:            types.Money(l.Total),
				DeliveryDate:     types.Date(l.Line.DeliveryDate),
				ExpiryDate:       types.OptionalDate(l.Line.ExpiryDate),
			})
		}
		dto.Vendors = append(dto.Vendors, vd)
	}
	for _, o := range s.Orphans {
		dto.Orphans = append(dto.Orphans, orphanDTO{
			Vendor:          o.Vendor,
			BidID:           o.BidID,
			LineID:          o.Line.ID,
			RequestedItemID: o.DanglingID,
		})
	}
	for _, in := range s.Invalid {
		dto.Invalid = append(dto.Invalid, invalidDTO{
			Vendor: in.Vendor,
			BidID:  in.BidID,
			LineID: in.Line.ID,
			Reason: in.Reason,
		})
	}
	for _, d := range s.DroppedItems {
		dto.DroppedItems = append(dto.DroppedItems, droppedItemDTO{
			ItemID:    d.Item.ID,
			RequestID: d.Item.RequestID,
			Reason:    d.Reason,
		})
	}
	return dto
}
