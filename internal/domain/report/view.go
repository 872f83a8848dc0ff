package report

import (
	"net/url"
	"strings"
	"time"

	"github.com/okian/tenderdesk/internal/domain/aggregate"
	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/internal/domain/types"
	"github.com/shopspring/decimal"
)

// Placeholder replaces any field that cannot be resolved.
const Placeholder = "N/A"

// OperatorLabel is shown as requester for operator-created requests.
const OperatorLabel = "Operator"

// Input is everything one render needs. It is resolved by the caller before
// rendering starts.
type Input struct {
	Request   model.SourcingRequest
	Requester *model.Account
	Summary   aggregate.RequestSummary
	// Vendors holds vendor accounts by id; missing entries render as placeholders.
	Vendors       map[string]model.Account
	Catalog       catalog.Resolver
	PublicBaseURL string
	Now           time.Time
}

// PublicLink returns the public link of the request, or "" without a base URL.
func (in Input) PublicLink() string {
	base := strings.TrimRight(in.PublicBaseURL, "/")
	if base == "" {
		return ""
	}
	return base + "/requests/" + url.PathEscape(in.Request.ID)
}

type itemRow struct {
	Label    string
	Quantity int64
	Offers   int
	Lowest   string
}

type lineRow struct {
	Item      string
	Quantity  int64
	UnitPrice decimal.Decimal
	FreeUnits string
	Total     decimal.Decimal
	Delivery  string
	Expiry    string
}

type vendorBlock struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Lines   []lineRow
	Total   decimal.Decimal
	Orphans int
	Invalid int
}

// view is the resolved, display-ready form shared by both projections.
type view struct {
	Title         string
	Requester     string
	Region        string
	Deadline      string
	Status        string
	Link          string
	CreatedAt     string
	ItemCount     int
	ResponseCount int
	Items         []itemRow
	Vendors       []vendorBlock
	LowestID      string
	Lowest        string
	Contacts      bool

	placeholders int
}

func orPlaceholder(v *view, s string) string {
	if strings.TrimSpace(s) == "" {
		v.placeholders++
		return Placeholder
	}
	return s
}

func buildView(in Input) view {
	resolver := in.Catalog
	if resolver == nil {
		resolver = catalog.Empty
	}
	v := view{
		ItemCount:     in.Summary.ItemCount,
		ResponseCount: in.Summary.ResponseCount,
		Status:        in.Request.DisplayStatus(in.Now),
		Link:          in.PublicLink(),
	}
	v.Title = orPlaceholder(&v, in.Request.Title)
	v.Region = orPlaceholder(&v, in.Request.Region)
	v.Deadline = orPlaceholder(&v, types.Date(in.Request.Deadline))
	v.CreatedAt = orPlaceholder(&v, types.DateTime(in.Request.CreatedAt))
	switch {
	case in.Request.CreatedByOperator():
		v.Requester = OperatorLabel
	case in.Requester == nil:
		v.Requester = orPlaceholder(&v, "")
	default:
		v.Requester = in.Requester.DisplayName()
	}

	describe := func(catalogID string) string {
		d, ok := resolver.Resolve(catalogID)
		if !ok {
			return orPlaceholder(&v, "")
		}
		return orPlaceholder(&v, d.Label())
	}

	for _, is := range in.Summary.Items {
		row := itemRow{
			Label:    describe(is.Item.CatalogID),
			Quantity: is.Item.Quantity,
			Offers:   is.Offers,
		}
		if is.LowestUnitPrice != nil {
			row.Lowest = types.Money(*is.LowestUnitPrice)
		}
		v.Items = append(v.Items, row)
	}

	names := make(map[string]string, len(in.Summary.Vendors))
	for _, vs := range in.Summary.Vendors {
		block := vendorBlock{
			ID:      vs.Vendor,
			Total:   vs.Total,
			Orphans: vs.OrphanCount,
			Invalid: vs.InvalidCount,
		}
		acc, ok := in.Vendors[vs.Vendor]
		if ok {
			block.Name = acc.DisplayName()
			block.Email = orPlaceholder(&v, acc.Email)
			block.Phone = orPlaceholder(&v, acc.Phone)
		} else {
			block.Name = orPlaceholder(&v, "")
			block.Email = Placeholder
			block.Phone = Placeholder
		}
		names[vs.Vendor] = block.Name
		for _, lt := range vs.Lines {
			block.Lines = append(block.Lines, lineRow{
				Item:      describe(lt.Item.CatalogID),
				Quantity:  lt.Item.Quantity,
				UnitPrice: lt.Line.UnitPrice,
				FreeUnits: types.Percent(lt.Line.FreeUnitsPercent),
				Total:     lt.Total,
				Delivery:  orPlaceholder(&v, types.Date(lt.Line.DeliveryDate)),
				Expiry:    types.OptionalDate(lt.Line.ExpiryDate),
			})
		}
		v.Vendors = append(v.Vendors, block)
	}
	if id := in.Summary.LowestTotalVendor; id != "" {
		v.LowestID = id
		v.Lowest = names[id]
	}
	return v
}
