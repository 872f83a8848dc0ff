package aggregate_test

import (
	"testing"
	"time"

	"github.com/okian/tenderdesk/internal/domain/aggregate"
	"github.com/okian/tenderdesk/internal/domain/matcher"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

var delivery = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func line(id, itemID, price string) model.BidLineItem {
	return model.BidLineItem{
		ID:              id,
		RequestedItemID: itemID,
		UnitPrice:       decimal.RequireFromString(price),
		DeliveryDate:    delivery,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func workedExample() matcher.MatchedBidSet {
	req := model.SourcingRequest{ID: "R", Status: model.RequestOpen}
	items := []model.RequestedLineItem{
		{ID: "A", RequestID: "R", Quantity: 10},
		{ID: "B", RequestID: "R", Quantity: 5},
	}
	bids := []model.VendorBid{
		{ID: "bx", RequestID: "R", VendorID: "X", Lines: []model.BidLineItem{
			line("x1", "A", "100"),
			line("x2", "B", "50"),
		}},
		{ID: "by", RequestID: "R", VendorID: "Y", Lines: []model.BidLineItem{
			line("y1", "A", "90"),
		}},
	}
	return matcher.Match(req, items, bids)
}

func TestSummarize(t *testing.T) {
	Convey("Given two vendors quoting a two-line request", t, func() {
		sum := aggregate.Summarize(workedExample())

		Convey("Then vendor totals are price times requested quantity", func() {
			x, ok := sum.Vendor("X")
			So(ok, ShouldBeTrue)
			So(x.Total.Equal(dec("1250")), ShouldBeTrue)
			So(len(x.Lines), ShouldEqual, 2)

			y, ok := sum.Vendor("Y")
			So(ok, ShouldBeTrue)
			So(y.Total.Equal(dec("900")), ShouldBeTrue)
		})

		Convey("And request-level counts reflect items and responding vendors", func() {
			So(sum.ItemCount, ShouldEqual, 2)
			So(sum.ResponseCount, ShouldEqual, 2)
		})

		Convey("And the lowest total and lowest item offers are identified", func() {
			So(sum.LowestTotalVendor, ShouldEqual, "Y")
			So(sum.Items[0].Offers, ShouldEqual, 2)
			So(sum.Items[0].LowestUnitPrice.Equal(dec("90")), ShouldBeTrue)
			So(sum.Items[0].LowestVendors, ShouldResemble, []string{"Y"})
			So(sum.Items[1].Offers, ShouldEqual, 1)
		})

		Convey("And summarizing again yields identical results", func() {
			again := aggregate.Summarize(workedExample())
			So(again, ShouldResemble, sum)
		})

		Convey("And Lines lists valid lines by vendor", func() {
			lines := sum.Lines()
			So(len(lines), ShouldEqual, 3)
			So(lines[0].Line.ID, ShouldEqual, "x1")
			So(lines[0].Total.Equal(dec("1000")), ShouldBeTrue)
			So(lines[2].Vendor, ShouldEqual, "Y")
		})
	})

	Convey("Given a line with a free units percentage", t, func() {
		free := dec("10")
		l := line("x1", "A", "100")
		l.FreeUnitsPercent = &free
		set := matcher.Match(
			model.SourcingRequest{ID: "R"},
			[]model.RequestedLineItem{{ID: "A", RequestID: "R", Quantity: 10}},
			[]model.VendorBid{{ID: "b", RequestID: "R", VendorID: "X", Lines: []model.BidLineItem{l}}},
		)
		sum := aggregate.Summarize(set)

		Convey("Then the percentage does not reduce the total", func() {
			So(sum.Vendors[0].Total.Equal(dec("1000")), ShouldBeTrue)
		})
	})

	Convey("Given a vendor bid made only of orphan lines", t, func() {
		set := matcher.Match(
			model.SourcingRequest{ID: "R"},
			[]model.RequestedLineItem{{ID: "A", RequestID: "R", Quantity: 3}},
			[]model.VendorBid{
				{ID: "b1", RequestID: "R", VendorID: "X", Lines: []model.BidLineItem{line("x1", "A", "2")}},
				{ID: "b2", RequestID: "R", VendorID: "Z", Lines: []model.BidLineItem{line("z1", "gone", "1")}},
			},
		)
		sum := aggregate.Summarize(set)

		Convey("Then the vendor still counts as a response with a zero total", func() {
			So(sum.ResponseCount, ShouldEqual, 2)
			z, _ := sum.Vendor("Z")
			So(z.Total.IsZero(), ShouldBeTrue)
			So(z.OrphanCount, ShouldEqual, 1)
			So(len(sum.Orphans), ShouldEqual, 1)
		})

		Convey("And the orphan never becomes the lowest total", func() {
			So(sum.LowestTotalVendor, ShouldEqual, "X")
		})
	})

	Convey("Given invalid lines", t, func() {
		negative := line("x2", "B", "-1")
		noDate := line("x3", "A", "5")
		noDate.DeliveryDate = time.Time{}
		set := matcher.Match(
			model.SourcingRequest{ID: "R"},
			[]model.RequestedLineItem{
				{ID: "A", RequestID: "R", Quantity: 2},
				{ID: "B", RequestID: "R", Quantity: 4},
				{ID: "C", RequestID: "R", Quantity: 0},
			},
			[]model.VendorBid{{ID: "b", RequestID: "R", VendorID: "X", Lines: []model.BidLineItem{
				line("x1", "A", "1.5"),
				negative,
				noDate,
				line("x4", "C", "7"),
			}}},
		)
		sum := aggregate.Summarize(set)

		Convey("Then only the invalid lines are excluded", func() {
			x, _ := sum.Vendor("X")
			So(x.Total.Equal(dec("3")), ShouldBeTrue)
			So(x.InvalidCount, ShouldEqual, 3)
			So(len(sum.Invalid), ShouldEqual, 3)
		})

		Convey("And each carries the reason it was excluded", func() {
			So(sum.Invalid[0].Reason, ShouldEqual, model.ErrNegativePrice.Error())
			So(sum.Invalid[1].Reason, ShouldEqual, model.ErrMissingDeliveryDate.Error())
			So(sum.Invalid[2].Reason, ShouldEqual, model.ErrNonPositiveQuantity.Error())
		})
	})

	Convey("Given duplicate lines for the same requested item", t, func() {
		set := matcher.Match(
			model.SourcingRequest{ID: "R"},
			[]model.RequestedLineItem{{ID: "A", RequestID: "R", Quantity: 2}},
			[]model.VendorBid{{ID: "b", RequestID: "R", VendorID: "X", Lines: []model.BidLineItem{
				line("x1", "A", "0.10"),
				line("x2", "A", "0.20"),
			}}},
		)
		sum := aggregate.Summarize(set)

		Convey("Then both lines contribute at full precision", func() {
			So(sum.Vendors[0].Total.Equal(dec("0.6")), ShouldBeTrue)
			So(sum.Items[0].Offers, ShouldEqual, 2)
			So(sum.Items[0].LowestVendors, ShouldResemble, []string{"X"})
		})
	})

	Convey("Given a request with no bids", t, func() {
		set := matcher.Match(
			model.SourcingRequest{ID: "R"},
			[]model.RequestedLineItem{{ID: "A", RequestID: "R", Quantity: 2}},
			nil,
		)
		sum := aggregate.Summarize(set)

		Convey("Then there are no responses and no lowest vendor", func() {
			So(sum.ResponseCount, ShouldEqual, 0)
			So(sum.ItemCount, ShouldEqual, 1)
			So(sum.LowestTotalVendor, ShouldEqual, "")
			So(sum.Items[0].LowestUnitPrice, ShouldBeNil)
		})
	})

	Convey("Given a hand-built set naming vendors and items it does not list", t, func() {
		itemA := model.RequestedLineItem{ID: "A", RequestID: "R", Quantity: 3}
		set := matcher.MatchedBidSet{
			Request: model.SourcingRequest{ID: "R"},
			Vendors: []string{"X"},
			Matched: []matcher.MatchedLine{
				{Vendor: "X", BidID: "bx", Item: itemA, Line: line("x1", "A", "2")},
				{Vendor: "Z", BidID: "bz", Item: itemA, Line: line("z1", "A", "1")},
			},
			Orphans: []matcher.OrphanLine{{Vendor: "V", BidID: "bv", DanglingID: "gone"}},
		}

		var sum aggregate.RequestSummary
		So(func() { sum = aggregate.Summarize(set) }, ShouldNotPanic)

		Convey("Then each line is credited to its own vendor", func() {
			So(sum.ResponseCount, ShouldEqual, 3)
			So(sum.Vendors[0].Vendor, ShouldEqual, "X")
			So(sum.Vendors[0].Total.Equal(dec("6")), ShouldBeTrue)
			So(sum.Vendors[1].Vendor, ShouldEqual, "V")
			So(sum.Vendors[1].OrphanCount, ShouldEqual, 1)
			So(sum.Vendors[1].Total.IsZero(), ShouldBeTrue)
			So(sum.Vendors[2].Vendor, ShouldEqual, "Z")
			So(sum.Vendors[2].Total.Equal(dec("3")), ShouldBeTrue)
			So(sum.LowestTotalVendor, ShouldEqual, "Z")
		})

		Convey("And the unlisted item gets its own comparison", func() {
			So(sum.ItemCount, ShouldEqual, 1)
			So(sum.Items[0].Offers, ShouldEqual, 2)
			So(sum.Items[0].LowestVendors, ShouldResemble, []string{"Z"})
		})
	})

	Convey("Given a set holding only an orphan", t, func() {
		sum := aggregate.Summarize(matcher.MatchedBidSet{Orphans: []matcher.OrphanLine{{Vendor: "V"}}})

		Convey("Then the vendor responds with a zero total", func() {
			So(sum.ResponseCount, ShouldEqual, 1)
			So(sum.Vendors[0].OrphanCount, ShouldEqual, 1)
			So(sum.LowestTotalVendor, ShouldEqual, "")
		})
	})
}
