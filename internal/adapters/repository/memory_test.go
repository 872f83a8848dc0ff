package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func seed() repository.Seed {
	return repository.Seed{
		Requests: []model.SourcingRequest{
			{ID: "R-1", Title: "first", Region: "north", Status: model.RequestOpen, CreatedAt: base},
			{ID: "R-2", Title: "second", Region: "south", Status: model.RequestClosed, CreatedAt: base.Add(time.Hour)},
			{ID: "R-3", Title: "third", Region: "north", Status: model.RequestPending, CreatedAt: base.Add(2 * time.Hour)},
		},
		Items: []model.RequestedLineItem{
			{ID: "A", RequestID: "R-1", CatalogID: "cat-a", Quantity: 10},
			{ID: "B", RequestID: "R-1", CatalogID: "cat-b", Quantity: 5},
		},
		Bids: []model.VendorBid{
			{ID: "b2", RequestID: "R-1", VendorID: "Y", SubmittedAt: base.Add(2 * time.Hour), Lines: []model.BidLineItem{
				{ID: "y1", RequestedItemID: "A", UnitPrice: decimal.RequireFromString("90"), DeliveryDate: base},
			}},
			{ID: "b1", RequestID: "R-1", VendorID: "X", SubmittedAt: base.Add(time.Hour), Lines: []model.BidLineItem{
				{ID: "x1", RequestedItemID: "A", UnitPrice: decimal.RequireFromString("100.125"), DeliveryDate: base},
			}},
		},
		Accounts: []model.Account{
			{ID: "X", Role: model.RoleVendor, Name: "Pharma X"},
			{ID: "Y", Role: model.RoleVendor, Name: "Supplier Y"},
		},
		Subscriptions: []model.Subscription{{ID: "s1", AccountID: "X", Status: model.SubscriptionActive}},
		Activity: []model.ActivityEvent{
			{ID: "e2", AccountID: "Y", Action: "login", At: base.Add(time.Hour)},
			{ID: "e1", AccountID: "X", Action: "login", At: base},
		},
		Catalog: catalog.Map{"cat-a": {Name: "Amoxicillin"}},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store loaded with a seed", t, func() {
		s := repository.NewMemoryStore()
		s.Apply(seed())

		Convey("When requests are listed", func() {
			all, err := s.ListRequests(ctx, repository.RequestFilter{})
			So(err, ShouldBeNil)

			Convey("Then they come newest first", func() {
				So(len(all), ShouldEqual, 3)
				So(all[0].ID, ShouldEqual, "R-3")
				So(all[2].ID, ShouldEqual, "R-1")
			})

			Convey("And filters narrow the result", func() {
				north, _ := s.ListRequests(ctx, repository.RequestFilter{Region: "north"})
				So(len(north), ShouldEqual, 2)
				open, _ := s.ListRequests(ctx, repository.RequestFilter{Statuses: []model.RequestStatus{model.RequestOpen, model.RequestClosed}, Limit: 1})
				So(len(open), ShouldEqual, 1)
				So(open[0].ID, ShouldEqual, "R-2")
			})

			Convey("And a negative limit is rejected", func() {
				_, err := s.ListRequests(ctx, repository.RequestFilter{Limit: -1})
				So(errors.Is(err, repository.ErrInvalidFilter), ShouldBeTrue)
			})
		})

		Convey("When an unknown request or account is fetched", func() {
			_, err1 := s.GetRequest(ctx, "nope")
			_, err2 := s.GetAccount(ctx, "nope")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err1, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(err2, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When bids are listed", func() {
			bids, err := s.ListBids(ctx, "R-1")
			So(err, ShouldBeNil)

			Convey("Then they come in submission order with lines attached", func() {
				So(len(bids), ShouldEqual, 2)
				So(bids[0].ID, ShouldEqual, "b1")
				So(bids[0].Lines[0].BidID, ShouldEqual, "b1")
				So(bids[0].Lines[0].UnitPrice.String(), ShouldEqual, "100.125")
			})
		})

		Convey("When accounts and descriptors are resolved by id", func() {
			accounts, err := s.AccountsByID(ctx, []string{"X", "ghost"})
			So(err, ShouldBeNil)
			descriptors, err := s.Descriptors(ctx, []string{"cat-a", "cat-b"})
			So(err, ShouldBeNil)

			Convey("Then unknown ids are left out", func() {
				So(len(accounts), ShouldEqual, 1)
				So(accounts["X"].Name, ShouldEqual, "Pharma X")
				So(len(descriptors), ShouldEqual, 1)
				So(descriptors["cat-a"].Name, ShouldEqual, "Amoxicillin")
			})
		})

		Convey("When activity is listed since a point in time", func() {
			all, _ := s.ListActivity(ctx, time.Time{})
			recent, _ := s.ListActivity(ctx, base.Add(time.Minute))

			Convey("Then events come oldest first and older ones are dropped", func() {
				So(len(all), ShouldEqual, 2)
				So(all[0].ID, ShouldEqual, "e1")
				So(len(recent), ShouldEqual, 1)
				So(recent[0].ID, ShouldEqual, "e2")
			})
		})

		Convey("When the store is wrapped with instrumentation", func() {
			wrapped := repository.Instrumented(s)
			items, err := wrapped.ListItems(ctx, "R-1")
			_, missing := wrapped.GetRequest(ctx, "nope")

			Convey("Then calls pass through unchanged", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 2)
				So(errors.Is(missing, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestSeedFile(t *testing.T) {
	Convey("Given a seed written to disk", t, func() {
		path := filepath.Join(t.TempDir(), "seed.json")
		So(repository.WriteSeed(path, seed()), ShouldBeNil)

		Convey("When it is loaded back", func() {
			s, err := repository.LoadSeed(path)
			So(err, ShouldBeNil)

			Convey("Then the records are available with exact prices", func() {
				accounts, _ := s.ListAccounts(context.Background())
				So(len(accounts), ShouldEqual, 2)
				bids, _ := s.ListBids(context.Background(), "R-1")
				So(bids[0].Lines[0].UnitPrice.Equal(decimal.RequireFromString("100.125")), ShouldBeTrue)
			})
		})

		Convey("When the path does not exist", func() {
			_, err := repository.LoadSeed(filepath.Join(t.TempDir(), "missing.json"))

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
