package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/http/api"
	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/adapters/sink"
	"github.com/okian/tenderdesk/internal/config"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func writeSeed(dir string) string {
	path := filepath.Join(dir, "seed.json")
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	err := repository.WriteSeed(path, repository.Seed{
		Requests: []model.SourcingRequest{{ID: "R-1", Title: "Syringes", Status: model.RequestOpen, CreatedAt: at}},
		Items:    []model.RequestedLineItem{{ID: "A", RequestID: "R-1", CatalogID: "cat-a", Quantity: 4}},
		Bids: []model.VendorBid{{ID: "b1", RequestID: "R-1", VendorID: "X", Lines: []model.BidLineItem{
			{ID: "x1", RequestedItemID: "A", UnitPrice: decimal.RequireFromString("2.5"), DeliveryDate: at},
		}}},
		Accounts: []model.Account{{ID: "X", Role: model.RoleVendor, Name: "Pharma X"}},
	})
	if err != nil {
		panic(err)
	}
	return path
}

func TestMainComponents(t *testing.T) {
	convey.Convey("Given a configuration with a seeded memory store", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cfg := config.New(ctx)
		cfg.SeedFile = writeSeed(dir)
		cfg.ExportDir = filepath.Join(dir, "exports")
		log := logger.Get()

		convey.Convey("When the store is opened", func() {
			store, release, err := openStore(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			defer release()

			convey.Convey("Then the seed is readable", func() {
				req, err := store.GetRequest(ctx, "R-1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(req.Title, convey.ShouldEqual, "Syringes")
			})
		})

		convey.Convey("When the seed file is missing", func() {
			cfg.SeedFile = filepath.Join(dir, "missing.json")
			_, _, err := openStore(ctx, cfg, log)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When sinks are opened", func() {
			files, err := openFileSink(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			_, isLocal := files.(*sink.LocalDirSink)
			convey.So(isLocal, convey.ShouldBeTrue)

			mailer, err := openMailer(cfg, log)
			convey.So(err, convey.ShouldBeNil)
			_, isLog := mailer.(*sink.LogMailer)
			convey.So(isLog, convey.ShouldBeTrue)

			cfg.FileSink = config.FileSinkNone
			files, err = openFileSink(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(files, convey.ShouldBeNil)
		})

		convey.Convey("When the HTTP server is created", func() {
			srv := newHTTPServer(cfg, http.NewServeMux())
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
		})

		convey.Convey("When system metrics are updated", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestMainIntegration(t *testing.T) {
	convey.Convey("Given a fully wired application", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cfg := config.New(ctx)
		cfg.SeedFile = writeSeed(dir)
		cfg.ExportDir = filepath.Join(dir, "exports")
		log := logger.Get()

		store, release, err := openStore(ctx, cfg, log)
		convey.So(err, convey.ShouldBeNil)
		defer release()
		files, err := openFileSink(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		mailer, err := openMailer(cfg, log)
		convey.So(err, convey.ShouldBeNil)

		svc, err := newService(cfg, store, files, mailer, log)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		convey.Convey("When the summary is fetched", func() {
			resp, err := http.Get(ts.URL + "/requests/R-1/summary")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			var out struct {
				Vendors []struct {
					Vendor string `json:"vendor"`
					Total  string `json:"total"`
				} `json:"vendors"`
			}
			convey.So(json.NewDecoder(resp.Body).Decode(&out), convey.ShouldBeNil)

			convey.Convey("Then the vendor total is computed", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(len(out.Vendors), convey.ShouldEqual, 1)
				convey.So(out.Vendors[0].Total, convey.ShouldEqual, "10.00")
			})
		})

		convey.Convey("When the workbook is exported", func() {
			resp, err := http.Post(ts.URL+"/requests/R-1/export", "application/json", nil)
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()

			convey.Convey("Then it lands in the export directory", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)
				entries, err := os.ReadDir(cfg.ExportDir)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 1)
				convey.So(filepath.Ext(entries[0].Name()), convey.ShouldEqual, ".xlsx")
			})
		})

		convey.Convey("When an email is queued", func() {
			body := `{"to":"ops@desk.test"}`
			resp, err := http.Post(ts.URL+"/requests/R-1/email", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)

			resp, err = http.Post(ts.URL+"/requests/R-1/email", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusConflict)
		})
	})
}
