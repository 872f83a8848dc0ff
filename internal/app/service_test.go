package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	service "github.com/okian/tenderdesk/internal/app"
	"github.com/okian/tenderdesk/internal/domain/analytics"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/internal/domain/report"
	"github.com/okian/tenderdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithStore(newStore()),
		service.WithClock(func() time.Time { return now }),
		service.WithPublicBaseURL("https://desk.test"),
		service.WithWorkerCount(2),
		service.WithQueueSize(8),
	}
	return service.New(append(base, opts...)...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a store", t, func() {
		svc := service.New()

		Convey("Then it refuses to start", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a service with a store", t, func() {
		svc := newService(service.WithMailer(newFakeMailer()))
		ctx := context.Background()

		Convey("When it is started twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueLength"], ShouldEqual, 0)

			Convey("Then stopping it marks it stopped", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_RequestSummary(t *testing.T) {
	Convey("Given a request with two vendors and an orphan line", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When it is summarized", func() {
			sum, err := svc.RequestSummary(ctx, "R-1")
			So(err, ShouldBeNil)

			Convey("Then vendor totals follow quantity times unit price", func() {
				x, ok := sum.Vendor("X")
				So(ok, ShouldBeTrue)
				So(x.Total.String(), ShouldEqual, "1250")
				y, _ := sum.Vendor("Y")
				So(y.Total.String(), ShouldEqual, "900")
				So(y.OrphanCount, ShouldEqual, 1)
				So(sum.ResponseCount, ShouldEqual, 2)
				So(sum.ItemCount, ShouldEqual, 2)
				So(sum.LowestTotalVendor, ShouldEqual, "Y")
			})
		})

		Convey("When an unknown request is summarized", func() {
			_, err := svc.RequestSummary(ctx, "missing")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Render(t *testing.T) {
	Convey("Given a summarized request", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When the workbook is rendered", func() {
			wb, err := svc.Workbook(ctx, "R-1")
			So(err, ShouldBeNil)
			defer func() { _ = wb.Close() }()

			So(wb.FileName(), ShouldEqual, "bids-R-1-20240515.xlsx")
			data, err := wb.Bytes()
			So(err, ShouldBeNil)
			So(len(data), ShouldBeGreaterThan, 0)
		})

		Convey("When the email is previewed without contacts", func() {
			e, err := svc.EmailPreview(ctx, "R-1", false)
			So(err, ShouldBeNil)

			So(e.Subject, ShouldEqual, "Bid summary: Antibiotics Q3")
			So(e.Body, ShouldContainSubstring, "Pharma X")
			So(e.Body, ShouldContainSubstring, "1250.00")
			So(e.Body, ShouldNotContainSubstring, "sales@pharmax.test")
			So(e.Body, ShouldContainSubstring, "https://desk.test/requests/R-1")
		})

		Convey("When the email is previewed with contacts", func() {
			e, err := svc.EmailPreview(ctx, "R-1", true)
			So(err, ShouldBeNil)
			So(e.Body, ShouldContainSubstring, "sales@pharmax.test")
		})
	})
}

func TestService_ExportWorkbook(t *testing.T) {
	Convey("Given a service without a file sink", t, func() {
		svc := newService()

		Convey("Then exports are refused", func() {
			_, err := svc.ExportWorkbook(context.Background(), "R-1")
			So(errors.Is(err, service.ErrNoFileSink), ShouldBeTrue)
		})
	})

	Convey("Given a service with a file sink", t, func() {
		files := &fakeFiles{}
		svc := newService(service.WithFileSink(files))

		Convey("When a workbook is exported", func() {
			exp, err := svc.ExportWorkbook(context.Background(), "R-1")
			So(err, ShouldBeNil)

			Convey("Then the sink receives the workbook", func() {
				So(exp.Name, ShouldEqual, "bids-R-1-20240515.xlsx")
				So(exp.Location, ShouldEqual, "mem://exports/bids-R-1-20240515.xlsx")
				So(len(files.calls), ShouldEqual, 1)
				So(files.calls[0].contentType, ShouldEqual, report.ContentTypeWorkbook)
				So(files.calls[0].size, ShouldEqual, exp.Size)
			})
		})

		Convey("When the sink fails", func() {
			files.fail = true
			_, err := svc.ExportWorkbook(context.Background(), "R-1")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "bucket unavailable")
		})
	})
}

func TestService_QueueEmail(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		svc := newService()
		_, err := svc.QueueEmail(context.Background(), "R-1", "ops@desk.test", false)
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
	})

	Convey("Given a started service", t, func() {
		mailer := newFakeMailer()
		svc := newService(service.WithMailer(mailer))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When an email is queued", func() {
			d, err := svc.QueueEmail(ctx, "R-1", " Ops <ops@desk.test> ", true)
			So(err, ShouldBeNil)
			So(d.ID, ShouldNotBeEmpty)
			So(d.To, ShouldEqual, "ops@desk.test")
			So(d.CreatedAt, ShouldEqual, now)

			Convey("Then a worker sends it", func() {
				msg, ok := mailer.wait(2 * time.Second)
				So(ok, ShouldBeTrue)
				So(msg.To, ShouldEqual, "ops@desk.test")
				So(msg.Subject, ShouldEqual, "Bid summary: Antibiotics Q3")
				So(msg.HTMLBody, ShouldContainSubstring, "sales@pharmax.test")
			})

			Convey("And the same email is not queued twice", func() {
				_, err := svc.QueueEmail(ctx, "R-1", "OPS@desk.test", true)
				So(errors.Is(err, service.ErrDuplicate), ShouldBeTrue)

				_, err = svc.QueueEmail(ctx, "R-1", "ops@desk.test", false)
				So(err, ShouldBeNil)
			})
		})

		Convey("When the recipient is not an address", func() {
			_, err := svc.QueueEmail(ctx, "R-1", "not-an-address", false)
			So(errors.Is(err, service.ErrInvalidRecipient), ShouldBeTrue)
		})

		Convey("When the request does not exist", func() {
			_, err := svc.QueueEmail(ctx, "missing", "ops@desk.test", false)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When sending fails", func() {
			mailer.setFail(errors.New("smtp down"))
			_, err := svc.QueueEmail(ctx, "R-1", "retry@desk.test", false)
			So(err, ShouldBeNil)
			_, ok := mailer.wait(2 * time.Second)
			So(ok, ShouldBeTrue)

			Convey("Then the delivery can be queued again", func() {
				mailer.setFail(nil)
				var err error
				for i := 0; i < 100; i++ {
					_, err = svc.QueueEmail(ctx, "R-1", "retry@desk.test", false)
					if !errors.Is(err, service.ErrDuplicate) {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(err, ShouldBeNil)
				_, ok := mailer.wait(2 * time.Second)
				So(ok, ShouldBeTrue)
				So(mailer.sentCount(), ShouldEqual, 1)
			})
		})
	})
}

func TestService_Analytics(t *testing.T) {
	Convey("Given a population with an internal test account", t, func() {
		svc := newService(service.WithExcludedAccounts("QA-1"))
		ctx := context.Background()

		Convey("When it is rolled up now", func() {
			snap, err := svc.Analytics(ctx, time.Time{})
			So(err, ShouldBeNil)

			Convey("Then the excluded account leaves no trace", func() {
				So(snap.At, ShouldEqual, now)
				So(snap.Accounts.Total, ShouldEqual, 3)
				So(snap.Accounts.Admins, ShouldEqual, 0)
				So(snap.Requests.Total, ShouldEqual, 2)
				So(snap.Requests.CreatedByOperator, ShouldEqual, 1)
				So(snap.Requests.Buckets[analytics.BucketOpen], ShouldEqual, 1)
				So(snap.Subscriptions.Total, ShouldEqual, 1)
				So(snap.Subscriptions.LapsedTrials, ShouldEqual, 0)
				So(snap.Activity.Today, ShouldEqual, 1)
				So(snap.Activity.Week, ShouldEqual, 2)
			})
		})

		Convey("When activity is grouped by day", func() {
			grouping, err := svc.ActivityByDay(ctx, time.Time{})
			So(err, ShouldBeNil)
			days := grouping.Days

			So(len(days), ShouldEqual, 2)
			So(days[0].Date, ShouldEqual, "2024-05-15")
			So(len(days[0].Events), ShouldEqual, 1)
			So(days[1].Date, ShouldEqual, "2024-05-12")
		})

		Convey("When requests are listed", func() {
			open, err := svc.ListRequests(ctx, repository.RequestFilter{Statuses: []model.RequestStatus{model.RequestOpen}})
			So(err, ShouldBeNil)
			So(len(open), ShouldEqual, 2)
			So(strings.HasPrefix(open[0].ID, "R-"), ShouldBeTrue)
		})
	})
}
