package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/tenderdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalDirSink(t *testing.T) {
	Convey("Given a local directory sink", t, func() {
		dir := filepath.Join(t.TempDir(), "exports")
		s, err := NewLocalDirSink(dir)
		So(err, ShouldBeNil)

		Convey("When a file is put", func() {
			loc, err := s.Put(context.Background(), "../bids-R-1.xlsx", "application/octet-stream", []byte("xlsx"))

			Convey("Then it lands inside the directory under its base name", func() {
				So(err, ShouldBeNil)
				So(loc, ShouldEqual, filepath.Join(dir, "bids-R-1.xlsx"))
				data, err := os.ReadFile(loc)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "xlsx")
			})

			Convey("And no temporary file is left behind", func() {
				entries, _ := os.ReadDir(dir)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := s.Put(ctx, "x.xlsx", "", nil)

			Convey("Then nothing is written", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given no directory", t, func() {
		_, err := NewLocalDirSink(" ")

		Convey("Then the sink is not configured", func() {
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})
	})
}

func TestMinioSink(t *testing.T) {
	Convey("Given a minio sink with a prefix", t, func() {
		s, err := NewMinioSink(MinioConfig{
			Endpoint:  "minio.example.test:9000",
			AccessKey: "key",
			SecretKey: "secret",
			Bucket:    "exports",
			Prefix:    "/workbooks/",
		})
		So(err, ShouldBeNil)

		Convey("Then object names are prefixed base names", func() {
			So(s.objectName("nested/bids-R-1.xlsx"), ShouldEqual, "workbooks/bids-R-1.xlsx")
		})

		Convey("And public URLs follow the endpoint and bucket", func() {
			So(s.PublicURL("workbooks/a.xlsx"), ShouldEqual, "http://minio.example.test:9000/exports/workbooks/a.xlsx")
		})
	})

	Convey("Given a minio config without a bucket", t, func() {
		_, err := NewMinioSink(MinioConfig{Endpoint: "localhost:9000"})

		Convey("Then the sink is not configured", func() {
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})
	})
}

func TestSMTPMailer(t *testing.T) {
	Convey("Given SMTP settings", t, func() {
		Convey("When the host is missing", func() {
			_, err := NewSMTPMailer(SMTPConfig{From: "desk@example.test"})

			Convey("Then the mailer is not configured", func() {
				So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
			})
		})

		Convey("When a complete configuration is given", func() {
			m, err := NewSMTPMailer(SMTPConfig{
				Host: "smtp.example.test", Port: 2525,
				Username: "u", Password: "p", From: "desk@example.test",
			})

			Convey("Then a mailer is created without dialing", func() {
				So(err, ShouldBeNil)
				So(m, ShouldNotBeNil)
			})
		})
	})

	Convey("Given an outbound message", t, func() {
		Convey("When the recipient is valid", func() {
			msg, err := buildMessage("desk@example.test", Message{To: "ops@example.test", Subject: "Bid summary", HTMLBody: "<p>hi</p>"})

			Convey("Then the envelope is set", func() {
				So(err, ShouldBeNil)
				to := msg.GetTo()
				So(len(to), ShouldEqual, 1)
				So(to[0].Address, ShouldEqual, "ops@example.test")
			})
		})

		Convey("When the recipient is not an address", func() {
			_, err := buildMessage("desk@example.test", Message{To: "not an address"})

			Convey("Then building fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLogMailer(t *testing.T) {
	Convey("Given a log mailer", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithWriter(&buf)), ShouldBeNil)
		m := NewLogMailer(nil)

		Convey("When a message is sent", func() {
			err := m.Send(context.Background(), Message{To: "ops@example.test", Subject: "Bid summary", HTMLBody: "<p>x</p>"})

			Convey("Then it is logged instead", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "ops@example.test")
			})
		})
	})
}
