package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/tenderdesk/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given the same delivery written differently", t, func() {
		a := dedupe.Key("R-1", " Ops@Example.test ", true)
		b := dedupe.Key("R-1", "ops@example.test", true)

		Convey("Then the keys match", func() {
			So(a, ShouldEqual, b)
			So(a, ShouldEqual, "R-1|ops@example.test|true")
		})

		Convey("And the contact flag changes the key", func() {
			So(dedupe.Key("R-1", "ops@example.test", false), ShouldNotEqual, a)
		})
	})
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a key is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "k1")
			second := d.SeenAndRecord(ctx, "k1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded key is unrecorded", func() {
			d.SeenAndRecord(ctx, "k1")
			d.Unrecord(ctx, "k1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown key is unrecorded", func() {
			d.Unrecord(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.SeenAndRecord(ctx, "k1")
		d.SeenAndRecord(ctx, "k2")
		d.SeenAndRecord(ctx, "k3")

		Convey("Then the oldest key is evicted first", func() {
			So(d.Size(), ShouldEqual, 2)
			So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 500; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 500)
		})
	})

	Convey("Given concurrent callers racing on one key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "same") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one caller records it", func() {
			So(fresh, ShouldEqual, 1)
		})
	})
}
