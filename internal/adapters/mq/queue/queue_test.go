package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func delivery(id string) queue.Delivery {
	return queue.Delivery{ID: id, RequestID: "R-1", To: "ops@example.test", CreatedAt: time.Now()}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When two deliveries are enqueued", func() {
			So(q.Enqueue(ctx, delivery("d1")), ShouldBeNil)
			So(q.Enqueue(ctx, delivery("d2")), ShouldBeNil)

			Convey("Then a third one is rejected as full", func() {
				So(errors.Is(q.Enqueue(ctx, delivery("d3")), queue.ErrFull), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
				So(q.Capacity(), ShouldEqual, 2)
			})

			Convey("And they are dequeued in order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).ID, ShouldEqual, "d1")
				So((<-ch).ID, ShouldEqual, "d2")
			})
		})

		Convey("When the queue is closed with a waiting delivery", func() {
			So(q.Enqueue(ctx, delivery("d1")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new deliveries are refused", func() {
				So(errors.Is(q.Enqueue(ctx, delivery("d2")), queue.ErrClosed), ShouldBeTrue)
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Close(), ShouldBeNil)
			})

			Convey("And the waiting one is still drained before the channel closes", func() {
				ch := q.Dequeue(ctx)
				d, ok := <-ch
				So(ok, ShouldBeTrue)
				So(d.ID, ShouldEqual, "d1")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the caller context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue fails with the context error", func() {
				So(errors.Is(q.Enqueue(cctx, delivery("d1")), context.Canceled), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})
	})
}
