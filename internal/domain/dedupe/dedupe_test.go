package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/courtprior/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(16))

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
			So(d.Duplicates(), ShouldEqual, 0)
		})

		Convey("When an id is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "0022300001:7")
			second := d.SeenAndRecord(ctx, "0022300001:7")

			Convey("Then only the repeat is reported", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
				So(d.Duplicates(), ShouldEqual, 1)
			})
		})

		Convey("When the id is empty", func() {
			So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)

			Convey("Then nothing is recorded", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When many goroutines record overlapping ids", func() {
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						d.SeenAndRecord(ctx, fmt.Sprintf("shot-%d", i))
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is stored once", func() {
				So(d.Size(), ShouldEqual, 100)
				So(d.Duplicates(), ShouldEqual, 700)
			})
		})
	})
}
