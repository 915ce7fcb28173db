package worker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/smartystreets/goconvey/convey"

	worker "github.com/okian/courtprior/internal/adapters/worker"
	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/posterior"
	"github.com/okian/courtprior/internal/domain/prior"
	logging "github.com/okian/courtprior/pkg/logger"
)

func corpus(n int) []model.ShotEvent {
	codes := []string{"G", "F", "C", "G-F", "F-C", "X"}
	events := make([]model.ShotEvent, 0, n)
	for i := 0; i < n; i++ {
		zone := model.Zones[i%len(model.Zones)]
		if i%17 == 0 {
			zone = "Backcourt"
		}
		events = append(events, model.ShotEvent{
			PlayerID:     fmt.Sprintf("p%d", i%40),
			PlayerName:   fmt.Sprintf("Player %d", i%40),
			PositionCode: codes[i%len(codes)],
			Zone:         string(zone),
			Made:         i%3 == 0,
		})
	}
	return events
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool with small chunks", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		pool := worker.NewPool(worker.WithWorkers(4), worker.WithChunkSize(7))
		events := corpus(1000)

		convey.Convey("When priors are folded in parallel", func() {
			acc, err := pool.Priors(ctx, events)
			serial, diag := prior.Compute(events)

			convey.Convey("Then the merged table equals the serial fold", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Workers(), convey.ShouldEqual, 4)
				convey.So(cmp.Diff(acc.Table().Rows(), serial.Rows()), convey.ShouldBeEmpty)
				convey.So(cmp.Diff(acc.Diagnostics(), diag), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When posteriors are computed in parallel", func() {
			table, _ := prior.Compute(events)
			observations := make([]model.PlayerZoneObservation, 0, 120)
			for i := 0; i < 120; i++ {
				observations = append(observations, model.PlayerZoneObservation{
					PlayerID:   fmt.Sprintf("p%d", i),
					PlayerName: fmt.Sprintf("Player %d", i),
					Position:   model.Positions[i%len(model.Positions)],
					Zone:       model.Zones[i%len(model.Zones)],
					Attempts:   int64(5 + i%30),
					Makes:      int64(i % 5),
				})
			}
			engine := posterior.NewEngine()
			parallel, err := pool.Posteriors(ctx, engine, observations, table)
			serial, serialErr := engine.ComputeAll(observations, table)

			convey.Convey("Then the report matches the serial run exactly", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(serialErr, convey.ShouldBeNil)
				convey.So(cmp.Diff(parallel, serial), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := pool.Priors(cctx, events)

			convey.Convey("Then the pool reports the cancellation", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When there is no input", func() {
			acc, err := pool.Priors(ctx, nil)

			convey.Convey("Then an empty accumulator is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(acc.Table().Len(), convey.ShouldEqual, 0)
			})
		})
	})
}
