package summary_test

import (
	"testing"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

func row(id, name string, pos model.Position, zone model.Zone, attempts int64, shrink, width, mean float64) model.PlayerZonePosterior {
	return model.PlayerZonePosterior{
		PlayerID: id, PlayerName: name, Position: pos, Zone: zone,
		Attempts: attempts, Shrinkage: shrink, CIWidth: width, PosteriorMean: mean,
	}
}

func fixture() []model.PlayerZonePosterior {
	return []model.PlayerZonePosterior{
		row("1", "Stephen Curry", model.Guard, model.AboveBreak3, 780, 0.04, 0.005, 0.37),
		row("1", "Stephen Curry", model.Guard, model.RestrictedArea, 150, 0.02, 0.006, 0.60),
		row("2", "Seth Curry", model.Guard, model.AboveBreak3, 12, 0.13, 0.007, 0.36),
		row("3", "Rudy Gobert", model.Center, model.RestrictedArea, 400, -0.01, 0.004, 0.70),
		row("4", "Ben Forward", model.Forward, model.MidRange, 30, -0.08, 0.009, 0.40),
		row("4", "Ben Forward", model.Forward, model.Paint, 18, -0.10, 0.010, 0.41),
	}
}

func TestSummarize(t *testing.T) {
	Convey("Given a posterior table", t, func() {
		s, err := summary.Summarize(fixture(), 2)
		So(err, ShouldBeNil)

		Convey("Then overall statistics are computed", func() {
			So(s.Rows, ShouldEqual, 6)
			So(s.Players, ShouldEqual, 4)
			So(s.MeanAbsShrinkage, ShouldAlmostEqual, 0.38/6, 1e-12)
			So(s.MedianAttempts, ShouldEqual, 90)
		})

		Convey("Then rows land in sample-size buckets", func() {
			So(len(s.Buckets), ShouldEqual, 5)
			counts := []int{}
			for _, b := range s.Buckets {
				counts = append(counts, b.Count)
			}
			So(counts, ShouldResemble, []int{2, 1, 0, 2, 1})
			So(s.Buckets[0].MeanShrinkage, ShouldAlmostEqual, 0.015, 1e-12)
			So(s.Buckets[1].StdShrinkage, ShouldEqual, 0)
			So(s.Buckets[0].StdShrinkage, ShouldBeGreaterThan, 0)
		})

		Convey("Then positions are summarised in reporting order", func() {
			So(len(s.Positions), ShouldEqual, 3)
			So(s.Positions[0].Position, ShouldEqual, model.Guard)
			So(s.Positions[0].Players, ShouldEqual, 2)
			So(s.Positions[2].Position, ShouldEqual, model.Center)
		})

		Convey("Then the extremes are reported", func() {
			So(s.RegularizedDown[0].PlayerName, ShouldEqual, "Seth Curry")
			So(len(s.RegularizedDown), ShouldEqual, 2)
			So(s.RegularizedUp[0].Zone, ShouldEqual, model.Paint)
			So(s.HighVolume.Attempts, ShouldEqual, 780)
			So(s.LowVolume.Attempts, ShouldEqual, 12)
		})
	})

	Convey("Given an empty table", t, func() {
		s, err := summary.Summarize(nil, 0)

		Convey("Then a zero summary is returned", func() {
			So(err, ShouldBeNil)
			So(s.Rows, ShouldEqual, 0)
			So(s.HighVolume, ShouldBeNil)
		})
	})
}

func TestProfiles(t *testing.T) {
	Convey("Given a name query", t, func() {
		matches := summary.MatchName(fixture(), "curry")

		Convey("Then matching is case-insensitive substring", func() {
			So(len(matches), ShouldEqual, 3)
			So(summary.MatchName(fixture(), "  "), ShouldBeEmpty)
		})

		Convey("When grouped into profiles", func() {
			profiles := summary.Profiles(matches)

			Convey("Then zones are ordered by attempts with headline zones", func() {
				So(len(profiles), ShouldEqual, 2)
				steph := profiles[0]
				So(steph.PlayerName, ShouldEqual, "Stephen Curry")
				So(steph.Zones[0].Zone, ShouldEqual, model.AboveBreak3)
				So(steph.BestZone, ShouldEqual, model.RestrictedArea)
				So(steph.MostAttemptsZone, ShouldEqual, model.AboveBreak3)
				So(steph.MostConfidentZone, ShouldEqual, model.AboveBreak3)
			})
		})
	})
}
