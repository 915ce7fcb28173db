package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtprior/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.CredibleLevel, convey.ShouldEqual, 0.95)
			convey.So(cfg.MinAttempts, convey.ShouldEqual, 5)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QuantileTolerance, convey.ShouldEqual, 1e-10)
			convey.So(cfg.QuantileMaxIterations, convey.ShouldEqual, 200)
			convey.So(cfg.LeagueFallback, convey.ShouldBeFalse)
			convey.So(cfg.OutputFormats, convey.ShouldResemble, []string{"csv", "json"})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"credible level of 1", func(c *config.Config) { c.CredibleLevel = 1 }},
			{"zero credible level", func(c *config.Config) { c.CredibleLevel = 0 }},
			{"negative min attempts", func(c *config.Config) { c.MinAttempts = -1 }},
			{"negative workers", func(c *config.Config) { c.WorkerCount = -2 }},
			{"loose tolerance", func(c *config.Config) { c.QuantileTolerance = 1e-3 }},
			{"zero tolerance", func(c *config.Config) { c.QuantileTolerance = 0 }},
			{"zero iterations", func(c *config.Config) { c.QuantileMaxIterations = 0 }},
			{"zero leaderboard cap", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }},
			{"negative rps", func(c *config.Config) { c.RateLimitRPS = -1 }},
			{"unknown format", func(c *config.Config) { c.OutputFormats = []string{"csv", "parquet"} }},
			{"unknown driver", func(c *config.Config) { c.StoreDriver = "mysql" }},
		}
		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate(cfg)

				convey.Convey("Then Validate rejects it", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
