package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtprior/internal/config"
)

var configEnvVars = []string{
	"COURTPRIOR_CONFIG", "COURTPRIOR_ENV_FILE", "COURTPRIOR_ADDR", "COURTPRIOR_MIN_ATTEMPTS",
	"COURTPRIOR_WORKER_COUNT", "COURTPRIOR_CREDIBLE_LEVEL", "COURTPRIOR_LEAGUE_FALLBACK",
	"COURTPRIOR_OUTPUT_FORMATS", "COURTPRIOR_STORE_DRIVER", "COURTPRIOR_SHOTS_PATH",
	"COURTPRIOR_METRICS_ENABLED",
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.MinAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.OutputFormats, convey.ShouldResemble, []string{"csv", "json"})
				convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("COURTPRIOR_ADDR", ":8080")
			t.Setenv("COURTPRIOR_MIN_ATTEMPTS", "20")
			t.Setenv("COURTPRIOR_CREDIBLE_LEVEL", "0.9")
			t.Setenv("COURTPRIOR_LEAGUE_FALLBACK", "true")
			t.Setenv("COURTPRIOR_OUTPUT_FORMATS", "xlsx")
			t.Setenv("COURTPRIOR_METRICS_ENABLED", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MinAttempts, convey.ShouldEqual, 20)
				convey.So(cfg.CredibleLevel, convey.ShouldEqual, 0.9)
				convey.So(cfg.LeagueFallback, convey.ShouldBeTrue)
				convey.So(cfg.OutputFormats, convey.ShouldResemble, []string{"xlsx"})
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeTemp(t, "config.yaml", `
# run settings
addr: ":9090"
min_attempts: 10
worker_count: 3
output_formats: [csv, json, xlsx]
store_driver: sqlite
`)
			t.Setenv("COURTPRIOR_CONFIG", path)
			t.Setenv("COURTPRIOR_WORKER_COUNT", "7")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MinAttempts, convey.ShouldEqual, 10)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 7)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.OutputFormats, convey.ShouldResemble, []string{"csv", "json", "xlsx"})
			})
		})

		convey.Convey("When a .env file is named", func() {
			path := writeTemp(t, "local.env", "COURTPRIOR_SHOTS_PATH=/data/shots.csv\nCOURTPRIOR_ADDR=:7070\n")
			t.Setenv("COURTPRIOR_ENV_FILE", path)
			t.Setenv("COURTPRIOR_ADDR", ":6060")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills only unset variables", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ShotsPath, convey.ShouldEqual, "/data/shots.csv")
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the named .env file is missing", func() {
			t.Setenv("COURTPRIOR_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			t.Setenv("COURTPRIOR_CONFIG", writeTemp(t, "bad.yaml", "addr: [unterminated\n"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			t.Setenv("COURTPRIOR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			t.Setenv("COURTPRIOR_MIN_ATTEMPTS", "many")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			t.Setenv("COURTPRIOR_CREDIBLE_LEVEL", "1.5")

			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		// t.Setenv restores the previous value after the test.
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
