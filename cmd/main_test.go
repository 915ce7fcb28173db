package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtprior/internal/adapters/tables"
	service "github.com/okian/courtprior/internal/app"
	"github.com/okian/courtprior/internal/config"
	"github.com/okian/courtprior/internal/synth"
	"github.com/okian/courtprior/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// quietEnv isolates the commands from the caller's COURTPRIOR_* settings.
func quietEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvConfig, config.EnvDotFile, "COURTPRIOR_STORE_DRIVER"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Setenv("COURTPRIOR_LOG_LEVEL", "error")
}

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSeason(t *testing.T, dir string) {
	t.Helper()
	cfg := synth.DefaultConfig()
	cfg.Players, cfg.Games = 30, 10
	data, err := synth.Generate(cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := tables.WriteFile(filepath.Join(dir, "shots.csv"), func(w io.Writer) error { return tables.WriteShotsCSV(w, data.Shots) }); err != nil {
		t.Fatalf("write shots: %v", err)
	}
	if err := tables.WriteFile(filepath.Join(dir, "roster.csv"), func(w io.Writer) error { return tables.WriteRosterCSV(w, data.Roster) }); err != nil {
		t.Fatalf("write roster: %v", err)
	}
}

func TestSynthThenRun(t *testing.T) {
	convey.Convey("Given the synth and run commands", t, func() {
		quietEnv(t)
		data := filepath.Join(t.TempDir(), "season")
		out := filepath.Join(t.TempDir(), "tables")

		convey.Convey("When a season is generated and scored", func() {
			written, err := executeCommand(t, "synth", "--out", data, "--players", "30", "--games", "10")
			convey.So(err, convey.ShouldBeNil)
			convey.So(written, convey.ShouldContainSubstring, "shots.csv")

			stdout, err := executeCommand(t, "run",
				"--shots", filepath.Join(data, "shots.csv"),
				"--roster", filepath.Join(data, "roster.csv"),
				"--out", out, "--format", "csv,xlsx", "--json",
			)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the result is printed as JSON", func() {
				var res struct {
					RunID  string `json:"run_id"`
					Report struct {
						Observations int `json:"observations"`
					} `json:"report"`
					Exported []string `json:"exported"`
				}
				convey.So(json.Unmarshal([]byte(stdout), &res), convey.ShouldBeNil)
				convey.So(res.RunID, convey.ShouldNotBeEmpty)
				convey.So(res.Report.Observations, convey.ShouldBeGreaterThan, 0)
				convey.So(len(res.Exported), convey.ShouldEqual, 3)
			})

			convey.Convey("And the tables are on disk", func() {
				for _, name := range []string{"posteriors.csv", "priors.csv", "posteriors.xlsx"} {
					_, err := os.Stat(filepath.Join(out, name))
					convey.So(err, convey.ShouldBeNil)
				}
			})
		})
	})
}

func TestLookupCommand(t *testing.T) {
	convey.Convey("Given a season on disk", t, func() {
		quietEnv(t)
		dir := t.TempDir()
		writeSeason(t, dir)

		convey.Convey("When a zone leaderboard is requested", func() {
			stdout, err := executeCommand(t, "lookup",
				"--shots", filepath.Join(dir, "shots.csv"),
				"--roster", filepath.Join(dir, "roster.csv"),
				"--zone", "restricted area", "--top", "3",
			)

			convey.Convey("Then the top rows are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout, convey.ShouldStartWith, "Restricted Area\nRANK")
				convey.So(bytes.Count([]byte(stdout), []byte("\n")), convey.ShouldEqual, 5)
			})
		})
	})
}

func TestServeMux(t *testing.T) {
	convey.Convey("Given a service primed from its inputs", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		writeSeason(t, dir)

		cfg := config.New()
		cfg.StoreDriver, cfg.StoreDSN = "sqlite", filepath.Join(dir, "runs.db")
		cfg.ShotsPath = filepath.Join(dir, "shots.csv")
		cfg.RosterPath = filepath.Join(dir, "roster.csv")
		cfg.WorkerCount = 2

		svc, err := newService(ctx, cfg, false)
		convey.So(err, convey.ShouldBeNil)
		convey.Reset(func() { _ = svc.Close() })
		convey.So(prime(ctx, svc, cfg, logger.Named("test")), convey.ShouldBeNil)
		mux := newMux(ctx, svc, cfg)

		get := func(target string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
			return w
		}

		convey.Convey("Then the read API serves the run", func() {
			convey.So(get("/leaderboard?zone=Restricted+Area&limit=5").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/priors").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/leaderboard?zone=Restricted+Area&limit=101").Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("And the API docs are mounted", func() {
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And a second service restores the archived run", func() {
			runID := svc.Last().RunID
			again := config.New()
			again.StoreDriver, again.StoreDSN = cfg.StoreDriver, cfg.StoreDSN
			restored, err := newService(ctx, again, false)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = restored.Close() }()

			convey.So(prime(ctx, restored, again, logger.Named("test")), convey.ShouldBeNil)
			convey.So(restored.Last().RunID, convey.ShouldEqual, runID)
			convey.So(restored.Last().Restored, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given no archive and no inputs", t, func() {
		svc := service.New()

		convey.Convey("Then priming leaves the tables empty", func() {
			convey.So(prime(context.Background(), svc, config.New(), logger.Named("test")), convey.ShouldBeNil)
			convey.So(svc.Last(), convey.ShouldBeNil)
		})
	})
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	convey.Convey("Given a run with an unsupported export format", t, func() {
		quietEnv(t)
		dir := t.TempDir()

		_, err := executeCommand(t, "run",
			"--shots", filepath.Join(dir, "missing.csv"),
			"--out", filepath.Join(dir, "out"), "--format", "parquet",
		)

		convey.Convey("Then it fails on the config before reading inputs", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_, statErr := os.Stat(filepath.Join(dir, "out"))
			convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
		})
	})
}
