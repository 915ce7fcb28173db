// Package sqlstore persists runs, their priors, and their posterior tables
// through sqlx. SQLite (modernc, pure Go) and PostgreSQL are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/okian/courtprior/internal/domain/model"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() { //nolint:gochecknoinits // modernc registers as "sqlite", unknown to sqlx
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	created_at       BIGINT NOT NULL,
	observations     BIGINT NOT NULL,
	posteriors       BIGINT NOT NULL,
	skipped          BIGINT NOT NULL,
	numeric_failures BIGINT NOT NULL,
	fallbacks        BIGINT NOT NULL,
	credible_level   DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS priors (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	position TEXT NOT NULL,
	zone     TEXT NOT NULL,
	alpha    BIGINT NOT NULL,
	beta     BIGINT NOT NULL,
	PRIMARY KEY (run_id, position, zone)
);
CREATE TABLE IF NOT EXISTS posteriors (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	seq             BIGINT NOT NULL,
	player_id       TEXT NOT NULL,
	player_name     TEXT NOT NULL,
	position        TEXT NOT NULL,
	zone            TEXT NOT NULL,
	attempts        BIGINT NOT NULL,
	makes           BIGINT NOT NULL,
	raw_fg_pct      DOUBLE PRECISION NOT NULL,
	prior_fg_pct    DOUBLE PRECISION NOT NULL,
	prior_alpha     BIGINT NOT NULL,
	prior_beta      BIGINT NOT NULL,
	posterior_alpha BIGINT NOT NULL,
	posterior_beta  BIGINT NOT NULL,
	posterior_mean  DOUBLE PRECISION NOT NULL,
	ci_lower        DOUBLE PRECISION NOT NULL,
	ci_upper        DOUBLE PRECISION NOT NULL,
	ci_width        DOUBLE PRECISION NOT NULL,
	shrinkage       DOUBLE PRECISION NOT NULL,
	league_prior    BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Run is the stored header of one pipeline run.
type Run struct {
	ID              string  `db:"id" json:"id"`
	CreatedAt       int64   `db:"created_at" json:"created_at"` // unix nanoseconds
	Observations    int64   `db:"observations" json:"observations"`
	Posteriors      int64   `db:"posteriors" json:"posteriors"`
	Skipped         int64   `db:"skipped" json:"skipped"`
	NumericFailures int64   `db:"numeric_failures" json:"numeric_failures"`
	Fallbacks       int64   `db:"fallbacks" json:"fallbacks"`
	CredibleLevel   float64 `db:"credible_level" json:"credible_level"`
}

// Created returns CreatedAt as a time.
func (r Run) Created() time.Time { return time.Unix(0, r.CreatedAt).UTC() }

type priorRow struct {
	RunID    string         `db:"run_id"`
	Position model.Position `db:"position"`
	Zone     model.Zone     `db:"zone"`
	Alpha    int64          `db:"alpha"`
	Beta     int64          `db:"beta"`
}

type posteriorRow struct {
	RunID string `db:"run_id"`
	Seq   int64  `db:"seq"`
	model.PlayerZonePosterior
}

// Store is a sqlx-backed run archive.
type Store struct {
	db *sqlx.DB
}

// Open connects with driver and dsn and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Each sqlite connection to ":memory:" is its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open handle. The schema must already exist.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun writes a run with its priors and posteriors in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, priors []model.PositionZonePrior, rows []model.PlayerZonePosterior) (err error) {
	if run.ID == "" {
		return ErrMissingRunID
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, observations, posteriors, skipped,
			numeric_failures, fallbacks, credible_level
		) VALUES (
			:id, :created_at, :observations, :posteriors, :skipped,
			:numeric_failures, :fallbacks, :credible_level
		)`, run); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for _, p := range priors {
		row := priorRow{RunID: run.ID, Position: p.Position, Zone: p.Zone, Alpha: p.Alpha, Beta: p.Beta}
		if _, err = tx.NamedExecContext(ctx, `
			INSERT INTO priors (run_id, position, zone, alpha, beta)
			VALUES (:run_id, :position, :zone, :alpha, :beta)`, row); err != nil {
			return fmt.Errorf("insert prior %s: %w", p.Key(), err)
		}
	}

	for i, r := range rows {
		row := posteriorRow{RunID: run.ID, Seq: int64(i), PlayerZonePosterior: r}
		if _, err = tx.NamedExecContext(ctx, `
			INSERT INTO posteriors (
				run_id, seq, player_id, player_name, position, zone, attempts, makes,
				raw_fg_pct, prior_fg_pct, prior_alpha, prior_beta,
				posterior_alpha, posterior_beta, posterior_mean,
				ci_lower, ci_upper, ci_width, shrinkage, league_prior
			) VALUES (
				:run_id, :seq, :player_id, :player_name, :position, :zone, :attempts, :makes,
				:raw_fg_pct, :prior_fg_pct, :prior_alpha, :prior_beta,
				:posterior_alpha, :posterior_beta, :posterior_mean,
				:ci_lower, :ci_upper, :ci_width, :shrinkage, :league_prior
			)`, row); err != nil {
			return fmt.Errorf("insert posterior %s/%s: %w", r.PlayerID, r.Zone, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// LatestRun returns the most recently created run, or ErrNoRuns.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, `
		SELECT id, created_at, observations, posteriors, skipped,
		       numeric_failures, fallbacks, credible_level
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, `
		SELECT id, created_at, observations, posteriors, skipped,
		       numeric_failures, fallbacks, credible_level
		FROM runs
		ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LoadPriors returns a run's priors in position, zone order.
func (s *Store) LoadPriors(ctx context.Context, runID string) ([]model.PositionZonePrior, error) {
	var rows []priorRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT run_id, position, zone, alpha, beta
		FROM priors
		WHERE run_id = ?
		ORDER BY position, zone`), runID); err != nil {
		return nil, fmt.Errorf("load priors %s: %w", runID, err)
	}
	out := make([]model.PositionZonePrior, len(rows))
	for i, r := range rows {
		out[i] = model.PositionZonePrior{Position: r.Position, Zone: r.Zone, Alpha: r.Alpha, Beta: r.Beta}
	}
	return out, nil
}

// LoadPosteriors returns a run's posterior rows in their original order.
func (s *Store) LoadPosteriors(ctx context.Context, runID string) ([]model.PlayerZonePosterior, error) {
	var rows []posteriorRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT run_id, seq, player_id, player_name, position, zone, attempts, makes,
		       raw_fg_pct, prior_fg_pct, prior_alpha, prior_beta,
		       posterior_alpha, posterior_beta, posterior_mean,
		       ci_lower, ci_upper, ci_width, shrinkage, league_prior
		FROM posteriors
		WHERE run_id = ?
		ORDER BY seq`), runID); err != nil {
		return nil, fmt.Errorf("load posteriors %s: %w", runID, err)
	}
	out := make([]model.PlayerZonePosterior, len(rows))
	for i, r := range rows {
		out[i] = r.PlayerZonePosterior
	}
	return out, nil
}
