package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtprior/internal/adapters/sqlstore"
	"github.com/okian/courtprior/internal/adapters/tables"
	"github.com/okian/courtprior/internal/domain/dedupe"
	"github.com/okian/courtprior/internal/domain/ingest"
	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/observation"
	"github.com/okian/courtprior/internal/domain/posterior"
	"github.com/okian/courtprior/internal/domain/prior"
	"github.com/okian/courtprior/internal/domain/summary"
	"github.com/okian/courtprior/pkg/logger"
	"github.com/okian/courtprior/pkg/metrics"
)

// Run outcomes recorded in metrics.
const (
	outcomeOK     = "ok"
	outcomeNoData = "no_data"
	outcomeFailed = "failed"
)

// Inputs are the tables a run consumes. Shots feed both the prior estimator
// and the aggregation; Priors and Observations, when given, replace them.
type Inputs struct {
	Shots        []model.ShotEvent
	Roster       []model.RosterEntry
	Observations []model.PlayerZoneObservation
	Priors       []model.PositionZonePrior

	// ObservationDrops counts aggregated rows left out on read because
	// their position or zone could not be resolved.
	ObservationDrops map[prior.DropReason]int64
}

// Paths locates input tables on disk. Empty paths are skipped.
type Paths struct {
	Shots        string
	Roster       string
	Observations string
	Priors       string
}

// Result describes a finished run.
type Result struct {
	RunID            string                    `json:"run_id"`
	StartedAt        time.Time                 `json:"started_at"`
	FinishedAt       time.Time                 `json:"finished_at"`
	Ingest           ingest.Stats              `json:"ingest"`
	PriorDiagnostics prior.Diagnostics         `json:"prior_diagnostics"`
	Aggregation      observation.Diagnostics   `json:"aggregation"`
	Report           posterior.Report          `json:"report"`
	Summary          summary.Summary           `json:"summary"`
	Priors           []model.PositionZonePrior `json:"-"`
	Exported         []string                  `json:"exported,omitempty"`
	Restored         bool                      `json:"restored,omitempty"`
}

// ReadInputs loads every non-empty path.
func ReadInputs(p Paths) (Inputs, error) {
	var in Inputs
	if p.Shots != "" {
		sheet, err := tables.ReadFile(p.Shots)
		if err != nil {
			return in, err
		}
		if in.Shots, err = sheet.Shots(); err != nil {
			return in, fmt.Errorf("%s: %w", p.Shots, err)
		}
	}
	if p.Roster != "" {
		sheet, err := tables.ReadFile(p.Roster)
		if err != nil {
			return in, err
		}
		if in.Roster, err = sheet.Roster(); err != nil {
			return in, fmt.Errorf("%s: %w", p.Roster, err)
		}
	}
	if p.Observations != "" {
		sheet, err := tables.ReadFile(p.Observations)
		if err != nil {
			return in, err
		}
		if in.Observations, in.ObservationDrops, err = sheet.Observations(); err != nil {
			return in, fmt.Errorf("%s: %w", p.Observations, err)
		}
	}
	if p.Priors != "" {
		sheet, err := tables.ReadFile(p.Priors)
		if err != nil {
			return in, err
		}
		if in.Priors, err = sheet.Priors(); err != nil {
			return in, fmt.Errorf("%s: %w", p.Priors, err)
		}
	}
	return in, nil
}

// Run computes priors and posteriors for in, persists and exports them when
// configured, then publishes them to the read store. A failed run leaves the
// previous run in place. Only a run with no computable posterior fails with
// posterior.ErrNoValidData; per-record problems are tallied in the result.
func (s *Service) Run(ctx context.Context, in Inputs) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := s.logger.Named("run")
	log.Info(ctx, "run started",
		logger.String("run_id", res.RunID),
		logger.Int("shots", len(in.Shots)),
		logger.Int("roster", len(in.Roster)),
		logger.Int("observations", len(in.Observations)),
		logger.Int("priors", len(in.Priors)),
	)

	err := s.run(ctx, in, res, log)
	res.FinishedAt = time.Now()
	outcome := outcomeOK
	switch {
	case errors.Is(err, posterior.ErrNoValidData):
		outcome = outcomeNoData
	case err != nil:
		outcome = outcomeFailed
	}
	metrics.RecordRun(outcome, float64(res.FinishedAt.Sub(res.StartedAt).Milliseconds()), float64(res.FinishedAt.Unix()))
	if err != nil {
		metrics.RecordErrorByComponent("service", outcome)
		log.Error(ctx, "run failed", logger.String("run_id", res.RunID), logger.Error(err))
		return res, err
	}

	log.Info(ctx, "run finished",
		logger.String("run_id", res.RunID),
		logger.Int("posteriors", len(res.Report.Posteriors)),
		logger.Int("skipped", int(res.Report.TotalSkipped())),
		logger.Int("numeric_failures", len(res.Report.NumericFailures)),
		logger.Int("league_fallbacks", int(res.Report.Fallbacks)),
		logger.Duration("duration", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, in Inputs, res *Result, log logger.Logger) error {
	if s.exports() {
		if err := tables.CheckFormats(s.outputFormats); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	events := s.prepare(ctx, in, res, log)

	table, league, err := s.priorTables(ctx, in, events, res, log)
	if err != nil {
		return err
	}
	res.Priors = table.Rows()
	metrics.UpdatePriorCount(table.Len())
	if missing := table.Missing(); len(missing) > 0 {
		log.Debug(ctx, "position-zone pairs without a prior", logger.Int("count", len(missing)))
	}

	observations := in.Observations
	if len(observations) > 0 || len(in.ObservationDrops) > 0 {
		res.Aggregation = readDiagnostics(ctx, in, log)
	} else {
		if len(events) == 0 {
			return ErrNoInput
		}
		observations, res.Aggregation = observation.Aggregate(events, s.minAttempts)
		if res.Aggregation.BelowMin > 0 {
			log.Info(ctx, "groups below minimum attempts dropped",
				logger.Int("groups", res.Aggregation.BelowMin),
				logger.Int("min_attempts", int(res.Aggregation.MinAttempts)),
			)
		}
	}
	metrics.RecordObservations(len(observations))

	report, err := s.pool.Posteriors(ctx, s.engine(league, log), observations, table)
	res.Report = report
	s.recordReport(ctx, report, log)
	if err != nil {
		return err
	}

	if res.Summary, err = summary.Summarize(report.Posteriors, summary.DefaultTopN); err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	if s.exports() {
		if res.Exported, err = tables.Export(s.outputDir, s.outputFormats, report.Posteriors, res.Priors); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		log.Info(ctx, "tables exported", logger.Any("files", res.Exported))
	}
	if err := s.persist(ctx, res); err != nil {
		return err
	}
	return s.publish(ctx, res)
}

func (s *Service) exports() bool {
	return s.outputDir != "" && len(s.outputFormats) > 0
}

// publish swaps the read store and the run state under one lock.
func (s *Service) publish(ctx context.Context, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Load(ctx, res.RunID, res.Report.Posteriors); err != nil {
		return fmt.Errorf("publish run: %w", err)
	}
	s.priors = res.Priors
	s.summary = res.Summary
	s.last = res
	metrics.UpdateBoardEntries(s.store.Count(ctx))
	return nil
}

// readDiagnostics describes observations read from a table rather than
// aggregated from shots.
func readDiagnostics(ctx context.Context, in Inputs, log logger.Logger) observation.Diagnostics {
	diag := observation.Diagnostics{
		Dropped: make(map[prior.DropReason]int64, len(in.ObservationDrops)),
		Groups:  len(in.Observations),
		Emitted: len(in.Observations),
	}
	var total int64
	for reason, n := range in.ObservationDrops {
		diag.Dropped[reason] = n
		diag.Groups += int(n)
		total += n
		metrics.RecordObservationRowsDropped(string(reason), int(n))
	}
	if total > 0 {
		log.Info(ctx, "observation rows excluded", logger.Int("rows", int(total)), logger.Any("reasons", diag.Dropped))
	}
	return diag
}

// prepare de-duplicates shots and attaches roster positions.
func (s *Service) prepare(ctx context.Context, in Inputs, res *Result, log logger.Logger) []model.ShotEvent {
	if len(in.Shots) == 0 {
		return nil
	}
	roster, dups := ingest.NewRoster(in.Roster)
	if dups > 0 {
		log.Info(ctx, "duplicate roster rows ignored; first row wins", logger.Int("rows", dups))
	}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(len(in.Shots)))
	events, st := ingest.Prepare(ctx, in.Shots, roster, seen)
	res.Ingest = st
	metrics.RecordShotsIngested(int(st.Kept))
	if st.Duplicates > 0 {
		metrics.RecordShotsDropped("duplicate", int(st.Duplicates))
		log.Info(ctx, "duplicate shots dropped", logger.Int("shots", int(st.Duplicates)))
	}
	return events
}

// priorTables returns the position-zone priors and, when shots are
// available, the league zone priors.
func (s *Service) priorTables(ctx context.Context, in Inputs, events []model.ShotEvent, res *Result, log logger.Logger) (prior.Table, prior.LeagueTable, error) {
	var (
		table  prior.Table
		league prior.LeagueTable
	)
	if len(events) > 0 {
		acc, err := s.pool.Priors(ctx, events)
		if err != nil {
			return table, league, err
		}
		table, league = acc.Table(), acc.LeagueTable()
		res.PriorDiagnostics = acc.Diagnostics()
		for reason, n := range res.PriorDiagnostics.Dropped {
			metrics.RecordShotsDropped(string(reason), int(n))
		}
		if dropped := res.PriorDiagnostics.TotalDropped(); dropped > 0 {
			log.Info(ctx, "shots excluded from priors", logger.Int("shots", int(dropped)), logger.Any("reasons", res.PriorDiagnostics.Dropped))
		}
	}
	if len(in.Priors) > 0 {
		t, err := prior.NewTable(in.Priors)
		if err != nil {
			return table, league, fmt.Errorf("prior table: %w", err)
		}
		table = t
	}
	if table.Len() == 0 {
		return table, league, ErrNoPriors
	}
	return table, league, nil
}

func (s *Service) engine(league prior.LeagueTable, log logger.Logger) *posterior.Engine {
	opts := []posterior.Option{
		posterior.WithCredibleLevel(s.credibleLevel),
		posterior.WithTolerance(s.tolerance),
		posterior.WithMaxIterations(s.maxIterations),
		posterior.WithIterationObserver(metrics.RecordSolverIterations),
	}
	if s.leagueFallback {
		if league.Len() > 0 {
			opts = append(opts, posterior.WithLeagueFallback(league))
		} else {
			log.Warn(context.Background(), "league fallback requested but no shots to build league priors from")
		}
	}
	return posterior.NewEngine(opts...)
}

func (s *Service) recordReport(ctx context.Context, report posterior.Report, log logger.Logger) {
	metrics.RecordPosteriorsComputed(len(report.Posteriors))
	for reason, n := range report.Skipped {
		metrics.RecordPosteriorsSkipped(string(reason), int(n))
	}
	metrics.RecordNumericFailures(len(report.NumericFailures))
	metrics.RecordPriorFallbacks(int(report.Fallbacks))
	if n := report.TotalSkipped(); n > 0 {
		log.Info(ctx, "observations skipped", logger.Int("rows", int(n)), logger.Any("reasons", report.Skipped))
	}
	for _, f := range report.NumericFailures {
		log.Warn(ctx, "posterior computation failed",
			logger.String("id", f.ID),
			logger.String("detail", f.Detail),
		)
	}
}

func (s *Service) persist(ctx context.Context, res *Result) error {
	if s.archive == nil {
		return nil
	}
	start := time.Now()
	run := sqlstore.Run{
		ID:              res.RunID,
		CreatedAt:       res.StartedAt.UnixNano(),
		Observations:    int64(res.Report.Observations),
		Posteriors:      int64(len(res.Report.Posteriors)),
		Skipped:         res.Report.TotalSkipped(),
		NumericFailures: int64(len(res.Report.NumericFailures)),
		Fallbacks:       res.Report.Fallbacks,
		CredibleLevel:   s.credibleLevel,
	}
	if err := s.archive.SaveRun(ctx, run, res.Priors, res.Report.Posteriors); err != nil {
		metrics.RecordErrorByComponent("archive", "save")
		return fmt.Errorf("persist run: %w", err)
	}
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}
