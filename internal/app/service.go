// Package service orchestrates a posterior run and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/courtprior/internal/adapters/repository"
	"github.com/okian/courtprior/internal/adapters/sqlstore"
	"github.com/okian/courtprior/internal/adapters/worker"
	"github.com/okian/courtprior/internal/domain/betadist"
	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/observation"
	"github.com/okian/courtprior/internal/domain/posterior"
	"github.com/okian/courtprior/internal/domain/prior"
	"github.com/okian/courtprior/internal/domain/summary"
	"github.com/okian/courtprior/pkg/logger"
	"github.com/okian/courtprior/pkg/metrics"
)

// Archive persists runs between processes.
type Archive interface {
	SaveRun(ctx context.Context, run sqlstore.Run, priors []model.PositionZonePrior, rows []model.PlayerZonePosterior) error
	LatestRun(ctx context.Context) (sqlstore.Run, error)
	LoadPriors(ctx context.Context, runID string) ([]model.PositionZonePrior, error)
	LoadPosteriors(ctx context.Context, runID string) ([]model.PlayerZonePosterior, error)
}

// Service runs the pipeline and serves reads over the latest result.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	archive Archive
	pool    *worker.Pool

	// Configuration
	workerCount    int
	minAttempts    int64
	credibleLevel  float64
	tolerance      float64
	maxIterations  int
	leagueFallback bool
	outputDir      string
	outputFormats  []string

	// State
	priors  []model.PositionZonePrior
	last    *Result
	summary summary.Summary

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMinAttempts sets the smallest (player, zone) sample kept.
func WithMinAttempts(n int64) Option {
	return func(s *Service) {
		if n >= 0 {
			s.minAttempts = n
		}
	}
}

// WithCredibleLevel sets the central interval mass.
func WithCredibleLevel(level float64) Option {
	return func(s *Service) {
		if level > 0 && level < 1 {
			s.credibleLevel = level
		}
	}
}

// WithSolver sets the quantile solver tolerance and iteration cap.
func WithSolver(tolerance float64, maxIterations int) Option {
	return func(s *Service) {
		if tolerance > 0 {
			s.tolerance = tolerance
		}
		if maxIterations > 0 {
			s.maxIterations = maxIterations
		}
	}
}

// WithLeagueFallback enables league zone priors for missing pairs.
func WithLeagueFallback(enabled bool) Option {
	return func(s *Service) {
		s.leagueFallback = enabled
	}
}

// WithOutput exports every run into dir in the given formats.
func WithOutput(dir string, formats []string) Option {
	return func(s *Service) {
		s.outputDir = dir
		s.outputFormats = formats
	}
}

// WithStore replaces the in-memory read store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithArchive persists each run and enables Restore.
func WithArchive(a Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		minAttempts:   observation.DefaultMinAttempts,
		credibleLevel: posterior.DefaultCredibleLevel,
		tolerance:     betadist.DefaultTolerance,
		maxIterations: betadist.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewTreapStore()
	}
	s.pool = worker.NewPool(worker.WithWorkers(s.workerCount), worker.WithLogger(s.logger.Named("pool")))
	return s
}

// Restore loads the latest archived run into the read store. It returns
// sqlstore.ErrNoRuns when the archive is empty.
func (s *Service) Restore(ctx context.Context) error {
	if s.archive == nil {
		return ErrNoArchive
	}
	run, err := s.archive.LatestRun(ctx)
	if err != nil {
		return err
	}
	rows, err := s.archive.LoadPosteriors(ctx, run.ID)
	if err != nil {
		return err
	}
	stored, err := s.archive.LoadPriors(ctx, run.ID)
	if err != nil {
		return err
	}
	table, err := prior.NewTable(stored)
	if err != nil {
		return fmt.Errorf("prior table of run %s: %w", run.ID, err)
	}
	priors := table.Rows()
	sum, err := summary.Summarize(rows, summary.DefaultTopN)
	if err != nil {
		return fmt.Errorf("summarize run %s: %w", run.ID, err)
	}
	s.mu.Lock()
	if err := s.store.Load(ctx, run.ID, rows); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load run %s: %w", run.ID, err)
	}
	s.priors = priors
	s.summary = sum
	s.last = &Result{RunID: run.ID, FinishedAt: run.Created(), Restored: true}
	s.mu.Unlock()

	metrics.UpdateBoardEntries(len(rows))
	metrics.UpdatePriorCount(len(priors))
	s.logger.Info(ctx, "restored run from archive",
		logger.String("run_id", run.ID),
		logger.Int("posteriors", len(rows)),
		logger.Int("priors", len(priors)),
	)
	return nil
}

// TopN returns the top n rows of a zone.
func (s *Service) TopN(ctx context.Context, zone model.Zone, n int, minAttempts int64) ([]repository.Entry, error) {
	return s.store.TopN(ctx, zone, n, minAttempts)
}

// Rank returns a player's rank within a zone.
func (s *Service) Rank(ctx context.Context, zone model.Zone, playerID string) (repository.Entry, error) {
	return s.store.Rank(ctx, zone, playerID)
}

// Player returns every row for a player.
func (s *Service) Player(ctx context.Context, playerID string) ([]model.PlayerZonePosterior, error) {
	return s.store.Player(ctx, playerID)
}

// Search matches players by name.
func (s *Service) Search(ctx context.Context, query string) []summary.Profile {
	return s.store.Search(ctx, query)
}

// Rows returns the latest posterior table.
func (s *Service) Rows(ctx context.Context) []model.PlayerZonePosterior {
	return s.store.Rows(ctx)
}

// Priors returns the latest prior table.
func (s *Service) Priors(_ context.Context) []model.PositionZonePrior {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PositionZonePrior, len(s.priors))
	copy(out, s.priors)
	return out
}

// Last returns the most recent run result, or nil before the first run.
func (s *Service) Last() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"workerCount":    s.workerCount,
		"minAttempts":    s.minAttempts,
		"credibleLevel":  s.credibleLevel,
		"leagueFallback": s.leagueFallback,
		"runID":          s.store.RunID(ctx),
		"rows":           s.store.Count(ctx),
		"priors":         len(s.priors),
	}
	if loaded := s.store.LoadedAt(ctx); !loaded.IsZero() {
		stats["loadedAt"] = loaded.UTC().Format(time.RFC3339)
	}
	if s.last != nil {
		stats["summary"] = s.summary
		if !s.last.Restored {
			stats["report"] = s.last.Report
			stats["ingest"] = s.last.Ingest
			stats["priorDiagnostics"] = s.last.PriorDiagnostics
			stats["aggregation"] = s.last.Aggregation
			stats["durationMs"] = s.last.FinishedAt.Sub(s.last.StartedAt).Milliseconds()
		}
	}
	return stats
}

// Close releases the archive when it holds resources.
func (s *Service) Close() error {
	if closer, ok := s.archive.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
