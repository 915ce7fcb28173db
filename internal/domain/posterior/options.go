package posterior

import (
	"github.com/okian/courtprior/internal/domain/betadist"
	"github.com/okian/courtprior/internal/domain/prior"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCredibleLevel sets the interval mass, e.g. 0.9. Values outside (0, 1) are ignored.
func WithCredibleLevel(level float64) Option {
	return func(e *Engine) {
		if level > 0 && level < 1 {
			e.level = level
		}
	}
}

// WithTolerance sets the quantile solver's absolute tolerance.
func WithTolerance(tol float64) Option {
	return func(e *Engine) {
		e.solverOpts = append(e.solverOpts, betadist.WithTolerance(tol))
	}
}

// WithMaxIterations bounds the quantile solver's CDF evaluations.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.solverOpts = append(e.solverOpts, betadist.WithMaxIterations(n))
	}
}

// WithLeagueFallback lets observations whose position-zone prior is missing
// use the pooled zone prior instead of being skipped. Fallback rows are
// flagged and counted in the report.
func WithLeagueFallback(league prior.LeagueTable) Option {
	return func(e *Engine) {
		e.league = &league
	}
}

// WithIterationObserver receives the solver evaluation count of every
// quantile the engine computes.
func WithIterationObserver(fn func(int)) Option {
	return func(e *Engine) {
		e.onIteration = fn
	}
}
