// Package posterior performs the Beta-Binomial conjugate update for each
// player-zone observation and summarises it with a credible interval.
package posterior

import (
	"errors"
	"fmt"

	"github.com/okian/courtprior/internal/domain/betadist"
	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/prior"
)

// DefaultCredibleLevel is the mass inside the reported interval.
const DefaultCredibleLevel = 0.95

// Engine computes posteriors. It holds configuration only and is safe for
// concurrent use.
type Engine struct {
	solver      betadist.Solver
	solverOpts  []betadist.Option
	level       float64
	league      *prior.LeagueTable
	onIteration func(int)
}

// NewEngine creates an engine with a 95% interval and default solver.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{level: DefaultCredibleLevel}
	for _, opt := range opts {
		opt(e)
	}
	e.solver = betadist.NewSolver(e.solverOpts...)
	return e
}

// CredibleLevel returns the configured interval mass.
func (e *Engine) CredibleLevel() float64 { return e.level }

// LeagueFallback reports whether missing pairs fall back to pooled zone priors.
func (e *Engine) LeagueFallback() bool { return e.league != nil }

// Compute updates prior with obs. The prior must belong to the
// observation's (position, zone) and the observation must have attempts.
func (e *Engine) Compute(obs model.PlayerZoneObservation, p model.PositionZonePrior) (model.PlayerZonePosterior, error) {
	if obs.Attempts <= 0 || obs.Makes < 0 || obs.Makes > obs.Attempts {
		return model.PlayerZonePosterior{}, fmt.Errorf("%w: %s attempts=%d makes=%d",
			ErrDegenerateInput, obs.ID(), obs.Attempts, obs.Makes)
	}
	if p.Zone != obs.Zone || p.Position != obs.Position {
		return model.PlayerZonePosterior{}, fmt.Errorf("%w: observation %s, prior %s",
			ErrPriorMismatch, obs.Key(), p.Key())
	}
	return e.update(obs, p)
}

func (e *Engine) update(obs model.PlayerZoneObservation, p model.PositionZonePrior) (model.PlayerZonePosterior, error) {
	if !p.Usable() {
		return model.PlayerZonePosterior{}, fmt.Errorf("%w: prior %s is Beta(%d, %d)",
			ErrNumeric, p.Key(), p.Alpha, p.Beta)
	}

	postAlpha := p.Alpha + obs.Makes
	postBeta := p.Beta + obs.Misses()
	if postAlpha <= 0 || postBeta <= 0 {
		return model.PlayerZonePosterior{}, fmt.Errorf("%w: %s posterior is Beta(%d, %d)",
			ErrNumeric, obs.ID(), postAlpha, postBeta)
	}

	lower, upper, err := e.solver.Interval(float64(postAlpha), float64(postBeta), e.level)
	if e.onIteration != nil {
		e.onIteration(lower.Iterations)
		e.onIteration(upper.Iterations)
	}
	if err != nil {
		return model.PlayerZonePosterior{}, fmt.Errorf("%w: %s: %w", ErrNumeric, obs.ID(), err)
	}

	raw, _ := obs.RawPct()
	mean := float64(postAlpha) / float64(postAlpha+postBeta)
	if !(0 <= lower.X && lower.X <= mean && mean <= upper.X && upper.X <= 1) {
		return model.PlayerZonePosterior{}, fmt.Errorf("%w: %s interval [%v, %v] excludes mean %v",
			ErrNumeric, obs.ID(), lower.X, upper.X, mean)
	}

	return model.PlayerZonePosterior{
		PlayerID:       obs.PlayerID,
		PlayerName:     obs.PlayerName,
		Position:       obs.Position,
		Zone:           obs.Zone,
		Attempts:       obs.Attempts,
		Makes:          obs.Makes,
		RawPct:         raw,
		PriorPct:       p.Mean(),
		PriorAlpha:     p.Alpha,
		PriorBeta:      p.Beta,
		PosteriorAlpha: postAlpha,
		PosteriorBeta:  postBeta,
		PosteriorMean:  mean,
		CILower:        lower.X,
		CIUpper:        upper.X,
		CIWidth:        upper.X - lower.X,
		Shrinkage:      raw - mean,
	}, nil
}

// Outcome is the result of resolving and computing a single observation.
// Exactly one of Posterior (with Err nil), Skip, or Err describes it.
type Outcome struct {
	Posterior model.PlayerZonePosterior
	Skip      SkipReason
	Err       error
}

// Resolve joins obs against the priors and computes its posterior. Missing
// priors fall back to the league zone prior when one is configured.
func (e *Engine) Resolve(obs model.PlayerZoneObservation, table prior.Table) Outcome {
	if obs.Attempts <= 0 || obs.Makes < 0 || obs.Makes > obs.Attempts {
		return Outcome{Skip: SkipDegenerateInput, Err: fmt.Errorf("%w: %s attempts=%d makes=%d",
			ErrDegenerateInput, obs.ID(), obs.Attempts, obs.Makes)}
	}

	p, ok := table.Lookup(obs.Key())
	fallback := false
	if !ok && e.league != nil {
		if lp, found := e.league.Lookup(obs.Zone); found {
			p = lp
			p.Position = obs.Position
			ok, fallback = true, true
		}
	}
	if !ok {
		return Outcome{Skip: SkipMissingPrior, Err: fmt.Errorf("%w: %s", ErrMissingPrior, obs.Key())}
	}

	post, err := e.update(obs, p)
	if err != nil {
		return Outcome{Err: err}
	}
	post.LeaguePrior = fallback
	return Outcome{Posterior: post}
}

// ComputeAll computes a posterior for every observation, in input order.
// Rows with no prior or no attempts are skipped and tallied, numeric
// failures are collected separately, and ErrNoValidData is returned
// alongside the report when nothing could be computed.
func (e *Engine) ComputeAll(observations []model.PlayerZoneObservation, table prior.Table) (Report, error) {
	outcomes := make([]Outcome, len(observations))
	for i, obs := range observations {
		outcomes[i] = e.Resolve(obs, table)
	}
	return Collect(observations, outcomes)
}

// Collect assembles per-observation outcomes into a report. outcomes[i]
// must belong to observations[i].
func Collect(observations []model.PlayerZoneObservation, outcomes []Outcome) (Report, error) {
	if len(outcomes) != len(observations) {
		return Report{}, fmt.Errorf("outcome count %d does not match observation count %d", len(outcomes), len(observations))
	}

	r := Report{
		Observations: len(observations),
		Posteriors:   make([]model.PlayerZonePosterior, 0, len(observations)),
		Skipped:      make(map[SkipReason]int64),
	}
	for i, out := range outcomes {
		obs := observations[i]
		switch {
		case out.Skip != "":
			r.Skipped[out.Skip]++
			r.SkippedRows = append(r.SkippedRows, issue(obs, string(out.Skip), out.Err))
		case out.Err != nil:
			r.NumericFailures = append(r.NumericFailures, issue(obs, "numeric", out.Err))
		default:
			if out.Posterior.LeaguePrior {
				r.Fallbacks++
			}
			r.Posteriors = append(r.Posteriors, out.Posterior)
		}
	}

	if len(r.Posteriors) == 0 {
		return r, fmt.Errorf("%w: %d observations, %d skipped, %d numeric failures",
			ErrNoValidData, r.Observations, r.TotalSkipped(), len(r.NumericFailures))
	}
	return r, nil
}

func issue(obs model.PlayerZoneObservation, reason string, err error) Issue {
	is := Issue{ID: obs.ID(), PlayerName: obs.PlayerName, Position: obs.Position, Zone: obs.Zone, Reason: reason}
	if err != nil {
		is.Detail = err.Error()
	}
	return is
}

// IsSkip reports whether err is a per-record skip rather than a failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrMissingPrior) || errors.Is(err, ErrDegenerateInput)
}
