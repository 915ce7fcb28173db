// Package betadist inverts the Beta CDF with a bounded, bracketed solver.
//
// The CDF is gonum's regularized incomplete beta function, which is
// evaluated by continued fractions and stays accurate for shape parameters
// in the hundreds of thousands. The quantile is found by bisection on that
// CDF: gonum's inverse supplies a starting point, a bracket is grown around
// it, and the bracket is halved until it is narrower than the tolerance.
package betadist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
)

// Solver defaults.
const (
	DefaultTolerance     = 1e-10
	DefaultMaxIterations = 200

	initialStep = 1e-7
)

// Solver computes Beta quantiles to an absolute tolerance in x.
type Solver struct {
	tolerance     float64
	maxIterations int
}

// Option configures a Solver.
type Option func(*Solver)

// WithTolerance sets the bracket width at which bisection stops.
func WithTolerance(tol float64) Option {
	return func(s *Solver) {
		if tol > 0 && !math.IsNaN(tol) {
			s.tolerance = tol
		}
	}
}

// WithMaxIterations bounds the number of CDF evaluations per quantile.
func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// NewSolver builds a Solver.
func NewSolver(opts ...Option) Solver {
	s := Solver{tolerance: DefaultTolerance, maxIterations: DefaultMaxIterations}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Tolerance returns the configured absolute tolerance.
func (s Solver) Tolerance() float64 { return s.tolerance }

// Result is a solved quantile.
type Result struct {
	X          float64
	Iterations int
}

// CDF is the Beta(alpha, beta) distribution function at x.
func CDF(alpha, beta, x float64) (float64, error) {
	if err := checkShape(alpha, beta); err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(x):
		return 0, fmt.Errorf("%w: x is NaN", ErrInvalidParameters)
	case x <= 0:
		return 0, nil
	case x >= 1:
		return 1, nil
	}
	return mathext.RegIncBeta(alpha, beta, x), nil
}

// Quantile returns x such that CDF(alpha, beta, x) = p.
func (s Solver) Quantile(alpha, beta, p float64) (Result, error) {
	if err := checkShape(alpha, beta); err != nil {
		return Result{}, err
	}
	if !(p > 0 && p < 1) {
		return Result{}, fmt.Errorf("%w: probability %v outside (0, 1)", ErrInvalidParameters, p)
	}

	lo, hi := 0.0, 1.0
	iterations := 0
	cdf := func(x float64) (float64, error) {
		iterations++
		v := mathext.RegIncBeta(alpha, beta, x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: CDF(%v; %v, %v) is not finite", ErrNoConvergence, x, alpha, beta)
		}
		return v, nil
	}

	if seed := mathext.InvRegIncBeta(alpha, beta, p); seed > 0 && seed < 1 {
		var err error
		lo, hi, err = s.bracket(seed, p, cdf, &iterations)
		if err != nil {
			return Result{}, err
		}
	}

	for hi-lo > s.tolerance {
		if iterations >= s.maxIterations {
			return Result{Iterations: iterations}, fmt.Errorf("%w: bracket [%v, %v] after %d evaluations",
				ErrNoConvergence, lo, hi, iterations)
		}
		mid := lo + (hi-lo)/2
		v, err := cdf(mid)
		if err != nil {
			return Result{Iterations: iterations}, err
		}
		if v < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return Result{X: lo + (hi-lo)/2, Iterations: iterations}, nil
}

// bracket grows an interval around seed until the CDF crosses p inside it.
// The full [0, 1] interval is returned if the budget runs out first.
func (s Solver) bracket(seed, p float64, cdf func(float64) (float64, error), iterations *int) (float64, float64, error) {
	v, err := cdf(seed)
	if err != nil {
		return 0, 0, err
	}
	if v == p {
		return seed, seed, nil
	}

	step := math.Max(initialStep, s.tolerance)
	below := v < p // the root lies above seed
	edge := seed
	for *iterations < s.maxIterations/2 {
		var probe float64
		if below {
			probe = math.Min(1, seed+step)
		} else {
			probe = math.Max(0, seed-step)
		}
		pv, err := cdf(probe)
		if err != nil {
			return 0, 0, err
		}
		crossed := (below && pv >= p) || (!below && pv < p)
		if crossed {
			if below {
				return edge, probe, nil
			}
			return probe, edge, nil
		}
		if probe == 0 || probe == 1 {
			break
		}
		edge = probe
		step *= 2
	}
	if below {
		return edge, 1, nil
	}
	return 0, edge, nil
}

// Interval returns the equal-tailed credible interval at the given level,
// e.g. 0.95 for the 2.5th and 97.5th percentiles.
func (s Solver) Interval(alpha, beta, level float64) (lower, upper Result, err error) {
	if !(level > 0 && level < 1) {
		return Result{}, Result{}, fmt.Errorf("%w: credible level %v outside (0, 1)", ErrInvalidParameters, level)
	}
	tail := (1 - level) / 2
	lower, err = s.Quantile(alpha, beta, tail)
	if err != nil {
		return Result{}, Result{}, fmt.Errorf("lower bound: %w", err)
	}
	upper, err = s.Quantile(alpha, beta, 1-tail)
	if err != nil {
		return Result{}, Result{}, fmt.Errorf("upper bound: %w", err)
	}
	return lower, upper, nil
}

func checkShape(alpha, beta float64) error {
	if !(alpha > 0) || !(beta > 0) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return fmt.Errorf("%w: Beta(%v, %v)", ErrInvalidParameters, alpha, beta)
	}
	return nil
}
