package betadist

import "errors"

var (
	// ErrInvalidParameters is returned for non-positive shapes or a probability outside (0, 1).
	ErrInvalidParameters = errors.New("invalid beta distribution parameters")
	// ErrNoConvergence is returned when the solver exhausts its budget or the CDF is not finite.
	ErrNoConvergence = errors.New("beta quantile did not converge")
)
