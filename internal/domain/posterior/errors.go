package posterior

import "errors"

var (
	// ErrMissingPrior is returned when no prior exists for an observation's pair.
	ErrMissingPrior = errors.New("no prior for position and zone")
	// ErrDegenerateInput is returned for zero attempts or makes outside [0, attempts].
	ErrDegenerateInput = errors.New("degenerate observation")
	// ErrPriorMismatch is returned when the prior belongs to a different pair.
	ErrPriorMismatch = errors.New("prior does not match observation")
	// ErrNumeric is returned when the posterior parameters are degenerate or
	// the credible interval solver fails.
	ErrNumeric = errors.New("numeric failure computing posterior")
	// ErrNoValidData is returned when a run produces no posteriors at all.
	ErrNoValidData = errors.New("no valid posteriors produced")
)
