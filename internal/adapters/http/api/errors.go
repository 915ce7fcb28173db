package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrMissingZone = errors.New("zone is required")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// OpError attaches the failing operation to an underlying error.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// NewKind tags a sentinel kind with the operation that produced it.
func NewKind(op string, kind error) error { return &OpError{Op: op, Err: kind} }

// Wrap annotates err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
