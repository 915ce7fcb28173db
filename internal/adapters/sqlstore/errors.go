package sqlstore

import "errors"

var (
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrNoRuns            = errors.New("no stored runs")
	ErrMissingRunID      = errors.New("run id is required")
)
