package tables

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrEmpty             = errors.New("table is empty")
	ErrMissingColumn     = errors.New("required column missing")
	ErrBadValue          = errors.New("malformed value")
)
