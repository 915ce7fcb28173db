package prior

import "errors"

var (
	ErrUnknownPair   = errors.New("prior names an unrecognized position or zone")
	ErrInvalidCounts = errors.New("prior counts are negative or empty")
	ErrDuplicatePair = errors.New("prior pair appears more than once")
)
