package service

import "errors"

// Sentinel errors for run orchestration.
var (
	ErrNoInput   = errors.New("no shots or observations to compute")
	ErrNoPriors  = errors.New("no priors: provide shots or a prior table")
	ErrNoArchive = errors.New("no archive configured")
)
