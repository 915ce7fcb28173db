package posterior

import (
	"github.com/okian/courtprior/internal/domain/model"
)

// SkipReason names an expected data gap that excludes a row from output.
type SkipReason string

// Skip reasons.
const (
	SkipMissingPrior    SkipReason = "missing_prior"
	SkipDegenerateInput SkipReason = "degenerate_input"
)

// Issue describes one observation that produced no posterior.
type Issue struct {
	ID         string         `json:"id"`
	PlayerName string         `json:"player_name"`
	Position   model.Position `json:"position"`
	Zone       model.Zone     `json:"zone"`
	Reason     string         `json:"reason"`
	Detail     string         `json:"detail,omitempty"`
}

// Report is the result of a ComputeAll pass.
type Report struct {
	Observations    int                         `json:"observations"`
	Posteriors      []model.PlayerZonePosterior `json:"-"`
	Skipped         map[SkipReason]int64        `json:"skipped"`
	SkippedRows     []Issue                     `json:"skipped_rows,omitempty"`
	NumericFailures []Issue                     `json:"numeric_failures,omitempty"`
	Fallbacks       int64                       `json:"league_fallbacks"`
}

// TotalSkipped sums the per-reason skip counts.
func (r Report) TotalSkipped() int64 {
	var n int64
	for _, c := range r.Skipped {
		n += c
	}
	return n
}
