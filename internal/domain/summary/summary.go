// Package summary describes a posterior table: how much the priors moved
// estimates, how that depends on sample size, and where the extremes are.
package summary

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/okian/courtprior/internal/domain/model"
)

// DefaultTopN is the length of the regularized-down and -up lists.
const DefaultTopN = 5

// Bucket aggregates rows whose attempts fall in (Min, Max]. Max is 0 for the
// open-ended top bucket.
type Bucket struct {
	Label         string  `json:"label"`
	Min           int64   `json:"min"`
	Max           int64   `json:"max"`
	Count         int     `json:"count"`
	MeanShrinkage float64 `json:"mean_shrinkage"`
	StdShrinkage  float64 `json:"std_shrinkage"`
	MeanCIWidth   float64 `json:"mean_ci_width"`
	MeanAttempts  float64 `json:"mean_attempts"`
}

var bucketBounds = []struct {
	label    string
	min, max int64
}{
	{"Very Low (<=20)", 0, 20},
	{"Low (21-50)", 20, 50},
	{"Medium (51-100)", 50, 100},
	{"High (101-500)", 100, 500},
	{"Very High (>500)", 500, 0},
}

// PositionSummary aggregates rows for one position.
type PositionSummary struct {
	Position         model.Position `json:"position"`
	Rows             int            `json:"rows"`
	Players          int            `json:"players"`
	MeanPosterior    float64        `json:"mean_posterior"`
	MeanAbsShrinkage float64        `json:"mean_abs_shrinkage"`
	MeanCIWidth      float64        `json:"mean_ci_width"`
}

// Summary describes a whole posterior table.
type Summary struct {
	Rows             int                         `json:"rows"`
	Players          int                         `json:"players"`
	MeanAbsShrinkage float64                     `json:"mean_abs_shrinkage"`
	MeanCIWidth      float64                     `json:"mean_ci_width"`
	MedianAttempts   float64                     `json:"median_attempts"`
	Buckets          []Bucket                    `json:"buckets"`
	Positions        []PositionSummary           `json:"positions"`
	RegularizedDown  []model.PlayerZonePosterior `json:"regularized_down"`
	RegularizedUp    []model.PlayerZonePosterior `json:"regularized_up"`
	HighVolume       *model.PlayerZonePosterior  `json:"high_volume,omitempty"`
	LowVolume        *model.PlayerZonePosterior  `json:"low_volume,omitempty"`
}

// Summarize describes rows. An empty table yields a zero Summary.
func Summarize(rows []model.PlayerZonePosterior, topN int) (Summary, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	s := Summary{Rows: len(rows)}
	if len(rows) == 0 {
		return s, nil
	}

	var absShrink, widths, attempts stats.Float64Data
	players := make(map[string]struct{})
	for _, r := range rows {
		absShrink = append(absShrink, math.Abs(r.Shrinkage))
		widths = append(widths, r.CIWidth)
		attempts = append(attempts, float64(r.Attempts))
		players[r.PlayerID] = struct{}{}
	}
	s.Players = len(players)

	var err error
	if s.MeanAbsShrinkage, err = absShrink.Mean(); err != nil {
		return Summary{}, err
	}
	if s.MeanCIWidth, err = widths.Mean(); err != nil {
		return Summary{}, err
	}
	if s.MedianAttempts, err = attempts.Median(); err != nil {
		return Summary{}, err
	}

	if s.Buckets, err = buckets(rows); err != nil {
		return Summary{}, err
	}
	if s.Positions, err = positions(rows); err != nil {
		return Summary{}, err
	}

	byShrink := sortedCopy(rows, func(a, b model.PlayerZonePosterior) bool { return a.Shrinkage > b.Shrinkage })
	s.RegularizedDown = head(byShrink, topN)
	reverse(byShrink)
	s.RegularizedUp = head(byShrink, topN)

	byAttempts := sortedCopy(rows, func(a, b model.PlayerZonePosterior) bool { return a.Attempts > b.Attempts })
	high, low := byAttempts[0], byAttempts[len(byAttempts)-1]
	s.HighVolume, s.LowVolume = &high, &low
	return s, nil
}

func buckets(rows []model.PlayerZonePosterior) ([]Bucket, error) {
	out := make([]Bucket, 0, len(bucketBounds))
	for _, b := range bucketBounds {
		var shrink, widths, attempts stats.Float64Data
		for _, r := range rows {
			if r.Attempts <= b.min || (b.max > 0 && r.Attempts > b.max) {
				continue
			}
			shrink = append(shrink, r.Shrinkage)
			widths = append(widths, r.CIWidth)
			attempts = append(attempts, float64(r.Attempts))
		}
		bucket := Bucket{Label: b.label, Min: b.min, Max: b.max, Count: len(shrink)}
		if len(shrink) == 0 {
			out = append(out, bucket)
			continue
		}
		var err error
		if bucket.MeanShrinkage, err = shrink.Mean(); err != nil {
			return nil, err
		}
		if len(shrink) > 1 {
			if bucket.StdShrinkage, err = stats.StandardDeviationSample(shrink); err != nil {
				return nil, err
			}
		}
		if bucket.MeanCIWidth, err = widths.Mean(); err != nil {
			return nil, err
		}
		if bucket.MeanAttempts, err = attempts.Mean(); err != nil {
			return nil, err
		}
		out = append(out, bucket)
	}
	return out, nil
}

func positions(rows []model.PlayerZonePosterior) ([]PositionSummary, error) {
	var out []PositionSummary
	for _, pos := range model.Positions {
		var means, absShrink, widths stats.Float64Data
		players := make(map[string]struct{})
		for _, r := range rows {
			if r.Position != pos {
				continue
			}
			means = append(means, r.PosteriorMean)
			absShrink = append(absShrink, math.Abs(r.Shrinkage))
			widths = append(widths, r.CIWidth)
			players[r.PlayerID] = struct{}{}
		}
		if len(means) == 0 {
			continue
		}
		ps := PositionSummary{Position: pos, Rows: len(means), Players: len(players)}
		var err error
		if ps.MeanPosterior, err = means.Mean(); err != nil {
			return nil, err
		}
		if ps.MeanAbsShrinkage, err = absShrink.Mean(); err != nil {
			return nil, err
		}
		if ps.MeanCIWidth, err = widths.Mean(); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, nil
}

func sortedCopy(rows []model.PlayerZonePosterior, less func(a, b model.PlayerZonePosterior) bool) []model.PlayerZonePosterior {
	cp := make([]model.PlayerZonePosterior, len(rows))
	copy(cp, rows)
	sort.SliceStable(cp, func(i, j int) bool { return less(cp[i], cp[j]) })
	return cp
}

func head(rows []model.PlayerZonePosterior, n int) []model.PlayerZonePosterior {
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]model.PlayerZonePosterior, n)
	copy(out, rows[:n])
	return out
}

func reverse(rows []model.PlayerZonePosterior) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
