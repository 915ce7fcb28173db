package model

// PlayerZonePosterior is the Beta posterior for one (player, zone).
type PlayerZonePosterior struct {
	PlayerID       string   `json:"player_id" db:"player_id"`
	PlayerName     string   `json:"player_name" db:"player_name"`
	Position       Position `json:"position" db:"position"`
	Zone           Zone     `json:"zone" db:"zone"`
	Attempts       int64    `json:"attempts" db:"attempts"`
	Makes          int64    `json:"makes" db:"makes"`
	RawPct         float64  `json:"raw_fg_pct" db:"raw_fg_pct"`
	PriorPct       float64  `json:"prior_fg_pct" db:"prior_fg_pct"`
	PriorAlpha     int64    `json:"prior_alpha" db:"prior_alpha"`
	PriorBeta      int64    `json:"prior_beta" db:"prior_beta"`
	PosteriorAlpha int64    `json:"posterior_alpha" db:"posterior_alpha"`
	PosteriorBeta  int64    `json:"posterior_beta" db:"posterior_beta"`
	PosteriorMean  float64  `json:"posterior_mean" db:"posterior_mean"`
	CILower        float64  `json:"ci_lower" db:"ci_lower"`
	CIUpper        float64  `json:"ci_upper" db:"ci_upper"`
	CIWidth        float64  `json:"ci_width" db:"ci_width"`
	Shrinkage      float64  `json:"shrinkage" db:"shrinkage"`
	LeaguePrior    bool     `json:"league_prior" db:"league_prior"`
}

// Key returns the (position, zone) pair of the row.
func (p PlayerZonePosterior) Key() Key { return Key{Position: p.Position, Zone: p.Zone} }

// EffectiveSample is the total pseudo-count behind the posterior.
func (p PlayerZonePosterior) EffectiveSample() int64 { return p.PosteriorAlpha + p.PosteriorBeta }
