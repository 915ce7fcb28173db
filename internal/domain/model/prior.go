package model

// PositionZonePrior is the Beta prior for one (position, zone) pair.
// Alpha is the league-wide make count and Beta the miss count.
type PositionZonePrior struct {
	Position Position `json:"position"`
	Zone     Zone     `json:"zone"`
	Alpha    int64    `json:"alpha"`
	Beta     int64    `json:"beta"`
}

// Key returns the pair the prior belongs to.
func (p PositionZonePrior) Key() Key { return Key{Position: p.Position, Zone: p.Zone} }

// SampleSize is the number of shots behind the prior.
func (p PositionZonePrior) SampleSize() int64 { return p.Alpha + p.Beta }

// Mean is the prior make probability, or 0 for an empty prior.
func (p PositionZonePrior) Mean() float64 {
	n := p.SampleSize()
	if n <= 0 {
		return 0
	}
	return float64(p.Alpha) / float64(n)
}

// Usable reports whether the prior can seed a conjugate update.
func (p PositionZonePrior) Usable() bool {
	return p.Alpha >= 0 && p.Beta >= 0 && p.SampleSize() > 0
}
