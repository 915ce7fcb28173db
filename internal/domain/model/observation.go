package model

// PlayerZoneObservation aggregates one player's attempts in one zone.
type PlayerZoneObservation struct {
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name"`
	Position   Position `json:"position"`
	Zone       Zone     `json:"zone"`
	Attempts   int64    `json:"attempts"`
	Makes      int64    `json:"makes"`
}

// Key returns the (position, zone) pair used to find the prior.
func (o PlayerZoneObservation) Key() Key { return Key{Position: o.Position, Zone: o.Zone} }

// Misses is attempts minus makes.
func (o PlayerZoneObservation) Misses() int64 { return o.Attempts - o.Makes }

// RawPct is makes over attempts; ok is false when there were no attempts.
func (o PlayerZoneObservation) RawPct() (pct float64, ok bool) {
	if o.Attempts <= 0 {
		return 0, false
	}
	return float64(o.Makes) / float64(o.Attempts), true
}

// ID is a stable row identifier, "player_id/zone".
func (o PlayerZoneObservation) ID() string { return o.PlayerID + "/" + string(o.Zone) }
