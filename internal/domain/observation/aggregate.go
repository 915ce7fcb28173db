// Package observation groups shot events into per-player, per-zone counts.
package observation

import (
	"sort"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/prior"
)

// DefaultMinAttempts is the smallest sample kept by Aggregate.
const DefaultMinAttempts = 5

// Diagnostics summarises an aggregation pass.
type Diagnostics struct {
	Events      int64                      `json:"events"`
	Dropped     map[prior.DropReason]int64 `json:"dropped"`
	Groups      int                        `json:"groups"`
	BelowMin    int                        `json:"below_min_attempts"`
	Emitted     int                        `json:"emitted"`
	MinAttempts int64                      `json:"min_attempts"`
}

type groupKey struct {
	playerID   string
	playerName string
	position   model.Position
	zone       model.Zone
}

// Aggregate groups events by (player id, player name, position, zone) and
// keeps groups with at least minAttempts attempts. Events whose position or
// zone cannot be resolved are dropped with the same reasons the prior
// estimator uses. Rows are ordered by player id, name, position, then zone.
func Aggregate(events []model.ShotEvent, minAttempts int64) ([]model.PlayerZoneObservation, Diagnostics) {
	if minAttempts < 1 {
		minAttempts = 1
	}
	diag := Diagnostics{Dropped: make(map[prior.DropReason]int64), MinAttempts: minAttempts}
	groups := make(map[groupKey]*model.PlayerZoneObservation)

	for _, e := range events {
		diag.Events++
		pos, ok := model.MapPosition(e.PositionCode)
		if !ok {
			diag.Dropped[prior.DropUnmappablePosition]++
			continue
		}
		zone, ok := model.ParseZone(e.Zone)
		if !ok {
			diag.Dropped[prior.DropUnmappableZone]++
			continue
		}
		k := groupKey{playerID: e.PlayerID, playerName: e.PlayerName, position: pos, zone: zone}
		g, found := groups[k]
		if !found {
			g = &model.PlayerZoneObservation{PlayerID: e.PlayerID, PlayerName: e.PlayerName, Position: pos, Zone: zone}
			groups[k] = g
		}
		g.Attempts++
		if e.Made {
			g.Makes++
		}
	}

	diag.Groups = len(groups)
	out := make([]model.PlayerZoneObservation, 0, len(groups))
	for _, g := range groups {
		if g.Attempts < minAttempts {
			diag.BelowMin++
			continue
		}
		out = append(out, *g)
	}
	Sort(out)
	diag.Emitted = len(out)
	return out, diag
}

// Sort orders rows by player id, name, position, then court zone order.
func Sort(rows []model.PlayerZoneObservation) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.PlayerID != b.PlayerID {
			return a.PlayerID < b.PlayerID
		}
		if a.PlayerName != b.PlayerName {
			return a.PlayerName < b.PlayerName
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return zoneIndex(a.Zone) < zoneIndex(b.Zone)
	})
}

func zoneIndex(z model.Zone) int {
	for i, known := range model.Zones {
		if z == known {
			return i
		}
	}
	return len(model.Zones)
}
