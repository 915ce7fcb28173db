package summary

import (
	"sort"
	"strings"

	"github.com/okian/courtprior/internal/domain/model"
)

// Profile is one player's posterior rows plus headline zones.
type Profile struct {
	PlayerID          string                      `json:"player_id"`
	PlayerName        string                      `json:"player_name"`
	Position          model.Position              `json:"position"`
	Zones             []model.PlayerZonePosterior `json:"zones"`
	BestZone          model.Zone                  `json:"best_zone"`
	MostAttemptsZone  model.Zone                  `json:"most_attempts_zone"`
	MostConfidentZone model.Zone                  `json:"most_confident_zone"`
}

// MatchName returns the rows whose player name contains query,
// case-insensitively. An empty query matches nothing.
func MatchName(rows []model.PlayerZonePosterior, query string) []model.PlayerZonePosterior {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []model.PlayerZonePosterior
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.PlayerName), q) {
			out = append(out, r)
		}
	}
	return out
}

// Profiles groups rows by player, ordering each player's zones by attempts
// descending. Players appear in order of first occurrence.
func Profiles(rows []model.PlayerZonePosterior) []Profile {
	index := make(map[string]int)
	var out []Profile
	for _, r := range rows {
		i, ok := index[r.PlayerID]
		if !ok {
			i = len(out)
			index[r.PlayerID] = i
			out = append(out, Profile{PlayerID: r.PlayerID, PlayerName: r.PlayerName, Position: r.Position})
		}
		out[i].Zones = append(out[i].Zones, r)
	}
	for i := range out {
		p := &out[i]
		sort.SliceStable(p.Zones, func(a, b int) bool { return p.Zones[a].Attempts > p.Zones[b].Attempts })
		best, most, confident := p.Zones[0], p.Zones[0], p.Zones[0]
		for _, z := range p.Zones[1:] {
			if z.PosteriorMean > best.PosteriorMean {
				best = z
			}
			if z.CIWidth < confident.CIWidth {
				confident = z
			}
		}
		p.BestZone, p.MostAttemptsZone, p.MostConfidentZone = best.Zone, most.Zone, confident.Zone
	}
	return out
}
