// Package synth generates deterministic synthetic shot corpora for demos and
// tests. The same Config always yields the same dataset.
package synth

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/courtprior/internal/domain/model"
)

// Default generation constants.
const (
	defaultPlayers        = 120
	defaultGames          = 40
	defaultShotsPerGame   = 12
	defaultDuplicateRate  = 0.01
	defaultUnmappableRate = 0.01
	defaultBackcourtRate  = 0.002
	skillSpread           = 0.06
)

// Config controls the generated corpus.
type Config struct {
	Seed           int64
	Players        int
	Games          int
	ShotsPerGame   int     // mean shots per player per game
	DuplicateRate  float64 // share of shots repeated verbatim
	UnmappableRate float64 // share of roster rows with an unusable position code
	BackcourtRate  float64 // share of shots from outside the six zones
}

// DefaultConfig returns a small league.
func DefaultConfig() Config {
	return Config{
		Seed:           1,
		Players:        defaultPlayers,
		Games:          defaultGames,
		ShotsPerGame:   defaultShotsPerGame,
		DuplicateRate:  defaultDuplicateRate,
		UnmappableRate: defaultUnmappableRate,
		BackcourtRate:  defaultBackcourtRate,
	}
}

// Dataset is a generated corpus. Truth holds each player's true make
// probability per zone.
type Dataset struct {
	Shots  []model.ShotEvent
	Roster []model.RosterEntry
	Truth  map[string]map[model.Zone]float64
}

// position archetypes: base make probability and shot-mix weight per zone,
// in model.Zones order.
var archetypes = map[model.Position]struct {
	codes []string
	pct   [6]float64
	mix   [6]float64
}{
	model.Guard:   {codes: []string{"G", "PG", "SG", "G-F"}, pct: [6]float64{0.60, 0.42, 0.42, 0.39, 0.39, 0.36}, mix: [6]float64{0.20, 0.10, 0.15, 0.06, 0.06, 0.43}},
	model.Forward: {codes: []string{"F", "SF", "PF", "F-C"}, pct: [6]float64{0.64, 0.43, 0.41, 0.38, 0.38, 0.35}, mix: [6]float64{0.30, 0.14, 0.14, 0.08, 0.08, 0.26}},
	model.Center:  {codes: []string{"C"}, pct: [6]float64{0.68, 0.46, 0.40, 0.35, 0.35, 0.33}, mix: [6]float64{0.55, 0.25, 0.10, 0.02, 0.02, 0.06}},
}

// Generate builds a dataset from cfg. Zero fields take DefaultConfig values.
func Generate(cfg Config) (Dataset, error) {
	cfg = withDefaults(cfg)
	if cfg.DuplicateRate < 0 || cfg.DuplicateRate >= 1 || cfg.UnmappableRate < 0 || cfg.UnmappableRate >= 1 ||
		cfg.BackcourtRate < 0 || cfg.BackcourtRate >= 1 {
		return Dataset{}, fmt.Errorf("%w: rates must be in [0, 1)", ErrInvalidConfig)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible data, not security
	ds := Dataset{Truth: make(map[string]map[model.Zone]float64, cfg.Players)}

	type player struct {
		entry model.RosterEntry
		pos   model.Position
		pct   [6]float64
	}
	players := make([]player, cfg.Players)
	for i := range players {
		pos := model.Positions[i%len(model.Positions)]
		arch := archetypes[pos]
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return Dataset{}, fmt.Errorf("player id: %w", err)
		}
		code := arch.codes[rng.Intn(len(arch.codes))]
		if rng.Float64() < cfg.UnmappableRate {
			code = "TBD"
		}
		p := player{
			entry: model.RosterEntry{PlayerID: id.String(), PlayerName: fmt.Sprintf("Player %03d", i+1), PositionCode: code},
			pos:   pos,
		}
		truth := make(map[model.Zone]float64, len(model.Zones))
		for z := range model.Zones {
			pct := arch.pct[z] + rng.NormFloat64()*skillSpread
			p.pct[z] = min(max(pct, 0.05), 0.95)
			truth[model.Zones[z]] = p.pct[z]
		}
		players[i] = p
		ds.Roster = append(ds.Roster, p.entry)
		ds.Truth[p.entry.PlayerID] = truth
	}

	for g := 0; g < cfg.Games; g++ {
		gameID := fmt.Sprintf("00223%05d", g+1)
		eventNum := 0
		for _, p := range players {
			arch := archetypes[p.pos]
			// Poisson-ish volume: usage varies a lot between players.
			n := rng.Intn(2*cfg.ShotsPerGame + 1)
			for s := 0; s < n; s++ {
				eventNum++
				z := pickZone(rng, arch.mix)
				zone := string(model.Zones[z])
				if rng.Float64() < cfg.BackcourtRate {
					zone = "Backcourt"
				}
				shot := model.ShotEvent{
					GameID:       gameID,
					GameEventID:  fmt.Sprint(eventNum),
					PlayerID:     p.entry.PlayerID,
					PlayerName:   p.entry.PlayerName,
					PositionCode: p.entry.PositionCode,
					Zone:         zone,
					Made:         rng.Float64() < p.pct[z],
				}
				ds.Shots = append(ds.Shots, shot)
				if rng.Float64() < cfg.DuplicateRate {
					ds.Shots = append(ds.Shots, shot)
				}
			}
		}
	}
	return ds, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Players <= 0 {
		cfg.Players = def.Players
	}
	if cfg.Games <= 0 {
		cfg.Games = def.Games
	}
	if cfg.ShotsPerGame <= 0 {
		cfg.ShotsPerGame = def.ShotsPerGame
	}
	return cfg
}

func pickZone(rng *rand.Rand, mix [6]float64) int {
	u := rng.Float64()
	acc := 0.0
	for i, w := range mix {
		acc += w
		if u < acc {
			return i
		}
	}
	return len(mix) - 1
}
