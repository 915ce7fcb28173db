// Package prior estimates position-zone Beta priors from a league shot corpus.
//
// Estimation is a fold: an Accumulator tallies makes and misses per
// (position, zone) as events are added, partial accumulators built over
// disjoint slices of the corpus can be merged, and the result is frozen
// into an immutable Table.
package prior

import (
	"github.com/okian/courtprior/internal/domain/model"
)

// DropReason names why a shot was excluded from estimation.
type DropReason string

// Drop reasons.
const (
	DropUnmappablePosition DropReason = "unmappable_position"
	DropUnmappableZone     DropReason = "unmappable_zone"
)

type tally struct {
	makes  int64
	misses int64
}

func (t *tally) add(made bool) {
	if made {
		t.makes++
	} else {
		t.misses++
	}
}

// Accumulator folds shot events into per-pair make/miss counts.
// It is not safe for concurrent use; give each goroutine its own and Merge.
type Accumulator struct {
	pairs   map[model.Key]*tally
	zones   map[model.Zone]*tally
	seen    int64
	dropped map[DropReason]int64
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		pairs:   make(map[model.Key]*tally, len(model.Positions)*len(model.Zones)),
		zones:   make(map[model.Zone]*tally, len(model.Zones)),
		dropped: make(map[DropReason]int64),
	}
}

// Add folds one event in. It returns false when the event was dropped
// because its position code or zone could not be resolved.
func (a *Accumulator) Add(e model.ShotEvent) bool {
	a.seen++
	pos, ok := model.MapPosition(e.PositionCode)
	if !ok {
		a.dropped[DropUnmappablePosition]++
		return false
	}
	zone, ok := model.ParseZone(e.Zone)
	if !ok {
		a.dropped[DropUnmappableZone]++
		return false
	}

	key := model.Key{Position: pos, Zone: zone}
	t, found := a.pairs[key]
	if !found {
		t = &tally{}
		a.pairs[key] = t
	}
	t.add(e.Made)

	z, found := a.zones[zone]
	if !found {
		z = &tally{}
		a.zones[zone] = z
	}
	z.add(e.Made)
	return true
}

// AddAll folds every event in order.
func (a *Accumulator) AddAll(events []model.ShotEvent) {
	for _, e := range events {
		a.Add(e)
	}
}

// Merge adds other's counts into a. other is left unchanged.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	for key, t := range other.pairs {
		mine, ok := a.pairs[key]
		if !ok {
			mine = &tally{}
			a.pairs[key] = mine
		}
		mine.makes += t.makes
		mine.misses += t.misses
	}
	for zone, t := range other.zones {
		mine, ok := a.zones[zone]
		if !ok {
			mine = &tally{}
			a.zones[zone] = mine
		}
		mine.makes += t.makes
		mine.misses += t.misses
	}
	a.seen += other.seen
	for reason, n := range other.dropped {
		a.dropped[reason] += n
	}
}

// Table freezes the position-zone counts. Pairs with no events are absent.
func (a *Accumulator) Table() Table {
	priors := make(map[model.Key]model.PositionZonePrior, len(a.pairs))
	for key, t := range a.pairs {
		if t.makes+t.misses == 0 {
			continue
		}
		priors[key] = model.PositionZonePrior{
			Position: key.Position,
			Zone:     key.Zone,
			Alpha:    t.makes,
			Beta:     t.misses,
		}
	}
	return Table{priors: priors}
}

// LeagueTable freezes the per-zone counts pooled across positions.
func (a *Accumulator) LeagueTable() LeagueTable {
	priors := make(map[model.Zone]model.PositionZonePrior, len(a.zones))
	for zone, t := range a.zones {
		if t.makes+t.misses == 0 {
			continue
		}
		priors[zone] = model.PositionZonePrior{
			Position: model.League,
			Zone:     zone,
			Alpha:    t.makes,
			Beta:     t.misses,
		}
	}
	return LeagueTable{priors: priors}
}

// Diagnostics reports how many events were seen and dropped so far.
func (a *Accumulator) Diagnostics() Diagnostics {
	dropped := make(map[DropReason]int64, len(a.dropped))
	var total int64
	for reason, n := range a.dropped {
		dropped[reason] = n
		total += n
	}
	return Diagnostics{Seen: a.seen, Used: a.seen - total, Dropped: dropped}
}

// Diagnostics summarises an estimation pass.
type Diagnostics struct {
	Seen    int64                `json:"seen"`
	Used    int64                `json:"used"`
	Dropped map[DropReason]int64 `json:"dropped"`
}

// TotalDropped sums the per-reason drop counts.
func (d Diagnostics) TotalDropped() int64 {
	var n int64
	for _, c := range d.Dropped {
		n += c
	}
	return n
}

// Compute estimates the position-zone priors for events.
func Compute(events []model.ShotEvent) (Table, Diagnostics) {
	acc := NewAccumulator()
	acc.AddAll(events)
	return acc.Table(), acc.Diagnostics()
}

// ComputeLeague estimates one prior per zone with positions pooled.
func ComputeLeague(events []model.ShotEvent) LeagueTable {
	acc := NewAccumulator()
	acc.AddAll(events)
	return acc.LeagueTable()
}
