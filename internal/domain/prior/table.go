package prior

import (
	"fmt"

	"github.com/okian/courtprior/internal/domain/model"
)

// Table is an immutable set of position-zone priors.
type Table struct {
	priors map[model.Key]model.PositionZonePrior
}

// NewTable builds a table from externally supplied priors, e.g. a priors
// file from an earlier run. Every row must name a recognized pair once and
// carry usable counts.
func NewTable(rows []model.PositionZonePrior) (Table, error) {
	priors := make(map[model.Key]model.PositionZonePrior, len(rows))
	for _, row := range rows {
		if !row.Position.Valid() || !row.Zone.Valid() {
			return Table{}, fmt.Errorf("%w: %s", ErrUnknownPair, row.Key())
		}
		if !row.Usable() {
			return Table{}, fmt.Errorf("%w: %s alpha=%d beta=%d", ErrInvalidCounts, row.Key(), row.Alpha, row.Beta)
		}
		if _, dup := priors[row.Key()]; dup {
			return Table{}, fmt.Errorf("%w: %s", ErrDuplicatePair, row.Key())
		}
		priors[row.Key()] = row
	}
	return Table{priors: priors}, nil
}

// Lookup returns the prior for a pair.
func (t Table) Lookup(key model.Key) (model.PositionZonePrior, bool) {
	p, ok := t.priors[key]
	return p, ok
}

// Len is the number of priors in the table.
func (t Table) Len() int { return len(t.priors) }

// Rows returns the priors in position then zone order.
func (t Table) Rows() []model.PositionZonePrior {
	rows := make([]model.PositionZonePrior, 0, len(t.priors))
	for _, pos := range model.Positions {
		for _, zone := range model.Zones {
			if p, ok := t.priors[model.Key{Position: pos, Zone: zone}]; ok {
				rows = append(rows, p)
			}
		}
	}
	return rows
}

// Missing lists the recognized pairs with no prior.
func (t Table) Missing() []model.Key {
	var keys []model.Key
	for _, pos := range model.Positions {
		for _, zone := range model.Zones {
			key := model.Key{Position: pos, Zone: zone}
			if _, ok := t.priors[key]; !ok {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// LeagueTable holds one prior per zone pooled across positions.
type LeagueTable struct {
	priors map[model.Zone]model.PositionZonePrior
}

// Lookup returns the pooled prior for a zone.
func (t LeagueTable) Lookup(zone model.Zone) (model.PositionZonePrior, bool) {
	p, ok := t.priors[zone]
	return p, ok
}

// Len is the number of zones with a pooled prior.
func (t LeagueTable) Len() int { return len(t.priors) }

// Rows returns the pooled priors in zone order.
func (t LeagueTable) Rows() []model.PositionZonePrior {
	rows := make([]model.PositionZonePrior, 0, len(t.priors))
	for _, zone := range model.Zones {
		if p, ok := t.priors[zone]; ok {
			rows = append(rows, p)
		}
	}
	return rows
}
