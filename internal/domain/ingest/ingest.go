// Package ingest reconciles raw shot rows with roster data before estimation.
package ingest

import (
	"context"
	"strings"

	"github.com/okian/courtprior/internal/domain/dedupe"
	"github.com/okian/courtprior/internal/domain/model"
)

// Roster maps player ids to their roster entry. The first entry seen for a
// player wins, so a traded player keeps the position of their first team.
type Roster struct {
	byID map[string]model.RosterEntry
}

// NewRoster indexes entries and returns how many repeats were ignored.
func NewRoster(entries []model.RosterEntry) (Roster, int) {
	r := Roster{byID: make(map[string]model.RosterEntry, len(entries))}
	dups := 0
	for _, e := range entries {
		id := strings.TrimSpace(e.PlayerID)
		if id == "" {
			continue
		}
		if _, ok := r.byID[id]; ok {
			dups++
			continue
		}
		e.PlayerID = id
		r.byID[id] = e
	}
	return r, dups
}

// Lookup returns the roster entry for a player.
func (r Roster) Lookup(playerID string) (model.RosterEntry, bool) {
	e, ok := r.byID[playerID]
	return e, ok
}

// Len is the number of distinct players on the roster.
func (r Roster) Len() int { return len(r.byID) }

// Stats counts what Prepare did to the input.
type Stats struct {
	Read            int64 `json:"read"`
	Kept            int64 `json:"kept"`
	Duplicates      int64 `json:"duplicates"`
	RosterPositions int64 `json:"roster_positions"`
}

// Prepare drops repeated shots and attaches roster position codes.
//
// A shot whose player is on the roster takes the roster position code and,
// when its own is blank, the roster name. Shots of players missing from the
// roster keep whatever code they carried. The input slice is not modified.
func Prepare(ctx context.Context, events []model.ShotEvent, roster Roster, seen dedupe.Deduper) ([]model.ShotEvent, Stats) {
	out := make([]model.ShotEvent, 0, len(events))
	var st Stats
	for _, e := range events {
		st.Read++
		if seen != nil && seen.SeenAndRecord(ctx, e.DedupeKey()) {
			st.Duplicates++
			continue
		}
		if entry, ok := roster.Lookup(e.PlayerID); ok {
			e.PositionCode = entry.PositionCode
			if e.PlayerName == "" {
				e.PlayerName = entry.PlayerName
			}
			st.RosterPositions++
		}
		out = append(out, e)
	}
	st.Kept = int64(len(out))
	return out, st
}
