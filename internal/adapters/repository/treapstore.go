package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/summary"
	"github.com/okian/courtprior/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Each zone has its own treap ordered by posterior mean DESC, then player id
// ASC, so in-order traversal yields the zone leaderboard from best to worst.
// A run's rows are loaded into a fresh generation which is swapped in
// atomically; readers never see a half-loaded table.

// meanScale controls fixed-point scaling of posterior means.
const meanScale = 1_000_000_000_000

type meanFP int64

func toFixedPoint(x float64) meanFP {
	if math.IsNaN(x) {
		return 0
	}
	return meanFP(math.Round(x * meanScale))
}

// treap node
type node struct {
	id    string
	mean  meanFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aMean, aID) should appear before (bMean, bID).
func less(aMean meanFP, aID string, bMean meanFP, bID string) bool {
	if aMean != bMean {
		return aMean > bMean
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the player id so tree shape is independent of the order
// of the ranking key and stable across runs.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, mean meanFP) *node {
	if n == nil {
		return &node{id: id, mean: mean, prio: priority(id), size: 1}
	}
	if less(mean, id, n.mean, n.id) {
		n.left = insert(n.left, id, mean)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, mean)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// before counts nodes ranked strictly ahead of (mean, id).
func before(n *node, mean meanFP, id string) int {
	count := 0
	for n != nil {
		if less(n.mean, n.id, mean, id) {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collect appends rows in rank order, skipping rows below minAttempts,
// until limit rows were appended. A non-positive limit collects everything.
func collect(n *node, limit int, minAttempts int64, rows map[string]model.PlayerZonePosterior, out *[]model.PlayerZonePosterior) {
	if n == nil || (limit > 0 && len(*out) >= limit) {
		return
	}
	collect(n.left, limit, minAttempts, rows, out)
	if limit <= 0 || len(*out) < limit {
		if r, ok := rows[n.id]; ok && r.Attempts >= minAttempts {
			*out = append(*out, r)
		}
	}
	if limit <= 0 || len(*out) < limit {
		collect(n.right, limit, minAttempts, rows, out)
	}
}

type zoneBoard struct {
	root *node
	rows map[string]model.PlayerZonePosterior // player id -> row
}

// generation is one immutable, fully indexed posterior table.
type generation struct {
	runID    string
	loadedAt time.Time
	rows     []model.PlayerZonePosterior
	boards   map[model.Zone]*zoneBoard
	players  map[string][]model.PlayerZonePosterior
}

// TreapStore keeps the latest generation behind an atomic pointer.
type TreapStore struct {
	current     atomic.Pointer[generation]
	maxLimit    int
	minAttempts int64
}

// NewTreapStore constructs an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&generation{
		boards:  map[model.Zone]*zoneBoard{},
		players: map[string][]model.PlayerZonePosterior{},
	})
	return s
}

// Load replaces the stored table with rows from runID.
func (s *TreapStore) Load(_ context.Context, runID string, rows []model.PlayerZonePosterior) error {
	start := time.Now()
	g := &generation{
		runID:    runID,
		loadedAt: start,
		rows:     append([]model.PlayerZonePosterior(nil), rows...),
		boards:   make(map[model.Zone]*zoneBoard, len(model.Zones)),
		players:  make(map[string][]model.PlayerZonePosterior),
	}
	for _, r := range g.rows {
		if !r.Zone.Valid() {
			metrics.RecordErrorByComponent("repository", "unknown_zone")
			return ErrUnknownZone
		}
		b, ok := g.boards[r.Zone]
		if !ok {
			b = &zoneBoard{rows: make(map[string]model.PlayerZonePosterior)}
			g.boards[r.Zone] = b
		}
		// A player split across position codes keeps their larger sample.
		if prev, dup := b.rows[r.PlayerID]; dup {
			metrics.RecordErrorByComponent("repository", "duplicate_row")
			if prev.Attempts >= r.Attempts {
				continue
			}
		}
		b.rows[r.PlayerID] = r
	}
	for _, b := range g.boards {
		for id, r := range b.rows {
			b.root = insert(b.root, id, toFixedPoint(r.PosteriorMean))
			g.players[id] = append(g.players[id], r)
		}
	}
	for _, list := range g.players {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Attempts != list[j].Attempts {
				return list[i].Attempts > list[j].Attempts
			}
			return zoneOrder(list[i].Zone) < zoneOrder(list[j].Zone)
		})
	}

	s.current.Store(g)
	metrics.UpdateBoardEntries(len(g.rows))
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// RunID returns the id of the loaded run, or "" when empty.
func (s *TreapStore) RunID(_ context.Context) string { return s.current.Load().runID }

// Rows returns every loaded row in load order.
func (s *TreapStore) Rows(_ context.Context) []model.PlayerZonePosterior {
	g := s.current.Load()
	return append([]model.PlayerZonePosterior(nil), g.rows...)
}

// LoadedAt returns when the current table was loaded.
func (s *TreapStore) LoadedAt(_ context.Context) time.Time { return s.current.Load().loadedAt }

// Count returns the number of loaded rows.
func (s *TreapStore) Count(_ context.Context) int { return len(s.current.Load().rows) }

// TopN returns up to n rows of zone with at least minAttempts attempts,
// ordered by posterior mean desc.
func (s *TreapStore) TopN(_ context.Context, zone model.Zone, n int, minAttempts int64) ([]Entry, error) {
	if n < 1 || n > s.maxLimit {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	if !zone.Valid() {
		return nil, ErrUnknownZone
	}
	if minAttempts < s.minAttempts {
		minAttempts = s.minAttempts
	}

	g := s.current.Load()
	b, ok := g.boards[zone]
	if !ok {
		return []Entry{}, nil
	}
	rows := make([]model.PlayerZonePosterior, 0, n)
	collect(b.root, n, minAttempts, b.rows, &rows)
	out := toEntries(rows)
	assignRanksWithTies(out)
	return out, nil
}

// Rank returns a player's standing in a zone among all loaded rows.
func (s *TreapStore) Rank(_ context.Context, zone model.Zone, playerID string) (Entry, error) {
	if !zone.Valid() {
		return Entry{}, ErrUnknownZone
	}
	g := s.current.Load()
	b, ok := g.boards[zone]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	r, ok := b.rows[playerID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	all := make([]model.PlayerZonePosterior, 0, len(b.rows))
	collect(b.root, 0, 0, b.rows, &all)
	entries := toEntries(all)
	assignRanksWithTies(entries)
	pos := before(b.root, toFixedPoint(r.PosteriorMean), playerID)
	e := entries[pos]
	e.Of = len(entries)
	return e, nil
}

// Player returns a player's rows ordered by attempts desc.
func (s *TreapStore) Player(_ context.Context, playerID string) ([]model.PlayerZonePosterior, error) {
	rows, ok := s.current.Load().players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]model.PlayerZonePosterior(nil), rows...), nil
}

// Search returns profiles of players whose name contains query.
func (s *TreapStore) Search(_ context.Context, query string) []summary.Profile {
	return summary.Profiles(summary.MatchName(s.current.Load().rows, query))
}

func zoneOrder(z model.Zone) int {
	for i, known := range model.Zones {
		if z == known {
			return i
		}
	}
	return len(model.Zones)
}

func toEntries(rows []model.PlayerZonePosterior) []Entry {
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{Posterior: r}
	}
	return out
}

// assignRanksWithTies gives equal posterior means the same rank and
// continues with the next consecutive rank.
func assignRanksWithTies(entries []Entry) {
	currentRank := 0
	var prev meanFP
	for i := range entries {
		m := toFixedPoint(entries[i].Posterior.PosteriorMean)
		if i == 0 || m != prev {
			currentRank++
			prev = m
		}
		entries[i].Rank = currentRank
	}
}
