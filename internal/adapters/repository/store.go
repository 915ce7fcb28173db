// Package repository holds the posterior table of the latest run and serves
// ranked, per-zone reads over it.
package repository

import (
	"context"
	"time"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/summary"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank      int                       `json:"rank"`
	Of        int                       `json:"of,omitempty"`
	Posterior model.PlayerZonePosterior `json:"posterior"`
}

// Store provides read/write access to the ranked posterior table.
type Store interface {
	// Load replaces the whole table with a new run's rows.
	Load(ctx context.Context, runID string, rows []model.PlayerZonePosterior) error

	// TopN returns the top-n rows in zone with at least minAttempts attempts.
	TopN(ctx context.Context, zone model.Zone, n int, minAttempts int64) ([]Entry, error)

	// Rank returns a player's rank in zone. Returns ErrNotFound if unknown.
	Rank(ctx context.Context, zone model.Zone, playerID string) (Entry, error)

	// Player returns every row for a player.
	Player(ctx context.Context, playerID string) ([]model.PlayerZonePosterior, error)

	// Search matches players by name substring.
	Search(ctx context.Context, query string) []summary.Profile

	Rows(ctx context.Context) []model.PlayerZonePosterior
	RunID(ctx context.Context) string
	LoadedAt(ctx context.Context) time.Time
	Count(ctx context.Context) int
}
