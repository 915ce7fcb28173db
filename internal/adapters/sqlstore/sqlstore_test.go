package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/courtprior/internal/domain/model"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRows() ([]model.PositionZonePrior, []model.PlayerZonePosterior) {
	priors := []model.PositionZonePrior{
		{Position: model.Guard, Zone: model.AboveBreak3, Alpha: 45218, Beta: 78692},
		{Position: model.Center, Zone: model.RestrictedArea, Alpha: 900, Beta: 400},
	}
	rows := []model.PlayerZonePosterior{
		{
			PlayerID: "201939", PlayerName: "Stephen Curry", Position: model.Guard, Zone: model.AboveBreak3,
			Attempts: 780, Makes: 318, RawPct: 0.4077, PriorPct: 0.3649,
			PriorAlpha: 45218, PriorBeta: 78692, PosteriorAlpha: 45536, PosteriorBeta: 79154,
			PosteriorMean: 0.36519, CILower: 0.36252, CIUpper: 0.36787, CIWidth: 0.00535, Shrinkage: 0.0425,
		},
		{
			PlayerID: "1", PlayerName: "Ann", Position: model.Center, Zone: model.RestrictedArea,
			Attempts: 10, Makes: 9, PosteriorAlpha: 909, PosteriorBeta: 401, LeaguePrior: true,
		},
	}
	return priors, rows
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestLatestRun_Empty(t *testing.T) {
	s := openMemory(t)
	_, err := s.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	priors, rows := sampleRows()

	run := Run{
		ID: "run-a", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixNano(),
		Observations: 3, Posteriors: 2, Skipped: 1, Fallbacks: 1, CredibleLevel: 0.95,
	}
	require.NoError(t, s.SaveRun(ctx, run, priors, rows))

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run, latest)
	assert.Equal(t, 2024, latest.Created().Year())

	gotRows, err := s.LoadPosteriors(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, rows, gotRows)

	gotPriors, err := s.LoadPriors(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, gotPriors, 2)
	assert.Equal(t, model.Center, gotPriors[0].Position)
	assert.Equal(t, int64(45218), gotPriors[1].Alpha)
}

func TestSaveRun_LatestWins(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	priors, rows := sampleRows()

	require.NoError(t, s.SaveRun(ctx, Run{ID: "old", CreatedAt: 100}, priors, rows))
	require.NoError(t, s.SaveRun(ctx, Run{ID: "new", CreatedAt: 200}, priors, rows[:1]))

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ID)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "old", runs[1].ID)

	got, err := s.LoadPosteriors(ctx, "new")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSaveRun_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	priors, rows := sampleRows()

	require.NoError(t, s.SaveRun(ctx, Run{ID: "dup", CreatedAt: 1}, priors, rows))
	// Same id violates the runs primary key.
	require.Error(t, s.SaveRun(ctx, Run{ID: "dup", CreatedAt: 2}, priors, rows))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	// Duplicate prior pairs fail after the run insert; nothing may remain.
	bad := append(priors, priors[0])
	require.Error(t, s.SaveRun(ctx, Run{ID: "partial", CreatedAt: 3}, bad, rows))
	got, err := s.LoadPosteriors(ctx, "partial")
	require.NoError(t, err)
	assert.Empty(t, got)
	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dup", latest.ID)
}

func TestSaveRun_RequiresID(t *testing.T) {
	s := openMemory(t)
	assert.ErrorIs(t, s.SaveRun(context.Background(), Run{}, nil, nil), ErrMissingRunID)
}
