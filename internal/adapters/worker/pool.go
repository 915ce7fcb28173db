// Package worker fans the per-record pipeline stages out over goroutines.
//
// Work is split into contiguous chunks and results are written back by
// index, so every output is identical to the serial computation.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/posterior"
	"github.com/okian/courtprior/internal/domain/prior"
	"github.com/okian/courtprior/pkg/logger"
	"github.com/okian/courtprior/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultChunkSize = 512
)

// Resolver computes the outcome for a single observation.
type Resolver interface {
	Resolve(obs model.PlayerZoneObservation, table prior.Table) posterior.Outcome
}

// Pool runs chunked work with bounded concurrency.
type Pool struct {
	workers   int
	chunkSize int
	logger    logger.Logger
}

// NewPool creates a pool. A non-positive worker count uses runtime.NumCPU().
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		workers:   runtime.NumCPU(),
		chunkSize: defaultChunkSize,
		logger:    logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	metrics.UpdateWorkerCount(p.workers)
	return p
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Posteriors resolves every observation against table and assembles the
// report in input order. Cancelling ctx stops scheduling new chunks.
func (p *Pool) Posteriors(ctx context.Context, r Resolver, observations []model.PlayerZoneObservation, table prior.Table) (posterior.Report, error) {
	outcomes := make([]posterior.Outcome, len(observations))
	err := p.run(ctx, len(observations), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			outcomes[i] = r.Resolve(observations[i], table)
		}
	})
	if err != nil {
		return posterior.Report{}, err
	}
	return posterior.Collect(observations, outcomes)
}

// Priors folds events into one accumulator per chunk and merges them.
func (p *Pool) Priors(ctx context.Context, events []model.ShotEvent) (*prior.Accumulator, error) {
	chunks := chunkCount(len(events), p.chunkSize)
	partials := make([]*prior.Accumulator, chunks)
	err := p.run(ctx, len(events), func(lo, hi int) {
		acc := prior.NewAccumulator()
		acc.AddAll(events[lo:hi])
		partials[lo/p.chunkSize] = acc
	})
	if err != nil {
		return nil, err
	}

	total := prior.NewAccumulator()
	for _, part := range partials {
		total.Merge(part)
	}
	return total, nil
}

func (p *Pool) run(ctx context.Context, n int, fn func(lo, hi int)) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for lo := 0; lo < n; lo += p.chunkSize {
		lo := lo
		hi := min(lo+p.chunkSize, n)
		if err := gCtx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			fn(lo, hi)
			metrics.RecordWorkerBatchLatency(float64(time.Since(start).Microseconds()) / 1000)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}
	if err := ctx.Err(); err != nil {
		p.logger.Warn(ctx, "worker pool cancelled", logger.Error(err))
		return fmt.Errorf("worker pool: %w", err)
	}
	return nil
}

func chunkCount(n, size int) int {
	return (n + size - 1) / size
}
