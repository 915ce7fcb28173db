// Package dedupe tracks identities already consumed by a pipeline run.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen identities so each is processed at most once.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded, recording it if not.
	// The empty id is never recorded and never reported as seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Duplicates is the number of SeenAndRecord calls that returned true.
	Duplicates() int64

	Size() int64
}

type inMemoryDeduper struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	capacity   int
	size       atomic.Int64
	duplicates atomic.Int64
}

// NewInMemoryDeduper creates a map-backed deduper safe for concurrent use.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{capacity: 1024}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.capacity)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		d.duplicates.Add(1)
		return true
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Duplicates() int64 { return d.duplicates.Load() }

func (d *inMemoryDeduper) Size() int64 { return d.size.Load() }
