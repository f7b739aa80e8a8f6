// Package indexing builds, publishes and loads recommendation index generations.
package indexing

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/feature"
	"github.com/kailas-cloud/gamedex/internal/domain/generation"
	"github.com/kailas-cloud/gamedex/internal/index/ivf"
	"github.com/kailas-cloud/gamedex/internal/metrics"
)

// Snapshot is one immutable published index generation: the index plus the
// table resolving its ordinals to item ids.
type Snapshot struct {
	Generation  string
	Version     string
	PublishedAt time.Time

	index    *ivf.Index
	ordinals []int64
}

// NewSnapshot pairs a populated index with its ordinal table.
func NewSnapshot(rec generation.Record, idx *ivf.Index, ordinals []int64) (*Snapshot, error) {
	if len(ordinals) != idx.Len() {
		return nil, fmt.Errorf("%w: %d ordinals for %d vectors", domain.ErrCorruptArtifact, len(ordinals), idx.Len())
	}
	return &Snapshot{
		Generation:  rec.Generation,
		Version:     idx.Version(),
		PublishedAt: rec.PublishedAt,
		index:       idx,
		ordinals:    ordinals,
	}, nil
}

// Len returns the number of indexed items.
func (s *Snapshot) Len() int { return len(s.ordinals) }

// Search returns the item ids of up to k nearest neighbors of v, closest first.
func (s *Snapshot) Search(v feature.Vector, k int) ([]int64, error) {
	hits, err := s.index.Search(v, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = s.ordinals[h.Ordinal]
	}
	return ids, nil
}

// Handle holds the live snapshot. Readers that loaded a snapshot keep using
// it after a swap.
type Handle struct {
	current atomic.Pointer[Snapshot]
}

// Current returns the live snapshot, or nil before the first publish.
func (h *Handle) Current() *Snapshot {
	return h.current.Load()
}

// Publish swaps in s and returns the previous snapshot.
func (h *Handle) Publish(s *Snapshot) *Snapshot {
	prev := h.current.Swap(s)
	metrics.IndexVectors.Set(float64(s.Len()))
	return prev
}
