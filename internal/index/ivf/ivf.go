// Package ivf implements an inverted-file approximate nearest neighbor index.
//
// A coarse quantizer (k-means centroids) partitions vector space into clusters;
// every added vector is appended to the list of its nearest centroid, and a
// query scans only the NProbe clusters closest to it. Recall is approximate
// unless NProbe covers every cluster.
//
// An Index is not safe for concurrent mutation. Once trained and populated it
// is treated as immutable and Search may be called from many goroutines.
package ivf

import (
	"fmt"
	"math"
	"slices"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/feature"
)

// Default tuning.
const (
	DefaultClusters   = 256
	DefaultNProbe     = 8
	DefaultIterations = 20
	DefaultSeed       = 1
)

// State is the index lifecycle stage.
type State int

const (
	// Untrained has no centroids; Add and Search fail.
	Untrained State = iota
	// Trained has centroids but no vectors.
	Trained
	// Populated has at least one vector.
	Populated
)

func (s State) String() string {
	switch s {
	case Untrained:
		return "untrained"
	case Trained:
		return "trained"
	case Populated:
		return "populated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config tunes partitioning and search.
type Config struct {
	Clusters   int    // coarse centroids
	NProbe     int    // clusters scanned per query
	Iterations int    // k-means Lloyd iterations
	Seed       uint64 // k-means++ initialization seed
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.Clusters <= 0 {
		c.Clusters = DefaultClusters
	}
	if c.NProbe <= 0 {
		c.NProbe = DefaultNProbe
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

// Neighbor is one search hit.
type Neighbor struct {
	Ordinal  int
	Distance float64
}

type entry struct {
	ordinal int
	values  []float32
}

// Index is an IVF index over vectors of one vocabulary version.
type Index struct {
	cfg       Config
	dim       int
	version   string
	centroids [][]float32
	lists     [][]entry
	count     int
}

// New creates an untrained index for vectors of dimension dim built against version.
func New(cfg Config, dim int, version string) *Index {
	return &Index{cfg: cfg.withDefaults(), dim: dim, version: version}
}

// State returns the lifecycle stage.
func (x *Index) State() State {
	switch {
	case len(x.centroids) == 0:
		return Untrained
	case x.count == 0:
		return Trained
	default:
		return Populated
	}
}

// Len returns the number of stored vectors.
func (x *Index) Len() int { return x.count }

// Dim returns the vector dimension.
func (x *Index) Dim() int { return x.dim }

// Version returns the vocabulary version the index was built against.
func (x *Index) Version() string { return x.version }

// Clusters returns the number of trained centroids.
func (x *Index) Clusters() int { return len(x.centroids) }

// NProbe returns the number of clusters scanned per query.
func (x *Index) NProbe() int { return x.cfg.NProbe }

// SetNProbe tunes the speed/recall balance. Values <= 0 are ignored.
func (x *Index) SetNProbe(n int) {
	if n > 0 {
		x.cfg.NProbe = n
	}
}

func (x *Index) check(v feature.Vector) error {
	if err := v.CheckVersion(x.version); err != nil {
		return err //nolint:wrapcheck // domain error carries both versions
	}
	if v.Len() != x.dim {
		return fmt.Errorf("%w: vector dimension %d, index dimension %d",
			domain.ErrVocabularyMismatch, v.Len(), x.dim)
	}
	return nil
}

// Train partitions the vector space with k-means. Retraining discards every
// stored vector and ordinal. Zero vectors is a configuration error.
func (x *Index) Train(vectors []feature.Vector) error {
	if len(vectors) == 0 {
		return domain.ErrEmptyTraining
	}
	points := make([][]float32, len(vectors))
	for i, v := range vectors {
		if err := x.check(v); err != nil {
			return fmt.Errorf("train vector %d: %w", i, err)
		}
		points[i] = v.Values
	}

	k := min(x.cfg.Clusters, len(points))
	x.centroids = kmeans(points, k, x.cfg.Iterations, x.cfg.Seed)
	x.lists = make([][]entry, len(x.centroids))
	x.count = 0
	return nil
}

// Add appends vectors and returns their dense ordinals, in input order.
// Vectors are validated before any is stored.
func (x *Index) Add(vectors []feature.Vector) ([]int, error) {
	if x.State() == Untrained {
		return nil, domain.ErrNotTrained
	}
	for i, v := range vectors {
		if err := x.check(v); err != nil {
			return nil, fmt.Errorf("add vector %d: %w", i, err)
		}
	}

	ordinals := make([]int, len(vectors))
	for i, v := range vectors {
		c := nearest(x.centroids, v.Values)
		x.lists[c] = append(x.lists[c], entry{ordinal: x.count, values: slices.Clone(v.Values)})
		ordinals[i] = x.count
		x.count++
	}
	return ordinals, nil
}

// Search returns up to k nearest stored vectors by Euclidean distance, closest first.
// Only the NProbe closest clusters are scanned. Fewer stored vectors than k is not an error.
func (x *Index) Search(query feature.Vector, k int) ([]Neighbor, error) {
	if x.State() == Untrained {
		return nil, domain.ErrNotTrained
	}
	if err := x.check(query); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if k <= 0 || x.count == 0 {
		return nil, nil
	}

	probe := x.probeOrder(query.Values)

	var hits []Neighbor
	for _, c := range probe {
		for _, e := range x.lists[c] {
			hits = append(hits, Neighbor{
				Ordinal:  e.ordinal,
				Distance: float64(feature.SquaredL2(query.Values, e.values)),
			})
		}
	}

	slices.SortFunc(hits, func(a, b Neighbor) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return a.Ordinal - b.Ordinal
		}
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Distance = math.Sqrt(hits[i].Distance)
	}
	return hits, nil
}

// probeOrder returns the NProbe cluster ids closest to q.
func (x *Index) probeOrder(q []float32) []int {
	type cd struct {
		id   int
		dist float32
	}
	all := make([]cd, len(x.centroids))
	for i, c := range x.centroids {
		all[i] = cd{id: i, dist: feature.SquaredL2(q, c)}
	}
	slices.SortFunc(all, func(a, b cd) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return a.id - b.id
		}
	})

	n := min(x.cfg.NProbe, len(all))
	out := make([]int, n)
	for i := range out {
		out[i] = all[i].id
	}
	return out
}
