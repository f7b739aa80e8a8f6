package vectorize

import (
	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
	"github.com/kailas-cloud/gamedex/internal/domain/feature"
	"github.com/kailas-cloud/gamedex/internal/domain/vocabulary"
)

// Weights are the per-block contributions of a catalog item to its vector.
// Quality is a scale on the 0-100 score, not a normalization.
type Weights struct {
	Quality         float32
	PrimaryCategory float32
	Category        float32
	Technology      float32
	Award           float32
}

// DefaultWeights returns the weights the recommendation index is tuned for.
// The primary category contributes less than full category membership.
func DefaultWeights() Weights {
	return Weights{
		Quality:         0.008,
		PrimaryCategory: 0.1,
		Category:        1.0,
		Technology:      1.0,
		Award:           1.0,
	}
}

// Vectorizer maps catalog items to feature vectors against one vocabulary set.
// It is a pure function of its inputs and safe for concurrent use.
type Vectorizer struct {
	vocab   *vocabulary.Set
	weights Weights

	// block start offsets
	primaryStart  int
	categoryStart int
	techStart     int
	awardStart    int
}

// New creates a vectorizer.
func New(vocab *vocabulary.Set, w Weights) *Vectorizer {
	ncat := vocab.Categories().Len()
	return &Vectorizer{
		vocab:         vocab,
		weights:       w,
		primaryStart:  1,
		categoryStart: 1 + ncat,
		techStart:     1 + 2*ncat,
		awardStart:    1 + 2*ncat + vocab.Technologies().Len(),
	}
}

// Version returns the vocabulary version stamped on every vector.
func (v *Vectorizer) Version() string { return v.vocab.Version() }

// Dimension returns the constant vector length.
func (v *Vectorizer) Dimension() int { return v.vocab.Dimension() }

// Vectorize builds [quality, primary-category, categories, technologies, awards].
// Names missing from the vocabulary contribute nothing.
func (v *Vectorizer) Vectorize(item catalog.Item) feature.Vector {
	values := make([]float32, v.vocab.Dimension())
	values[0] = float32(item.Quality()) * v.weights.Quality

	cats := v.vocab.Categories()
	if off, ok := cats.Offset(item.PrimaryCategory()); ok {
		values[v.primaryStart+off] = v.weights.PrimaryCategory
	}
	for _, c := range item.Categories() {
		if off, ok := cats.Offset(c); ok {
			values[v.categoryStart+off] = v.weights.Category
		}
	}

	techs := v.vocab.Technologies()
	for _, t := range item.Technologies() {
		if off, ok := techs.Offset(t); ok {
			values[v.techStart+off] = v.weights.Technology
		}
	}

	awards := v.vocab.Awards()
	for _, a := range item.Awards() {
		if off, ok := awards.Offset(a); ok {
			values[v.awardStart+off] = v.weights.Award
		}
	}

	return feature.Vector{Values: values, Version: v.vocab.Version()}
}

// VectorizeAll vectorizes items preserving order.
func (v *Vectorizer) VectorizeAll(items []catalog.Item) []feature.Vector {
	out := make([]feature.Vector, len(items))
	for i := range items {
		out[i] = v.Vectorize(items[i])
	}
	return out
}
