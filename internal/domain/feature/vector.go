package feature

import (
	"math"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// Vector is a fixed-length feature vector tagged with the vocabulary version it was built against.
type Vector struct {
	Values  []float32
	Version string
}

// Len returns the vector dimension.
func (v Vector) Len() int { return len(v.Values) }

// Compatible reports whether two vectors share a vocabulary version and dimension.
func (v Vector) Compatible(other Vector) bool {
	return v.Version == other.Version && len(v.Values) == len(other.Values)
}

// CheckVersion returns ErrVocabularyMismatch if v was not built against version.
func (v Vector) CheckVersion(version string) error {
	if v.Version != version {
		return domain.NewVocabularyMismatch(version, v.Version)
	}
	return nil
}

// SquaredL2 returns the squared Euclidean distance. Both slices must have equal length.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Distance returns the Euclidean distance between two compatible vectors.
// Incompatible vectors yield ErrVocabularyMismatch instead of a meaningless number.
func Distance(a, b Vector) (float64, error) {
	if !a.Compatible(b) {
		return 0, domain.NewVocabularyMismatch(a.Version, b.Version)
	}
	return math.Sqrt(float64(SquaredL2(a.Values, b.Values))), nil
}
