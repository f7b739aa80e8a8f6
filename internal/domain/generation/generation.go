// Package generation identifies published index builds.
package generation

import (
	"time"

	"github.com/google/uuid"
)

// idLayout sorts lexicographically in publication order.
const idLayout = "20060102T150405Z"

// Record points at one published index build.
type Record struct {
	Generation  string    `json:"generation"`
	Artifact    string    `json:"artifact"`
	Version     string    `json:"version"`
	Vectors     int       `json:"vectors"`
	PublishedAt time.Time `json:"published_at"`
}

// NewID returns a generation id: the UTC timestamp plus the first group of
// a random UUID, so two builds in the same second never collide.
func NewID(now time.Time) string {
	return now.UTC().Format(idLayout) + "-" + uuid.NewString()[:8]
}
