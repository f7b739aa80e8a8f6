package ivf

import (
	"math/rand/v2"
	"slices"

	"github.com/kailas-cloud/gamedex/internal/domain/feature"
)

// kmeans returns k centroids: k-means++ seeding followed by Lloyd iterations.
// Clusters that end up empty keep their previous centroid.
func kmeans(points [][]float32, k, iterations int, seed uint64) [][]float32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	centroids := seedPlusPlus(points, k, rng)
	dim := len(points[0])

	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	sums := make([][]float64, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	counts := make([]int, k)

	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, p := range points {
			c := nearest(centroids, p)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := range sums {
			clear(sums[c])
			counts[c] = 0
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for d, x := range p {
				sums[c][d] += float64(x)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
		}
	}
	return centroids
}

// seedPlusPlus picks initial centroids with probability proportional to squared distance.
func seedPlusPlus(points [][]float32, k int, rng *rand.Rand) [][]float32 {
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, slices.Clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = float64(feature.SquaredL2(p, centroids[0]))
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}

		next := rng.IntN(len(points))
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 && d > 0 {
					next = i
					break
				}
			}
		}

		c := slices.Clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := float64(feature.SquaredL2(p, c)); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// nearest returns the index of the centroid closest to p.
func nearest(centroids [][]float32, p []float32) int {
	best, bestDist := 0, feature.SquaredL2(p, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := feature.SquaredL2(p, centroids[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
