package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Discovery Prometheus metrics.
var (
	TitleSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gamedex",
			Name:      "title_search_duration_seconds",
			Help:      "Title search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamedex",
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	RecommendSeedQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "recommend_seed_queries_total",
			Help:      "Index queries issued per seed vector",
		},
		[]string{"status"}, // "ok" / "error"
	)

	StoreRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "store_retries_total",
			Help:      "Retried item store calls",
		},
		[]string{"op"},
	)

	IndexVectors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamedex",
			Name:      "index_vectors",
			Help:      "Vectors in the currently published index snapshot",
		},
	)

	IndexSwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "index_swaps_total",
			Help:      "Index snapshot publications and load attempts",
		},
		[]string{"source", "result"}, // source: build/load, result: ok/error
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Must be called from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			TitleSearchDuration,
			RecommendDuration,
			RecommendSeedQueriesTotal,
			StoreRetriesTotal,
			IndexVectors,
			IndexSwapsTotal,
		)
	})
}
