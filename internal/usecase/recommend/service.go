// Package recommend turns a user's history into a filtered pool of catalog items.
package recommend

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
	"github.com/kailas-cloud/gamedex/internal/domain/feature"
	"github.com/kailas-cloud/gamedex/internal/metrics"
	"github.com/kailas-cloud/gamedex/internal/usecase/indexing"
	"github.com/kailas-cloud/gamedex/internal/usecase/vectorize"
)

// Config tunes seed selection and result filtering.
type Config struct {
	NeighborsPerSeed   int     // k per seed vector
	MinReviewRating    float64 // reviews strictly above this are seeds
	MinQuality         float64 // results strictly above this are kept
	SimilarPerSeed     int     // title-similar items added per highly-rated review
	SimilarMaxDistance int     // per-token distance for the title-similar lookup
	MaxConcurrency     int     // parallel index queries per request
	ExcludeSeen        bool    // drop reviewed and wishlisted items from the result
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		NeighborsPerSeed:   10,
		MinReviewRating:    7,
		MinQuality:         70,
		SimilarPerSeed:     5,
		SimilarMaxDistance: 40,
		MaxConcurrency:     8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NeighborsPerSeed <= 0 {
		c.NeighborsPerSeed = d.NeighborsPerSeed
	}
	if c.SimilarPerSeed < 0 {
		c.SimilarPerSeed = 0
	}
	if c.SimilarMaxDistance <= 0 {
		c.SimilarMaxDistance = d.SimilarMaxDistance
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
	return c
}

// searchFunc queries one snapshot with one seed vector.
type searchFunc func(snap *indexing.Snapshot, v feature.Vector, k int) ([]int64, error)

// Service answers recommendation requests against the live index snapshot.
type Service struct {
	history   HistoryReader
	items     ItemReader
	titles    TitleSearcher
	vec       *vectorize.Vectorizer
	snapshots SnapshotSource
	cfg       Config
	logger    *zap.Logger
	search    searchFunc
}

// New creates a recommendation service.
func New(
	history HistoryReader,
	items ItemReader,
	titles TitleSearcher,
	vec *vectorize.Vectorizer,
	snapshots SnapshotSource,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		history:   history,
		items:     items,
		titles:    titles,
		vec:       vec,
		snapshots: snapshots,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		search:    (*indexing.Snapshot).Search,
	}
}

// Recommend uses the configured number of neighbors per seed.
func (s *Service) Recommend(ctx context.Context, user string) ([]catalog.Item, error) {
	return s.RecommendK(ctx, user, s.cfg.NeighborsPerSeed)
}

// RecommendK returns catalog items near the user's seed items, above the
// quality threshold, sorted by ID. The order is not a ranking.
// A user without seeds gets an empty result, even when no index is live.
func (s *Service) RecommendK(ctx context.Context, user string, k int) ([]catalog.Item, error) {
	start := time.Now()
	out, err := s.recommend(ctx, user, k)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecommendDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return out, err
}

func (s *Service) recommend(ctx context.Context, user string, k int) ([]catalog.Item, error) {
	if k <= 0 {
		k = s.cfg.NeighborsPerSeed
	}

	hist, err := s.loadHistory(ctx, user)
	if err != nil {
		return nil, err
	}
	seedIDs := hist.SeedIDs(s.cfg.MinReviewRating)
	if len(seedIDs) == 0 {
		return nil, nil
	}

	// Users without seeds never need the index.
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, fmt.Errorf("%w: no published snapshot", domain.ErrIndexUnavailable)
	}
	if snap.Version != s.vec.Version() {
		return nil, domain.NewVocabularyMismatch(snap.Version, s.vec.Version())
	}

	seeds, err := s.expandSeeds(ctx, hist, seedIDs)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	ids, err := s.neighbors(ctx, snap, seeds, k)
	if err != nil {
		return nil, err
	}

	found, err := s.items.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve candidates: %w", err)
	}

	seen := make(map[int64]struct{}, len(seedIDs))
	if s.cfg.ExcludeSeen {
		for _, id := range seedIDs {
			seen[id] = struct{}{}
		}
	}
	out := make([]catalog.Item, 0, len(found))
	for _, it := range found {
		if it.Quality() <= s.cfg.MinQuality {
			continue
		}
		if _, ok := seen[it.ID()]; ok {
			continue
		}
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b catalog.Item) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})

	s.logger.Debug("Recommendation completed",
		zap.String("user", user),
		zap.Int("seeds", len(seeds)),
		zap.Int("candidates", len(ids)),
		zap.Int("returned", len(out)),
	)
	return out, nil
}

func (s *Service) loadHistory(ctx context.Context, user string) (catalog.History, error) {
	reviews, err := s.history.Reviews(ctx, user)
	if err != nil {
		return catalog.History{}, fmt.Errorf("load reviews: %w", err)
	}
	wishlist, err := s.history.Wishlist(ctx, user)
	if err != nil {
		return catalog.History{}, fmt.Errorf("load wishlist: %w", err)
	}
	return catalog.History{Reviews: reviews, Wishlist: wishlist}, nil
}

// expandSeeds resolves the seed IDs and adds title-similar items for every
// highly-rated review. The result is deduplicated by ID.
func (s *Service) expandSeeds(ctx context.Context, hist catalog.History, seedIDs []int64) ([]catalog.Item, error) {
	items, err := s.items.GetMany(ctx, seedIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve seeds: %w", err)
	}

	seen := make(map[int64]struct{}, len(items))
	seeds := make([]catalog.Item, 0, len(items))
	byID := make(map[int64]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID()] = it
		seen[it.ID()] = struct{}{}
		seeds = append(seeds, it)
	}
	if s.cfg.SimilarPerSeed == 0 {
		return seeds, nil
	}

	for _, id := range hist.HighlyRated(s.cfg.MinReviewRating) {
		it, ok := byID[id]
		if !ok {
			continue
		}
		// One extra slot: the item usually matches its own title.
		_, similar, err := s.titles.Search(ctx, it.Title(), s.cfg.SimilarMaxDistance, s.cfg.SimilarPerSeed+1)
		if err != nil {
			return nil, fmt.Errorf("similar titles for %d: %w", id, err)
		}
		added := 0
		for _, sim := range similar {
			if added == s.cfg.SimilarPerSeed {
				break
			}
			if sim.ID() == id {
				continue
			}
			added++
			if _, dup := seen[sim.ID()]; dup {
				continue
			}
			seen[sim.ID()] = struct{}{}
			seeds = append(seeds, sim)
		}
	}
	return seeds, nil
}

// neighbors queries the snapshot once per seed and unions the hits in seed
// order. Failed queries are dropped unless every query failed.
func (s *Service) neighbors(ctx context.Context, snap *indexing.Snapshot, seeds []catalog.Item, k int) ([]int64, error) {
	hits := make([][]int64, len(seeds))
	errs := make([]error, len(seeds))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hits[i], errs[i] = s.search(snap, s.vec.Vectorize(seed), k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var firstErr error
	failed := 0
	for i, err := range errs {
		if err == nil {
			metrics.RecommendSeedQueriesTotal.WithLabelValues("ok").Inc()
			continue
		}
		metrics.RecommendSeedQueriesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Seed query failed",
			zap.Int64("seed_id", seeds[i].ID()),
			zap.Error(err),
		)
		failed++
		if firstErr == nil {
			firstErr = err
		}
	}
	if failed == len(seeds) {
		return nil, fmt.Errorf("all %d seed queries failed: %w", failed, firstErr)
	}

	var ids []int64
	seen := make(map[int64]struct{})
	for _, hs := range hits {
		for _, id := range hs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
