package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/gamedex/internal/db/redis"
	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/vocabulary"
	"github.com/kailas-cloud/gamedex/internal/index/ivf"
	"github.com/kailas-cloud/gamedex/internal/repository/artifact"
	catalogrepo "github.com/kailas-cloud/gamedex/internal/repository/catalog"
	"github.com/kailas-cloud/gamedex/internal/repository/registry"
	"github.com/kailas-cloud/gamedex/internal/retry"
	"github.com/kailas-cloud/gamedex/internal/usecase/recommend"
	"github.com/kailas-cloud/gamedex/internal/usecase/vectorize"
)

// openCatalog opens the SQLite catalog and wraps it in the retry policy.
// Outside prod the schema is created on first use.
func openCatalog(ctx context.Context) (*catalogrepo.Repo, *catalogrepo.Retrying, error) {
	repo, err := catalogrepo.Open(catalogrepo.Config{
		DSN:          cfg.Catalog.DSN,
		MaxOpenConns: cfg.Catalog.MaxOpenConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	if envName != "prod" {
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, nil, fmt.Errorf("catalog schema: %w", err)
		}
	}
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay(),
	}
	return repo, catalogrepo.NewRetrying(repo, policy, logger), nil
}

// openRegistry connects to Redis and waits until it answers.
func openRegistry(ctx context.Context) (*registry.Repo, *dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Registry.Addrs,
		Password: cfg.Registry.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create registry store: %w", err)
	}
	timeout := time.Duration(cfg.Registry.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("registry not ready: %w", err)
	}
	logger.Debug("Connected to registry", zap.Strings("addrs", cfg.Registry.Addrs))

	ttl := time.Duration(cfg.Registry.RetiredTTLHours) * time.Hour
	return registry.New(store, cfg.Registry.KeyPrefix, ttl), store, nil
}

func openArtifacts() (*artifact.FileStore, error) {
	s, err := artifact.NewFileStore(cfg.Index.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return s, nil
}

// newVectorizer loads the configured vocabulary and weights.
func newVectorizer() (*vectorize.Vectorizer, error) {
	vocab := vocabulary.Default()
	if cfg.Vocabulary.File != "" {
		var err error
		if vocab, err = vocabulary.Load(cfg.Vocabulary.File); err != nil {
			return nil, err
		}
	}
	if cfg.Vocabulary.Name != "" && vocab.Name() != cfg.Vocabulary.Name {
		return nil, fmt.Errorf("%w: vocabulary %q loaded, config expects %q",
			domain.ErrConfiguration, vocab.Name(), cfg.Vocabulary.Name)
	}

	w := vectorize.DefaultWeights()
	w.Quality = cfg.Vectorizer.QualityWeight
	w.PrimaryCategory = cfg.Vectorizer.PrimaryCategoryWeight
	return vectorize.New(vocab, w), nil
}

func ivfConfig() ivf.Config {
	return ivf.Config{
		Clusters:   cfg.Index.Clusters,
		NProbe:     cfg.Index.NProbe,
		Iterations: cfg.Index.TrainIterations,
		Seed:       cfg.Index.Seed,
	}
}

func recommendConfig() recommend.Config {
	r := cfg.Recommend
	similar := r.SimilarPerSeed
	if similar < 0 {
		similar = 0
	}
	d := recommend.DefaultConfig()
	minRating, minQuality := d.MinReviewRating, d.MinQuality
	if r.MinReviewRating != nil {
		minRating = *r.MinReviewRating
	}
	if r.MinQuality != nil {
		minQuality = *r.MinQuality
	}
	return recommend.Config{
		NeighborsPerSeed:   r.NeighborsPerSeed,
		MinReviewRating:    minRating,
		MinQuality:         minQuality,
		SimilarPerSeed:     similar,
		SimilarMaxDistance: r.SimilarMaxDistance,
		MaxConcurrency:     r.MaxConcurrency,
		ExcludeSeen:        r.ExcludeSeen,
	}
}

// printJSON writes v as one JSON line.
func printJSON(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
