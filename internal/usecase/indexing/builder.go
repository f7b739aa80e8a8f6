package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/generation"
	"github.com/kailas-cloud/gamedex/internal/index/ivf"
	"github.com/kailas-cloud/gamedex/internal/metrics"
	"github.com/kailas-cloud/gamedex/internal/usecase/vectorize"
)

// Builder trains a fresh index over the whole catalog and publishes it.
type Builder struct {
	catalog   CatalogLister
	vec       *vectorize.Vectorizer
	artifacts ArtifactStore
	registry  Registry
	handle    *Handle
	cfg       ivf.Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewBuilder creates a builder. handle may be nil when no in-process reader
// needs the new snapshot.
func NewBuilder(
	catalog CatalogLister,
	vec *vectorize.Vectorizer,
	artifacts ArtifactStore,
	registry Registry,
	handle *Handle,
	cfg ivf.Config,
	logger *zap.Logger,
) *Builder {
	return &Builder{
		catalog:   catalog,
		vec:       vec,
		artifacts: artifacts,
		registry:  registry,
		handle:    handle,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Build lists and vectorizes the catalog, trains and fills an index (ordinal i
// is the i-th listed item), saves the artifact and publishes the generation.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	snap, err := b.build(ctx)
	if err != nil {
		metrics.IndexSwapsTotal.WithLabelValues("build", "error").Inc()
		return nil, err
	}
	metrics.IndexSwapsTotal.WithLabelValues("build", "ok").Inc()
	return snap, nil
}

func (b *Builder) build(ctx context.Context) (*Snapshot, error) {
	start := b.now()

	items, err := b.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyTraining
	}

	vectors := b.vec.VectorizeAll(items)
	idx := ivf.New(b.cfg, b.vec.Dimension(), b.vec.Version())
	if err := idx.Train(vectors); err != nil {
		return nil, fmt.Errorf("train index: %w", err)
	}
	if _, err := idx.Add(vectors); err != nil {
		return nil, fmt.Errorf("populate index: %w", err)
	}
	trained := b.now()

	ordinals := make([]int64, len(items))
	for i, it := range items {
		ordinals[i] = it.ID()
	}

	gen := generation.NewID(trained)
	path, err := b.artifacts.Save(gen, idx)
	if err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}

	rec := generation.Record{
		Generation:  gen,
		Artifact:    path,
		Version:     idx.Version(),
		Vectors:     idx.Len(),
		PublishedAt: b.now().UTC(),
	}
	if err := b.registry.Publish(ctx, rec, ordinals); err != nil {
		return nil, fmt.Errorf("publish generation: %w", err)
	}

	snap, err := NewSnapshot(rec, idx, ordinals)
	if err != nil {
		return nil, err
	}
	if b.handle != nil {
		b.handle.Publish(snap)
	}

	b.logger.Info("Index built",
		zap.String("generation", gen),
		zap.String("version", rec.Version),
		zap.Int("vectors", rec.Vectors),
		zap.Int("clusters", idx.Clusters()),
		zap.Int("dimension", idx.Dim()),
		zap.Duration("train_duration", trained.Sub(start)),
		zap.String("artifact", path),
	)
	return snap, nil
}
