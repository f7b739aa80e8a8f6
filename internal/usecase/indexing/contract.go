package indexing

import (
	"context"

	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
	"github.com/kailas-cloud/gamedex/internal/domain/generation"
	"github.com/kailas-cloud/gamedex/internal/index/ivf"
)

// CatalogLister lists the full catalog in a stable order.
type CatalogLister interface {
	All(ctx context.Context) ([]catalog.Item, error)
}

// ArtifactStore persists serialized indexes.
type ArtifactStore interface {
	Save(generation string, idx *ivf.Index) (string, error)
	Open(path string) (*ivf.Index, error)
}

// Registry tracks the current generation and its ordinal table.
type Registry interface {
	Publish(ctx context.Context, rec generation.Record, ordinals []int64) error
	Current(ctx context.Context) (generation.Record, error)
	Ordinals(ctx context.Context, gen string, n int) ([]int64, error)
}
