package recommend

import (
	"context"

	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
	"github.com/kailas-cloud/gamedex/internal/domain/search/result"
	"github.com/kailas-cloud/gamedex/internal/usecase/indexing"
)

// HistoryReader reads a user's interaction rows.
type HistoryReader interface {
	Reviews(ctx context.Context, user string) ([]catalog.Review, error)
	Wishlist(ctx context.Context, user string) ([]int64, error)
}

// ItemReader resolves item IDs to catalog records. Missing IDs are skipped.
type ItemReader interface {
	GetMany(ctx context.Context, ids []int64) ([]catalog.Item, error)
}

// TitleSearcher finds items with titles similar to a query.
type TitleSearcher interface {
	Search(ctx context.Context, query string, maxPerTokenDistance, limit int) ([]result.Match, []catalog.Item, error)
}

// SnapshotSource returns the live index snapshot, or nil if none is published.
type SnapshotSource interface {
	Current() *indexing.Snapshot
}
