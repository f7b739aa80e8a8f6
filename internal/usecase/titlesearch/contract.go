package titlesearch

import (
	"context"

	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
)

// CandidateSource is the catalog pre-filter: items whose lowercased title contains every token.
// Implementations may over-return but must never drop a match; the engine
// re-applies the filter.
type CandidateSource interface {
	SearchTitles(ctx context.Context, tokens []string) ([]catalog.Item, error)
}
