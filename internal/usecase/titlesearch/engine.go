package titlesearch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
	"github.com/kailas-cloud/gamedex/internal/domain/search/result"
	"github.com/kailas-cloud/gamedex/internal/logger"
	"github.com/kailas-cloud/gamedex/internal/metrics"
)

// Default search parameters.
const (
	DefaultMaxPerTokenDistance = 40
	DefaultLimit               = 10
)

// Engine ranks catalog items by token-wise edit distance to their titles.
type Engine struct {
	source CandidateSource
}

// New creates a title search engine.
func New(source CandidateSource) *Engine {
	return &Engine{source: source}
}

// Tokenize trims and lowercases the query, splits on whitespace and drops
// purely numeric tokens. Duplicates are kept.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	tokens := fields[:0]
	for _, f := range fields {
		if isNumeric(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// scored is a candidate that passed the substring filter.
type scored struct {
	item     catalog.Item
	distance int
	devFreq  int
}

// Search returns up to limit items ordered by summed token distance, then by
// how often the item's developer appears among the candidates.
// Items whose distance exceeds maxPerTokenDistance*len(tokens) are dropped.
// An empty query matches nothing.
func (e *Engine) Search(
	ctx context.Context, query string, maxPerTokenDistance, limit int,
) ([]result.Match, []catalog.Item, error) {
	start := time.Now()
	defer func() { metrics.TitleSearchDuration.Observe(time.Since(start).Seconds()) }()

	tokens := Tokenize(query)
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil, nil
	}

	items, err := e.source.SearchTitles(ctx, tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("search titles: %w", err)
	}

	candidates := make([]scored, 0, len(items))
	devCount := make(map[string]int)
	for _, it := range items {
		title := strings.ToLower(it.Title())
		if !containsAll(title, tokens) {
			continue
		}
		candidates = append(candidates, scored{item: it, distance: tokenDistance(title, tokens)})
		// An unknown developer is not a shared developer.
		if dev := it.Developer(); dev != "" {
			devCount[dev]++
		}
	}

	threshold := maxPerTokenDistance * len(tokens)
	kept := candidates[:0]
	for _, c := range candidates {
		if c.distance > threshold {
			continue
		}
		c.devFreq = devCount[c.item.Developer()]
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.devFreq != b.devFreq {
			return a.devFreq > b.devFreq
		}
		return a.item.ID() < b.item.ID()
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}

	matches := make([]result.Match, len(kept))
	out := make([]catalog.Item, len(kept))
	for i, c := range kept {
		matches[i] = result.New(c.item.ID(), float64(c.distance))
		out[i] = c.item
	}

	logger.FromContext(ctx).Debug("Title search completed",
		zap.Strings("tokens", tokens),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(out)),
	)

	return matches, out, nil
}

// containsAll is the conjunctive substring filter.
func containsAll(title string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(title, t) {
			return false
		}
	}
	return true
}

// tokenDistance sums the edit distance of every token to the whole title.
func tokenDistance(title string, tokens []string) int {
	sum := 0
	for _, t := range tokens {
		sum += levenshtein.ComputeDistance(t, title)
	}
	return sum
}
