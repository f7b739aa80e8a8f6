package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// Quality and rating bounds.
const (
	MaxQuality        = 100.0
	MaxPlatformRating = 10.0
)

// Item is a catalog game (immutable value object).
type Item struct {
	id              int64
	title           string
	primaryCategory string
	categories      []string
	quality         float64
	technologies    []string
	awards          []string
	developer       string
	publisher       string
	url             string
	releaseDate     string
	platformRating  float64
}

// Attributes holds the mutable-by-replacement attributes of an item.
type Attributes struct {
	Title           string
	PrimaryCategory string
	Categories      []string
	Quality         float64
	Technologies    []string
	Awards          []string
	Developer       string
	Publisher       string
	URL             string
	ReleaseDate     string
	PlatformRating  float64
}

// New validates attributes and creates an Item.
func New(id int64, a Attributes) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("%w: id must be positive, got %d", domain.ErrInvalidItem, id)
	}
	if strings.TrimSpace(a.Title) == "" {
		return Item{}, fmt.Errorf("%w: title is required", domain.ErrInvalidItem)
	}
	if a.Quality < 0 || a.Quality > MaxQuality {
		return Item{}, fmt.Errorf("%w: quality must be within [0, %g], got %g",
			domain.ErrInvalidItem, MaxQuality, a.Quality)
	}
	if a.PlatformRating < 0 || a.PlatformRating > MaxPlatformRating {
		return Item{}, fmt.Errorf("%w: platform rating must be within [0, %g], got %g",
			domain.ErrInvalidItem, MaxPlatformRating, a.PlatformRating)
	}
	return Reconstruct(id, a), nil
}

// Reconstruct builds an Item from trusted storage without validation.
// Sets are deduplicated, preserving first occurrence.
func Reconstruct(id int64, a Attributes) Item {
	return Item{
		id:              id,
		title:           a.Title,
		primaryCategory: strings.TrimSpace(a.PrimaryCategory),
		categories:      uniq(a.Categories),
		quality:         a.Quality,
		technologies:    uniq(a.Technologies),
		awards:          uniq(a.Awards),
		developer:       a.Developer,
		publisher:       a.Publisher,
		url:             a.URL,
		releaseDate:     a.ReleaseDate,
		platformRating:  a.PlatformRating,
	}
}

// WithAttributes returns a copy with replaced attributes; the identifier never changes.
func (i Item) WithAttributes(a Attributes) (Item, error) {
	return New(i.id, a)
}

// ID returns the stable catalog identifier.
func (i Item) ID() int64 { return i.id }

// Title returns the display title.
func (i Item) Title() string { return i.title }

// PrimaryCategory returns the primary genre.
func (i Item) PrimaryCategory() string { return i.primaryCategory }

// Categories returns a copy of the genre set.
func (i Item) Categories() []string { return slices.Clone(i.categories) }

// Quality returns the 0-100 quality score.
func (i Item) Quality() float64 { return i.quality }

// Technologies returns a copy of the detected engine tags.
func (i Item) Technologies() []string { return slices.Clone(i.technologies) }

// Awards returns a copy of the award tags.
func (i Item) Awards() []string { return slices.Clone(i.awards) }

// Developer returns the attribution used for popularity tie-breaks.
func (i Item) Developer() string { return i.developer }

// Publisher returns the publisher name.
func (i Item) Publisher() string { return i.publisher }

// URL returns the store URL slug.
func (i Item) URL() string { return i.url }

// ReleaseDate returns the release date as YYYY-MM-DD, or "".
func (i Item) ReleaseDate() string { return i.releaseDate }

// PlatformRating returns the in-platform 0-10 rating.
func (i Item) PlatformRating() float64 { return i.platformRating }

// Attributes returns a copy of the item's attributes.
func (i Item) Attributes() Attributes {
	return Attributes{
		Title:           i.title,
		PrimaryCategory: i.primaryCategory,
		Categories:      i.Categories(),
		Quality:         i.quality,
		Technologies:    i.Technologies(),
		Awards:          i.Awards(),
		Developer:       i.developer,
		Publisher:       i.publisher,
		URL:             i.url,
		ReleaseDate:     i.releaseDate,
		PlatformRating:  i.platformRating,
	}
}

func uniq(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
