package catalog

// Review is one user's rating of an item.
type Review struct {
	ID         int64
	ItemID     int64
	User       string
	Rating     float64 // 0-10
	Date       string
	Commentary string
}

// History is a user's interaction signal: reviews plus wishlist entries.
type History struct {
	Reviews  []Review
	Wishlist []int64
}

// IsEmpty reports whether the user has neither reviews nor wishlist entries.
func (h History) IsEmpty() bool {
	return len(h.Reviews) == 0 && len(h.Wishlist) == 0
}

// HighlyRated returns item IDs of reviews rated strictly above minRating, first-seen order.
func (h History) HighlyRated(minRating float64) []int64 {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, r := range h.Reviews {
		if r.Rating <= minRating {
			continue
		}
		if _, ok := seen[r.ItemID]; ok {
			continue
		}
		seen[r.ItemID] = struct{}{}
		ids = append(ids, r.ItemID)
	}
	return ids
}

// SeedIDs returns highly-rated review items followed by wishlist items, deduplicated.
func (h History) SeedIDs(minRating float64) []int64 {
	ids := h.HighlyRated(minRating)
	seen := make(map[int64]struct{}, len(ids)+len(h.Wishlist))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range h.Wishlist {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
