package result

// Match is a ranked title-search hit. Lower scores rank better.
type Match struct {
	itemID int64
	score  float64
}

// New creates a match.
func New(itemID int64, score float64) Match {
	return Match{itemID: itemID, score: score}
}

// ItemID returns the catalog identifier.
func (m *Match) ItemID() int64 { return m.itemID }

// Score returns the summed token edit distance.
func (m *Match) Score() float64 { return m.score }
