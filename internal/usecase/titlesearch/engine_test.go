package titlesearch

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/agnivade/levenshtein"

	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
)

// --- Mocks ---

type mockSource struct {
	items      []catalog.Item
	err        error
	called     bool
	lastTokens []string
}

func (m *mockSource) SearchTitles(_ context.Context, tokens []string) ([]catalog.Item, error) {
	m.called = true
	m.lastTokens = slices.Clone(tokens)
	return m.items, m.err
}

func game(id int64, title, developer string) catalog.Item {
	return catalog.Reconstruct(id, catalog.Attributes{Title: title, Developer: developer})
}

func testCatalog() []catalog.Item {
	return []catalog.Item{
		game(1, "Portal", "Valve"),
		game(2, "Portal 2", "Valve"),
		game(3, "Teleport", "Indie Studio"),
		game(4, "Half-Life", "Valve"),
		game(5, "Portal Knights", "Keen Games"),
	}
}

func ids(items []catalog.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}

// --- Tests ---

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"  Portal 2 ", []string{"portal"}},
		{"FIFA 2023 Ultimate", []string{"fifa", "ultimate"}},
		{"portal portal", []string{"portal", "portal"}},
		{"2nd Chance", []string{"2nd", "chance"}},
		{"", []string{}},
		{"1999 2000", []string{}},
	}
	for _, tc := range tests {
		got := Tokenize(tc.in)
		if !slices.Equal(got, tc.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSearch_RanksByDistance(t *testing.T) {
	src := &mockSource{items: testCatalog()}
	e := New(src)

	matches, items, err := e.Search(context.Background(), "Port", 40, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// port->portal=2, port->"portal 2"=4, port->teleport=4, port->"portal knights"=10
	want := []int64{1, 2, 3, 5}
	if !slices.Equal(ids(items), want) {
		t.Fatalf("order = %v, want %v", ids(items), want)
	}
	if matches[0].Score() != 2 || matches[1].Score() != 4 {
		t.Errorf("unexpected scores %v %v", matches[0].Score(), matches[1].Score())
	}
	if !slices.Equal(src.lastTokens, []string{"port"}) {
		t.Errorf("tokens passed to source = %v", src.lastTokens)
	}
}

func TestSearch_DeveloperFrequencyBreaksTies(t *testing.T) {
	// "Portal 2" (Valve) and "Teleport" (Indie Studio) both sit at distance 4.
	// Valve appears twice among candidates, so Portal 2 wins the tie.
	e := New(&mockSource{items: []catalog.Item{
		game(3, "Teleport", "Indie Studio"),
		game(2, "Portal 2", "Valve"),
		game(1, "Portal", "Valve"),
	}})
	_, items, err := e.Search(context.Background(), "port", 40, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(ids(items), []int64{1, 2, 3}) {
		t.Fatalf("order = %v", ids(items))
	}
}

func TestSearch_UnknownDevelopersShareNoFrequency(t *testing.T) {
	// All three sit at distance 2 from "port".
	e := New(&mockSource{items: []catalog.Item{
		game(1, "Port A", ""),
		game(2, "Port B", ""),
		game(3, "Port C", "Valve"),
	}})
	_, items, err := e.Search(context.Background(), "port", 40, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(ids(items), []int64{3, 1, 2}) {
		t.Fatalf("order = %v, want [3 1 2]", ids(items))
	}
}

func TestSearch_ExactTitleRanksAboveSequel(t *testing.T) {
	e := New(&mockSource{items: testCatalog()})
	_, items, err := e.Search(context.Background(), "Portal", 40, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) < 2 || items[0].ID() != 1 || items[1].ID() != 2 {
		t.Fatalf("expected Portal then Portal 2, got %v", ids(items))
	}
}

func TestSearch_Threshold(t *testing.T) {
	e := New(&mockSource{items: testCatalog()})
	matches, items, err := e.Search(context.Background(), "port", 3, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(ids(items), []int64{1}) {
		t.Fatalf("got %v, want only Portal", ids(items))
	}
	if matches[0].Score() > 3 {
		t.Errorf("score %f above threshold", matches[0].Score())
	}
}

func TestSearch_ConjunctiveFilter(t *testing.T) {
	// The source over-returns; the engine still enforces every token.
	e := New(&mockSource{items: testCatalog()})
	_, items, err := e.Search(context.Background(), "portal knights", 40, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(ids(items), []int64{5}) {
		t.Fatalf("got %v, want [5]", ids(items))
	}
}

func TestSearch_TypoRequiresSubstring(t *testing.T) {
	// "portl" is not a substring of "portal", so the pre-filter rejects it.
	e := New(&mockSource{items: testCatalog()})
	_, items, err := e.Search(context.Background(), "Portl", 40, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no results, got %v", ids(items))
	}
}

func TestSearch_DuplicateTokensCountTwice(t *testing.T) {
	e := New(&mockSource{items: testCatalog()})
	single, _, _ := e.Search(context.Background(), "portal", 40, 10)
	double, _, err := e.Search(context.Background(), "portal portal", 40, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(single) != len(double) {
		t.Fatalf("len %d vs %d", len(single), len(double))
	}
	for i := range single {
		if double[i].Score() != 2*single[i].Score() {
			t.Errorf("match %d: score %f, want %f", i, double[i].Score(), 2*single[i].Score())
		}
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "2 2004"} {
		src := &mockSource{items: testCatalog()}
		matches, items, err := New(src).Search(context.Background(), q, 40, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(matches) != 0 || len(items) != 0 {
			t.Errorf("query %q: expected no results", q)
		}
		if src.called {
			t.Errorf("query %q: source should not be called", q)
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	e := New(&mockSource{items: testCatalog()})
	_, items, err := e.Search(context.Background(), "port", 40, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(ids(items), []int64{1, 2}) {
		t.Fatalf("got %v", ids(items))
	}

	_, items, _ = e.Search(context.Background(), "port", 40, 0)
	if len(items) != 0 {
		t.Fatal("limit 0 should return nothing")
	}
}

func TestSearch_SourceError(t *testing.T) {
	e := New(&mockSource{err: errors.New("db down")})
	if _, _, err := e.Search(context.Background(), "portal", 40, 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_ResultsRespectInvariants(t *testing.T) {
	words := []string{"dark", "souls", "dark souls", "star", "wars", "star", "knights", "of", "the", "old", "republic"}
	var items []catalog.Item
	rng := rand.New(rand.NewPCG(7, 7))
	for i := int64(1); i <= 200; i++ {
		n := 1 + rng.IntN(4)
		parts := make([]string, n)
		for j := range parts {
			parts[j] = words[rng.IntN(len(words))]
		}
		items = append(items, game(i, strings.Join(parts, " "), words[rng.IntN(3)]))
	}
	e := New(&mockSource{items: items})

	queries := []string{"dark", "star wars", "the old", "souls souls", "knights of"}
	for _, q := range queries {
		for _, maxDist := range []int{5, 10, 20, 40} {
			tokens := Tokenize(q)
			matches, got, err := e.Search(context.Background(), q, maxDist, 50)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, it := range got {
				title := strings.ToLower(it.Title())
				sum := 0
				for _, tok := range tokens {
					if !strings.Contains(title, tok) {
						t.Fatalf("%q: %q fails substring filter for %q", q, it.Title(), tok)
					}
					sum += levenshtein.ComputeDistance(tok, title)
				}
				if sum > maxDist*len(tokens) {
					t.Fatalf("%q: %q distance %d above threshold", q, it.Title(), sum)
				}
				if int(matches[i].Score()) != sum {
					t.Fatalf("%q: score %f, want %d", q, matches[i].Score(), sum)
				}
				if i > 0 && matches[i-1].Score() > matches[i].Score() {
					t.Fatalf("%q: not sorted by distance", q)
				}
			}
		}
	}
}
