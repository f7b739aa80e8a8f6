// Package vocabulary holds the closed, versioned lookup tables that map
// category, technology and award names to fixed offsets inside a feature vector.
//
// Changing the membership or the order of any table changes the set's Version.
// Vectors built against one version are incomparable with an index built from another.
package vocabulary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// fingerprintLen is the number of hex chars of the table digest kept in Version.
const fingerprintLen = 12

// Table is an ordered, closed string -> offset lookup.
type Table struct {
	names   []string
	offsets map[string]int
}

// NewTable builds a table; offsets follow slice order. Duplicate or empty names are rejected.
func NewTable(names []string) (Table, error) {
	t := Table{
		names:   make([]string, 0, len(names)),
		offsets: make(map[string]int, len(names)),
	}
	for _, n := range names {
		if n == "" {
			return Table{}, fmt.Errorf("empty name at offset %d", len(t.names))
		}
		if _, dup := t.offsets[n]; dup {
			return Table{}, fmt.Errorf("duplicate name %q", n)
		}
		t.offsets[n] = len(t.names)
		t.names = append(t.names, n)
	}
	return t, nil
}

// Len returns the number of entries.
func (t Table) Len() int { return len(t.names) }

// Offset returns the fixed offset of name.
func (t Table) Offset(name string) (int, bool) {
	off, ok := t.offsets[name]
	return off, ok
}

// Names returns a copy of the ordered members.
func (t Table) Names() []string { return slices.Clone(t.names) }

// Set bundles the tables used by the vectorizer. Categories back both the
// primary-category block and the category-set block.
type Set struct {
	name         string
	categories   Table
	technologies Table
	awards       Table
	version      string
}

// NewSet builds a vocabulary set and computes its version.
func NewSet(name string, categories, technologies, awards []string) (*Set, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsRune(name, '@') {
		return nil, fmt.Errorf("%w: vocabulary name %q must not contain '@'", domain.ErrConfiguration, name)
	}
	cat, err := NewTable(categories)
	if err != nil {
		return nil, fmt.Errorf("%w: categories: %w", domain.ErrConfiguration, err)
	}
	tech, err := NewTable(technologies)
	if err != nil {
		return nil, fmt.Errorf("%w: technologies: %w", domain.ErrConfiguration, err)
	}
	aw, err := NewTable(awards)
	if err != nil {
		return nil, fmt.Errorf("%w: awards: %w", domain.ErrConfiguration, err)
	}

	s := &Set{name: name, categories: cat, technologies: tech, awards: aw}
	s.version = name + "@" + s.fingerprint()
	return s, nil
}

// fingerprint hashes the ordered members of every table, with table and entry separators.
func (s *Set) fingerprint() string {
	h := sha256.New()
	for _, t := range []Table{s.categories, s.technologies, s.awards} {
		for _, n := range t.names {
			h.Write([]byte(n))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLen]
}

// Name returns the human label of the set.
func (s *Set) Name() string { return s.name }

// Version returns "<name>@<fingerprint>".
func (s *Set) Version() string { return s.version }

// Categories returns the genre table.
func (s *Set) Categories() Table { return s.categories }

// Technologies returns the engine table.
func (s *Set) Technologies() Table { return s.technologies }

// Awards returns the award table.
func (s *Set) Awards() Table { return s.awards }

// Dimension is the feature vector length for this set:
// quality + primary-category block + category block + technology block + award block.
func (s *Set) Dimension() int {
	return 1 + 2*s.categories.Len() + s.technologies.Len() + s.awards.Len()
}

// file is the YAML layout of a vocabulary override file.
type file struct {
	Name         string   `yaml:"name"`
	Categories   []string `yaml:"categories"`
	Technologies []string `yaml:"technologies"`
	Awards       []string `yaml:"awards"`
}

// Load reads a vocabulary set from a YAML file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read vocabulary %s: %w", domain.ErrConfiguration, path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse vocabulary %s: %w", domain.ErrConfiguration, path, err)
	}
	return NewSet(f.Name, f.Categories, f.Technologies, f.Awards)
}
