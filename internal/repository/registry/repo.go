// Package registry publishes and resolves index generations in Redis.
//
// Two keys describe the live index: a JSON pointer record naming the current
// generation and its artifact, and a hash mapping each dense ordinal of that
// generation to its catalog item id. Both change in one MULTI/EXEC.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/gamedex/internal/db"
	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/generation"
)

// DefaultRetiredTTL is how long a superseded ordinal table is kept for readers
// that still hold the previous generation.
const DefaultRetiredTTL = 24 * time.Hour

// store is the consumer interface for the registry (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Atomic(ctx context.Context, muts ...db.Mutation) error
}

// Repo implements the index registry over a key-value store.
type Repo struct {
	store      store
	prefix     string
	retiredTTL time.Duration
}

// New creates a registry. Keys are namespaced under prefix.
func New(s store, prefix string, retiredTTL time.Duration) *Repo {
	if retiredTTL <= 0 {
		retiredTTL = DefaultRetiredTTL
	}
	return &Repo{store: s, prefix: prefix, retiredTTL: retiredTTL}
}

func (r *Repo) currentKey() string { return r.prefix + "index:current" }

func (r *Repo) ordinalsKey(gen string) string {
	return r.prefix + "index:" + gen + ":ordinals"
}

// Publish makes rec the current generation together with its ordinal table.
// ordinals[i] is the item id of ordinal i. The previous generation's table
// expires after the retired TTL.
func (r *Repo) Publish(ctx context.Context, rec generation.Record, ordinals []int64) error {
	if rec.Generation == "" {
		return errors.New("publish: generation is required")
	}
	if len(ordinals) == 0 || len(ordinals) != rec.Vectors {
		return fmt.Errorf("publish: %d ordinals for %d vectors", len(ordinals), rec.Vectors)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	prev, err := r.Current(ctx)
	switch {
	case errors.Is(err, domain.ErrIndexUnavailable), errors.Is(err, domain.ErrCorruptArtifact):
		prev = generation.Record{}
	case err != nil:
		return fmt.Errorf("publish: %w", err)
	}

	fields := make(map[string]string, len(ordinals))
	for ord, id := range ordinals {
		fields[strconv.Itoa(ord)] = strconv.FormatInt(id, 10)
	}

	key := r.ordinalsKey(rec.Generation)
	muts := []db.Mutation{
		db.Del(key),
		db.HSet(key, fields),
		db.Set(r.currentKey(), data),
	}
	if prev.Generation != "" && prev.Generation != rec.Generation {
		muts = append(muts, db.Expire(r.ordinalsKey(prev.Generation), r.retiredTTL))
	}

	if err := r.store.Atomic(ctx, muts...); err != nil {
		return fmt.Errorf("publish generation %s: %w", rec.Generation, err)
	}
	return nil
}

// Current returns the live generation record. A missing pointer is
// domain.ErrIndexUnavailable.
func (r *Repo) Current(ctx context.Context) (generation.Record, error) {
	raw, err := r.store.Get(ctx, r.currentKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return generation.Record{}, fmt.Errorf("%w: no published generation", domain.ErrIndexUnavailable)
		}
		return generation.Record{}, fmt.Errorf("get current generation: %w", err)
	}
	var rec generation.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return generation.Record{}, fmt.Errorf("%w: decode registry record: %w", domain.ErrCorruptArtifact, err)
	}
	if rec.Generation == "" || rec.Artifact == "" {
		return generation.Record{}, fmt.Errorf("%w: incomplete registry record", domain.ErrCorruptArtifact)
	}
	return rec, nil
}

// Ordinals returns the ordinal table of generation gen. The table must hold
// exactly the dense ordinals 0..n-1.
func (r *Repo) Ordinals(ctx context.Context, gen string, n int) ([]int64, error) {
	m, err := r.store.HGetAll(ctx, r.ordinalsKey(gen))
	if err != nil {
		return nil, fmt.Errorf("get ordinals %s: %w", gen, err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: no ordinal table for generation %s", domain.ErrIndexUnavailable, gen)
	}
	if len(m) != n {
		return nil, fmt.Errorf("%w: ordinal table has %d entries, index has %d",
			domain.ErrCorruptArtifact, len(m), n)
	}

	out := make([]int64, n)
	seen := make([]bool, n)
	for k, v := range m {
		ord, err := strconv.Atoi(k)
		if err != nil || ord < 0 || ord >= n || seen[ord] {
			return nil, fmt.Errorf("%w: bad ordinal %q", domain.ErrCorruptArtifact, k)
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad item id %q for ordinal %d", domain.ErrCorruptArtifact, v, ord)
		}
		seen[ord] = true
		out[ord] = id
	}
	return out, nil
}
