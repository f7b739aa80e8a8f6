package db

import (
	"context"
	"time"
)

// Store is the key-value facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade; consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	KVStore
	HashStore
	TxStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// HashStore provides hash operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// TxStore applies a batch of mutations atomically.
type TxStore interface {
	Atomic(ctx context.Context, muts ...Mutation) error
}

// MutationKind selects the command a Mutation issues.
type MutationKind int

const (
	MutDel MutationKind = iota
	MutHSet
	MutSet
	MutExpire
)

// Mutation is one write inside an atomic batch.
type Mutation struct {
	Kind   MutationKind
	Key    string
	Fields map[string]string // MutHSet
	Value  []byte            // MutSet
	TTL    time.Duration     // MutExpire
}

// Del deletes key.
func Del(key string) Mutation { return Mutation{Kind: MutDel, Key: key} }

// HSet sets hash fields on key.
func HSet(key string, fields map[string]string) Mutation {
	return Mutation{Kind: MutHSet, Key: key, Fields: fields}
}

// Set stores value at key.
func Set(key string, value []byte) Mutation { return Mutation{Kind: MutSet, Key: key, Value: value} }

// Expire sets a TTL on key.
func Expire(key string, ttl time.Duration) Mutation {
	return Mutation{Kind: MutExpire, Key: key, TTL: ttl}
}
