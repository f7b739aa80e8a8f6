// Package redis implements db.Store on rueidis for the index registry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	goretry "github.com/sethvargo/go-retry"

	"github.com/kailas-cloud/gamedex/internal/db"
)

var _ db.Store = (*Store)(nil)

// Config holds connection parameters for the registry.
type Config struct {
	Addrs        []string
	Password     string
	ClientName   string        // reported in CLIENT LIST; defaults to "gamedex"
	WriteTimeout time.Duration // zero keeps the rueidis default
}

// Store is the registry's key-value store. Client-side caching is off:
// the current-generation pointer must always be read from the server.
type Store struct {
	client rueidis.Client
}

// NewStore connects a single-node client.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("registry: addrs is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = "gamedex"
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      cfg.Addrs,
		Password:         cfg.Password,
		ClientName:       name,
		ConnWriteTimeout: cfg.WriteTimeout,
		DisableCache:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("registry client: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() { s.client.Close() }

// WaitForReady pings until the server answers, backing off from 50ms up to
// one second between attempts. The last ping error is kept in the result.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := goretry.WithCappedDuration(time.Second, goretry.NewExponential(50*time.Millisecond))
	var last error
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		if last = s.Ping(ctx); last != nil {
			return goretry.RetryableError(last)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry not ready after %s: %w", timeout, errors.Join(err, last))
	}
	return nil
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder { return s.client.B() }
