package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/gamedex/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.do(ctx, s.setCmd(key, value)).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Expire sets a TTL on a key, rounded down to whole seconds (minimum one).
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.do(ctx, s.expireCmd(key, ttl)).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

func (s *Store) setCmd(key string, value []byte) rueidis.Completed {
	return s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
}

func (s *Store) expireCmd(key string, ttl time.Duration) rueidis.Completed {
	secs := max(int64(ttl.Seconds()), 1)
	return s.b().Expire().Key(key).Seconds(secs).Build()
}
