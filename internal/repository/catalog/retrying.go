package catalog

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	domcat "github.com/kailas-cloud/gamedex/internal/domain/catalog"
	"github.com/kailas-cloud/gamedex/internal/metrics"
	"github.com/kailas-cloud/gamedex/internal/retry"
)

// Reader is the read side of the catalog.
type Reader interface {
	Get(ctx context.Context, id int64) (domcat.Item, error)
	GetMany(ctx context.Context, ids []int64) ([]domcat.Item, error)
	GetByTitle(ctx context.Context, title string) (domcat.Item, error)
	SearchTitles(ctx context.Context, tokens []string) ([]domcat.Item, error)
	All(ctx context.Context) ([]domcat.Item, error)
	Reviews(ctx context.Context, user string) ([]domcat.Review, error)
	Wishlist(ctx context.Context, user string) ([]int64, error)
}

// Compile-time checks.
var (
	_ Reader = (*Repo)(nil)
	_ Reader = (*Retrying)(nil)
)

// IsTransient reports whether err is a lock contention or dropped-connection
// failure worth repeating.
func IsTransient(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return errors.Is(err, driver.ErrBadConn)
}

// Retrying decorates a Reader with a bounded retry policy.
type Retrying struct {
	next   Reader
	policy retry.Policy
}

// NewRetrying wraps next. A nil Retryable in p defaults to IsTransient; every
// repeated attempt is logged and counted per operation.
func NewRetrying(next Reader, p retry.Policy, logger *zap.Logger) *Retrying {
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	hook := p.OnRetry
	p.OnRetry = func(op string, attempt int, err error) {
		metrics.StoreRetriesTotal.WithLabelValues(op).Inc()
		logger.Warn("Catalog call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if hook != nil {
			hook(op, attempt, err)
		}
	}
	return &Retrying{next: next, policy: p}
}

func call[T any](ctx context.Context, r *Retrying, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.policy.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err //nolint:wrapcheck // policy adds op context
}

// Get implements Reader.
func (r *Retrying) Get(ctx context.Context, id int64) (domcat.Item, error) {
	return call(ctx, r, "get", func(ctx context.Context) (domcat.Item, error) {
		return r.next.Get(ctx, id)
	})
}

// GetMany implements Reader.
func (r *Retrying) GetMany(ctx context.Context, ids []int64) ([]domcat.Item, error) {
	return call(ctx, r, "get_many", func(ctx context.Context) ([]domcat.Item, error) {
		return r.next.GetMany(ctx, ids)
	})
}

// GetByTitle implements Reader.
func (r *Retrying) GetByTitle(ctx context.Context, title string) (domcat.Item, error) {
	return call(ctx, r, "get_by_title", func(ctx context.Context) (domcat.Item, error) {
		return r.next.GetByTitle(ctx, title)
	})
}

// SearchTitles implements Reader.
func (r *Retrying) SearchTitles(ctx context.Context, tokens []string) ([]domcat.Item, error) {
	return call(ctx, r, "search_titles", func(ctx context.Context) ([]domcat.Item, error) {
		return r.next.SearchTitles(ctx, tokens)
	})
}

// All implements Reader.
func (r *Retrying) All(ctx context.Context) ([]domcat.Item, error) {
	return call(ctx, r, "all", r.next.All)
}

// Reviews implements Reader.
func (r *Retrying) Reviews(ctx context.Context, user string) ([]domcat.Review, error) {
	return call(ctx, r, "reviews", func(ctx context.Context) ([]domcat.Review, error) {
		return r.next.Reviews(ctx, user)
	})
}

// Wishlist implements Reader.
func (r *Retrying) Wishlist(ctx context.Context, user string) ([]int64, error) {
	return call(ctx, r, "wishlist", func(ctx context.Context) ([]int64, error) {
		return r.next.Wishlist(ctx, user)
	})
}
