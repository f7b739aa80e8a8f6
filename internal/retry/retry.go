// Package retry runs collaborator calls under a bounded constant-backoff policy.
package retry

import (
	"context"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// Defaults.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 200 * time.Millisecond
)

// Policy bounds how often and how fast a failing call is repeated.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable decides whether an error is transient. Nil retries every error.
	Retryable func(error) bool
	// OnRetry is called before each repeated attempt.
	OnRetry func(op string, attempt int, err error)
}

// DefaultPolicy returns three attempts 200ms apart, retrying every error.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// Do calls fn until it succeeds, returns a non-retryable error, the context is
// done, or MaxAttempts is reached. Exhausting the attempts wraps the last error
// with domain.ErrDataUnavailable.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	backoff := goretry.WithMaxRetries(uint64(attempts-1), goretry.NewConstant(delay)) //nolint:gosec // attempts >= 1

	attempt := 0
	transient := false
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		transient = ctx.Err() == nil && (p.Retryable == nil || p.Retryable(err))
		if !transient {
			return err
		}
		if attempt < attempts && p.OnRetry != nil {
			p.OnRetry(op, attempt, err)
		}
		return goretry.RetryableError(err)
	})
	switch {
	case err == nil:
		return nil
	case transient && attempt >= attempts:
		return fmt.Errorf("%s: %w after %d attempts: %w", op, domain.ErrDataUnavailable, attempt, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
