package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

var errTransient = errors.New("database is locked")

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "get", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy()
	p.OnRetry = func(op string, attempt int, err error) {
		if op != "get_many" {
			t.Errorf("op = %q", op)
		}
		retried = append(retried, attempt)
	}
	err := p.Do(context.Background(), "get_many", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v", retried)
	}
}

func TestDo_ExhaustedIsDataUnavailable(t *testing.T) {
	calls := 0
	retries := 0
	p := fastPolicy()
	p.OnRetry = func(string, int, error) { retries++ }
	err := p.Do(context.Background(), "get", func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Error("last cause should stay in the chain")
	}
	if calls != 3 || retries != 2 {
		t.Errorf("calls = %d retries = %d", calls, retries)
	}
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	p := fastPolicy()
	p.Retryable = func(err error) bool { return errors.Is(err, errTransient) }
	err := p.Do(context.Background(), "get", func(context.Context) error {
		calls++
		return domain.ErrConfiguration
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, domain.ErrConfiguration) || errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{MaxAttempts: 5, Delay: time.Hour}
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Do(ctx, "get", func(context.Context) error {
			calls++
			return errTransient
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if errors.Is(err, domain.ErrDataUnavailable) {
			t.Error("cancellation is not exhaustion")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not stop on cancel")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.MaxAttempts != 3 || p.Delay != 200*time.Millisecond {
		t.Errorf("default policy = %+v", p)
	}
}
