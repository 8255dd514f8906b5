package resilience

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	var waits []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, _ error, _ time.Duration) { waits = append(waits, attempt) }

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 || len(waits) != 2 {
		t.Errorf("expected 3 calls and 2 waits, got %d and %v", calls, waits)
	}
}

func TestRetry_GivesUp(t *testing.T) {
	boom := errors.New("503 slow down")
	calls := 0
	err := fastPolicy(4).Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 4 {
		t.Errorf("expected 4 calls ending in boom, got %d: %v", calls, err)
	}
	if err.Error() != "after 4 attempts: 503 slow down" {
		t.Errorf("unexpected message %q", err)
	}
}

func TestRetry_PermanentErrors(t *testing.T) {
	for _, perm := range []error{
		fs.ErrNotExist,
		fmt.Errorf("open: %w", fs.ErrPermission),
		context.Canceled,
		fmt.Errorf("s3: %w", ErrOpen),
	} {
		calls := 0
		err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
			calls++
			return perm
		})
		if calls != 1 || !errors.Is(err, perm) {
			t.Errorf("%v: expected a single call, got %d (%v)", perm, calls, err)
		}
	}
}

func TestRetry_CustomRetryable(t *testing.T) {
	calls := 0
	p := fastPolicy(3)
	p.Retryable = func(error) bool { return false }
	_ = p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("timeout")
	p := RetryPolicy{Attempts: 5, Delay: time.Hour, MaxDelay: time.Hour}
	p.OnRetry = func(int, error, time.Duration) { cancel() }

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return boom
	})
	if calls != 1 || !errors.Is(err, boom) {
		t.Errorf("expected the last error after 1 call, got %d: %v", calls, err)
	}

	if err := p.Do(ctx, func(context.Context) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled for a done context, got %v", err)
	}
}

func TestRetryPolicy_Wait(t *testing.T) {
	p := RetryPolicy{Delay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Factor: 2}.withDefaults()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{10, 300 * time.Millisecond},
	}
	for _, tc := range tests {
		if got := p.wait(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}

	p.Jitter = 0.5
	for i := 0; i < 50; i++ {
		if got := p.wait(1); got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("jittered wait out of range: %v", got)
		}
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) {
		t.Error("nil is not transient")
	}
	if !Transient(errors.New("connection refused")) {
		t.Error("network errors are transient")
	}
	if Transient(context.DeadlineExceeded) {
		t.Error("deadline is permanent")
	}
}
