package resilience

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures how an operation is retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Delay is the wait before the second try. Later waits grow by Factor.
	Delay    time.Duration
	MaxDelay time.Duration
	Factor   float64
	// Jitter spreads each wait by up to this fraction in either direction.
	Jitter float64
	// Retryable decides whether an error is worth another try. Nil means
	// Transient.
	Retryable func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryPolicy returns three attempts starting at 200ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		Delay:     200 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Factor:    2,
		Jitter:    0.2,
		Retryable: Transient,
	}
}

// Transient reports whether err may go away on its own. Cancellation,
// missing or unreadable local files and an open breaker are permanent.
func Transient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return false
	case errors.Is(err, ErrOpen):
		return false
	}
	return true
}

// Do calls fn until it succeeds, returns a permanent error, runs out of
// attempts or ctx is done. The last error is returned, annotated with the
// attempt count when more than one try was made.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !p.Retryable(err) {
			return err
		}
		if attempt >= p.Attempts {
			if attempt == 1 {
				return err
			}
			return fmt.Errorf("after %d attempts: %w", attempt, err)
		}

		wait := p.wait(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.Delay <= 0 {
		p.Delay = def.Delay
	}
	if p.MaxDelay < p.Delay {
		p.MaxDelay = max(def.MaxDelay, p.Delay)
	}
	if p.Factor < 1 {
		p.Factor = def.Factor
	}
	if p.Retryable == nil {
		p.Retryable = Transient
	}
	return p
}

// wait returns the delay after the given failed attempt.
func (p RetryPolicy) wait(attempt int) time.Duration {
	d := float64(p.Delay) * math.Pow(p.Factor, float64(attempt-1))
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	d = math.Min(d, float64(p.MaxDelay))
	if d < 0 {
		return p.Delay
	}
	return time.Duration(d)
}
