// Package retry provides the retry policy shared by the classifier client and
// persistence writes: a bounded number of attempts with linear backoff and
// random jitter, honoring context cancellation between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxJitter   = 500 * time.Millisecond
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts bounds the total attempt count, first try included.
	MaxAttempts int
	// BaseDelay scales the wait between attempts: attempt n sleeps
	// BaseDelay*n plus jitter.
	BaseDelay time.Duration
	// MaxJitter is the upper bound of the random jitter added to each delay.
	MaxJitter time.Duration
	// Sleep overrides how delays are performed (used in tests). When nil a
	// context-aware timer is used.
	Sleep func(context.Context, time.Duration) error
}

// Default returns the policy used when fields are left zero.
func Default() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxJitter:   defaultMaxJitter,
	}
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base < 0 {
		base = 0
	}
	delay := base * time.Duration(attempt)
	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return delay
}

// Permanent wraps an error so Do stops retrying immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }

func (e permanentError) Unwrap() error { return e.err }

// Do runs op until it succeeds, the policy is exhausted, the error is marked
// permanent, or the context ends. The last error is returned annotated with
// the attempt count.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context, attempt int) error) error {
	attempts := policy.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}

		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, policy, policy.delay(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func sleep(ctx context.Context, policy Policy, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if policy.Sleep != nil {
		return policy.Sleep(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
