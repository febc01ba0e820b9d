package retry_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"soundleaf/internal/retry"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 3, Sleep: noSleep}
	calls := 0
	err := retry.Do(context.Background(), policy, func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 3, Sleep: noSleep}
	boom := errors.New("boom")
	calls := 0
	err := retry.Do(context.Background(), policy, func(context.Context, int) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Fatalf("expected attempt count in message, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 5, Sleep: noSleep}
	bad := errors.New("bad input")
	calls := 0
	err := retry.Do(context.Background(), policy, func(context.Context, int) error {
		calls++
		return retry.Permanent(bad)
	})
	if !errors.Is(err, bad) {
		t.Fatalf("expected permanent cause, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retry.Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	calls := 0
	err := retry.Do(ctx, policy, func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDelayGrowsWithAttempt(t *testing.T) {
	var delays []time.Duration
	policy := retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}
	boom := errors.New("boom")
	_ = retry.Do(context.Background(), policy, func(context.Context, int) error { return boom })
	if len(delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(delays))
	}
	if delays[0] != 10*time.Millisecond || delays[1] != 20*time.Millisecond {
		t.Fatalf("expected linear backoff, got %v", delays)
	}
}
