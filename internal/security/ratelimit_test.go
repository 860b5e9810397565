package security

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{ActionsPerHour: 5})

	for i := range 5 {
		if err := rl.Allow(BucketAction); err != nil {
			t.Fatalf("Allow(%d) returned error: %v", i, err)
		}
	}

	// 6th should be denied.
	if err := rl.Allow(BucketAction); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{ActionsPerHour: 2})
	rl.now = func() time.Time { return now }

	_ = rl.Allow(BucketAction)
	_ = rl.Allow(BucketAction)

	if err := rl.Allow(BucketAction); !errors.Is(err, ErrRateLimited) {
		t.Fatal("expected rate limit")
	}

	// Advance past the window.
	now = now.Add(61 * time.Minute)

	if err := rl.Allow(BucketAction); err != nil {
		t.Fatalf("expected allow after window, got %v", err)
	}
}

func TestRateLimiter_ZeroActionsDeniesEverything(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{ActionsPerHour: 0})
	if err := rl.Allow(BucketAction); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := rl.Remaining(BucketAction); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestRateLimiter_NegativeActionsIsUnlimited(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{ActionsPerHour: -1})
	for range 1000 {
		if err := rl.Allow(BucketAction); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := rl.Remaining(BucketAction); got != -1 {
		t.Errorf("Remaining = %d, want -1", got)
	}
}

func TestRateLimiter_UnknownKind(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})

	if err := rl.Allow("unknown_kind"); err != nil {
		t.Fatalf("expected nil for unknown kind, got %v", err)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	if got := rl.Remaining(BucketToolCall); got != 500 {
		t.Errorf("tool_call remaining = %d, want 500", got)
	}
	if got := rl.Remaining(BucketAuth); got != 30 {
		t.Errorf("auth remaining = %d, want 30", got)
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{ActionsPerHour: 50})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(BucketAction) == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Fatalf("allowed = %d, want exactly 50", allowed)
	}
}
