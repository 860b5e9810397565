package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a request exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Bucket names understood by RateLimiter.
const (
	BucketAction   = "action"
	BucketToolCall = "tool_call"
	BucketAuth     = "auth"
)

// RateLimitConfig holds configurable rate limits.
type RateLimitConfig struct {
	// ActionsPerHour bounds mutating tool operations. Zero allows none;
	// a negative value leaves the action bucket unlimited.
	ActionsPerHour int `yaml:"actions_per_hour"`

	// ToolCallsPerMin bounds raw tool invocations. Zero or negative uses the default.
	ToolCallsPerMin int `yaml:"tool_calls_per_min"`

	// AuthPerMin bounds gateway authentication attempts. Zero or negative uses the default.
	AuthPerMin int `yaml:"auth_per_min"`
}

// rateLimitConfigDefaults returns a config with sensible defaults.
func rateLimitConfigDefaults() RateLimitConfig {
	return RateLimitConfig{
		ToolCallsPerMin: 500,
		AuthPerMin:      30,
	}
}

// RateLimiter implements sliding window rate limiting using stdlib only.
// Each bucket tracks timestamps of recent events within its window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	window time.Duration
	limit  int
	events []time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
// Zero-value per-minute fields in cfg are replaced with defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := rateLimitConfigDefaults()
	if cfg.ToolCallsPerMin <= 0 {
		cfg.ToolCallsPerMin = defaults.ToolCallsPerMin
	}
	if cfg.AuthPerMin <= 0 {
		cfg.AuthPerMin = defaults.AuthPerMin
	}

	rl := &RateLimiter{
		now: time.Now,
		buckets: map[string]*bucket{
			BucketToolCall: {
				window: time.Minute,
				limit:  cfg.ToolCallsPerMin,
			},
			BucketAuth: {
				window: time.Minute,
				limit:  cfg.AuthPerMin,
			},
		},
	}

	if cfg.ActionsPerHour >= 0 {
		rl.buckets[BucketAction] = &bucket{
			window: time.Hour,
			limit:  cfg.ActionsPerHour,
		}
	}

	return rl
}

// Allow checks whether an event of the given kind is allowed and records it.
// Returns nil if allowed, ErrRateLimited if the limit is exceeded.
// Kinds without a configured bucket are always allowed.
func (rl *RateLimiter) Allow(kind string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[kind]
	if !ok {
		return nil
	}

	now := rl.now()
	b.evict(now)

	if len(b.events) >= b.limit {
		return ErrRateLimited
	}

	b.events = append(b.events, now)
	return nil
}

// Remaining returns how many events of kind are still allowed in the
// current window, or -1 when the kind is unlimited.
func (rl *RateLimiter) Remaining(kind string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[kind]
	if !ok {
		return -1
	}
	b.evict(rl.now())
	return max(b.limit-len(b.events), 0)
}

// evict removes events outside the sliding window.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	// Events are chronologically ordered.
	i := 0
	for i < len(b.events) && b.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}
