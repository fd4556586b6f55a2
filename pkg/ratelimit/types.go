package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is zero for allowed requests.
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Reset(ctx context.Context, key string) error
}

// Store keeps per-key counters that expire with their window.
type Store interface {
	// Increment adds one to key, starting a new window of length window when
	// none is active, and returns the new count and the time left.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
	// Delete drops the counter for key.
	Delete(ctx context.Context, key string) error
}
