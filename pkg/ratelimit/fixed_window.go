package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
)

// Config holds the limit applied to one route group.
type Config struct {
	Requests int           `env:"REQUESTS" envDefault:"100"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
}

// FixedWindow allows Requests per Window per key.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
	clock  clock.Clock
}

// FixedWindowOption configures a FixedWindow.
type FixedWindowOption func(*FixedWindow)

// WithPrefix namespaces keys so route groups do not share counters.
func WithPrefix(prefix string) FixedWindowOption {
	return func(f *FixedWindow) { f.prefix = prefix }
}

// WithClock sets the clock used to compute reset times.
func WithClock(c clock.Clock) FixedWindowOption {
	return func(f *FixedWindow) {
		if c != nil {
			f.clock = c
		}
	}
}

// NewFixedWindow validates cfg and returns a limiter backed by store.
func NewFixedWindow(store Store, cfg Config, opts ...FixedWindowOption) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Requests <= 0 {
		return nil, ErrInvalidLimit
	}
	if cfg.Window <= 0 {
		return nil, ErrInvalidInterval
	}
	f := &FixedWindow{
		store:  store,
		limit:  cfg.Requests,
		window: cfg.Window,
		prefix: "ratelimit",
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Allow counts one request for key.
func (f *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	if key == "" {
		return Result{}, ErrKeyRequired
	}

	count, ttl, err := f.store.Increment(ctx, f.prefix+":"+key, f.window)
	if err != nil {
		return Result{}, err
	}
	if ttl <= 0 {
		ttl = f.window
	}

	res := Result{
		Allowed:   count <= int64(f.limit),
		Limit:     f.limit,
		Remaining: max(f.limit-int(count), 0),
		ResetAt:   f.clock.Now().Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res, nil
}

// Reset clears the counter for key.
func (f *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return f.store.Delete(ctx, f.prefix+":"+key)
}
