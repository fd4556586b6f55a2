package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/ratelimit"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newLimiter(t *testing.T, requests int, window time.Duration) (*ratelimit.FixedWindow, *clock.FakeClock) {
	t.Helper()
	fc := clock.Fake(epoch)
	lim, err := ratelimit.NewFixedWindow(
		ratelimit.NewMemoryStore(fc),
		ratelimit.Config{Requests: requests, Window: window},
		ratelimit.WithClock(fc),
		ratelimit.WithPrefix("test"),
	)
	require.NoError(t, err)
	return lim, fc
}

func TestNewFixedWindow(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(nil)
	_, err := ratelimit.NewFixedWindow(nil, ratelimit.Config{Requests: 1, Window: time.Second})
	assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)
	_, err = ratelimit.NewFixedWindow(store, ratelimit.Config{Requests: 0, Window: time.Second})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)
	_, err = ratelimit.NewFixedWindow(store, ratelimit.Config{Requests: 1})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidInterval)
}

func TestFixedWindowAllow(t *testing.T) {
	t.Parallel()

	t.Run("rejects after limit until window resets", func(t *testing.T) {
		t.Parallel()
		lim, fc := newLimiter(t, 2, time.Minute)
		ctx := context.Background()

		res, err := lim.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1, res.Remaining)
		assert.Equal(t, 2, res.Limit)
		assert.Equal(t, epoch.Add(time.Minute), res.ResetAt)

		res, _ = lim.Allow(ctx, "1.2.3.4")
		assert.True(t, res.Allowed)
		assert.Zero(t, res.Remaining)

		fc.Advance(20 * time.Second)
		res, _ = lim.Allow(ctx, "1.2.3.4")
		assert.False(t, res.Allowed)
		assert.Equal(t, 40*time.Second, res.RetryAfter)

		fc.Advance(40 * time.Second)
		res, _ = lim.Allow(ctx, "1.2.3.4")
		assert.True(t, res.Allowed, "new window")
		assert.Equal(t, 1, res.Remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		lim, _ := newLimiter(t, 1, time.Minute)
		ctx := context.Background()

		res, _ := lim.Allow(ctx, "a")
		assert.True(t, res.Allowed)
		res, _ = lim.Allow(ctx, "a")
		assert.False(t, res.Allowed)
		res, _ = lim.Allow(ctx, "b")
		assert.True(t, res.Allowed)
	})

	t.Run("reset clears counter", func(t *testing.T) {
		t.Parallel()
		lim, _ := newLimiter(t, 1, time.Minute)
		ctx := context.Background()

		_, _ = lim.Allow(ctx, "a")
		require.NoError(t, lim.Reset(ctx, "a"))
		res, _ := lim.Allow(ctx, "a")
		assert.True(t, res.Allowed)
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()
		lim, _ := newLimiter(t, 1, time.Minute)
		_, err := lim.Allow(context.Background(), "")
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)
		assert.ErrorIs(t, lim.Reset(context.Background(), ""), ratelimit.ErrKeyRequired)
	})
}

func TestMemoryStoreSweep(t *testing.T) {
	t.Parallel()

	fc := clock.Fake(epoch)
	store := ratelimit.NewMemoryStore(fc)
	ctx := context.Background()

	_, _, _ = store.Increment(ctx, "short", time.Second)
	_, _, _ = store.Increment(ctx, "long", time.Hour)

	fc.Advance(2 * time.Second)
	assert.Equal(t, 1, store.Sweep())

	count, ttl, err := store.Increment(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, time.Hour-2*time.Second, ttl)
}
