package behavior_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
	"github.com/dmitrymomot/behaviortrace/pkg/useragent"
	"github.com/dmitrymomot/behaviortrace/pkg/validator"
	"github.com/dmitrymomot/behaviortrace/svc/behavior"
)

var errBackend = errors.New("backend down")

// brokenStore fails every read while accepting writes.
type brokenStore struct {
	*behavior.MemoryStore
}

func (brokenStore) Insert(context.Context, *behavior.Record) error { return errBackend }
func (brokenStore) Count(context.Context, behavior.Filter) (int64, error) {
	return 0, errBackend
}
func (brokenStore) CountSessions(context.Context) (int64, error) { return 0, errBackend }
func (brokenStore) Get(context.Context, string) (behavior.Record, error) {
	return behavior.Record{}, errBackend
}
func (brokenStore) Ping(context.Context) error { return errBackend }

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newService(t *testing.T) (*behavior.Service, *behavior.MemoryStore, *clock.FakeClock) {
	t.Helper()
	store := behavior.NewMemoryStore()
	fc := clock.Fake(epoch)
	return behavior.NewService(store, behavior.WithClock(fc)), store, fc
}

func batch(session string, pageViews int) telemetry.Batch {
	return telemetry.Batch{
		SessionID:    session,
		SessionStart: telemetry.Millis(epoch),
		MouseEvents:  []telemetry.MouseEvent{{X: 10, Y: 20, Timestamp: telemetry.Millis(epoch)}},
		PageViews:    make([]telemetry.PageView, pageViews),
		Fingerprint: telemetry.Fingerprint{
			UserAgent: chromeUA,
			Language:  "en-US",
			Extra:     map[string]string{"cookie_enabled": "true"},
		},
		CurrentURL:  "https://example.com/pricing",
		CollectedAt: telemetry.Millis(epoch),
	}
}

func TestServiceCollect(t *testing.T) {
	t.Parallel()

	t.Run("stamps request metadata", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newService(t)
		meta := behavior.RequestMeta{IPAddress: "198.51.100.4", UserAgent: chromeUA, Fingerprint: "fp"}

		rec, err := svc.Collect(context.Background(), batch("s1", 1), meta)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, epoch, rec.Timestamp)
		assert.Equal(t, "198.51.100.4", rec.IPAddress)
		assert.Equal(t, chromeUA, rec.UserAgent)
		assert.Equal(t, "fp", rec.RequestFingerprint)
		assert.Equal(t, useragent.BrowserChrome, rec.Client.Browser)
		assert.Equal(t, "en-US", rec.Fingerprint.Language)
		assert.NotNil(t, rec.KeyEvents, "absent categories are stored as empty arrays")

		stored, err := store.Get(context.Background(), rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec, stored)
	})

	t.Run("rejects missing session id", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newService(t)

		for _, id := range []string{"", "   "} {
			_, err := svc.Collect(context.Background(), batch(id, 1), behavior.RequestMeta{})
			require.Error(t, err)
			assert.True(t, validator.ExtractValidationErrors(err).Has("session_id"))
		}
		n, _ := store.Count(context.Background(), behavior.Filter{})
		assert.Zero(t, n)
	})

	t.Run("rejects oversized batches", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)
		b := batch("s1", 0)
		b.KeyEvents = make([]telemetry.KeyEvent, 10001)
		_, err := svc.Collect(context.Background(), b, behavior.RequestMeta{})
		assert.True(t, validator.ExtractValidationErrors(err).Has("key_events"))
	})

	t.Run("duplicates are distinct records", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)
		a, err := svc.Collect(context.Background(), batch("s1", 1), behavior.RequestMeta{})
		require.NoError(t, err)
		b, err := svc.Collect(context.Background(), batch("s1", 1), behavior.RequestMeta{})
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("wraps store failure", func(t *testing.T) {
		t.Parallel()
		svc := behavior.NewService(brokenStore{behavior.NewMemoryStore()})
		_, err := svc.Collect(context.Background(), batch("s1", 1), behavior.RequestMeta{})
		assert.ErrorIs(t, err, errBackend)
	})
}

func TestNormalizePage(t *testing.T) {
	t.Parallel()

	cases := []struct{ page, limit, wantPage, wantLimit int }{
		{0, 0, 1, behavior.DefaultPageLimit},
		{-3, 10, 1, 10},
		{2, 500, 2, behavior.MaxPageLimit},
		{4, -1, 4, behavior.DefaultPageLimit},
		{math.MaxInt, 100, math.MaxInt / 100, 100},
		{math.MaxInt, 0, math.MaxInt / behavior.DefaultPageLimit, behavior.DefaultPageLimit},
	}
	for _, tc := range cases {
		page, limit := behavior.NormalizePage(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantLimit, limit)
	}
}

func TestMemoryStoreOutOfRangePages(t *testing.T) {
	t.Parallel()

	store := behavior.NewMemoryStore()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert(ctx, record(id, "s1", epoch.Add(time.Duration(i)*time.Minute), 1)))
	}

	got, err := store.List(ctx, behavior.Filter{}, behavior.Page{Offset: -5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.List(ctx, behavior.Filter{}, behavior.Page{Offset: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	sessions, err := store.Sessions(ctx, behavior.Page{Offset: math.MaxInt - 10, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestServiceStats(t *testing.T) {
	t.Parallel()

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)
		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, behavior.Stats{
			EventStatsSampled:     true,
			EventStatsSampleLimit: behavior.StatsSampleLimit,
		}, stats)
	})

	t.Run("counts trailing window", func(t *testing.T) {
		t.Parallel()
		svc, _, fc := newService(t)
		ctx := context.Background()

		_, err := svc.Collect(ctx, batch("s1", 3), behavior.RequestMeta{})
		require.NoError(t, err)
		fc.Advance(25 * time.Hour)
		_, err = svc.Collect(ctx, batch("s1", 1), behavior.RequestMeta{})
		require.NoError(t, err)
		_, err = svc.Collect(ctx, batch("s2", 2), behavior.RequestMeta{})
		require.NoError(t, err)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalRecords)
		assert.Equal(t, int64(2), stats.TotalSessions)
		assert.Equal(t, int64(2), stats.RecentRecords24h)
		assert.Equal(t, behavior.EventCounts{MouseEvents: 2, PageViews: 3}, stats.EventStats)
	})

	t.Run("joins store errors", func(t *testing.T) {
		t.Parallel()
		svc := behavior.NewService(brokenStore{behavior.NewMemoryStore()})
		_, err := svc.Stats(context.Background())
		assert.ErrorIs(t, err, errBackend)
	})
}

func TestNewServicePanicsWithoutStore(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { behavior.NewService(nil) })
}
