package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
	"github.com/dmitrymomot/behaviortrace/svc/behavior"
)

func TestReplay(t *testing.T) {
	t.Parallel()

	svc := behavior.NewService(behavior.NewMemoryStore())
	srv := httptest.NewServer(behavior.NewRouter(svc))
	t.Cleanup(srv.Close)

	sc, err := LoadScenario(strings.NewReader(checkoutScenario))
	require.NoError(t, err)

	fc := clock.Fake(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	res, err := replay(context.Background(), sc, replayOptions{
		endpoint:     srv.URL + "/api/collect-behavior",
		clock:        fc,
		drainTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Steps)
	assert.True(t, strings.HasPrefix(res.SessionID, "sess_"))

	records, total, err := svc.List(context.Background(), res.SessionID, 1, 50)
	require.NoError(t, err)
	// One explicit flush plus the unload flush; the batch timer never fires.
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)

	var kinds []telemetry.NavigationType
	var sawScroll bool
	for _, r := range records {
		assert.Equal(t, "en-US", r.Fingerprint.Language)
		assert.Equal(t, 1920, r.Fingerprint.ScreenWidth)
		for _, pv := range r.PageViews {
			kinds = append(kinds, pv.Type)
		}
		sawScroll = sawScroll || len(r.ScrollEvents) > 0
	}
	assert.Contains(t, kinds, telemetry.NavigationInitial)
	assert.Contains(t, kinds, telemetry.NavigationPushState)
	assert.Contains(t, kinds, telemetry.NavigationTabReturn)
	assert.Contains(t, kinds, telemetry.NavigationPageExit)
	assert.True(t, sawScroll, "debounced scroll committed before the next step")
}

func TestReplayTimerFlushes(t *testing.T) {
	t.Parallel()

	svc := behavior.NewService(behavior.NewMemoryStore())
	srv := httptest.NewServer(behavior.NewRouter(svc))
	t.Cleanup(srv.Close)

	sc := Scenario{
		Page:          ScenarioPage{URL: "https://a.test/"},
		BatchInterval: time.Second,
		Steps: []Step{
			{Wait: 1500 * time.Millisecond, Mouse: &Point{X: 1, Y: 1}},
			{Wait: 1500 * time.Millisecond, Mouse: &Point{X: 2, Y: 2}},
		},
	}
	res, err := replay(context.Background(), sc, replayOptions{
		endpoint: srv.URL + "/api/collect-behavior",
		clock:    clock.Fake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	// Ticks at 1s, 2s and 3s plus the unload flush.
	_, total, err := svc.List(context.Background(), res.SessionID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestScaledClock(t *testing.T) {
	t.Parallel()

	fc := clock.Fake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	start := fc.Now()

	scaledClock{Clock: fc, speed: 4}.Sleep(time.Second)
	assert.Equal(t, 250*time.Millisecond, fc.Now().Sub(start))

	scaledClock{Clock: fc, speed: 0}.Sleep(time.Second)
	assert.Equal(t, 1250*time.Millisecond, fc.Now().Sub(start))
}
