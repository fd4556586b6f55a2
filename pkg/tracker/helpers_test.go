package tracker_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
	"github.com/dmitrymomot/behaviortrace/pkg/tracker"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// recordingBeacon accepts every payload unless refuse is set.
type recordingBeacon struct {
	mu     sync.Mutex
	refuse bool
	bodies [][]byte
}

func (b *recordingBeacon) Beacon(body []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refuse {
		return false
	}
	b.bodies = append(b.bodies, body)
	return true
}

func (b *recordingBeacon) batches(t *testing.T) []telemetry.Batch {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]telemetry.Batch, 0, len(b.bodies))
	for _, body := range b.bodies {
		var batch telemetry.Batch
		require.NoError(t, json.Unmarshal(body, &batch))
		out = append(out, batch)
	}
	return out
}

func (b *recordingBeacon) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bodies)
}

// recordingSender stores payloads and signals every send.
type recordingSender struct {
	mu     sync.Mutex
	err    error
	bodies [][]byte
	sent   chan struct{}
}

func newRecordingSender(err error) *recordingSender {
	return &recordingSender{err: err, sent: make(chan struct{}, 16)}
}

func (s *recordingSender) Send(_ context.Context, body []byte) error {
	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.mu.Unlock()
	s.sent <- struct{}{}
	return s.err
}

func newTestTracker(t *testing.T, beacon tracker.Beaconer, opts ...tracker.Option) (*tracker.Tracker, *clock.FakeClock) {
	t.Helper()
	fc := clock.Fake(epoch)
	tx, err := tracker.NewTransmitter(beacon, nil, nil)
	require.NoError(t, err)

	all := append([]tracker.Option{
		tracker.WithClock(fc),
		tracker.WithPage("https://shop.example.com/products?id=1", "Products", "https://search.example.com"),
	}, opts...)
	tr, err := tracker.New(tx, all...)
	require.NoError(t, err)
	return tr, fc
}
