package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	t.Run("now is frozen until advanced", func(t *testing.T) {
		t.Parallel()
		fc := clock.Fake(epoch)
		assert.Equal(t, epoch, fc.Now())
		fc.Advance(3 * time.Second)
		assert.Equal(t, epoch.Add(3*time.Second), fc.Now())
	})

	t.Run("after func fires once at deadline", func(t *testing.T) {
		t.Parallel()
		fc := clock.Fake(epoch)
		var firedAt []time.Time
		fc.AfterFunc(time.Second, func() { firedAt = append(firedAt, fc.Now()) })

		fc.Advance(500 * time.Millisecond)
		assert.Empty(t, firedAt)

		fc.Advance(2 * time.Second)
		require.Len(t, firedAt, 1)
		assert.Equal(t, epoch.Add(time.Second), firedAt[0])
		assert.Equal(t, 0, fc.Pending())
	})

	t.Run("stop cancels pending call", func(t *testing.T) {
		t.Parallel()
		fc := clock.Fake(epoch)
		fired := false
		timer := fc.AfterFunc(time.Second, func() { fired = true })

		assert.True(t, timer.Stop())
		assert.False(t, timer.Stop())
		fc.Advance(time.Minute)
		assert.False(t, fired)
	})

	t.Run("rescheduled callbacks fire within the same advance", func(t *testing.T) {
		t.Parallel()
		fc := clock.Fake(epoch)
		ticks := 0
		var tick func()
		tick = func() {
			ticks++
			fc.AfterFunc(time.Second, tick)
		}
		fc.AfterFunc(time.Second, tick)

		fc.Advance(5 * time.Second)
		assert.Equal(t, 5, ticks)
		assert.Equal(t, 1, fc.Pending())
	})

	t.Run("callbacks fire in deadline order", func(t *testing.T) {
		t.Parallel()
		fc := clock.Fake(epoch)
		var order []string
		fc.AfterFunc(3*time.Second, func() { order = append(order, "c") })
		fc.AfterFunc(time.Second, func() { order = append(order, "a") })
		fc.AfterFunc(2*time.Second, func() { order = append(order, "b") })

		fc.Advance(10 * time.Second)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("non-positive delay runs immediately", func(t *testing.T) {
		t.Parallel()
		fc := clock.Fake(epoch)
		fired := false
		timer := fc.AfterFunc(0, func() { fired = true })
		assert.True(t, fired)
		assert.False(t, timer.Stop())
	})

	t.Run("sleep advances time", func(t *testing.T) {
		t.Parallel()
		fc := clock.Fake(epoch)
		fc.Sleep(250 * time.Millisecond)
		assert.Equal(t, epoch.Add(250*time.Millisecond), fc.Now())
	})
}

func TestRealClock(t *testing.T) {
	t.Parallel()

	c := clock.Real()
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real AfterFunc did not fire")
	}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
