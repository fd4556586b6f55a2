package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a manually advanced Clock. It is safe for concurrent use.
//
// Callbacks run synchronously inside Advance with the clock set to their
// deadline, so code reading Now from a callback observes the scheduled time.
// Do not call Advance from within a callback.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeTimer
	seq     uint64
}

type fakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	seq      uint64 // registration order, breaks deadline ties
	callback func()
	done     bool
}

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run once the clock reaches now+d. A non-positive d
// runs f before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	if d <= 0 {
		f()
		return &fakeTimer{clock: c, done: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{
		clock:    c,
		deadline: c.current.Add(d),
		seq:      c.seq,
		callback: f,
	}
	c.waiters = append(c.waiters, t)
	return t
}

// Sleep advances the fake clock by d. It exists to satisfy Clock for code
// paths such as replay that pace themselves with Sleep.
func (c *FakeClock) Sleep(d time.Duration) {
	if d > 0 {
		c.Advance(d)
	}
}

// Advance moves the clock forward by d, firing due callbacks in deadline
// order. Callbacks registered while advancing fire too if their deadline is
// still within the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()

	for {
		next := c.popDue(target)
		if next == nil {
			break
		}
		next.callback()
	}

	c.mu.Lock()
	if c.current.Before(target) {
		c.current = target
	}
	c.mu.Unlock()
}

// Pending returns the number of callbacks waiting to fire.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.done {
			n++
		}
	}
	return n
}

// popDue removes the earliest due waiter, moves the clock to its deadline and
// returns it. It returns nil when nothing is due at or before target.
func (c *FakeClock) popDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.done {
			live = append(live, w)
		}
	}
	c.waiters = live
	if len(c.waiters) == 0 {
		return nil
	}

	sort.Slice(c.waiters, func(i, j int) bool {
		if c.waiters[i].deadline.Equal(c.waiters[j].deadline) {
			return c.waiters[i].seq < c.waiters[j].seq
		}
		return c.waiters[i].deadline.Before(c.waiters[j].deadline)
	})

	first := c.waiters[0]
	if first.deadline.After(target) {
		return nil
	}
	first.done = true
	c.waiters = c.waiters[1:]
	if first.deadline.After(c.current) {
		c.current = first.deadline
	}
	return first
}

func (t *fakeTimer) Stop() bool {
	if t.clock == nil {
		return false
	}
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}
