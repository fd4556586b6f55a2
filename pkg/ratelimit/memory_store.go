package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
)

// MemoryStore keeps counters in process memory. Expired counters are
// removed lazily on access and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	windows map[string]*window
}

type window struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryStore returns an empty store. A nil clock means the real clock.
func NewMemoryStore(c clock.Clock) *MemoryStore {
	if c == nil {
		c = clock.Real()
	}
	return &MemoryStore{clock: c, windows: make(map[string]*window)}
}

func (s *MemoryStore) Increment(_ context.Context, key string, length time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &window{expiresAt: now.Add(length)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.expiresAt.Sub(now), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// Sweep drops expired counters and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for k, w := range s.windows {
		if !now.Before(w.expiresAt) {
			delete(s.windows, k)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
