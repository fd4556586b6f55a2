package behavior

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *r)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (s *MemoryStore) List(_ context.Context, f Filter, p Page) ([]Record, error) {
	matched := s.match(f)
	slices.SortFunc(matched, newestFirst)
	return window(matched, p), nil
}

func (s *MemoryStore) Count(_ context.Context, f Filter) (int64, error) {
	return int64(len(s.match(f))), nil
}

func (s *MemoryStore) Sessions(_ context.Context, p Page) ([]SessionSummary, error) {
	return window(SummarizeSessions(s.snapshot()), p), nil
}

func (s *MemoryStore) CountSessions(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, r := range s.records {
		seen[r.SessionID] = struct{}{}
	}
	return int64(len(seen)), nil
}

func (s *MemoryStore) EventCounts(_ context.Context, since time.Time, sample int) (EventCounts, error) {
	return SumEventCounts(s.snapshot(), since, sample), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func (s *MemoryStore) match(f Filter) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if f.SessionID != "" && r.SessionID != f.SessionID {
			continue
		}
		if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, r)
	}
	return out
}
