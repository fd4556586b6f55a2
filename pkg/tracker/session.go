package tracker

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tab-scoped storage keys.
const (
	SessionIDKey    = "behavior_session_id"
	SessionStartKey = "behavior_session_start"
)

// SessionStorage is a tab-scoped key/value store that outlives the tracker,
// such as browser session storage.
type SessionStorage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Session identifies one tab-storage lifetime.
type Session struct {
	ID    string
	Start int64 // epoch ms
}

// LoadSession returns the session held in storage, creating and storing a new
// one when absent. A missing or malformed start is reset to now. Storage
// write failures are returned together with the usable in-memory session.
func LoadSession(storage SessionStorage, now time.Time) (Session, error) {
	if storage == nil {
		return newSession(now), ErrStorageUnavailable
	}

	id, ok := storage.Get(SessionIDKey)
	if !ok || id == "" {
		s := newSession(now)
		return s, store(storage, s)
	}

	s := Session{ID: id}
	raw, ok := storage.Get(SessionStartKey)
	start, err := strconv.ParseInt(raw, 10, 64)
	if !ok || err != nil || start <= 0 {
		s.Start = now.UnixMilli()
		return s, storage.Set(SessionStartKey, strconv.FormatInt(s.Start, 10))
	}
	s.Start = start
	return s, nil
}

func newSession(now time.Time) Session {
	return Session{ID: "sess_" + uuid.NewString(), Start: now.UnixMilli()}
}

func store(storage SessionStorage, s Session) error {
	if err := storage.Set(SessionIDKey, s.ID); err != nil {
		return err
	}
	return storage.Set(SessionStartKey, strconv.FormatInt(s.Start, 10))
}

// MemorySessionStorage is an in-process SessionStorage.
type MemorySessionStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySessionStorage returns an empty storage.
func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{values: make(map[string]string)}
}

func (m *MemorySessionStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemorySessionStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
