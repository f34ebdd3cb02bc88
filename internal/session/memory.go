package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/cb-discovery/internal/survey"
)

type memoryEntry struct {
	session survey.Session
	expires time.Time
}

// MemoryStore is an in-process Store. Expired sessions are dropped lazily on Get.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory store. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session with id.
func (m *MemoryStore) Get(_ context.Context, id string) (survey.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return survey.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.now().After(e.expires) {
		delete(m.sessions, id)
		return survey.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.session.Clone(), nil
}

// Save stores s if its version is current and refreshes its expiry.
func (m *MemoryStore) Save(_ context.Context, s survey.Session) error {
	if s.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.sessions[s.ID]
	if ok && now.After(e.expires) {
		delete(m.sessions, s.ID)
		ok = false
	}
	if err := checkVersion(s, e.session.Version, ok); err != nil {
		return err
	}
	s = s.Clone()
	s.Version++
	m.sessions[s.ID] = memoryEntry{session: s, expires: now.Add(m.ttl)}
	return nil
}

// Delete removes the session with id. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet dropped.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
