package interview

import (
	"context"
	"sync"
	"time"
)

// Store keeps sessions by id. Implementations must serialize Update
// calls for the same id while letting different ids proceed in parallel.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	// Update runs fn on a working copy of the session and commits the copy
	// only when fn returns nil.
	Update(ctx context.Context, id string, fn func(*Session) error) error
}

type entry struct {
	mu      sync.Mutex
	sess    Session
	removed bool
}

// MemoryStore is a process-local Store with one mutex per session.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
	}
}

func (m *MemoryStore) Create(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[s.ID]; exists {
		return ErrSessionExists
	}
	m.entries[s.ID] = &entry{sess: s.clone()}
	return nil
}

func (m *MemoryStore) lookup(id string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e, ok
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	e, ok := m.lookup(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Session{}, ErrSessionNotFound
	}
	return e.sess.clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn func(*Session) error) error {
	e, ok := m.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// the entry may have been swept between lookup and lock
	if e.removed {
		return ErrSessionNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	working := e.sess.clone()
	if err := fn(&working); err != nil {
		return err
	}
	e.sess = working
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep deletes sessions whose last update is before cutoff and returns
// how many were removed. Sessions with an update in flight are skipped.
func (m *MemoryStore) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.sess.UpdatedAt.Before(cutoff) {
			e.removed = true
			delete(m.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}
