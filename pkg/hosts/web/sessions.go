package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-dynform/pkg/session"
)

// Entry is one browser session: a form session plus its lifetime bookkeeping.
type Entry struct {
	ID        string
	Form      *session.Session
	CreatedAt time.Time

	mu           sync.Mutex
	lastActiveAt time.Time
}

// Touch updates the last activity timestamp.
func (e *Entry) Touch() {
	e.mu.Lock()
	e.lastActiveAt = time.Now()
	e.mu.Unlock()
}

// IsExpired returns true if the entry has exceeded the given max age.
func (e *Entry) IsExpired(maxAge time.Duration) bool {
	return maxAge > 0 && time.Since(e.CreatedAt) > maxAge
}

// IsIdle returns true if the entry has been idle longer than the timeout.
func (e *Entry) IsIdle(timeout time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return timeout > 0 && time.Since(e.lastActiveAt) > timeout
}

// SessionFactory builds the form session behind a new entry.
type SessionFactory func(ctx context.Context) (*session.Session, error)

// Manager handles entry creation, lookup, and cleanup.
type Manager struct {
	factory     SessionFactory
	maxAge      time.Duration
	idleTimeout time.Duration

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewManager creates a manager with the given timeouts. A zero duration
// disables that limit.
func NewManager(factory SessionFactory, maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		factory:     factory,
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		entries:     make(map[string]*Entry),
	}
}

// Create builds a new form session and stores it under a fresh id.
func (m *Manager) Create(ctx context.Context) (*Entry, error) {
	form, err := m.factory(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	e := &Entry{
		ID:           uuid.NewString(),
		Form:         form,
		CreatedAt:    now,
		lastActiveAt: now,
	}
	m.mu.Lock()
	m.entries[e.ID] = e
	m.mu.Unlock()
	return e, nil
}

// Get retrieves an entry by id. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Entry {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if e.IsExpired(m.maxAge) || e.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	e.Touch()
	return e
}

// Remove deletes an entry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
}

// Len reports how many entries are stored.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cleanup removes all expired and idle entries and reports how many went.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.entries {
		if e.IsExpired(m.maxAge) || e.IsIdle(m.idleTimeout) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Janitor runs Cleanup every interval until ctx is done.
func (m *Manager) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
