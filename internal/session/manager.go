package session

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/casegraph/internal/metrics"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

var (
	// ErrNotFound is returned for session ids that are not open.
	ErrNotFound = errors.New("session not found")
	// ErrTooMany is returned by Create when the session limit is reached.
	ErrTooMany = errors.New("too many open sessions")
)

// Manager owns the open sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	engine   *visible.Engine
	opts     Options
	max      int
}

// NewManager creates a Manager whose sessions share engine.
func NewManager(engine *visible.Engine, opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		engine:   engine,
		opts:     opts,
	}
}

// SetOptions changes the options used by sessions created afterwards.
func (m *Manager) SetOptions(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = opts
}

// SetMaxSessions bounds how many sessions may be open; zero is unbounded.
func (m *Manager) SetMaxSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.max = n
}

// Engine returns the engine shared by all sessions.
func (m *Manager) Engine() *visible.Engine { return m.engine }

// Create opens an empty session for caseID.
func (m *Manager) Create(caseID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return nil, errors.WithHintf(ErrTooMany, "close a session first; the limit is %d", m.max)
	}
	s := New(uuid.New().String(), caseID, m.engine, m.opts)
	m.sessions[s.ID()] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return s, nil
}

// Get returns the open session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	return s, nil
}

// Delete resets and forgets a session. In-flight loads for it become stale.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrNotFound, "%q", id)
	}
	s.Reset()
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
