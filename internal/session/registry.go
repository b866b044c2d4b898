// Package session owns the per-session negotiation state machine: the active
// session registry, the orchestrator that applies the scoring engines to each
// incoming message, and the idle-session sweeper.
package session

import (
	"sync"
	"time"

	"github.com/negotium-labs/negotium/internal/domain"
)

// Registry holds the active (not yet ended) sessions. It is an explicit
// capability injected into the orchestrator so tests can use the in-memory
// implementation and production can swap in a distributed one.
type Registry interface {
	// Get retrieves an active session by id.
	Get(sessionID string) (*domain.Session, bool)

	// Put stores or replaces an active session.
	Put(sess *domain.Session)

	// Remove drops a session from the active set.
	Remove(sessionID string)

	// Idle returns sessions whose last activity is before the cutoff.
	Idle(cutoff time.Time) []*domain.Session
}

// MemoryRegistry is the in-process Registry implementation.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]*domain.Session)}
}

// Get retrieves an active session by id.
func (r *MemoryRegistry) Get(sessionID string) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	return sess, ok
}

// Put stores or replaces an active session.
func (r *MemoryRegistry) Put(sess *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.SessionID] = sess
}

// Remove drops a session from the active set.
func (r *MemoryRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Idle returns sessions whose last activity is before the cutoff.
func (r *MemoryRegistry) Idle(cutoff time.Time) []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var idle []*domain.Session
	for _, sess := range r.sessions {
		if sess.LastActivity.Before(cutoff) {
			idle = append(idle, sess)
		}
	}
	return idle
}
