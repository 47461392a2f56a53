package billing

import (
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

// Registry holds live sessions in memory. Carts are never persisted, so a
// process restart intentionally forgets in-progress bills.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry builds a registry whose sessions expire after ttl of
// inactivity.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put registers a session under its own ID.
func (r *Registry) Put(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

// Get returns the live session, refreshing its eviction clock. Expired
// sessions are removed and reported as not found.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing session not found")
	}
	now := r.now()
	if now.Sub(session.TouchedAt()) > r.ttl {
		delete(r.sessions, id)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing session expired")
	}
	session.Touch(now)
	return session, nil
}

// Delete drops a session.
func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep evicts every session idle past the TTL and returns how many were
// removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	evicted := 0
	for id, session := range r.sessions {
		if session.TouchedAt().Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
