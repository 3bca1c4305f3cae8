package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxSessions = 10000
	DefaultIdleTTL     = 30 * time.Minute
)

// Registry maps user ids to their sessions. It holds at most maxSessions
// entries; the least recently used one is dropped first and entries idle for
// longer than the TTL expire.
type Registry struct {
	// mu makes get-or-create atomic; the LRU only guards single operations.
	mu       sync.Mutex
	min      int
	sessions *expirable.LRU[string, *Session]
}

func NewRegistry(minIngredients, maxSessions int, idleTTL time.Duration) *Registry {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		min:      minIngredients,
		sessions: expirable.NewLRU[string, *Session](maxSessions, nil, idleTTL),
	}
}

// Get returns the session for userID, creating it on first use.
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions.Get(userID)
	if !ok {
		s = New(userID, r.min)
	}
	// Re-adding restarts the idle clock.
	r.sessions.Add(userID, s)
	return s
}

// Lookup returns userID's session without creating one.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions.Get(userID)
	if ok {
		r.sessions.Add(userID, s)
	}
	return s, ok
}

// Snapshot reports userID's state, or a fresh editing state when no session
// exists. It never creates one.
func (r *Registry) Snapshot(userID string) Snapshot {
	if s, ok := r.Lookup(userID); ok {
		return s.Snapshot()
	}
	return New(userID, r.min).Snapshot()
}

// Remove forgets userID's session.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Remove(userID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions.Len()
}
