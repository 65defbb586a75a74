package progress

import (
	"context"
	"sync"

	"github.com/datproject/dat/internal/metrics"
)

// Registry tracks the sessions being polled, keyed by resource. Removing a
// session cancels its poll loop.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

type registryEntry struct {
	session *Session
	cancel  context.CancelFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]registryEntry),
	}
}

// Add registers s with the func that cancels its poll loop. A session
// already registered under the same resource is cancelled and replaced.
func (r *Registry) Add(s *Session, cancel context.CancelFunc) {
	r.mu.Lock()
	prev, ok := r.entries[s.ID()]
	r.entries[s.ID()] = registryEntry{session: s, cancel: cancel}
	n := len(r.entries)
	r.mu.Unlock()

	if ok && prev.session != s {
		prev.cancel()
	}
	metrics.SetActiveSessions(n)
}

// Get returns the session for a resource, or (nil, false).
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.session, ok
}

// Remove cancels and forgets s. Removing a session that is not registered,
// or that was replaced, is a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	e, ok := r.entries[s.ID()]
	if ok && e.session == s {
		delete(r.entries, s.ID())
	}
	n := len(r.entries)
	r.mu.Unlock()

	if ok && e.session == s {
		e.cancel()
	}
	metrics.SetActiveSessions(n)
}

// CancelAll cancels every registered session and empties the registry.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}
	metrics.SetActiveSessions(0)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
