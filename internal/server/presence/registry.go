// Package presence tracks which users currently hold a live connection.
//
// The registry maps a user id to at most one connection handle. A newer
// connection for the same user replaces the older one; removal is keyed on
// the handle so a stale connection closing late never evicts its successor.
package presence

import (
	"sort"
	"sync"
)

// Handle is a live, push-capable connection owned by one user.
type Handle interface {
	UserID() string
	// Send queues a frame for the client. It must not block on a slow peer.
	Send(frame []byte) error
	Close() error
}

// Registry is safe for concurrent use by any number of connection goroutines.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Handle)}
}

// Register binds h to userID and returns the handle it superseded, if any.
// The caller owns the returned handle and is expected to close it.
func (r *Registry) Register(userID string, h Handle) (replaced Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.conns[userID]; ok && old != h {
		replaced = old
	}
	r.conns[userID] = h
	return replaced
}

// Deregister removes h only if it is still the registered handle for userID.
// It reports whether anything was removed.
func (r *Registry) Deregister(userID string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[userID]; ok && cur == h {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Lookup returns the handle for userID; ok is false when the user is offline.
func (r *Registry) Lookup(userID string) (h Handle, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok = r.conns[userID]
	return h, ok
}

// SnapshotIDs returns a sorted copy of the online user ids.
func (r *Registry) SnapshotIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Handles returns a copy of all registered handles.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Handle, 0, len(r.conns))
	for _, h := range r.conns {
		out = append(out, h)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
