package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the process-wide, thread-safe registry of session records
//. Concurrent sessions are independent; only the map itself
// needs a lock, never a single global lock over all sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Threads
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Threads)}
}

// GetOrCreate returns the session record for id, creating an empty one if
// absent. If id is empty, a fresh session id is assigned.
func (s *Store) GetOrCreate(id string) (string, *Threads) {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.RLock()
	if t, ok := s.sessions[id]; ok {
		s.mu.RUnlock()
		return id, t
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.sessions[id]; ok {
		return id, t
	}
	t := newThreads()
	s.sessions[id] = t
	return id, t
}

// Get returns the session record for id if it exists.
func (s *Store) Get(id string) (*Threads, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.sessions[id]
	return t, ok
}

// Delete removes a session record entirely.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
