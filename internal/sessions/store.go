// Package sessions holds finished extraction results in memory so export
// endpoints can serve them. Nothing survives a process restart.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShipCreekGroup/email-parser/internal/emails"
)

// maxEntries bounds memory use; oldest results are evicted first. Exports
// happen right after a parse finishes, so a small window is plenty.
const maxEntries = 32

// Result is one terminal extraction result.
type Result struct {
	ID        string
	Emails    emails.Collection
	CreatedAt time.Time
}

// Store is an in-memory, process-local result store.
type Store struct {
	mu      sync.Mutex
	results map[string]Result
	order   []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		results: make(map[string]Result),
	}
}

// Put registers a terminal collection and returns its session ID.
func (s *Store) Put(c emails.Collection) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.results[id] = Result{
		ID:        id,
		Emails:    c.Clone(),
		CreatedAt: time.Now(),
	}
	s.order = append(s.order, id)

	for len(s.order) > maxEntries {
		delete(s.results, s.order[0])
		s.order = s.order[1:]
	}
	return id
}

// Get returns the result for a session ID.
func (s *Store) Get(id string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	return r, ok
}

// Len returns the number of stored results.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
