package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

type sessionEntry struct {
	rec     ports.SessionRecord
	expires time.Time
}

// Sessions is an in-memory ports.SessionStore. Expired entries are dropped
// lazily on lookup.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]sessionEntry
	now  func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]sessionEntry), now: time.Now}
}

func (s *Sessions) Save(_ context.Context, id string, rec ports.SessionRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = sessionEntry{rec: rec, expires: s.now().Add(ttl)}
	return nil
}

func (s *Sessions) Find(_ context.Context, id string) (*ports.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.byID, id)
		return nil, nil
	}
	rec := e.rec
	return &rec, nil
}

func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}
