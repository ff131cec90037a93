package presence

import (
	"context"
	"sync"
	"time"
)

type identity struct {
	sessionID string
	path      string
}

// MemoryStore is the in-process fallback used when no Redis address is
// configured. Each record carries an expires-at deadline evaluated at every
// read, so expiry semantics match a native TTL store. Counts live in this
// one process only; running multiple instances against MemoryStore
// undercounts by design.
type MemoryStore struct {
	mu        sync.Mutex
	deadlines map[identity]time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deadlines: make(map[identity]time.Time),
		now:       time.Now,
	}
}

func (s *MemoryStore) Upsert(_ context.Context, sessionID, path string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[identity{sessionID, path}] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, identity{sessionID, path})
	return nil
}

func (s *MemoryStore) CountAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.deadlines), nil
}

func (s *MemoryStore) CountByPath(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	byPath := make(map[string]int)
	for id := range s.deadlines {
		byPath[id.path]++
	}
	return byPath, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// pruneLocked drops expired records. Caller must hold s.mu.
func (s *MemoryStore) pruneLocked() {
	now := s.now()
	for id, deadline := range s.deadlines {
		if !deadline.After(now) {
			delete(s.deadlines, id)
		}
	}
}
