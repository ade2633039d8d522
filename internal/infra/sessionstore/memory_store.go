package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
)

type entry struct {
	state     survey.SessionState
	expiresAt time.Time
}

// MemoryStore keeps session state in process memory for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs a store; ttl <= 0 keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements survey.SessionStore.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (survey.SessionState, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return survey.SessionState{}, false, nil
	}
	if !e.expiresAt.IsZero() && e.expiresAt.Before(s.now()) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return survey.SessionState{}, false, nil
	}
	return e.state, true, nil
}

// Save replaces the session state and refreshes its expiry.
func (s *MemoryStore) Save(_ context.Context, sessionID string, state survey.SessionState) error {
	exp := time.Time{}
	if s.ttl > 0 {
		exp = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[sessionID] = entry{state: state, expiresAt: exp}
	s.mu.Unlock()
	return nil
}

var _ survey.SessionStore = (*MemoryStore)(nil)
