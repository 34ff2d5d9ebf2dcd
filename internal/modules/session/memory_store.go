package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process with an idle TTL. Each Save restarts
// the session's expiry.
type MemoryStore struct {
	mu           sync.Mutex
	cache        *cache.Cache
	systemPrompt string
}

// NewMemoryStore returns a store whose entries expire ttl after their last save.
// A ttl of zero keeps sessions forever.
func NewMemoryStore(systemPrompt string, ttl, cleanupInterval time.Duration) *MemoryStore {
	exp := ttl
	if exp <= 0 {
		exp = cache.NoExpiration
	}
	return &MemoryStore{
		cache:        cache.New(exp, cleanupInterval),
		systemPrompt: systemPrompt,
	}
}

func (m *MemoryStore) GetOrCreate(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.cache.Get(id); ok {
		return v.(*Session).Clone(), nil
	}
	s := New(id, m.systemPrompt, time.Now())
	m.cache.SetDefault(id, s.Clone())
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.SetDefault(s.ID, s.Clone())
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache.Get(id); !ok {
		return ErrNotFound
	}
	m.cache.Delete(id)
	return nil
}

// Len reports the number of stored sessions. Expired entries count until the
// janitor collects them.
func (m *MemoryStore) Len() int { return m.cache.ItemCount() }
