package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore bounds memory by session count, evicting the least recently used.
type LRUStore struct {
	mu           sync.Mutex
	cache        *lru.Cache[string, *Session]
	systemPrompt string
}

func NewLRUStore(systemPrompt string, capacity int) (*LRUStore, error) {
	c, err := lru.New[string, *Session](capacity)
	if err != nil {
		return nil, fmt.Errorf("lru session store: %w", err)
	}
	return &LRUStore{cache: c, systemPrompt: systemPrompt}, nil
}

func (l *LRUStore) GetOrCreate(_ context.Context, id string) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.cache.Get(id); ok {
		return s.Clone(), nil
	}
	s := New(id, l.systemPrompt, time.Now())
	l.cache.Add(id, s.Clone())
	return s, nil
}

func (l *LRUStore) Save(_ context.Context, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Add(s.ID, s.Clone())
	return nil
}

func (l *LRUStore) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cache.Remove(id) {
		return ErrNotFound
	}
	return nil
}

func (l *LRUStore) Len() int { return l.cache.Len() }
