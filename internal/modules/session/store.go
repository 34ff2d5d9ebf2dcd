package session

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pocket/internal/config"
)

// Store persists sessions by id. Values handed out are copies; nothing a caller
// does to them is visible until Save.
type Store interface {
	// GetOrCreate returns the session for id, creating and storing a fresh one
	// seeded with the system prompt when none exists.
	GetOrCreate(ctx context.Context, id string) (*Session, error)
	// Save replaces the stored session.
	Save(ctx context.Context, s *Session) error
	// Delete removes the session. Deleting a missing id returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Backends holds the optional clients a backend may need.
type Backends struct {
	Redis *redis.Client
	DB    *pgxpool.Pool
}

// NewStore builds the backend named in cfg.
func NewStore(cfg config.SessionConfig, systemPrompt string, b Backends) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return NewMemoryStore(systemPrompt, cfg.TTL, cfg.CleanupInterval), nil
	case config.BackendLRU:
		return NewLRUStore(systemPrompt, cfg.Capacity)
	case config.BackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("redis session backend: no redis client")
		}
		return NewRedisStore(b.Redis, systemPrompt, cfg.TTL), nil
	case config.BackendPostgres:
		if b.DB == nil {
			return nil, fmt.Errorf("postgres session backend: no database pool")
		}
		return NewPostgresStore(b.DB, systemPrompt, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
