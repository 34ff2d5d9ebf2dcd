package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pocket:session:"

// RedisStore keeps JSON-encoded sessions in redis so several API processes can
// share them. ttl of zero stores without expiry.
type RedisStore struct {
	redis        *redis.Client
	ttl          time.Duration
	systemPrompt string
}

func NewRedisStore(rdb *redis.Client, systemPrompt string, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: rdb, ttl: ttl, systemPrompt: systemPrompt}
}

// RedisKey is the redis key holding session id.
func RedisKey(id string) string { return keyPrefix + id }

func (r *RedisStore) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	s, err := r.load(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s = New(id, r.systemPrompt, time.Now())
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	created, err := r.redis.SetNX(ctx, RedisKey(id), data, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}
	if !created {
		// another process created it between our GET and SETNX
		return r.load(ctx, id)
	}
	return s, nil
}

func (r *RedisStore) load(ctx context.Context, id string) (*Session, error) {
	data, err := r.redis.Get(ctx, RedisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.redis.Set(ctx, RedisKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.redis.Del(ctx, RedisKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
