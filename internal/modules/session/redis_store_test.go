package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// setupRedisStore connects to the redis named by POCKET_TEST_REDIS_ADDR.
// It skips the test when the variable is not set.
func setupRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *redis.Client) {
	t.Helper()

	addr := os.Getenv("POCKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POCKET_TEST_REDIS_ADDR not set; skipping redis-backed tests")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return NewRedisStore(rdb, testPrompt, ttl), rdb
}

func TestRedisStoreContract(t *testing.T) {
	store, _ := setupRedisStore(t, time.Minute)
	exerciseStore(t, store, "test-"+uuid.NewString())
}

func TestRedisStoreSetsTTL(t *testing.T) {
	store, rdb := setupRedisStore(t, time.Minute)
	ctx := context.Background()
	id := "test-" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), RedisKey(id)) })

	if _, err := store.GetOrCreate(ctx, id); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	ttl, err := rdb.TTL(ctx, RedisKey(id)).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl within one minute, got %v", ttl)
	}
}
