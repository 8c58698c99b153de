package funnel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"beacon/pkg/metrics"
)

// RedisStore backs funnel state with Redis so first-visit markers survive
// process restarts and are shared across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, visitorID, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, storeKey(visitorID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		metrics.IncFunnelStoreError("get")
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, visitorID, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, storeKey(visitorID, key), value, ttl).Err(); err != nil {
		metrics.IncFunnelStoreError("set")
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, visitorID, key string) error {
	if err := s.client.Del(ctx, storeKey(visitorID, key)).Err(); err != nil {
		metrics.IncFunnelStoreError("delete")
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
