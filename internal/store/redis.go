package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV keeps slots as plain Redis strings under a key prefix, so every
// instance pointed at the same Redis shares one feed.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV returns a backend writing keys as prefix+key.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisKV) Name() string { return "redis" }
