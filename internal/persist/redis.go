package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis backend settings.
type RedisConfig struct {
	URL       string `json:"url"`
	KeyPrefix string `json:"key_prefix"`
}

// RedisBackend stores snapshots as Redis string values.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "breadbox:"
	}

	return &RedisBackend{client: client, prefix: prefix}, nil
}

// NewRedisFromJSON creates a RedisBackend from raw JSON config.
func NewRedisFromJSON(ctx context.Context, raw json.RawMessage) (*RedisBackend, error) {
	var cfg RedisConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse redis config: %w", err)
	}
	return NewRedis(ctx, cfg)
}

// Load retrieves a snapshot value.
func (b *RedisBackend) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

// Store writes a snapshot value. Snapshots never expire.
func (b *RedisBackend) Store(ctx context.Context, key string, data []byte) error {
	if err := b.client.Set(ctx, b.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Delete removes a snapshot value.
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys of all stored snapshots.
func (b *RedisBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, b.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), b.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Type returns "redis".
func (b *RedisBackend) Type() string { return "redis" }

// Close closes the Redis client.
func (b *RedisBackend) Close() error { return b.client.Close() }
