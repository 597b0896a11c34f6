package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tony0935929660/match-platform-web-sub000/core"
)

// RedisConfig contains configuration options for the Redis storage
type RedisConfig struct {
	// Client is the Redis client instance
	Client *redis.Client

	// KeyPrefix is the prefix for all Redis keys
	// Default: "match:storage:"
	KeyPrefix string
}

// RedisStorage keeps the durable session slots in Redis.
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
	namespace string
	timeout   time.Duration
}

var _ core.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis-based storage instance.
func NewRedisStorage(config RedisConfig, opts ...Option) (*RedisStorage, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = "match:storage:"
	}

	o := newOptions(opts)
	return &RedisStorage{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
		namespace: o.namespace,
		timeout:   o.timeout,
	}, nil
}

func (s *RedisStorage) buildKey(key string) string {
	return fmt.Sprintf("%s%s:%s", s.keyPrefix, s.namespace, key)
}

func (s *RedisStorage) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.buildKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, true, nil
}

func (s *RedisStorage) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.buildKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
