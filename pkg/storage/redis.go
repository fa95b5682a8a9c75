package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces fitdex keys inside a shared Redis database.
const DefaultRedisPrefix = "fitdex:"

// RedisStore implements Store on plain Redis string keys.
type RedisStore struct {
	client    redis.Cmdable
	prefix    string
	closeFunc func() error
}

var (
	_ Store     = (*RedisStore)(nil)
	_ KeyLister = (*RedisStore)(nil)
)

// NewRedisStore wraps an existing client. The caller owns the client
// lifecycle; Close is a no-op.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreFromConfig dials a new client from cfg. Close closes it.
func NewRedisStoreFromConfig(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	s := NewRedisStore(client, cfg.Prefix)
	s.closeFunc = client.Close
	return s, nil
}

// key returns the namespaced Redis key: {prefix}{key}
func (s *RedisStore) key(key string) string { return s.prefix + key }

// Get retrieves the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}

// Keys lists keys under the store prefix, with the prefix stripped.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// HealthCheck pings Redis.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client when the store dialed it.
func (s *RedisStore) Close() error {
	if s.closeFunc != nil {
		return s.closeFunc()
	}
	return nil
}
