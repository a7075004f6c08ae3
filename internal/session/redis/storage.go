package redis

import (
	"context"
	"fmt"

	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/go-redis/redis/v8"
)

// Storage keeps the session in Redis under a shared key prefix, so several
// console installs can point at one server.
type Storage struct {
	client *redis.Client
	prefix string
}

func NewStorage(client *redis.Client, prefix string) *Storage {
	return &Storage{client: client, prefix: prefix}
}

// Open parses redisURL, checks the connection and returns a ready Storage.
func Open(ctx context.Context, redisURL, prefix string) (*Storage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewStorage(client, prefix), nil
}

var _ session.Storage = (*Storage)(nil)

func (s *Storage) Key(key string) string {
	return s.prefix + key
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.Key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	return value, true, nil
}

// Set stores value without expiry. The backend decides when tokens die.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.Key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete session keys from Redis: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}
