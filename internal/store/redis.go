package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dbsmedya/polyseed/internal/config"
)

// KeyPrefix namespaces every key written by the seeding layer so pattern
// deletion can never touch foreign data.
const KeyPrefix = "polyseed:"

// RedisStore is the key-value cache client.
type RedisStore struct {
	cfg    config.RedisConfig
	guard  *Guard
	client *redis.Client
}

// NewRedisStore creates an unconnected Redis client.
func NewRedisStore(cfg config.RedisConfig, guard *Guard) *RedisStore {
	return &RedisStore{cfg: cfg, guard: guard}
}

// Name implements Connection.
func (s *RedisStore) Name() string { return Redis }

// Connect creates the client and verifies it with a ping.
func (s *RedisStore) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Addr,
		Password: s.cfg.Password,
		DB:       s.cfg.DB,
		PoolSize: s.cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}

	s.client = client
	return nil
}

// HealthCheck pings the server.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("redis: not connected")
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Disconnect closes the client.
func (s *RedisStore) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	if err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// Clean deletes every key under the polyseed prefix. Refused in production.
func (s *RedisStore) Clean(ctx context.Context) error {
	if err := s.guard.Check("redis clean"); err != nil {
		return err
	}
	if s.client == nil {
		return fmt.Errorf("redis: not connected")
	}
	_, err := s.DeletePattern(ctx, KeyPrefix+"*")
	return err
}

// DeletePattern removes all keys matching the given pattern using SCAN,
// deleting in chunks so a large keyspace never blocks the server. Returns
// the number of keys deleted.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	iter := s.client.Scan(ctx, 0, pattern, 500).Iterator()

	deleted := 0
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("delete keys: %w", err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 500 {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return deleted, flush()
}

// Client returns the native handle for seeders.
func (s *RedisStore) Client() *redis.Client { return s.client }
