// Package redis provides a Redis-backed storage.Store so several gateway
// replicas can share clients, interactions and authorization codes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is prepended to every key written by the store.
const DefaultKeyPrefix = "mcpgw:"

var _ storage.Store = (*Store)(nil)

// Config contains configuration options for the Redis store.
type Config struct {
	// Client is the Redis client instance.
	Client redis.UniversalClient

	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// Store implements storage.Store on top of Redis.
// Create maps to SET NX and Take maps to GETDEL, so both are atomic
// across replicas.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

// New creates a Redis store from an existing client.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Store{client: cfg.Client, keyPrefix: cfg.KeyPrefix}, nil
}

// NewFromURL dials Redis using a redis:// URL and verifies connectivity.
func NewFromURL(ctx context.Context, rawURL string) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(Config{Client: client})
}

func (s *Store) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.buildKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

func (s *Store) Create(ctx context.Context, namespace, key string, data []byte, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.buildKey(namespace, key), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx %s/%s: %w", namespace, key, err)
	}
	if !ok {
		return storage.ErrExists
	}
	return nil
}

func (s *Store) Take(ctx context.Context, namespace, key string) ([]byte, error) {
	data, err := s.client.GetDel(ctx, s.buildKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	if err := s.client.Del(ctx, s.buildKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) buildKey(namespace, key string) string {
	return s.keyPrefix + namespace + ":" + key
}
