// Package store provides the Redis-backed key-value store adapter.
//
// The store is the only shared mutable resource in the system. All
// multi-key effects go through pipelines; per-key effects are plain
// commands. A Store constructed without a Redis URL is "disabled":
// every caller is expected to treat that as reads-return-empty,
// writes-are-no-ops, because the redirect hot path must never fail on
// missing infrastructure.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store provides Redis access methods.
type Store struct {
	client *redis.Client
}

// New creates a Store connected to the given Redis URL.
// An empty URL returns a disabled Store rather than an error.
func New(ctx context.Context, redisURL string) (*Store, error) {
	if redisURL == "" {
		return &Store{}, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Enabled reports whether a backing Redis connection exists.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return fmt.Errorf("store disabled: no Redis configured")
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}

// Client returns the underlying Redis client, or nil when disabled.
// Use sparingly - prefer adding methods to Store.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Pipeline returns a non-transactional pipeline for batched commands.
// Callers must check Enabled first.
func (s *Store) Pipeline() redis.Pipeliner {
	return s.client.Pipeline()
}

// TxPipeline returns a MULTI/EXEC pipeline for atomic multi-key effects.
// Callers must check Enabled first.
func (s *Store) TxPipeline() redis.Pipeliner {
	return s.client.TxPipeline()
}
