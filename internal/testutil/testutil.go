// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// NewTestStore connects to the Redis instance named by TEST_REDIS_URL,
// skipping the test when it is unset. The store is closed via t.Cleanup.
func NewTestStore(t testing.TB) *store.Store {
	t.Helper()

	redisURL := RequireEnv(t, "TEST_REDIS_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := store.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect to test redis: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// NewDisabledStore returns a store in degraded mode with no backing
// Redis, for exercising the no-infrastructure paths.
func NewDisabledStore(t testing.TB) *store.Store {
	t.Helper()

	st, err := store.New(context.Background(), "")
	if err != nil {
		t.Fatalf("create disabled store: %v", err)
	}
	return st
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// NewTestLink creates a test link with sensible defaults.
func NewTestLink(t testing.TB, slug string) *model.Link {
	t.Helper()
	now := time.Now()
	return &model.Link{
		ID:        fmt.Sprintf("link-%d", now.UnixNano()),
		Slug:      slug,
		OwnerID:   "test-user",
		ProductID: "B01N5IB20Q",
		CreatedAt: now.UnixMilli(),
		Active:    true,
	}
}

// UniqueSlug generates a unique slug for tests.
func UniqueSlug(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
