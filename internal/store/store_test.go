package store

import (
	"context"
	"testing"
)

func TestNew_EmptyURLRunsDegraded(t *testing.T) {
	t.Parallel()

	st, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("New(\"\"): %v", err)
	}

	if st.Enabled() {
		t.Error("store with no URL must be disabled")
	}
	if st.Client() != nil {
		t.Error("disabled store must expose a nil client")
	}
	if err := st.Close(); err != nil {
		t.Errorf("Close on disabled store: %v", err)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), "://not-a-url"); err == nil {
		t.Error("New should reject an unparseable URL")
	}
}

func TestCheckIPRateLimit_DisabledAlwaysAllows(t *testing.T) {
	t.Parallel()

	st, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := st.CheckIPRateLimit(context.Background(), "203.0.113.1", 10, 5)
	if err != nil {
		t.Fatalf("CheckIPRateLimit: %v", err)
	}
	if !result.Allowed {
		t.Error("disabled store must fail open")
	}
}

func TestHashIP(t *testing.T) {
	t.Parallel()

	a := hashIP("203.0.113.1")
	b := hashIP("203.0.113.1")
	c := hashIP("203.0.113.2")

	if a != b {
		t.Error("hashIP must be deterministic")
	}
	if a == c {
		t.Error("distinct IPs should hash differently")
	}
	if len(a) != 16 {
		t.Errorf("len(hash) = %d, want 16 hex chars", len(a))
	}
	if a == "203.0.113.1" {
		t.Error("raw IP must not appear in the key")
	}
}
