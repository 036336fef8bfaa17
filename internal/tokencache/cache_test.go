package tokencache

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/store/memory"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(memory.New(), logger.New("error", false), DefaultTTL)
}

func TestPutGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "fp-1", 2, "token-a")

	token, ok := c.Get(ctx, "fp-1", 2)
	if !ok || token != "token-a" {
		t.Errorf("expected token-a, got %q (ok=%v)", token, ok)
	}

	if _, ok := c.Get(ctx, "fp-1", 3); ok {
		t.Error("expected miss for unknown page")
	}
	if _, ok := c.Get(ctx, "fp-2", 2); ok {
		t.Error("expected miss for unknown fingerprint")
	}
}

func TestPutOverwrites(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "fp-1", 2, "old")
	c.Put(ctx, "fp-1", 2, "new")

	token, _ := c.Get(ctx, "fp-1", 2)
	if token != "new" {
		t.Errorf("expected overwrite, got %q", token)
	}
	if c.Len() != 1 {
		t.Errorf("expected a single live entry, got %d", c.Len())
	}
}

func TestExpiredEntriesAreNeverReturned(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put(ctx, "fp-old", 2, "stale")

	// A later put for a different key must not keep the old entry alive.
	c.now = func() time.Time { return base.Add(61 * time.Minute) }
	c.Put(ctx, "fp-new", 2, "fresh")

	if _, ok := c.Get(ctx, "fp-old", 2); ok {
		t.Error("expired entry was returned")
	}
	if token, ok := c.Get(ctx, "fp-new", 2); !ok || token != "fresh" {
		t.Errorf("fresh entry lost: %q (ok=%v)", token, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected housekeeping to drop the stale entry, got %d entries", c.Len())
	}
}

func TestSweep(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put(ctx, "fp-1", 2, "a")
	c.Put(ctx, "fp-2", 2, "b")

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	if removed := c.Sweep(ctx); removed != 2 {
		t.Errorf("expected 2 swept entries, got %d", removed)
	}
	if removed := c.Sweep(ctx); removed != 0 {
		t.Errorf("second sweep should be empty, got %d", removed)
	}
}

func TestLoadDropsExpired(t *testing.T) {
	kv := memory.New()
	log := logger.New("error", false)
	ctx := context.Background()

	c := New(kv, log, DefaultTTL)
	base := time.Now()
	c.now = func() time.Time { return base.Add(-50 * time.Minute) }
	c.Put(ctx, "fp-old", 2, "stale")
	c.now = func() time.Time { return base }
	c.Put(ctx, "fp-new", 3, "fresh")

	// By restart time the first entry has aged past the TTL.
	restored := New(kv, log, DefaultTTL)
	restored.now = func() time.Time { return base.Add(15 * time.Minute) }
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := restored.Get(ctx, "fp-old", 2); ok {
		t.Error("expired entry survived restart")
	}
	if token, ok := restored.Get(ctx, "fp-new", 3); !ok || token != "fresh" {
		t.Errorf("live entry lost on restart: %q (ok=%v)", token, ok)
	}
}
