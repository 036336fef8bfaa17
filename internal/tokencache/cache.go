// Package tokencache keeps short-lived provider continuation tokens so a
// caller can resume page N of a search without re-spending the quota that
// produced pages 1..N-1.
package tokencache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/store"
)

// DefaultTTL bounds how long a continuation token is trusted. Provider
// cursors go stale well within the hour.
const DefaultTTL = time.Hour

// Entry is one stored continuation token. At most one live entry exists per
// (fingerprint, page).
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Page        int       `json:"page"`
	Token       string    `json:"token"`
	CreatedAt   time.Time `json:"created_at"`
}

type entryKey struct {
	fingerprint string
	page        int
}

// Cache is the in-process token store with write-through persistence.
// Expired entries are removed before every read and write, which bounds
// growth without a mandatory background task.
type Cache struct {
	mu      sync.Mutex
	entries map[entryKey]Entry
	kv      store.KeyValueStore
	logger  logger.Logger
	ttl     time.Duration
	now     func() time.Time // injectable for tests
}

// New creates a Cache persisting through kv.
func New(kv store.KeyValueStore, log logger.Logger, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[entryKey]Entry),
		kv:      kv,
		logger:  log,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load restores persisted entries. Call once at startup; already-expired
// entries are dropped on the way in.
func (c *Cache) Load(ctx context.Context) error {
	data, err := c.kv.Get(ctx, store.NamespacePageTokens)
	if err != nil {
		return fmt.Errorf("failed to load page tokens: %w", err)
	}
	if data == nil {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode page tokens: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.ttl)
	for _, e := range entries {
		if e.CreatedAt.After(cutoff) {
			c.entries[entryKey{e.Fingerprint, e.Page}] = e
		}
	}
	return nil
}

// Get returns the live token for (fingerprint, page), or "" when absent or
// expired.
func (c *Cache) Get(ctx context.Context, fingerprint string, page int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked(ctx)

	e, ok := c.entries[entryKey{fingerprint, page}]
	if !ok {
		return "", false
	}
	return e.Token, true
}

// Put upserts the token for (fingerprint, page), overwriting any prior entry.
func (c *Cache) Put(ctx context.Context, fingerprint string, page int, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked(ctx)

	c.entries[entryKey{fingerprint, page}] = Entry{
		Fingerprint: fingerprint,
		Page:        page,
		Token:       token,
		CreatedAt:   c.now(),
	}
	c.persistLocked(ctx)
}

// Sweep removes expired entries and reports how many were dropped. The
// periodic sweeper calls this so the store does not carry stale blobs between
// requests.
func (c *Cache) Sweep(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.sweepLocked(ctx)
	if removed > 0 {
		c.persistLocked(ctx)
	}
	return removed
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepLocked drops entries older than the TTL. Caller holds mu.
func (c *Cache) sweepLocked(_ context.Context) int {
	cutoff := c.now().Add(-c.ttl)
	removed := 0
	for k, e := range c.entries {
		if !e.CreatedAt.After(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// persistLocked saves the entry set, best effort. A failed write costs at
// worst one re-fetched page. Caller holds mu.
func (c *Cache) persistLocked(ctx context.Context) {
	entries := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("failed to encode page tokens", logger.Error(err))
		return
	}
	if err := c.kv.Put(ctx, store.NamespacePageTokens, data); err != nil {
		c.logger.Warn("failed to persist page tokens", logger.Error(err))
	}
}
