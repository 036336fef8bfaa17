// Package keypool owns the provider credential set: selection, quota
// accounting and the daily Pacific-Time budget rollover.
package keypool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/scout/internal/domain"
	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/store"
)

// pacificTZ is the provider's quota reset boundary: midnight Pacific Time.
const pacificTZ = "America/Los_Angeles"

var ErrNotFound = errors.New("credential not found")

// Manager holds the credentials in registration order plus an id lookup.
// One mutex serializes every read-modify-write so two concurrent searches can
// never jointly overspend a credential before seeing each other's update.
type Manager struct {
	mu     sync.Mutex
	creds  []*Credential // registration order
	byID   map[string]*Credential
	kv     store.KeyValueStore
	logger logger.Logger
	loc    *time.Location
	now    func() time.Time // injectable for tests
}

// New creates a Manager persisting through kv.
func New(kv store.KeyValueStore, log logger.Logger) *Manager {
	loc, err := time.LoadLocation(pacificTZ)
	if err != nil {
		// Embedded zoneinfo always carries America/Los_Angeles; a fixed
		// offset keeps rollover roughly right if the host tzdata is broken.
		log.Warn("pacific timezone unavailable, falling back to UTC-8",
			logger.Error(err))
		loc = time.FixedZone("PST", -8*60*60)
	}

	return &Manager{
		byID:   make(map[string]*Credential),
		kv:     kv,
		logger: log,
		loc:    loc,
		now:    time.Now,
	}
}

// Load restores the persisted credential set. Call once at startup.
func (m *Manager) Load(ctx context.Context) error {
	data, err := m.kv.Get(ctx, store.NamespaceKeyPool)
	if err != nil {
		return fmt.Errorf("failed to load key pool: %w", err)
	}
	if data == nil {
		return nil
	}

	var creds []*Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("failed to decode key pool: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.byID = make(map[string]*Credential, len(creds))
	for _, c := range creds {
		m.byID[c.ID] = c
	}
	return nil
}

// Register adds a credential to the pool. Already-registered ids keep their
// ledger; only the secret is refreshed.
func (m *Manager) Register(ctx context.Context, id, secret string) error {
	if id == "" || secret == "" {
		return errors.New("credential id and secret are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byID[id]; ok {
		existing.Secret = secret
		return m.persistLocked(ctx)
	}

	c := &Credential{
		ID:              id,
		Secret:          secret,
		QuotaLimit:      DefaultQuotaLimit,
		SafetyThreshold: DefaultSafetyThreshold,
		Active:          true,
		CreatedAt:       m.now(),
	}
	m.creds = append(m.creds, c)
	m.byID[id] = c

	m.logger.Info("credential registered",
		logger.String("credential_id", id),
		logger.Int("pool_size", len(m.creds)))

	return m.persistLocked(ctx)
}

// Remove deletes a credential from the pool.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	for i, c := range m.creds {
		if c.ID == id {
			m.creds = append(m.creds[:i], m.creds[i+1:]...)
			break
		}
	}

	m.logger.Info("credential removed",
		logger.String("credential_id", id))

	return m.persistLocked(ctx)
}

// List returns redacted copies of every credential, in registration order.
func (m *Manager) List() []Credential {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Credential, 0, len(m.creds))
	for _, c := range m.creds {
		out = append(out, c.Redacted())
	}
	return out
}

// SelectActiveKey returns a copy of the first usable credential in
// registration order. When none is usable it applies the lazy calendar reset
// once and rescans; if the pool is still dry it fails with ErrQuotaExhausted.
func (m *Manager) SelectActiveKey(ctx context.Context) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.firstUsableLocked(); c != nil {
		return *c, nil
	}

	if m.resetLocked() > 0 {
		if err := m.persistLocked(ctx); err != nil {
			m.logger.Warn("failed to persist key pool after reset",
				logger.Error(err))
		}
		if c := m.firstUsableLocked(); c != nil {
			return *c, nil
		}
	}

	return Credential{}, domain.ErrQuotaExhausted
}

// RecordUsage adds units to a credential's ledger and stamps LastUsedAt.
// Crossing the safety threshold deactivates the credential. This is the only
// usage-mutating entry point; units must be non-negative.
func (m *Manager) RecordUsage(ctx context.Context, id string, units int) error {
	if units < 0 {
		return fmt.Errorf("usage units must be non-negative, got %d", units)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}

	c.QuotaUsed += units
	c.LastUsedAt = m.now()

	if c.QuotaUsed >= c.SafetyThreshold && c.Active {
		c.Active = false
		m.logger.Warn("credential reached safety threshold, deactivated",
			logger.String("credential_id", id),
			logger.Int("quota_used", c.QuotaUsed),
			logger.Int("safety_threshold", c.SafetyThreshold))
	}

	return m.persistLocked(ctx)
}

// ResetDaily applies the calendar rollover to every credential whose last use
// falls on an earlier Pacific date. Idempotent: a second call the same day is
// a no-op.
func (m *Manager) ResetDaily(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resetLocked() == 0 {
		return nil
	}
	return m.persistLocked(ctx)
}

// firstUsableLocked scans in registration order. Caller holds mu.
func (m *Manager) firstUsableLocked() *Credential {
	for _, c := range m.creds {
		if c.Usable() {
			return c
		}
	}
	return nil
}

// resetLocked zeroes the ledger of every credential last used on an earlier
// Pacific calendar date, returning how many were reset. Caller holds mu.
func (m *Manager) resetLocked() int {
	today := m.pacificDay(m.now())
	reset := 0
	for _, c := range m.creds {
		if m.pacificDay(c.LastUsedAt) >= today {
			continue
		}
		if c.QuotaUsed == 0 && c.Active {
			continue // nothing to roll over
		}
		c.QuotaUsed = 0
		c.Active = true
		reset++
		m.logger.Info("credential quota reset for new pacific day",
			logger.String("credential_id", c.ID))
	}
	return reset
}

// pacificDay collapses a timestamp to its Pacific calendar date.
func (m *Manager) pacificDay(t time.Time) string {
	return t.In(m.loc).Format("2006-01-02")
}

// persistLocked saves the pool through the key-value store. Caller holds mu.
func (m *Manager) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(m.creds)
	if err != nil {
		return fmt.Errorf("failed to encode key pool: %w", err)
	}
	if err := m.kv.Put(ctx, store.NamespaceKeyPool, data); err != nil {
		return fmt.Errorf("failed to persist key pool: %w", err)
	}
	return nil
}
