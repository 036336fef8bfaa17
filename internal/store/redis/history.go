package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/scout/internal/domain"
)

// maxHistoryEntries caps the search-history log.
const maxHistoryEntries = 500

// HistoryEntry records one executed search.
type HistoryEntry struct {
	Filters       domain.SearchFilters `json:"filters"`
	Page          int                  `json:"page"`
	ResultCount   int                  `json:"result_count"`
	QuotaConsumed int                  `json:"quota_consumed"`
	ExecutedAt    time.Time            `json:"executed_at"`
}

// AppendHistory prepends a history entry and trims the log to its cap.
func (s *Store) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if err := s.client.LPush(ctx, KeyHistory, data).Err(); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	if err := s.client.LTrim(ctx, KeyHistory, 0, maxHistoryEntries-1).Err(); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return nil
}

// RecentHistory returns the n most recent entries, newest first.
func (s *Store) RecentHistory(ctx context.Context, n int) ([]HistoryEntry, error) {
	if n <= 0 || n > maxHistoryEntries {
		n = maxHistoryEntries
	}

	raw, err := s.client.LRange(ctx, KeyHistory, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// Skip entries that couldn't be decoded
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
