package redis

import (
	"context"
	"fmt"
)

// IsExcluded reports whether a channel id is on the exclusion list.
func (s *Store) IsExcluded(ctx context.Context, channelID string) (bool, error) {
	excluded, err := s.client.SIsMember(ctx, KeyExcluded, channelID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check exclusion: %w", err)
	}
	return excluded, nil
}

// Exclude adds a channel id to the exclusion list.
func (s *Store) Exclude(ctx context.Context, channelID string) error {
	if err := s.client.SAdd(ctx, KeyExcluded, channelID).Err(); err != nil {
		return fmt.Errorf("failed to exclude channel: %w", err)
	}
	return nil
}

// Unexclude removes a channel id from the exclusion list.
func (s *Store) Unexclude(ctx context.Context, channelID string) error {
	if err := s.client.SRem(ctx, KeyExcluded, channelID).Err(); err != nil {
		return fmt.Errorf("failed to unexclude channel: %w", err)
	}
	return nil
}

// ListExcluded returns every excluded channel id.
func (s *Store) ListExcluded(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, KeyExcluded).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusions: %w", err)
	}
	return ids, nil
}
