package domain

import "time"

// ChannelSummary is the normalized projection of one provider channel record.
//
// It is immutable once produced by the aggregator; the caller owns it after
// return.
type ChannelSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CustomURL       string    `json:"custom_url,omitempty"`
	SubscriberCount int64     `json:"subscriber_count"`
	VideoCount      int64     `json:"video_count"`
	ViewCount       int64     `json:"view_count"`
	Email           string    `json:"email,omitempty"`
	Country         string    `json:"country,omitempty"`
	Keywords        []string  `json:"keywords,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
}

// SearchResultSet is one bounded page of aggregated search results.
// Channels are unique by ID, in first-seen order. Produced fresh per call and
// never persisted by the core.
type SearchResultSet struct {
	Channels             []ChannelSummary `json:"channels"`
	TotalResultsEstimate int64            `json:"total_results_estimate"`
	HasMore              bool             `json:"has_more"`
	QuotaConsumed        int              `json:"quota_consumed"`
}
