// Package provider defines the external search-provider contracts the
// aggregator consumes, and their quota prices.
package provider

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/scout/internal/domain"
)

// Quota prices, in units, as charged by the provider.
const (
	SearchPageCost  = 100 // per search call, regardless of result count
	DetailCostPerID = 1   // per channel id on a details call
)

// SearchItem is one hit on a search page; only the channel id is carried,
// everything else comes from the details call.
type SearchItem struct {
	ChannelID string
}

// Page is one provider search page.
type Page struct {
	Items                []SearchItem
	NextPageToken        string // empty when this was the last page
	TotalResultsEstimate int64
}

// Detail is the full channel record behind one search hit.
type Detail struct {
	ID              string
	Title           string
	CustomURL       string
	Description     string
	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
	Country         string
	DefaultLanguage string
	BrandingEmail   string
	Keywords        []string
	PublishedAt     time.Time
	ThumbnailURL    string
}

// ChannelSearcher fetches one page of channel search results.
// Costs SearchPageCost units per call.
type ChannelSearcher interface {
	SearchPage(ctx context.Context, secret string, filters domain.SearchFilters, pageToken string) (*Page, error)
}

// ChannelDetailer resolves channel ids to full records.
// Costs DetailCostPerID units per id.
type ChannelDetailer interface {
	GetDetails(ctx context.Context, secret string, ids []string) ([]Detail, error)
}

// ExclusionList answers whether a channel has been excluded from results.
type ExclusionList interface {
	IsExcluded(ctx context.Context, channelID string) (bool, error)
}
