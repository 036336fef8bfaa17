// Package youtube implements the provider contracts against the YouTube Data
// API v3 (search.list and channels.list).
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/scout/internal/domain"
	"github.com/MrSnakeDoc/scout/internal/provider"
	"github.com/MrSnakeDoc/scout/internal/utils"
)

// DefaultBaseURL is the public Data API endpoint; overridable for tests.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

const maxIDsPerDetailsCall = 50 // API limit for the id parameter

// Client calls the YouTube Data API over plain HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client. An empty baseURL selects the public endpoint.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// searchResponse is the wire shape of search.list.
type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int64 `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		ID struct {
			ChannelID string `json:"channelId"`
		} `json:"id"`
	} `json:"items"`
}

// channelsResponse is the wire shape of channels.list.
type channelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title           string `json:"title"`
			Description     string `json:"description"`
			CustomURL       string `json:"customUrl"`
			PublishedAt     string `json:"publishedAt"`
			Country         string `json:"country"`
			DefaultLanguage string `json:"defaultLanguage"`
			Thumbnails      struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
			ViewCount       string `json:"viewCount"`
		} `json:"statistics"`
		BrandingSettings struct {
			Channel struct {
				Keywords        string `json:"keywords"`
				Country         string `json:"country"`
				DefaultLanguage string `json:"defaultLanguage"`
				Email           string `json:"email"`
			} `json:"channel"`
		} `json:"brandingSettings"`
	} `json:"items"`
}

// apiError is the Data API error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// SearchPage fetches one page of channel search results.
func (c *Client) SearchPage(ctx context.Context, secret string, filters domain.SearchFilters, pageToken string) (*provider.Page, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("maxResults", "50")
	q.Set("q", filters.Query)
	q.Set("key", secret)
	if filters.Country != "" {
		q.Set("regionCode", filters.Country)
	}
	if filters.LanguageFiltered() {
		q.Set("relevanceLanguage", filters.Language)
	}
	if filters.Category != "" {
		q.Set("topicId", filters.Category)
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp searchResponse
	if err := c.get(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}

	page := &provider.Page{
		NextPageToken:        resp.NextPageToken,
		TotalResultsEstimate: resp.PageInfo.TotalResults,
		Items:                make([]provider.SearchItem, 0, len(resp.Items)),
	}
	for _, item := range resp.Items {
		if item.ID.ChannelID == "" {
			continue
		}
		page.Items = append(page.Items, provider.SearchItem{ChannelID: item.ID.ChannelID})
	}
	return page, nil
}

// GetDetails resolves channel ids to full records, batching per the API's
// 50-id limit.
func (c *Client) GetDetails(ctx context.Context, secret string, ids []string) ([]provider.Detail, error) {
	details := make([]provider.Detail, 0, len(ids))

	for start := 0; start < len(ids); start += maxIDsPerDetailsCall {
		end := start + maxIDsPerDetailsCall
		if end > len(ids) {
			end = len(ids)
		}

		q := url.Values{}
		q.Set("part", "snippet,statistics,brandingSettings")
		q.Set("id", strings.Join(ids[start:end], ","))
		q.Set("key", secret)

		var resp channelsResponse
		if err := c.get(ctx, "/channels", q, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			d := provider.Detail{
				ID:              item.ID,
				Title:           item.Snippet.Title,
				CustomURL:       item.Snippet.CustomURL,
				Description:     item.Snippet.Description,
				Country:         item.Snippet.Country,
				DefaultLanguage: item.Snippet.DefaultLanguage,
				BrandingEmail:   item.BrandingSettings.Channel.Email,
				ThumbnailURL:    item.Snippet.Thumbnails.Default.URL,
				SubscriberCount: parseCount(item.Statistics.SubscriberCount),
				VideoCount:      parseCount(item.Statistics.VideoCount),
				ViewCount:       parseCount(item.Statistics.ViewCount),
			}
			if d.Country == "" {
				d.Country = item.BrandingSettings.Channel.Country
			}
			if d.DefaultLanguage == "" {
				d.DefaultLanguage = item.BrandingSettings.Channel.DefaultLanguage
			}
			if kw := item.BrandingSettings.Channel.Keywords; kw != "" {
				d.Keywords = splitKeywords(kw)
			}
			if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
				d.PublishedAt = ts
			}
			details = append(details, d)
		}
	}

	return details, nil
}

// get performs one API call and decodes the response into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyAPIError(resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// classifyAPIError maps provider HTTP failures onto the domain taxonomy.
func classifyAPIError(status int, body []byte) error {
	var envelope apiError
	_ = json.Unmarshal(body, &envelope)

	reason := ""
	if len(envelope.Error.Errors) > 0 {
		reason = envelope.Error.Errors[0].Reason
	}

	switch {
	case status == http.StatusForbidden && (reason == "quotaExceeded" || reason == "dailyLimitExceeded"):
		return fmt.Errorf("%w: provider reports %s", domain.ErrQuotaExhausted, reason)
	case status == http.StatusBadRequest && reason == "keyInvalid",
		status == http.StatusForbidden, status == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d reason %q", domain.ErrInvalidKey, status, reason)
	case status >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, status)
	default:
		return fmt.Errorf("provider error: status %d reason %q: %s", status, reason, envelope.Error.Message)
	}
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// splitKeywords parses the brandingSettings keyword string, which mixes
// quoted phrases and bare words.
func splitKeywords(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
