// Package aggregator drives the quota-metered search loop: select a
// credential, fetch a page, resolve details, filter, dedup, account.
package aggregator

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/scout/internal/domain"
	"github.com/MrSnakeDoc/scout/internal/email"
	"github.com/MrSnakeDoc/scout/internal/keypool"
	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/provider"
	"github.com/MrSnakeDoc/scout/internal/tokencache"
)

const (
	// DefaultMaxAttempts bounds provider page fetches per aggregation call.
	DefaultMaxAttempts = 3
	// DefaultDesiredCount is used when the caller does not bound the result.
	DefaultDesiredCount = 50
)

// Aggregator owns one search pipeline over a credential pool.
type Aggregator struct {
	keys        *keypool.Manager
	tokens      *tokencache.Cache
	searcher    provider.ChannelSearcher
	detailer    provider.ChannelDetailer
	exclusions  provider.ExclusionList
	logger      logger.Logger
	maxAttempts int
}

// New wires an Aggregator. exclusions may be nil when no exclusion list is
// configured.
func New(
	keys *keypool.Manager,
	tokens *tokencache.Cache,
	searcher provider.ChannelSearcher,
	detailer provider.ChannelDetailer,
	exclusions provider.ExclusionList,
	log logger.Logger,
) *Aggregator {
	return &Aggregator{
		keys:        keys,
		tokens:      tokens,
		searcher:    searcher,
		detailer:    detailer,
		exclusions:  exclusions,
		logger:      log,
		maxAttempts: DefaultMaxAttempts,
	}
}

// SearchChannels aggregates up to desiredCount channels matching filters.
//
// Failure policy: a mid-loop provider failure discards accumulated channels
// and returns a *domain.SearchError carrying the quota already spent; that
// spend has been recorded against the credentials that incurred it. Errors
// from credential selection propagate unchanged.
func (a *Aggregator) SearchChannels(ctx context.Context, filters domain.SearchFilters, desiredCount, page int) (*domain.SearchResultSet, error) {
	if desiredCount <= 0 {
		desiredCount = DefaultDesiredCount
	}
	if page < 1 {
		page = 1
	}

	fingerprint := filters.Fingerprint()

	// Resuming a later page reuses the cached continuation token. On a miss
	// the search starts from the beginning; intermediate pages are never
	// synthetically replayed.
	cursor := ""
	if page > 1 {
		if token, ok := a.tokens.Get(ctx, fingerprint, page); ok {
			cursor = token
			a.logger.Debug("resuming search from cached continuation token",
				logger.String("fingerprint", fingerprint),
				logger.Int("page", page))
		}
	}

	var (
		accumulated   []domain.ChannelSummary
		seen          = make(map[string]struct{})
		quotaConsumed int
		totalEstimate int64
		nextToken     = ""
	)

	fail := func(err error) (*domain.SearchResultSet, error) {
		return nil, &domain.SearchError{QuotaConsumed: quotaConsumed, Err: err}
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			// Cancellation stops further provider calls; spend already
			// recorded for completed sub-steps stays on the ledger.
			return fail(err)
		}

		// Credential-selection errors propagate unchanged: the spend from
		// prior iterations is already on the ledger.
		key, err := a.keys.SelectActiveKey(ctx)
		if err != nil {
			return nil, err
		}

		result, err := a.searcher.SearchPage(ctx, key.Secret, filters, cursor)
		if err != nil {
			return fail(fmt.Errorf("search page failed: %w", err))
		}
		iterCost := provider.SearchPageCost
		totalEstimate = result.TotalResultsEstimate
		nextToken = result.NextPageToken

		if len(result.Items) == 0 {
			// Normal termination, not an error. The call itself still cost
			// a full page.
			a.recordUsage(ctx, key.ID, iterCost)
			quotaConsumed += iterCost
			nextToken = ""
			break
		}

		ids := make([]string, 0, len(result.Items))
		for _, item := range result.Items {
			ids = append(ids, item.ChannelID)
		}

		details, err := a.detailer.GetDetails(ctx, key.Secret, ids)
		if err != nil {
			// The search call is sunk cost; record it before propagating.
			a.recordUsage(ctx, key.ID, iterCost)
			quotaConsumed += iterCost
			return fail(fmt.Errorf("channel details failed: %w", err))
		}
		iterCost += len(ids) * provider.DetailCostPerID

		for _, d := range details {
			if _, dup := seen[d.ID]; dup {
				continue
			}
			ok, err := a.passes(ctx, filters, d)
			if err != nil {
				a.recordUsage(ctx, key.ID, iterCost)
				quotaConsumed += iterCost
				return fail(fmt.Errorf("exclusion check failed: %w", err))
			}
			if !ok {
				continue
			}
			seen[d.ID] = struct{}{}
			accumulated = append(accumulated, toSummary(d))
		}

		// Usage is recorded per key at the point it was used, so a mid-loop
		// key rotation never mis-attributes spend.
		a.recordUsage(ctx, key.ID, iterCost)
		quotaConsumed += iterCost

		a.logger.Debug("aggregation iteration complete",
			logger.String("credential_id", key.ID),
			logger.Int("attempt", attempt),
			logger.Int("accumulated", len(accumulated)),
			logger.Int("iteration_cost", iterCost))

		if len(accumulated) >= desiredCount || nextToken == "" {
			break
		}
		cursor = nextToken
	}

	hasMore := nextToken != ""
	if hasMore {
		a.tokens.Put(ctx, fingerprint, page+1, nextToken)
	}

	if len(accumulated) > desiredCount {
		accumulated = accumulated[:desiredCount]
	}
	if accumulated == nil {
		accumulated = []domain.ChannelSummary{}
	}

	return &domain.SearchResultSet{
		Channels:             accumulated,
		TotalResultsEstimate: totalEstimate,
		HasMore:              hasMore,
		QuotaConsumed:        quotaConsumed,
	}, nil
}

// UsableCredential hands out a usable credential for direct provider access
// outside aggregation (e.g. fetching a single channel's latest upload).
func (a *Aggregator) UsableCredential(ctx context.Context) (keypool.Credential, error) {
	return a.keys.SelectActiveKey(ctx)
}

// RecordExternalUsage lets direct-access callers keep the ledger accurate.
func (a *Aggregator) RecordExternalUsage(ctx context.Context, credentialID string, units int) error {
	return a.keys.RecordUsage(ctx, credentialID, units)
}

// passes applies the filter pipeline in order, short-circuiting on the first
// failure: subscriber bounds, language, exclusion list, email requirement.
func (a *Aggregator) passes(ctx context.Context, filters domain.SearchFilters, d provider.Detail) (bool, error) {
	if filters.MinSubscribers > 0 && d.SubscriberCount < filters.MinSubscribers {
		return false, nil
	}
	if filters.MaxSubscribers > 0 && d.SubscriberCount > filters.MaxSubscribers {
		return false, nil
	}

	if !matchesLanguage(filters, d) {
		return false, nil
	}

	if a.exclusions != nil {
		excluded, err := a.exclusions.IsExcluded(ctx, d.ID)
		if err != nil {
			return false, err
		}
		if excluded {
			return false, nil
		}
	}

	if filters.HasEmail && email.Extract(d.Description, d.BrandingEmail) == "" {
		return false, nil
	}

	return true, nil
}

// matchesLanguage compares base language tags ("pt-BR" matches "pt"). A
// record without a language field is never rejected on language.
func matchesLanguage(filters domain.SearchFilters, d provider.Detail) bool {
	if !filters.LanguageFiltered() {
		return true
	}
	if d.DefaultLanguage == "" {
		return true
	}
	return baseLang(filters.Language) == baseLang(d.DefaultLanguage)
}

func baseLang(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// toSummary projects a provider detail record onto the caller-facing shape.
func toSummary(d provider.Detail) domain.ChannelSummary {
	return domain.ChannelSummary{
		ID:              d.ID,
		Title:           d.Title,
		CustomURL:       d.CustomURL,
		SubscriberCount: d.SubscriberCount,
		VideoCount:      d.VideoCount,
		ViewCount:       d.ViewCount,
		Email:           email.Extract(d.Description, d.BrandingEmail),
		Country:         d.Country,
		Keywords:        d.Keywords,
		PublishedAt:     d.PublishedAt,
		ThumbnailURL:    d.ThumbnailURL,
	}
}

// recordUsage books spend against a credential, logging rather than failing
// the search when persistence lags: the in-memory ledger is already updated.
func (a *Aggregator) recordUsage(ctx context.Context, credentialID string, units int) {
	if err := a.keys.RecordUsage(ctx, credentialID, units); err != nil {
		a.logger.Warn("failed to record quota usage",
			logger.String("credential_id", credentialID),
			logger.Int("units", units),
			logger.Error(err))
	}
}
