package aggregator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrSnakeDoc/scout/internal/domain"
	"github.com/MrSnakeDoc/scout/internal/keypool"
	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/provider"
	"github.com/MrSnakeDoc/scout/internal/store/memory"
	"github.com/MrSnakeDoc/scout/internal/tokencache"
)

// fakeSearcher serves scripted pages and records received page tokens.
type fakeSearcher struct {
	pages      []provider.Page
	calls      int
	seenTokens []string
	err        error
	errOnCall  int // 1-based, 0 = never
}

func (f *fakeSearcher) SearchPage(_ context.Context, _ string, _ domain.SearchFilters, pageToken string) (*provider.Page, error) {
	f.calls++
	f.seenTokens = append(f.seenTokens, pageToken)
	if f.errOnCall > 0 && f.calls >= f.errOnCall {
		return nil, f.err
	}
	if f.calls > len(f.pages) {
		return &provider.Page{}, nil
	}
	p := f.pages[f.calls-1]
	return &p, nil
}

// endlessSearcher yields fresh 50-item pages forever.
type endlessSearcher struct {
	calls int
}

func (f *endlessSearcher) SearchPage(_ context.Context, _ string, _ domain.SearchFilters, _ string) (*provider.Page, error) {
	f.calls++
	items := make([]provider.SearchItem, 50)
	for i := range items {
		items[i] = provider.SearchItem{ChannelID: fmt.Sprintf("ch-%d-%d", f.calls, i)}
	}
	return &provider.Page{
		Items:                items,
		NextPageToken:        fmt.Sprintf("token-%d", f.calls),
		TotalResultsEstimate: 100000,
	}, nil
}

// fakeDetailer returns one detail per id, overridable per id.
type fakeDetailer struct {
	overrides map[string]provider.Detail
	err       error
	errOnCall int
	calls     int
}

func (f *fakeDetailer) GetDetails(_ context.Context, _ string, ids []string) ([]provider.Detail, error) {
	f.calls++
	if f.errOnCall > 0 && f.calls >= f.errOnCall {
		return nil, f.err
	}
	details := make([]provider.Detail, 0, len(ids))
	for _, id := range ids {
		if d, ok := f.overrides[id]; ok {
			details = append(details, d)
			continue
		}
		details = append(details, provider.Detail{ID: id, Title: "channel " + id, SubscriberCount: 50000})
	}
	return details, nil
}

type fakeExclusions struct {
	excluded map[string]bool
	err      error
}

func (f *fakeExclusions) IsExcluded(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.excluded[id], nil
}

type fixture struct {
	keys   *keypool.Manager
	tokens *tokencache.Cache
}

func newFixture(t *testing.T, keyIDs ...string) fixture {
	t.Helper()
	log := logger.New("error", false)
	keys := keypool.New(memory.New(), log)
	for _, id := range keyIDs {
		if err := keys.Register(context.Background(), id, "secret-"+id); err != nil {
			t.Fatalf("Register(%s) failed: %v", id, err)
		}
	}
	return fixture{
		keys:   keys,
		tokens: tokencache.New(memory.New(), log, tokencache.DefaultTTL),
	}
}

func newAggregator(f fixture, s provider.ChannelSearcher, d provider.ChannelDetailer, e provider.ExclusionList) *Aggregator {
	return New(f.keys, f.tokens, s, d, e, logger.New("error", false))
}

func page(ids []string, next string) provider.Page {
	items := make([]provider.SearchItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, provider.SearchItem{ChannelID: id})
	}
	return provider.Page{Items: items, NextPageToken: next, TotalResultsEstimate: int64(len(ids))}
}

func idRange(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return ids
}

func TestSearchFilterPipeline(t *testing.T) {
	// 50 candidates, 3 pass the subscriber bound, 1 of those has an
	// extractable email: result length 1 and 150 units consumed.
	f := newFixture(t, "key-a")
	ids := idRange("ch", 50)

	overrides := make(map[string]provider.Detail, len(ids))
	for _, id := range ids {
		overrides[id] = provider.Detail{ID: id, SubscriberCount: 500} // below bound
	}
	overrides["ch-3"] = provider.Detail{ID: "ch-3", SubscriberCount: 20000}
	overrides["ch-7"] = provider.Detail{ID: "ch-7", SubscriberCount: 30000}
	overrides["ch-9"] = provider.Detail{
		ID:              "ch-9",
		SubscriberCount: 40000,
		Description:     "business enquiries: chef@example.com",
	}

	searcher := &fakeSearcher{pages: []provider.Page{page(ids, "")}}
	detailer := &fakeDetailer{overrides: overrides}
	agg := newAggregator(f, searcher, detailer, &fakeExclusions{})

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{
		Query:          "cooking",
		MinSubscribers: 10000,
		HasEmail:       true,
	}, 50, 1)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}

	if len(result.Channels) != 1 || result.Channels[0].ID != "ch-9" {
		t.Errorf("expected only ch-9, got %+v", result.Channels)
	}
	if result.Channels[0].Email != "chef@example.com" {
		t.Errorf("expected extracted email, got %q", result.Channels[0].Email)
	}
	if result.QuotaConsumed != 150 {
		t.Errorf("expected 150 quota units, got %d", result.QuotaConsumed)
	}
	if result.HasMore {
		t.Error("expected no further pages")
	}
}

func TestSearchStopsAtMaxAttempts(t *testing.T) {
	// Every page yields 50 passing candidates indefinitely: the loop stops
	// after exactly 3 iterations and truncates to desiredCount.
	f := newFixture(t, "key-a")
	searcher := &endlessSearcher{}
	agg := newAggregator(f, searcher, &fakeDetailer{}, nil)

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "gaming"}, 120, 1)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}

	if searcher.calls != 3 {
		t.Errorf("expected exactly 3 provider calls, got %d", searcher.calls)
	}
	if len(result.Channels) != 120 {
		t.Errorf("expected truncation to 120, got %d", len(result.Channels))
	}
	if !result.HasMore {
		t.Error("expected has_more=true")
	}
	if result.QuotaConsumed != 3*(100+50) {
		t.Errorf("expected 450 quota units, got %d", result.QuotaConsumed)
	}
}

func TestSearchDeduplicatesAcrossPages(t *testing.T) {
	f := newFixture(t, "key-a")
	searcher := &fakeSearcher{pages: []provider.Page{
		page([]string{"ch-1", "ch-2", "ch-3"}, "t2"),
		page([]string{"ch-2", "ch-3", "ch-4"}, ""),
	}}
	agg := newAggregator(f, searcher, &fakeDetailer{}, nil)

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "x"}, 100, 1)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}

	want := []string{"ch-1", "ch-2", "ch-3", "ch-4"}
	if len(result.Channels) != len(want) {
		t.Fatalf("expected %d unique channels, got %d", len(want), len(result.Channels))
	}
	for i, id := range want {
		if result.Channels[i].ID != id {
			t.Errorf("position %d: expected %s (first-seen order), got %s", i, id, result.Channels[i].ID)
		}
	}
	if len(searcher.seenTokens) != 2 || searcher.seenTokens[1] != "t2" {
		t.Errorf("expected second call with token t2, got %v", searcher.seenTokens)
	}
}

func TestSearchResumesFromCachedToken(t *testing.T) {
	f := newFixture(t, "key-a")
	fp := domain.SearchFilters{Query: "cooking"}.Fingerprint()
	f.tokens.Put(context.Background(), fp, 2, "resume-token")

	searcher := &fakeSearcher{pages: []provider.Page{page([]string{"ch-1"}, "")}}
	agg := newAggregator(f, searcher, &fakeDetailer{}, nil)

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "cooking"}, 10, 2)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}

	if len(searcher.seenTokens) == 0 || searcher.seenTokens[0] != "resume-token" {
		t.Errorf("expected first call with cached token, got %v", searcher.seenTokens)
	}
	// Page 1's cost is not re-incurred: one search + one detail.
	if result.QuotaConsumed != 101 {
		t.Errorf("expected 101 quota units, got %d", result.QuotaConsumed)
	}
}

func TestSearchMissingTokenStartsFromBeginning(t *testing.T) {
	f := newFixture(t, "key-a")
	searcher := &fakeSearcher{pages: []provider.Page{page([]string{"ch-1"}, "")}}
	agg := newAggregator(f, searcher, &fakeDetailer{}, nil)

	if _, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "cooking"}, 10, 5); err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}
	if searcher.seenTokens[0] != "" {
		t.Errorf("expected fresh start on token miss, got token %q", searcher.seenTokens[0])
	}
}

func TestSearchCachesNextPageToken(t *testing.T) {
	f := newFixture(t, "key-a")
	// Enough passing results on page one to stop with a token left over.
	searcher := &fakeSearcher{pages: []provider.Page{page(idRange("ch", 50), "next-token")}}
	agg := newAggregator(f, searcher, &fakeDetailer{}, nil)

	filters := domain.SearchFilters{Query: "cooking"}
	result, err := agg.SearchChannels(context.Background(), filters, 10, 1)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}
	if !result.HasMore {
		t.Fatal("expected has_more=true")
	}

	token, ok := f.tokens.Get(context.Background(), filters.Fingerprint(), 2)
	if !ok || token != "next-token" {
		t.Errorf("expected next-page token cached, got %q (ok=%v)", token, ok)
	}
}

func TestSearchEmptyPageIsNormalStop(t *testing.T) {
	f := newFixture(t, "key-a")
	searcher := &fakeSearcher{pages: []provider.Page{{}}}
	agg := newAggregator(f, searcher, &fakeDetailer{}, nil)

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "obscure"}, 10, 1)
	if err != nil {
		t.Fatalf("empty page must not be an error: %v", err)
	}
	if len(result.Channels) != 0 {
		t.Errorf("expected no channels, got %d", len(result.Channels))
	}
	if result.QuotaConsumed != 100 {
		t.Errorf("the empty search call still costs 100 units, got %d", result.QuotaConsumed)
	}
}

func TestSearchFailureDiscardsPartialResults(t *testing.T) {
	// Details fail on the second iteration: accumulated channels are
	// discarded, the error carries the partial quota figure, and the sunk
	// cost of the failed iteration's search call stays on the ledger.
	f := newFixture(t, "key-a")
	searcher := &fakeSearcher{pages: []provider.Page{
		page(idRange("p1", 50), "t2"),
		page(idRange("p2", 50), "t3"),
	}}
	detailer := &fakeDetailer{errOnCall: 2, err: errors.New("boom")}
	agg := newAggregator(f, searcher, detailer, nil)

	_, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "x"}, 120, 1)
	if err == nil {
		t.Fatal("expected an error")
	}

	var se *domain.SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected *domain.SearchError, got %T: %v", err, err)
	}
	// Iteration 1 complete (150) + the failed iteration's search call (100).
	if se.QuotaConsumed != 250 {
		t.Errorf("expected partial quota 250, got %d", se.QuotaConsumed)
	}

	creds := f.keys.List()
	if creds[0].QuotaUsed != 250 {
		t.Errorf("expected 250 units on the ledger, got %d", creds[0].QuotaUsed)
	}
}

func TestSearchQuotaExhaustedPropagatesUnchanged(t *testing.T) {
	f := newFixture(t) // empty pool
	agg := newAggregator(f, &fakeSearcher{}, &fakeDetailer{}, nil)

	_, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "x"}, 10, 1)
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	var se *domain.SearchError
	if errors.As(err, &se) {
		t.Error("credential-selection errors must not be wrapped in SearchError")
	}
}

func TestSearchRecordsUsagePerKeyOnRotation(t *testing.T) {
	// key-a sits just below its threshold; iteration 1 pushes it over, so
	// iteration 2 must run and be billed on key-b.
	f := newFixture(t, "key-a", "key-b")
	if err := f.keys.RecordUsage(context.Background(), "key-a", 9800); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	searcher := &endlessSearcher{}
	agg := newAggregator(f, searcher, &fakeDetailer{}, nil)

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "x"}, 150, 1)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}
	if result.QuotaConsumed != 450 {
		t.Errorf("expected 450 total units, got %d", result.QuotaConsumed)
	}

	for _, c := range f.keys.List() {
		switch c.ID {
		case "key-a":
			if c.QuotaUsed != 9950 {
				t.Errorf("key-a: expected 9950 on the ledger, got %d", c.QuotaUsed)
			}
			if c.Active {
				t.Error("key-a should be deactivated")
			}
		case "key-b":
			if c.QuotaUsed != 300 {
				t.Errorf("key-b: expected the remaining 300 units, got %d", c.QuotaUsed)
			}
		}
	}
}

func TestSearchExcludedChannelsAreFiltered(t *testing.T) {
	f := newFixture(t, "key-a")
	searcher := &fakeSearcher{pages: []provider.Page{page([]string{"ch-1", "ch-2"}, "")}}
	exclusions := &fakeExclusions{excluded: map[string]bool{"ch-1": true}}
	agg := newAggregator(f, searcher, &fakeDetailer{}, exclusions)

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "x"}, 10, 1)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}
	if len(result.Channels) != 1 || result.Channels[0].ID != "ch-2" {
		t.Errorf("expected only ch-2, got %+v", result.Channels)
	}
}

func TestSearchLanguageFilter(t *testing.T) {
	f := newFixture(t, "key-a")
	searcher := &fakeSearcher{pages: []provider.Page{page([]string{"ch-en", "ch-fr", "ch-none"}, "")}}
	detailer := &fakeDetailer{overrides: map[string]provider.Detail{
		"ch-en":   {ID: "ch-en", SubscriberCount: 1000, DefaultLanguage: "en-US"},
		"ch-fr":   {ID: "ch-fr", SubscriberCount: 1000, DefaultLanguage: "fr"},
		"ch-none": {ID: "ch-none", SubscriberCount: 1000}, // absent field is not a rejection
	}}
	agg := newAggregator(f, searcher, detailer, nil)

	result, err := agg.SearchChannels(context.Background(), domain.SearchFilters{Query: "x", Language: "en"}, 10, 1)
	if err != nil {
		t.Fatalf("SearchChannels failed: %v", err)
	}

	got := make([]string, 0, len(result.Channels))
	for _, c := range result.Channels {
		got = append(got, c.ID)
	}
	if len(got) != 2 || got[0] != "ch-en" || got[1] != "ch-none" {
		t.Errorf("expected [ch-en ch-none], got %v", got)
	}
}

func TestSearchCancellation(t *testing.T) {
	f := newFixture(t, "key-a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := newAggregator(f, &endlessSearcher{}, &fakeDetailer{}, nil)
	_, err := agg.SearchChannels(ctx, domain.SearchFilters{Query: "x"}, 10, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
