package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SearchFilters describes one channel search as submitted by the caller.
//
// Query, Country, Language and Category identify "the same search" across
// pages and participate in the fingerprint. The remaining fields only narrow
// the result set and can change between pages without invalidating cached
// continuation tokens.
type SearchFilters struct {
	Query    string `json:"query"`
	Country  string `json:"country,omitempty"`  // ISO 3166-1 alpha-2, empty = any
	Language string `json:"language,omitempty"` // BCP-47 tag, empty or "all" = any
	Category string `json:"category,omitempty"` // provider topic/category id

	MinSubscribers int64 `json:"min_subscribers,omitempty"` // 0 = no lower bound
	MaxSubscribers int64 `json:"max_subscribers,omitempty"` // 0 = no upper bound
	HasEmail       bool  `json:"has_email,omitempty"`       // keep only channels with an extractable contact email
}

// LanguageFiltered reports whether the language filter is active.
func (f SearchFilters) LanguageFiltered() bool {
	lang := strings.ToLower(strings.TrimSpace(f.Language))
	return lang != "" && lang != "all"
}

// Fingerprint derives the stable cache key identifying this search across
// pages. Only the identity fields participate: two filter sets that differ
// solely in subscriber bounds or the email requirement share a fingerprint.
func (f SearchFilters) Fingerprint() string {
	h := sha256.New()
	for _, part := range []string{f.Query, f.Country, f.Language, f.Category} {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		h.Write([]byte{0}) // field separator, keeps ("ab","c") distinct from ("a","bc")
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
