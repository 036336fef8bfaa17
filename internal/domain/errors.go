package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExhausted means no credential in the pool is usable. User
	// actionable: add a credential or wait for the next Pacific-day reset.
	ErrQuotaExhausted = errors.New("quota exhausted: no usable credential")

	// ErrInvalidKey means the provider rejected the credential itself
	// (malformed or unauthorized), as opposed to running out of quota.
	ErrInvalidKey = errors.New("invalid credential")

	// ErrProviderUnavailable covers network failures, timeouts and 5xx
	// responses from the search provider.
	ErrProviderUnavailable = errors.New("search provider unavailable")
)

// SearchError wraps a failure that occurred mid-aggregation. QuotaConsumed
// carries the units already spent (and recorded) before the failure; that
// spend is irreversible and stays on the credential's ledger.
type SearchError struct {
	QuotaConsumed int
	Err           error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed after consuming %d quota units: %v", e.QuotaConsumed, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }
