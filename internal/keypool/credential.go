package keypool

import "time"

const (
	// DefaultQuotaLimit is the provider's hard daily budget per credential.
	DefaultQuotaLimit = 10000
	// DefaultSafetyThreshold is the level at which a credential is proactively
	// deactivated, below the hard limit, to avoid provider-side rejections.
	DefaultSafetyThreshold = 9900
)

// Credential is one provider API key with its daily quota ledger.
//
// QuotaUsed, Active and LastUsedAt are mutated only by the Manager; callers
// always receive copies.
type Credential struct {
	ID              string    `json:"id"`
	Secret          string    `json:"secret"`
	QuotaUsed       int       `json:"quota_used"`
	QuotaLimit      int       `json:"quota_limit"`
	SafetyThreshold int       `json:"safety_threshold"`
	Active          bool      `json:"active"`
	LastUsedAt      time.Time `json:"last_used_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// Usable reports whether this credential can still take traffic today.
func (c *Credential) Usable() bool {
	return c.Active && c.QuotaUsed < c.SafetyThreshold
}

// Redacted returns a copy safe for API responses and logs.
func (c *Credential) Redacted() Credential {
	cp := *c
	if len(cp.Secret) > 4 {
		cp.Secret = cp.Secret[:4] + "..."
	} else {
		cp.Secret = "..."
	}
	return cp
}
