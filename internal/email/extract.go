// Package email recovers contact addresses from free-form channel
// descriptions. The cascade is best-effort by design: false negatives are
// expected, the contract is the ordered pattern list below, not "finds every
// email".
package email

import (
	"regexp"
	"strings"
)

// emailPat is the core address shape shared by the cascade patterns.
const emailPat = `[\w.+-]+@[\w-]+(?:\.[\w-]+)+`

// obfPat matches addresses written with [at]/(at) and [dot]/(dot) tokens,
// e.g. "contact [at] example [dot] com".
const obfPat = `[\w.+-]+\s*(?:\[at\]|\(at\))\s*[\w-]+(?:\s*(?:\[dot\]|\(dot\))\s*[\w-]+)+`

// The cascade, in priority order. Each pattern either matches the address
// directly or captures it in group 1.
var cascade = []struct {
	re    *regexp.Regexp
	group int
}{
	// bare user@domain.tld
	{regexp.MustCompile(emailPat), 0},
	// label-prefixed: "contact: foo@bar.com", "business enquiries - foo@bar.com"
	{regexp.MustCompile(`(?:contact|business|enquiries|inquiries|email|e-mail|mail|reach)\s*(?:me|us)?\s*(?:at|to|:|=|-)?\s*(` + emailPat + `)`), 1},
	// obfuscated [at]/[dot] forms
	{regexp.MustCompile(obfPat), 0},
	// "for business ..." / "collaboration ..." prefixed
	{regexp.MustCompile(`(?:for\s+business(?:\s+inquiries)?|collaborations?|sponsorships?|partnerships?)\s*[:,-]?\s*(` + emailPat + `)`), 1},
	// common consumer-mail domains
	{regexp.MustCompile(`[\w.+-]+@(?:gmail|googlemail|yahoo|hotmail|outlook|icloud|protonmail|proton|aol)\.[\w.]+`), 0},
	// bracket/parenthesis-wrapped
	{regexp.MustCompile(`[\[(<]\s*(` + emailPat + `|` + obfPat + `)\s*[\])>]`), 1},
}

var (
	wsRe    = regexp.MustCompile(`\s+`)
	validRe = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	bareRe  = regexp.MustCompile(emailPat)
)

// Extract attempts to recover a contact email, first from the branding email
// field and then from the description text. It is pure: identical inputs
// always yield the identical result. Returns "" when nothing validates.
func Extract(description, brandingEmail string) string {
	if strings.Contains(brandingEmail, "@") {
		return strings.TrimSpace(brandingEmail)
	}

	text := wsRe.ReplaceAllString(strings.ToLower(description), " ")
	if text == "" {
		return ""
	}

	for _, c := range cascade {
		m := c.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if addr := normalize(m[c.group]); addr != "" {
			return addr
		}
	}

	// Last resort: a bare scan over the whole text, in case an earlier
	// pattern matched but failed validation.
	if m := bareRe.FindString(text); m != "" {
		return normalize(m)
	}
	return ""
}

// normalize strips internal whitespace, resolves obfuscation tokens and
// validates the final shape. Returns "" when the candidate does not survive.
func normalize(candidate string) string {
	r := strings.NewReplacer(
		" ", "",
		"\t", "",
		"[at]", "@",
		"(at)", "@",
		"[dot]", ".",
		"(dot)", ".",
	)
	addr := r.Replace(candidate)
	if !validRe.MatchString(addr) {
		return ""
	}
	return addr
}
