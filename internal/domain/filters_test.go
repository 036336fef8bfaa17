package domain

import (
	"testing"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		a    SearchFilters
		b    SearchFilters
		same bool
	}{
		{
			name: "identical filters",
			a:    SearchFilters{Query: "cooking", Country: "US", Language: "en"},
			b:    SearchFilters{Query: "cooking", Country: "US", Language: "en"},
			same: true,
		},
		{
			name: "case and whitespace insensitive",
			a:    SearchFilters{Query: "Cooking ", Country: "us"},
			b:    SearchFilters{Query: "cooking", Country: "US"},
			same: true,
		},
		{
			name: "subscriber bounds do not participate",
			a:    SearchFilters{Query: "cooking", MinSubscribers: 10000},
			b:    SearchFilters{Query: "cooking", MaxSubscribers: 500},
			same: true,
		},
		{
			name: "email requirement does not participate",
			a:    SearchFilters{Query: "cooking", HasEmail: true},
			b:    SearchFilters{Query: "cooking"},
			same: true,
		},
		{
			name: "different query",
			a:    SearchFilters{Query: "cooking"},
			b:    SearchFilters{Query: "baking"},
			same: false,
		},
		{
			name: "different country",
			a:    SearchFilters{Query: "cooking", Country: "US"},
			b:    SearchFilters{Query: "cooking", Country: "FR"},
			same: false,
		},
		{
			name: "field boundaries are preserved",
			a:    SearchFilters{Query: "ab", Country: "c"},
			b:    SearchFilters{Query: "a", Country: "bc"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa, fb := tt.a.Fingerprint(), tt.b.Fingerprint()
			if (fa == fb) != tt.same {
				t.Errorf("fingerprints a=%s b=%s, expected same=%v", fa, fb, tt.same)
			}
		})
	}
}

func TestFingerprintIsStable(t *testing.T) {
	f := SearchFilters{Query: "cooking", Country: "US", Language: "en", Category: "26"}
	first := f.Fingerprint()
	for i := 0; i < 10; i++ {
		if got := f.Fingerprint(); got != first {
			t.Fatalf("fingerprint not deterministic: %s != %s", got, first)
		}
	}
	if len(first) != 16 {
		t.Errorf("expected 16-char fingerprint, got %q", first)
	}
}

func TestLanguageFiltered(t *testing.T) {
	tests := []struct {
		language string
		expected bool
	}{
		{"", false},
		{"all", false},
		{"ALL", false},
		{"  all  ", false},
		{"en", true},
		{"pt-BR", true},
	}

	for _, tt := range tests {
		f := SearchFilters{Language: tt.language}
		if got := f.LanguageFiltered(); got != tt.expected {
			t.Errorf("LanguageFiltered(%q) = %v, expected %v", tt.language, got, tt.expected)
		}
	}
}
