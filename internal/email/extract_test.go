package email

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		description string
		branding    string
		expected    string
	}{
		{
			name:     "branding email wins",
			branding: " owner@example.com ",
			expected: "owner@example.com",
		},
		{
			name:        "branding email wins over description",
			description: "contact me at other@example.com",
			branding:    "owner@example.com",
			expected:    "owner@example.com",
		},
		{
			name:        "bare address",
			description: "Hi! Reach me on hello@example.com for anything.",
			expected:    "hello@example.com",
		},
		{
			name:        "label prefixed",
			description: "business enquiries: biz@studio.tv",
			expected:    "biz@studio.tv",
		},
		{
			name:        "obfuscated at and dot tokens",
			description: "contact [at] example [dot] com",
			expected:    "contact@example.com",
		},
		{
			name:        "obfuscated with parentheses",
			description: "write to press (at) mychannel (dot) co (dot) uk",
			expected:    "press@mychannel.co.uk",
		},
		{
			name:        "for business prefix",
			description: "For business inquiries: deals@agency.net",
			expected:    "deals@agency.net",
		},
		{
			name:        "consumer domain",
			description: "mail me creator123@gmail.com thanks",
			expected:    "creator123@gmail.com",
		},
		{
			name:        "bracket wrapped",
			description: "email me [support@example.org] any time",
			expected:    "support@example.org",
		},
		{
			name:        "case folded",
			description: "Contact: HELLO@Example.COM",
			expected:    "hello@example.com",
		},
		{
			name:        "no email present",
			description: "just a channel about cooking, no contact info",
			expected:    "",
		},
		{
			name:        "branding without at sign is ignored",
			description: "",
			branding:    "not-an-email",
			expected:    "",
		},
		{
			name:     "empty inputs",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.description, tt.branding)
			if got != tt.expected {
				t.Errorf("Extract(%q, %q) = %q, expected %q", tt.description, tt.branding, got, tt.expected)
			}
		})
	}
}

func TestExtractIsPure(t *testing.T) {
	desc := "business enquiries: biz@studio.tv or contact [at] example [dot] com"
	first := Extract(desc, "")
	for i := 0; i < 20; i++ {
		if got := Extract(desc, ""); got != first {
			t.Fatalf("Extract not deterministic: %q != %q", got, first)
		}
	}
}
