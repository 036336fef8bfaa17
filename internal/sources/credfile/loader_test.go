package credfile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeSeedFile(t, `
credentials:
  - id: primary
    secret: AIzaSy-primary
  - id: backup
    secret: AIzaSy-backup
`)

	creds, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("expected 2 credentials, got %d", len(creds))
	}
	if creds[0].ID != "primary" || creds[0].Secret != "AIzaSy-primary" {
		t.Errorf("unexpected first credential: %+v", creds[0])
	}
}

func TestLoadRejectsIncompleteEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing secret",
			content: `
credentials:
  - id: primary
`,
		},
		{
			name: "missing id",
			content: `
credentials:
  - secret: AIzaSy-primary
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSeedFile(t, tt.content)
			if _, err := NewLoader(path).Load(); err == nil {
				t.Error("expected an error for incomplete entry")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := NewLoader("/nonexistent/credentials.yaml").Load(); err == nil {
		t.Error("expected an error for missing file")
	}
}
