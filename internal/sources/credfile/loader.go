// Package credfile loads the optional YAML credential seed file, letting
// deployments ship provider API keys without calling the management API.
package credfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the top-level structure of credentials.yaml
type SeedFile struct {
	Credentials []SeedCredential `yaml:"credentials"`
}

// SeedCredential is one API key entry
type SeedCredential struct {
	ID     string `yaml:"id"`
	Secret string `yaml:"secret"`
}

// Loader handles loading and parsing of the credential seed file
type Loader struct {
	filePath string
}

// NewLoader creates a new seed file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the seed file, rejecting incomplete entries.
func (l *Loader) Load() ([]SeedCredential, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials yaml: %w", err)
	}

	for i, c := range file.Credentials {
		if c.ID == "" || c.Secret == "" {
			return nil, fmt.Errorf("credential entry %d is missing id or secret", i)
		}
	}

	return file.Credentials, nil
}
