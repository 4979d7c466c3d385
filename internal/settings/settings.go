// Package settings exposes runtime sync toggles through an injected
// read-only provider, resolved once per pipeline run. The file-backed
// implementation replaces ambient filesystem globals: the orchestrator never
// touches the file directly.
package settings

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Toggles controls which sync adapters fire automatically after lead
// creation ("live sync").
type Toggles struct {
	Sheet      bool `yaml:"sheet"`
	Salesforce bool `yaml:"salesforce"`
	Notion     bool `yaml:"notion"`
}

// Settings is the runtime configuration snapshot for one run.
type Settings struct {
	Sync Toggles `yaml:"sync"`
}

// Provider resolves the current settings snapshot.
type Provider interface {
	Resolve(ctx context.Context) (*Settings, error)
}

// FileProvider reads settings from a YAML file on each call, so toggle
// edits take effect on the next run without a restart.
type FileProvider struct {
	path string
}

// NewFileProvider creates a file-backed settings provider.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Resolve reads and parses the settings file. A missing file resolves to
// all toggles off rather than an error.
func (p *FileProvider) Resolve(ctx context.Context) (*Settings, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "settings: read %s", p.path)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "settings: parse %s", p.path)
	}
	return &s, nil
}

// Static is a fixed settings provider, used in tests and one-off runs.
type Static Settings

func (s Static) Resolve(ctx context.Context) (*Settings, error) {
	out := Settings(s)
	return &out, nil
}
