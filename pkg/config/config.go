// Package config handles loading and managing Pulsegate configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for Pulsegate.
type Config struct {
	Scan       ScanConfig       `yaml:"scan"`
	Escalation EscalationConfig `yaml:"escalation"`
	Drafts     DraftsConfig     `yaml:"drafts"`
	Narrative  NarrativeConfig  `yaml:"narrative"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

// ScanConfig controls batch evaluation behavior.
type ScanConfig struct {
	Workers int `yaml:"workers"`
}

// EscalationConfig controls the outreach ladder.
type EscalationConfig struct {
	// FloorDays overrides the minimum whole days an account must sit in a
	// stage before it can advance, keyed by stage number.
	FloorDays map[int]int `yaml:"floor_days"`
	// Recipient is the address copied on terminal-stage notices.
	Recipient string `yaml:"recipient"`
}

// DraftsConfig points at the draft-creation service. Drafts are prepared
// for human review; nothing is ever sent automatically.
type DraftsConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// DryRun logs drafts instead of calling the service.
	DryRun bool `yaml:"dry_run"`
}

// NarrativeConfig points at the optional score-narrative service.
type NarrativeConfig struct {
	BaseURL string `yaml:"base_url"`
	Enabled bool   `yaml:"enabled"`
}

// ArchiveConfig selects the score blob backend.
type ArchiveConfig struct {
	Backend string `yaml:"backend"` // "local", "s3", or "gcs"
	Dir     string `yaml:"dir"`     // local backend root

	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // S3-compatible endpoint (MinIO)
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Workers: 8,
		},
		Escalation: EscalationConfig{
			FloorDays: map[int]int{},
		},
		Drafts: DraftsConfig{
			DryRun: true,
		},
		Archive: ArchiveConfig{
			Backend: "local",
			Dir:     defaultArchiveDir(),
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// FindConfigFile looks for .pulsegate/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".pulsegate", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func defaultArchiveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "pulsegate", "scores")
}
