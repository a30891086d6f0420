// Package config loads the application configuration from a JSON file. The
// file is re-read on every access, so edits take effect without a restart.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const DefaultPort = 8000

// Config is the validated application configuration.
type Config struct {
	// DownloadDirectory is where persisted downloads end up. Validation makes
	// it absolute and creates it if missing.
	DownloadDirectory string `json:"downloadDirectory"`
	ApplicationPort   int    `json:"applicationPort"`
}

func (c *Config) validate() error {
	if c.DownloadDirectory == "" {
		return errors.New("downloadDirectory cannot be empty")
	}
	if c.ApplicationPort < 1 || c.ApplicationPort > 65535 {
		return fmt.Errorf("applicationPort must be between 1 and 65535, got %d", c.ApplicationPort)
	}
	dir, err := filepath.Abs(expandHome(c.DownloadDirectory))
	if err != nil {
		return fmt.Errorf("cannot resolve downloadDirectory: %w", err)
	}
	if err := os.MkdirAll(dir, 0775); err != nil {
		return fmt.Errorf("failed to create download directory %s: %w", dir, err)
	}
	c.DownloadDirectory = dir
	return nil
}

// A Provider loads configuration on demand. It holds no cached state; Get
// always goes back to the file.
type Provider struct {
	path string
}

func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// Get reads, parses and validates the configuration file. A missing or
// malformed file is an error the caller must treat as fatal at startup.
func (p *Provider) Get() (Config, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read configuration file %s: %w", p.path, err)
	}
	cfg := Config{ApplicationPort: DefaultPort}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON in configuration file %s: %w", p.path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", p.path, err)
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
