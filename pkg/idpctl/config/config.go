// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads and saves the idpctl configuration file and resolves
// the per-user paths the CLI writes to.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	VersionV1 = "v1"

	PendingStoreFile     = "file"
	PendingStoreKeychain = "keychain"
)

var outputFormats = []string{"table", "json", "yaml"}

type Config struct {
	Version  string   `yaml:"version"`
	ClientID string   `yaml:"client-id,omitempty"`
	Provider Provider `yaml:"provider,omitempty"`
	Settings Settings `yaml:"settings,omitempty"`
}

// Provider overrides the built-in identity provider endpoints. Empty fields
// keep the defaults.
type Provider struct {
	AuthorizeURL string `yaml:"authorize-url,omitempty"`
	TokenURL     string `yaml:"token-url,omitempty"`
	RedirectURI  string `yaml:"redirect-uri,omitempty"`
}

type Settings struct {
	OutputFormat string `yaml:"output-format,omitempty"`
	PendingStore string `yaml:"pending-store,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: VersionV1,
		Settings: Settings{
			OutputFormat: "table",
			PendingStore: PendingStoreFile,
		},
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		def := DefaultConfig()
		return &def, nil
	}
	return cfg, err
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	if strings.ContainsAny(c.ClientID, " \t\r\n") {
		return errors.New("client-id must not contain whitespace")
	}
	switch c.Settings.PendingStore {
	case "", PendingStoreFile, PendingStoreKeychain:
	default:
		return fmt.Errorf("unsupported pending-store: %s", c.Settings.PendingStore)
	}
	if err := ValidateOutputFormat(c.Settings.OutputFormat); err != nil {
		return err
	}
	endpoints := []struct{ key, value string }{
		{"provider.authorize-url", c.Provider.AuthorizeURL},
		{"provider.token-url", c.Provider.TokenURL},
	}
	for _, ep := range endpoints {
		if ep.value == "" {
			continue
		}
		parsed, err := url.Parse(ep.value)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL: %s", ep.key, ep.value)
		}
	}
	if c.Provider.RedirectURI != "" {
		parsed, err := url.Parse(c.Provider.RedirectURI)
		if err != nil || parsed.Scheme == "" {
			return fmt.Errorf("provider.redirect-uri must include a scheme: %s", c.Provider.RedirectURI)
		}
	}
	return nil
}

func ValidateOutputFormat(format string) error {
	if format == "" {
		return nil
	}
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown output format: %s", format)
}
