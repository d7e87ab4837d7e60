// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// DefaultProviderOrder is the fallback search order when none is configured.
var DefaultProviderOrder = []string{"brave", "serper", "searxng", "duckduckgo", "wikipedia"}

// Config is the top-level vault configuration.
type Config struct {
	DBPath    string          `mapstructure:"db_path"`
	Verbose   bool            `mapstructure:"verbose"`
	Search    SearchConfig    `mapstructure:"search"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Events    EventsConfig    `mapstructure:"events"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// SearchConfig controls the provider gateway: fallback order, cache TTL, and
// per-provider configuration. API keys left empty here are resolved through
// the secrets layer (env, then OS keyring).
type SearchConfig struct {
	Order          []string      `mapstructure:"order"`
	TTLHours       int           `mapstructure:"ttl_hours"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Brave          KeyedProvider `mapstructure:"brave"`
	Serper         KeyedProvider `mapstructure:"serper"`
	SearxNG        SearxNGConfig `mapstructure:"searxng"`
}

// KeyedProvider holds configuration for a provider that authenticates with an
// API key.
type KeyedProvider struct {
	APIKey string `mapstructure:"api_key"`
}

// SearxNGConfig holds configuration for a self-hosted SearXNG instance.
type SearxNGConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ArtifactsConfig holds the allowlist of root directories artifact paths must
// resolve under.
type ArtifactsConfig struct {
	Roots []string `mapstructure:"roots"`
}

// EventsConfig controls event-log reads.
type EventsConfig struct {
	TailLimit int `mapstructure:"tail_limit"`
}

// WatchConfig controls the watch-target runner.
type WatchConfig struct {
	BatchLimit int `mapstructure:"batch_limit"`
}

// SetDefaults registers all configuration defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "")
	v.SetDefault("verbose", false)
	v.SetDefault("search.order", DefaultProviderOrder)
	v.SetDefault("search.ttl_hours", 24)
	v.SetDefault("search.timeout_seconds", 30)
	v.SetDefault("events.tail_limit", 50)
	v.SetDefault("watch.batch_limit", 20)
}

// SetupEnv binds the RESEARCHVAULT_ environment prefix so e.g.
// RESEARCHVAULT_SEARCH_TTL_HOURS overrides search.ttl_hours. The legacy
// RESEARCHVAULT_DB variable maps to db_path for compatibility with older
// deployments.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("RESEARCHVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("db_path", "RESEARCHVAULT_DB", "RESEARCHVAULT_DB_PATH")
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, vaulterr.Errorf(vaulterr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates a Config from an already-populated Viper.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice of
// all validation errors found, collecting all issues rather than stopping at
// the first one.
func (c *Config) Validate() []error {
	var errs []error

	known := map[string]bool{}
	for _, p := range DefaultProviderOrder {
		known[p] = true
	}
	for i, p := range c.Search.Order {
		if !known[p] {
			errs = append(errs, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue,
				"config: search.order[%d] is not a known provider, got %q", i, p))
		}
	}

	if c.Search.TTLHours <= 0 {
		errs = append(errs, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue,
			"config: search.ttl_hours must be greater than 0, got %d", c.Search.TTLHours))
	}

	if c.Search.TimeoutSeconds <= 0 {
		errs = append(errs, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue,
			"config: search.timeout_seconds must be greater than 0, got %d", c.Search.TimeoutSeconds))
	}

	if c.Events.TailLimit <= 0 {
		errs = append(errs, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue,
			"config: events.tail_limit must be greater than 0, got %d", c.Events.TailLimit))
	}

	if c.Watch.BatchLimit <= 0 {
		errs = append(errs, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue,
			"config: watch.batch_limit must be greater than 0, got %d", c.Watch.BatchLimit))
	}

	return errs
}

// ResolveDBPath returns the effective database file path: the configured
// value if set, otherwise ~/.researchvault/research_vault.db. The parent
// directory is created if absent.
func (c *Config) ResolveDBPath() (string, error) {
	path := c.DBPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", vaulterr.Errorf(vaulterr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".researchvault", "research_vault.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", vaulterr.Errorf(vaulterr.CodeConfigLoadReadFailure, "creating db directory: %w", err)
	}

	return path, nil
}

// ResolveArtifactRoots returns the configured allowlist roots, defaulting to
// the user's home directory when none are set. Paths are expanded and
// absolutised so the artifact store can compare prefixes reliably.
func (c *Config) ResolveArtifactRoots() ([]string, error) {
	roots := c.Artifacts.Roots
	if len(roots) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, vaulterr.Errorf(vaulterr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
		}
		roots = []string{home}
	}

	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.HasPrefix(r, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, vaulterr.Errorf(vaulterr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
			}
			r = filepath.Join(home, strings.TrimPrefix(r, "~"))
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, vaulterr.Errorf(vaulterr.CodeConfigValidateInvalidValue, "resolving artifact root %q: %w", r, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
