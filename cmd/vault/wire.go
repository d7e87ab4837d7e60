// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/researchvault/vault/internal/config"
	"github.com/researchvault/vault/internal/ingest"
	"github.com/researchvault/vault/internal/mission"
	"github.com/researchvault/vault/internal/search"
	"github.com/researchvault/vault/internal/secrets"
	"github.com/researchvault/vault/internal/store/sqlite"
	"github.com/researchvault/vault/internal/watch"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// App holds all wired subsystems for one CLI invocation.
type App struct {
	Config   *config.Config
	Store    *sqlite.Store
	Gateway  *search.Gateway
	Ingest   *ingest.Service
	Missions *mission.Engine
	Watch    *watch.Runner
}

func (a *App) Close() error {
	return a.Store.Close()
}

// openApp builds the full application from the global viper state: config,
// store, provider gateway, ingest service, mission engine, watch runner.
func openApp() (*App, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	roots, err := cfg.ResolveArtifactRoots()
	if err != nil {
		return nil, err
	}

	s, err := sqlite.Open(dbPath, sqlite.Options{ArtifactRoots: roots})
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeCLISetupFailure, "opening vault database %s", dbPath)
	}

	logger := slog.Default()
	client := &http.Client{Timeout: time.Duration(cfg.Search.TimeoutSeconds) * time.Second}

	providers, err := buildProviders(cfg, client)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	gateway := search.NewGateway(s.SearchCache(), providers, providerOrder(cfg), time.Duration(cfg.Search.TTLHours)*time.Hour, logger)

	ingestSvc := ingest.NewService(s.Branches(), s.Findings(), s.Links(), s, logger)
	ingestSvc.Register(ingest.NewWebConnector(client))

	engine := mission.NewEngine(s.Branches(), s.Findings(), s.Missions(), s.Events(), gateway, logger)
	runner := watch.NewRunner(s.WatchTargets(), s.Branches(), s.Events(), gateway, ingestSvc, logger)

	return &App{
		Config:   cfg,
		Store:    s,
		Gateway:  gateway,
		Ingest:   ingestSvc,
		Missions: engine,
		Watch:    runner,
	}, nil
}

func providerOrder(cfg *config.Config) []string {
	if len(cfg.Search.Order) > 0 {
		return cfg.Search.Order
	}
	return config.DefaultProviderOrder
}

// buildProviders constructs every provider in the configured order. Keyed
// providers are constructed even without a credential: the gateway's
// fallback skips them at call time and `vault doctor` reports their status.
func buildProviders(cfg *config.Config, client *http.Client) ([]search.Provider, error) {
	keystore := secretStoreFactory()

	braveKey := resolveKey(keystore, "brave", cfg.Search.Brave.APIKey)
	serperKey := resolveKey(keystore, "serper", cfg.Search.Serper.APIKey)

	return []search.Provider{
		search.NewBraveProvider(braveKey, "", client),
		search.NewSerperProvider(serperKey, "", client),
		search.NewSearxNGProvider(cfg.Search.SearxNG.BaseURL, client),
		search.NewDuckDuckGoProvider("", client),
		search.NewWikipediaProvider("", client),
	}, nil
}

// resolveKey looks up a provider credential; a broken keyring backend only
// degrades that provider, it never blocks the CLI.
func resolveKey(keystore secrets.Store, provider, configValue string) string {
	key, _, err := secrets.ResolveAPIKey(keystore, provider, configValue)
	if err != nil {
		slog.Warn("resolving provider credential", "provider", provider, "error", err)
		return ""
	}
	return key
}
