// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package secrets

import (
	"os"
	"strings"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// CredentialSource identifies where a provider API key was found.
type CredentialSource string

const (
	SourceConfig  CredentialSource = "config"
	SourceEnv     CredentialSource = "env"
	SourceKeyring CredentialSource = "keyring"
	SourceNone    CredentialSource = "none"
)

// APIKeyName returns the keyring key under which a provider's API key is
// stored (e.g. "brave_api_key").
func APIKeyName(provider string) string {
	return strings.ToLower(provider) + "_api_key"
}

// ResolveAPIKey returns the API key for a search provider, checking in order:
// the explicit config value, RESEARCHVAULT_<PROVIDER>_API_KEY, the legacy
// <PROVIDER>_API_KEY variable, and finally the OS keyring. An empty key with
// a nil error means the provider simply has no credential configured; the
// caller decides whether that is fatal.
func ResolveAPIKey(store Store, provider, configValue string) (string, CredentialSource, error) {
	if configValue != "" {
		return configValue, SourceConfig, nil
	}

	upper := strings.ToUpper(provider)
	for _, name := range []string{"RESEARCHVAULT_" + upper + "_API_KEY", upper + "_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v, SourceEnv, nil
		}
	}

	if store != nil {
		v, err := store.Get(APIKeyName(provider))
		if err == nil {
			return v, SourceKeyring, nil
		}
		if !vaulterr.IsNotFound(err) {
			return "", SourceNone, err
		}
	}

	return "", SourceNone, nil
}
