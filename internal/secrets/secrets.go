// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Service is the keyring service name all vault secrets live under.
const Service = "researchvault"

// Store provides secure secret storage operations. Implementations may use
// OS keyrings, encrypted files, or other backends.
type Store interface {
	// Set saves a secret value under the given key.
	Set(key, value string) error

	// Get fetches the secret value for the given key. Returns a
	// secret.not_found coded error if the key does not exist.
	Get(key string) (string, error)

	// Delete removes the secret for the given key. Returns a
	// secret.not_found coded error if the key does not exist.
	Delete(key string) error
}

// KeyringStore implements Store using the OS keyring via zalando/go-keyring.
// On macOS it uses Keychain, on Linux secret-service (D-Bus), and on Windows
// the Credential Manager.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Set(key, value string) error {
	if key == "" {
		return vaulterr.New(vaulterr.CodeSecretInvalidInput, "secret set: key must not be empty")
	}

	if err := keyring.Set(Service, key, value); err != nil {
		return vaulterr.Wrapf(err, vaulterr.CodeSecretStoreFailure, "storing secret %s", key)
	}
	return nil
}

func (s *KeyringStore) Get(key string) (string, error) {
	if key == "" {
		return "", vaulterr.New(vaulterr.CodeSecretInvalidInput, "secret get: key must not be empty")
	}

	val, err := keyring.Get(Service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", vaulterr.Errorf(vaulterr.CodeSecretNotFound, "secret %s not found", key)
		}
		return "", vaulterr.Wrapf(err, vaulterr.CodeSecretStoreFailure, "retrieving secret %s", key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(key string) error {
	if key == "" {
		return vaulterr.New(vaulterr.CodeSecretInvalidInput, "secret delete: key must not be empty")
	}

	if err := keyring.Delete(Service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return vaulterr.Errorf(vaulterr.CodeSecretNotFound, "secret %s not found", key)
		}
		return vaulterr.Wrapf(err, vaulterr.CodeSecretDeleteFailure, "deleting secret %s", key)
	}
	return nil
}
