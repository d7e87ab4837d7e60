// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/secrets"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage provider API keys in the OS keyring",
	}
	cmd.AddCommand(newSecretSetCmd(), newSecretClearCmd(), newSecretStatusCmd())
	return cmd
}

func newSecretSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> <api-key>",
		Short: "Store a provider API key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := secretStoreFactory()
			if err := store.Set(secrets.APIKeyName(args[0]), args[1]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s\n", args[0])
			return err
		},
	}
}

func newSecretClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <provider>",
		Short: "Remove a provider API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := secretStoreFactory()
			if err := store.Delete(secrets.APIKeyName(args[0])); err != nil {
				if vaulterr.HasCode(err, vaulterr.CodeSecretNotFound) {
					return vaulterr.Errorf(vaulterr.CodeSecretNotFound, "no stored API key for %s", args[0])
				}
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Cleared API key for %s\n", args[0])
			return err
		},
	}
}

func newSecretStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where each provider's credential comes from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			store := secretStoreFactory()
			out := cmd.OutOrStdout()

			configValues := map[string]string{
				"brave":  app.Config.Search.Brave.APIKey,
				"serper": app.Config.Search.Serper.APIKey,
			}
			for _, provider := range []string{"brave", "serper"} {
				key, source, err := secrets.ResolveAPIKey(store, provider, configValues[provider])
				status := string(source)
				if err != nil {
					status = "error: " + err.Error()
				} else if key == "" {
					status = "not configured"
				}
				fmt.Fprintf(out, "%-10s %s\n", provider, status)
			}
			return nil
		},
	}
}
