// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/researchvault/vault/internal/config"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// NewRootCmd creates the root vault command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vault",
		Short:         "ResearchVault — single-user research memory store",
		Long:          "ResearchVault accumulates findings under projects and branches, schedules corroborating searches for low-confidence claims, and keeps a scrubbed audit log of everything it does.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initViper(cmd); err != nil {
				return err
			}
			setupLogging(viper.GetBool("verbose"))
			return nil
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("db", "", "path to the vault database file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	root.PersistentFlags().String("format", "text", "output format (text or json)")

	root.AddCommand(
		newInitCmd(),
		newListCmd(),
		newUpdateCmd(),
		newStatusCmd(),
		newBranchCmd(),
		newHypothesisCmd(),
		newFindingCmd(),
		newIngestCmd(),
		newSearchCmd(),
		newMissionCmd(),
		newWatchCmd(),
		newEventsCmd(),
		newArtifactCmd(),
		newSecretCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return vaulterr.Errorf(vaulterr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		v.SetConfigName("researchvault")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/researchvault")
		// No config file is fine — defaults and env vars still apply.
		// Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return vaulterr.Errorf(vaulterr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	if err := v.BindPFlag("db_path", cmd.Root().PersistentFlags().Lookup("db")); err != nil {
		return vaulterr.Errorf(vaulterr.CodeCLISetupFailure, "binding db flag: %w", err)
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return vaulterr.Errorf(vaulterr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}
	if err := v.BindPFlag("format", cmd.Root().PersistentFlags().Lookup("format")); err != nil {
		return vaulterr.Errorf(vaulterr.CodeCLISetupFailure, "binding format flag: %w", err)
	}

	return nil
}

// setupLogging installs the default slog handler: warnings only unless
// verbose is set.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
