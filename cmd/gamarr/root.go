// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:           "gamarr",
		Short:         "Release decisions and download tracking for a game library",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding config.toml (defaults to the user config dir)")

	rootCmd.AddCommand(RunServeCommand(&configDir))
	rootCmd.AddCommand(RunParseCommand())
	rootCmd.AddCommand(RunProcessCommand(&configDir))
	rootCmd.AddCommand(RunFormatsCommand(&configDir))
	rootCmd.AddCommand(RunBlocklistCommand(&configDir))
	rootCmd.AddCommand(RunGamesCommand(&configDir))
	rootCmd.AddCommand(RunConfigCommand(&configDir))
	rootCmd.AddCommand(RunVersionCommand())

	return rootCmd
}
