// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autobrr/gamarr/internal/config"
	"github.com/autobrr/gamarr/internal/domain"
)

func RunConfigCommand(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration",
	}

	cmd.AddCommand(runConfigShowCommand(configDir))
	cmd.AddCommand(runConfigLogCommand(configDir))
	return cmd
}

func runConfigShowCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*configDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, configRows(cfg)))
			fmt.Fprintf(out, "Loaded from %s\n", cfg.Path())
			return nil
		},
	}
}

func configRows(cfg *config.AppConfig) [][]string {
	c := cfg.Config
	return [][]string{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"logLevel", c.LogLevel},
		{"logPath", c.LogPath},
		{"dataDir", c.DataDir},
		{"databasePath", cfg.GetDatabasePath()},
		{"metricsEnabled", strconv.FormatBool(c.MetricsEnabled)},
		{"metricsBasicAuthUsers", domain.RedactBasicAuthUsers(c.MetricsBasicAuthUsers)},
		{"pollIntervalSeconds", strconv.Itoa(c.PollIntervalSeconds)},
		{"clientTimeoutSeconds", strconv.Itoa(c.ClientTimeoutSeconds)},
		{"matchStrategy", c.MatchStrategy},
		{"blocklistUnavailableReleases", strconv.FormatBool(c.BlocklistUnavailableReleases)},
		{"maximumSizeMB", strconv.FormatInt(c.MaximumSizeMB, 10)},
		{"usenetDelayMinutes", strconv.Itoa(c.UsenetDelayMinutes)},
		{"torrentDelayMinutes", strconv.Itoa(c.TorrentDelayMinutes)},
	}
}

func runConfigLogCommand(configDir *string) *cobra.Command {
	var (
		level      string
		path       string
		maxSize    int
		maxBackups int
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Change the log settings in config.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*configDir)
			if err != nil {
				return err
			}

			c := cfg.Config
			flags := cmd.Flags()
			if !flags.Changed("level") {
				level = c.LogLevel
			}
			if !flags.Changed("path") {
				path = c.LogPath
			}
			if !flags.Changed("max-size") {
				maxSize = c.LogMaxSize
			}
			if !flags.Changed("max-backups") {
				maxBackups = c.LogMaxBackups
			}

			next := *c
			next.LogLevel = strings.ToUpper(level)
			next.LogMaxSize = maxSize
			next.LogMaxBackups = maxBackups
			if err := next.Validate(); err != nil {
				return err
			}

			if err := cfg.UpdateLogSettings(next.LogLevel, path, maxSize, maxBackups); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated log settings in %s\n", cfg.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().StringVar(&path, "path", "", "Log file path, empty logs to stdout only")
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Megabytes before the log file rotates")
	cmd.Flags().IntVar(&maxBackups, "max-backups", 0, "Rotated log files to keep")

	return cmd
}
