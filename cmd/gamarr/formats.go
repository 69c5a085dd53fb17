// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func RunFormatsCommand(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "Manage custom formats",
	}

	cmd.AddCommand(runFormatsImportCommand(configDir))
	cmd.AddCommand(runFormatsListCommand(configDir))
	return cmd
}

func runFormatsImportCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or replace custom formats from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open formats: %w", err)
			}
			defer f.Close()

			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				stored, err := a.formats.Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d custom formats\n", len(stored))
				return nil
			})
		},
	}
}

func runFormatsListCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom formats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				engine, err := a.formats.Engine(cmd.Context())
				if err != nil {
					return err
				}

				var rows [][]string
				for _, f := range engine.Formats() {
					rows = append(rows, []string{
						strconv.Itoa(f.ID),
						f.Name,
						strconv.Itoa(f.DefaultScore),
						strconv.Itoa(len(f.Specifications)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Score", "Specifications"}, rows, 0, 2, 3))
				return nil
			})
		},
	}
}
