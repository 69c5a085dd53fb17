// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/autobrr/gamarr/internal/models"
)

func RunBlocklistCommand(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocklist",
		Short: "Inspect and clear the blocklist",
	}

	cmd.AddCommand(runBlocklistListCommand(configDir))
	cmd.AddCommand(runBlocklistClearCommand(configDir))
	cmd.AddCommand(runBlocklistRemoveCommand(configDir))
	return cmd
}

func runBlocklistListCommand(configDir *string) *cobra.Command {
	var (
		gameIDs  []int
		protocol string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blocklisted releases, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				result, err := a.blocklist.List(cmd.Context(), models.BlocklistQuery{
					GameIDs:  gameIDs,
					Protocol: models.Protocol(protocol),
					Page:     page,
					PageSize: pageSize,
				})
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(result.Entries))
				for _, e := range result.Entries {
					size := ""
					if e.Size != nil {
						size = humanize.Bytes(uint64(*e.Size))
					}
					rows = append(rows, []string{
						strconv.Itoa(e.ID),
						strconv.Itoa(e.GameID),
						e.SourceTitle,
						string(e.Protocol),
						size,
						e.Message,
						e.Date.Local().Format(time.DateTime),
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"ID", "Game", "Release", "Protocol", "Size", "Message", "Date"}, rows, 0, 1, 4))
				fmt.Fprintf(out, "Page %d, %d of %d entries\n", result.Page, len(result.Entries), result.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntSliceVar(&gameIDs, "game-id", nil, "Only entries of these games")
	cmd.Flags().StringVar(&protocol, "protocol", "", "Only entries of this protocol (torrent, usenet)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Entries per page")

	return cmd
}

func runBlocklistClearCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every blocklist entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				removed, err := a.blocklist.ClearAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d blocklist entries\n", removed)
				return nil
			})
		},
	}
}

func runBlocklistRemoveCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id...>",
		Short: "Remove blocklist entries by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				removed, err := a.blocklist.Unblock(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d blocklist entries\n", removed)
				return nil
			})
		},
	}
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
