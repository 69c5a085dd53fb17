// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autobrr/gamarr/internal/models"
)

func RunGamesCommand(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Manage the game library",
	}

	cmd.AddCommand(runGamesAddCommand(configDir))
	cmd.AddCommand(runGamesListCommand(configDir))
	cmd.AddCommand(runGamesDeleteCommand(configDir))
	return cmd
}

func runGamesAddCommand(configDir *string) *cobra.Command {
	var (
		game      models.Game
		alternate []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a game to the library",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(game.Title) == "" {
				return errors.New("--title is required")
			}
			for _, title := range alternate {
				game.AlternateTitles = append(game.AlternateTitles, models.AlternateTitle{Title: title})
			}
			game.Monitored = true

			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				created, err := a.library.Add(cmd.Context(), &game)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added game %d: %s\n", created.ID, created.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&game.Title, "title", "", "Game title")
	cmd.Flags().IntVar(&game.Year, "year", 0, "Release year")
	cmd.Flags().IntVar(&game.IgdbID, "igdb-id", 0, "IGDB id")
	cmd.Flags().IntVar(&game.SteamAppID, "steam-app-id", 0, "Steam app id")
	cmd.Flags().IntVar(&game.QualityProfileID, "profile-id", 0, "Quality profile id")
	cmd.Flags().StringArrayVar(&alternate, "alternate-title", nil, "Alternate title, may be repeated")

	return cmd
}

func runGamesListCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the games in the library",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				games, err := a.library.Games(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(games))
				for _, g := range games {
					rows = append(rows, []string{
						strconv.Itoa(g.ID),
						g.Title,
						yearString(g.Year),
						g.CleanTitle,
						strconv.Itoa(len(g.AlternateTitles)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Title", "Year", "Clean", "Alternates"}, rows, 0, 2, 4))
				return nil
			})
		},
	}
}

func runGamesDeleteCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a game with its blocklist, history and pending releases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				if err := a.library.Delete(cmd.Context(), ids[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted game %d\n", ids[0])
				return nil
			})
		},
	}
}
