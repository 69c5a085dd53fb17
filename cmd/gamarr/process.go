// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/decision"
)

func RunProcessCommand(configDir *string) *cobra.Command {
	var (
		file        string
		gameID      int
		userInvoked bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Decide on a batch of releases and grab the approved ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}

			reports, err := readReleases(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			return withApp(*configDir, cmd.ErrOrStderr(), func(a *app) error {
				ctx := cmd.Context()

				decisions, err := a.maker.GetDecisions(ctx, reports, decision.SearchCriteria{
					GameID:      gameID,
					UserInvoked: userInvoked,
				})
				if err != nil {
					return fmt.Errorf("evaluate releases: %w", err)
				}

				res, err := a.pipeline.ProcessBatch(ctx, decisions)
				if res != nil {
					if printErr := printBatch(cmd.OutOrStdout(), res, asJSON); printErr != nil {
						return errors.Join(err, printErr)
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with an array of releases, - for stdin")
	cmd.Flags().IntVar(&gameID, "game-id", 0, "Treat the batch as a search for this game")
	cmd.Flags().BoolVar(&userInvoked, "user-invoked", false, "Skip protocol delays as for a manual search")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the batch result as JSON")

	return cmd
}

func readReleases(stdin io.Reader, path string) ([]*models.ReleaseInfo, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open releases: %w", err)
		}
		defer f.Close()
		r = f
	}

	var reports []*models.ReleaseInfo
	if err := json.NewDecoder(r).Decode(&reports); err != nil {
		return nil, fmt.Errorf("decode releases %s: %w", path, err)
	}
	return reports, nil
}

func printBatch(w io.Writer, res *decision.BatchResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	var rows [][]string
	for _, g := range res.Grabbed {
		rows = append(rows, decisionRow(g.Decision, "grabbed ("+g.Grab.DownloadClient+")"))
	}
	for _, d := range res.Pending {
		rows = append(rows, decisionRow(d, "pending"))
	}
	for _, d := range res.Rejected {
		rows = append(rows, decisionRow(d, "rejected"))
	}
	for _, d := range res.Skipped {
		rows = append(rows, decisionRow(d, "skipped"))
	}

	fmt.Fprintln(w, renderTable([]string{"Release", "Game", "Quality", "Score", "Result", "Reasons"}, rows, 3))
	fmt.Fprintf(w, "Batch %s: %d grabbed, %d pending, %d rejected\n", res.ID, len(res.Grabbed), len(res.Pending), len(res.Rejected))
	return nil
}

func decisionRow(d *decision.Decision, result string) []string {
	remote := d.Remote
	game := ""
	if remote != nil && remote.Game != nil {
		game = remote.Game.Title
	}
	score := ""
	if remote != nil {
		score = strconv.Itoa(remote.CustomFormatScore)
	}
	return []string{remote.Title(), game, remote.Quality().String(), score, result, d.Reasons()}
}
