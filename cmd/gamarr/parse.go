// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autobrr/gamarr/pkg/releases"
	"github.com/autobrr/gamarr/pkg/titles"
)

func RunParseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <title...>",
		Short: "Show what the release parser extracts from titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := releases.NewDefaultParser()

			parsed := make([]*releases.ParsedReleaseInfo, 0, len(args))
			for _, raw := range args {
				parsed = append(parsed, parser.Parse(raw))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(parsed)
			}

			rows := make([][]string, 0, len(parsed))
			for _, p := range parsed {
				rows = append(rows, []string{
					p.ReleaseTitle,
					strings.Join(p.Titles, " | "),
					titles.Clean(p.PrimaryTitle()),
					yearString(p.Year),
					p.Quality.String(),
					p.Group,
					p.Version,
					p.Platform,
					languageNames(p.Languages),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Release", "Titles", "Clean", "Year", "Quality", "Group", "Version", "Platform", "Languages"},
				rows, 3,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parsed releases as JSON")
	return cmd
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func languageNames(langs []releases.Language) string {
	names := make([]string, 0, len(langs))
	for _, l := range langs {
		names = append(names, l.String())
	}
	return strings.Join(names, ", ")
}
