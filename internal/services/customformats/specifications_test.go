// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

func TestSpecifications(t *testing.T) {
	t.Parallel()

	const gb = int64(1 << 30)

	tests := []struct {
		name  string
		def   models.SpecificationDefinition
		ctx   ScoringContext
		match bool
	}{
		{"title regex", spec(models.SpecReleaseTitle, `\bGOG\b`), scoringContext("Some.Game.GOG-GROUP", 0, 0), true},
		{"title regex case insensitive", spec(models.SpecReleaseTitle, `gog`), scoringContext("Some.Game.GOG-GROUP", 0, 0), true},
		{"title regex miss", spec(models.SpecReleaseTitle, `fitgirl`), scoringContext("Some.Game.GOG-GROUP", 0, 0), false},
		{
			"title regex falls back to file name",
			spec(models.SpecReleaseTitle, `fitgirl`),
			ScoringContext{Parsed: releases.Parse("Some Game"), Release: &models.ReleaseInfo{Title: "Some Game"}, SourcePath: "/downloads/Some Game [FitGirl Repack]"},
			true,
		},
		{"group", spec(models.SpecReleaseGroup, `^codex$`), scoringContext("Game.Title.II.MULTi5-CODEX", 0, 0), true},
		{"group missing", spec(models.SpecReleaseGroup, `.*`), scoringContext("Some Game", 0, 0), false},
		{"source path", spec(models.SpecSourcePath, `\.iso$`), ScoringContext{SourcePath: "/dl/game.iso"}, true},
		{"source path empty", spec(models.SpecSourcePath, `.*`), ScoringContext{}, false},
		{"size inside", models.SpecificationDefinition{Kind: models.SpecSize, Min: 1, Max: 10}, scoringContext("x", 5*gb, 0), true},
		{"size at max", models.SpecificationDefinition{Kind: models.SpecSize, Min: 1, Max: 10}, scoringContext("x", 10*gb, 0), true},
		{"size at min", models.SpecificationDefinition{Kind: models.SpecSize, Min: 1, Max: 10}, scoringContext("x", gb, 0), false},
		{"size unbounded", models.SpecificationDefinition{Kind: models.SpecSize, Min: 1}, scoringContext("x", 100*gb, 0), true},
		{"size unknown", models.SpecificationDefinition{Kind: models.SpecSize, Max: 10}, scoringContext("x", 0, 0), false},
		{"language", spec(models.SpecLanguage, "German"), scoringContext("Some Game (2019) GERMAN - ElAmigos", 0, 0), true},
		{"language miss", spec(models.SpecLanguage, "French"), scoringContext("Some Game (2019) GERMAN - ElAmigos", 0, 0), false},
		{"quality range", models.SpecificationDefinition{Kind: models.SpecQuality, Min: 3, Max: 5}, scoringContext("Some.Game.2015.GOG-GROUP", 0, 0), true},
		{"quality below", models.SpecificationDefinition{Kind: models.SpecQuality, Min: 5}, scoringContext("Hollow Knight [FitGirl Repack]", 0, 0), false},
		{"indexer flags", spec(models.SpecIndexerFlag, "freeleech"), scoringContext("x", 0, models.IndexerFlagFreeleech|models.IndexerFlagInternal), true},
		{"indexer flags all required", spec(models.SpecIndexerFlag, "freeleech,scene"), scoringContext("x", 0, models.IndexerFlagFreeleech), false},
		{"edition", spec(models.SpecEdition, `goty|game of the year`), scoringContext("The.Witcher.3.Wild.Hunt.GOTY.Edition.v1.32.GOG-GROUP", 0, 0), true},
		{"version constraint", spec(models.SpecVersion, ">= 1.2, < 2"), scoringContext("Some Game v1.4.2-GOG", 0, 0), true},
		{"version constraint miss", spec(models.SpecVersion, ">= 2"), scoringContext("Some Game v1.4.2-GOG", 0, 0), false},
		{"version absent", spec(models.SpecVersion, ">= 0"), scoringContext("Some Game-GOG", 0, 0), false},
		{"expression", spec(models.SpecExpression, `Quality == "GOG" && Year == 2015`), scoringContext("Some.Game.2015.GOG-GROUP", 0, 0), true},
		{"expression flags", spec(models.SpecExpression, `Freeleech && Protocol == "torrent"`), scoringContext("x", 0, models.IndexerFlagFreeleech), true},
		{"expression false", spec(models.SpecExpression, `SizeGB > 50`), scoringContext("x", gb, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := NewSpecification(tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.def.Kind, s.Kind())
			assert.Equal(t, tt.match, s.Evaluate(tt.ctx))
		})
	}
}
