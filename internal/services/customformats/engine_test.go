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

func scoringContext(title string, size int64, flags models.IndexerFlags) ScoringContext {
	return ScoringContext{
		Parsed:  releases.Parse(title),
		Release: &models.ReleaseInfo{Title: title, Size: size, IndexerFlags: flags, Protocol: models.ProtocolTorrent, Indexer: "tracker"},
	}
}

func spec(kind models.SpecificationKind, value string) models.SpecificationDefinition {
	return models.SpecificationDefinition{Name: string(kind), Kind: kind, Value: value}
}

func TestEngine_EmptyFormatListScoresZero(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(nil)
	require.NoError(t, err)

	res := engine.Score(scoringContext("Some.Game.2015.GOG-GROUP", 0, 0))
	assert.Empty(t, res.Formats)
	assert.NotNil(t, res.Formats)
	assert.Zero(t, res.Score)

	var nilEngine *Engine
	assert.Zero(t, nilEngine.Score(ScoringContext{}).Score)
	assert.Zero(t, nilEngine.Len())
}

func TestEngine_FormatsOrderedByNameAndSummed(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine([]*models.CustomFormat{
		{ID: 1, Name: "Zeta", DefaultScore: 5, Specifications: []models.SpecificationDefinition{spec(models.SpecReleaseTitle, `gog`)}},
		{ID: 2, Name: "Alpha", DefaultScore: 10, Specifications: []models.SpecificationDefinition{spec(models.SpecReleaseGroup, `^GROUP$`)}},
		{ID: 3, Name: "Middle", DefaultScore: 100, Specifications: []models.SpecificationDefinition{spec(models.SpecReleaseGroup, `^CODEX$`)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, engine.Len())

	ctx := scoringContext("Some.Game.2015.GOG-GROUP", 0, 0)
	res := engine.Score(ctx)
	assert.Equal(t, []string{"Alpha", "Zeta"}, res.Names())
	assert.Equal(t, 15, res.Score)

	ctx.Profile = &models.QualityProfile{FormatItems: []models.FormatItem{{FormatID: 1, Score: -50}}}
	assert.Equal(t, -40, engine.Score(ctx).Score)
}

func TestEngine_GroupSemantics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		specs []models.SpecificationDefinition
		want  bool
	}{
		{
			name:  "no specifications never match",
			specs: nil,
			want:  false,
		},
		{
			name: "any optional in a group is enough",
			specs: []models.SpecificationDefinition{
				spec(models.SpecReleaseTitle, `fitgirl`),
				spec(models.SpecReleaseTitle, `gog`),
			},
			want: true,
		},
		{
			name: "no optional in a group matches",
			specs: []models.SpecificationDefinition{
				spec(models.SpecReleaseTitle, `fitgirl`),
				spec(models.SpecReleaseTitle, `dodi`),
			},
			want: false,
		},
		{
			name: "groups are and-ed",
			specs: []models.SpecificationDefinition{
				spec(models.SpecReleaseTitle, `gog`),
				spec(models.SpecReleaseGroup, `^CODEX$`),
			},
			want: false,
		},
		{
			name: "required must match even if an optional does",
			specs: []models.SpecificationDefinition{
				{Kind: models.SpecReleaseTitle, Value: `gog`},
				{Kind: models.SpecReleaseTitle, Value: `2016`, Required: true},
			},
			want: false,
		},
		{
			name: "required alone",
			specs: []models.SpecificationDefinition{
				{Kind: models.SpecReleaseTitle, Value: `2015`, Required: true},
				{Kind: models.SpecReleaseTitle, Value: `gog`, Required: true},
			},
			want: true,
		},
		{
			name: "negate flips the result",
			specs: []models.SpecificationDefinition{
				{Kind: models.SpecReleaseGroup, Value: `^CODEX$`, Negate: true},
			},
			want: true,
		},
		{
			name: "negated required failing",
			specs: []models.SpecificationDefinition{
				{Kind: models.SpecReleaseTitle, Value: `gog`, Negate: true, Required: true},
			},
			want: false,
		},
	}

	ctx := scoringContext("Some.Game.2015.GOG-GROUP", 0, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine, err := NewEngine([]*models.CustomFormat{{Name: "cf", DefaultScore: 1, Specifications: tt.specs}})
			require.NoError(t, err)
			res := engine.Score(ctx)
			assert.Equal(t, tt.want, len(res.Formats) == 1)
		})
	}
}

func TestEngine_InvalidSpecificationFailsCompile(t *testing.T) {
	t.Parallel()

	_, err := NewEngine([]*models.CustomFormat{{Name: "bad", Specifications: []models.SpecificationDefinition{spec(models.SpecReleaseTitle, `(`)}}})
	assert.Error(t, err)

	assert.Error(t, Validate(&models.CustomFormat{Name: "bad", Specifications: []models.SpecificationDefinition{spec(models.SpecVersion, `>>> 1`)}}))
	assert.Error(t, Validate(&models.CustomFormat{Name: "bad", Specifications: []models.SpecificationDefinition{spec(models.SpecExpression, `Size +`)}}))
	assert.Error(t, Validate(&models.CustomFormat{Name: "bad", Specifications: []models.SpecificationDefinition{spec(models.SpecLanguage, `Klingon`)}}))
	assert.Error(t, Validate(&models.CustomFormat{Name: "bad", Specifications: []models.SpecificationDefinition{spec(models.SpecIndexerFlag, `bogus`)}}))
	assert.NoError(t, Validate(&models.CustomFormat{Name: "ok", Specifications: []models.SpecificationDefinition{spec(models.SpecExpression, `SizeGB > 1`)}}))
}

func TestEngine_ApplySetsRemoteFields(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine([]*models.CustomFormat{{Name: "GOG", DefaultScore: 25, Specifications: []models.SpecificationDefinition{spec(models.SpecReleaseTitle, `\bgog\b`)}}})
	require.NoError(t, err)

	remote := &models.RemoteGame{
		Parsed:  releases.Parse("Some.Game.2015.GOG-GROUP"),
		Release: &models.ReleaseInfo{Title: "Some.Game.2015.GOG-GROUP"},
	}
	res := engine.Apply(remote, nil)
	assert.Equal(t, 25, res.Score)
	assert.Equal(t, 25, remote.CustomFormatScore)
	assert.Equal(t, []string{"GOG"}, remote.CustomFormatNames())
}
