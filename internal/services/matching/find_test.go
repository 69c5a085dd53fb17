// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/titles"
)

func game(id int, title string, year int) *models.Game {
	return &models.Game{ID: id, Title: title, CleanTitle: titles.Clean(title), Year: year}
}

func TestFindByTitle_YearDisambiguates(t *testing.T) {
	t.Parallel()

	pool := []*models.Game{game(1, "X", 1999), game(2, "X", 2000)}

	got := FindByTitle([]string{"X"}, 2000, nil, pool)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ID)

	assert.Nil(t, FindByTitle([]string{"X"}, 2005, nil, pool), "no exact year, no guess")
	assert.Nil(t, FindByTitle([]string{"X"}, 0, nil, pool), "no year, two candidates")
}

func TestFindByTitle_SingleEntryNeedsExactYear(t *testing.T) {
	t.Parallel()

	pool := []*models.Game{game(1, "Some Game", 2015)}

	assert.NotNil(t, FindByTitle([]string{"Some Game"}, 2015, nil, pool))
	assert.NotNil(t, FindByTitle([]string{"Some Game"}, 0, nil, pool))
	assert.Nil(t, FindByTitle([]string{"Some Game"}, 2016, nil, pool))
}

func TestFindByTitle_AlternateAndTranslatedTitles(t *testing.T) {
	t.Parallel()

	witcher := game(1, "The Witcher 3: Wild Hunt", 2015)
	witcher.AlternateTitles = []models.AlternateTitle{{Title: "Witcher 3", CleanTitle: titles.Clean("Witcher 3")}}
	witcher.Translations = []models.Translation{{Language: "Polish", Title: "Wiedźmin 3: Dziki Gon"}}
	pool := []*models.Game{witcher, game(2, "Other Game", 2015)}

	assert.Equal(t, 1, FindByTitle([]string{"Witcher III"}, 0, nil, pool).ID)
	assert.Equal(t, 1, FindByTitle([]string{"Wiedzmin 3 Dziki Gon"}, 2015, nil, pool).ID)
	assert.Nil(t, FindByTitle([]string{"Witcher 4"}, 0, nil, pool))
}

func TestFindByTitle_TriesTitlesInOrder(t *testing.T) {
	t.Parallel()

	pool := []*models.Game{game(1, "Star Wars", 2000), game(2, "Star Wars", 2001), game(3, "Star Wars Jedi", 2019)}

	// The ambiguous full title falls through to the next candidate.
	got := FindByTitle([]string{"Star Wars", "Star Wars Jedi"}, 0, nil, pool)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.ID)

	got = FindByTitle([]string{"Unknown Title"}, 0, []string{"Star Wars Jedi"}, pool)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.ID, "extra titles are tried after candidates")
}

func TestFindByTitleWith_BestPrefersCanonical(t *testing.T) {
	t.Parallel()

	first := game(1, "Alpha", 0)
	first.AlternateTitles = []models.AlternateTitle{{Title: "Beta"}}
	second := game(2, "Gamma", 0)
	second.AlternateTitles = []models.AlternateTitle{{Title: "Delta"}}
	pool := []*models.Game{first, second}

	candidates := []string{"Beta", "Gamma"}
	assert.Equal(t, 1, FindByTitleWith(StrategyFirst, candidates, 0, nil, pool).ID)
	assert.Equal(t, 2, FindByTitleWith(StrategyBest, candidates, 0, nil, pool).ID)
}

func TestFindByTitle_DoesNotMutatePool(t *testing.T) {
	t.Parallel()

	pool := []*models.Game{game(1, "Some Game", 2015), game(2, "Other", 0)}
	before := []models.Game{*pool[0], *pool[1]}

	FindByTitleWith(StrategyBest, []string{"Some Game", "Other"}, 2015, []string{"x"}, pool)

	assert.Equal(t, before[0], *pool[0])
	assert.Equal(t, before[1], *pool[1])
	assert.Len(t, pool, 2)
}

func TestFindByTitle_EmptyInputs(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FindByTitle(nil, 0, nil, []*models.Game{game(1, "A", 0)}))
	assert.Nil(t, FindByTitle([]string{"A"}, 0, nil, nil))
	assert.Nil(t, FindByTitle([]string{"!!!"}, 0, nil, []*models.Game{{ID: 1, Title: "???"}}))
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StrategyBest, ParseStrategy(" Best "))
	assert.Equal(t, StrategyFirst, ParseStrategy("first"))
	assert.Equal(t, StrategyFirst, ParseStrategy("whatever"))
}
