// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/library"
	"github.com/autobrr/gamarr/pkg/releases"
)

type fakeLibrary struct {
	games []*models.Game
}

func (f *fakeLibrary) Games(context.Context) ([]*models.Game, error) {
	return f.games, nil
}

func (f *fakeLibrary) Get(_ context.Context, id int) (*models.Game, error) {
	for _, g := range f.games {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, library.ErrGameNotFound
}

func (f *fakeLibrary) FindByIgdbID(_ context.Context, igdbID int) (*models.Game, error) {
	for _, g := range f.games {
		if g.IgdbID > 0 && g.IgdbID == igdbID {
			return g, nil
		}
	}
	return nil, library.ErrGameNotFound
}

func (f *fakeLibrary) FindBySteamAppID(_ context.Context, appID int) (*models.Game, error) {
	for _, g := range f.games {
		if g.SteamAppID > 0 && g.SteamAppID == appID {
			return g, nil
		}
	}
	return nil, library.ErrGameNotFound
}

func TestMatcher_MapSomeGameScenario(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{games: []*models.Game{game(1, "Some Game", 2015), game(2, "Some Game", 2014)}}
	m := NewMatcher(lib, nil, StrategyFirst)

	release := &models.ReleaseInfo{Title: "Some.Game.2015.GOG-GROUP", Protocol: models.ProtocolTorrent}
	remote, err := m.MapTitle(context.Background(), release.Title, release, MapOptions{})
	require.NoError(t, err)

	require.NotNil(t, remote.Game)
	assert.Equal(t, 1, remote.Game.ID)
	assert.Equal(t, MatchedByTitle, remote.MatchedBy)
	assert.Equal(t, []string{"Some Game"}, remote.Parsed.Titles)
	assert.Equal(t, releases.QualityGOG, remote.Parsed.Quality.Quality)
	assert.Same(t, release, remote.Release)
	assert.NotSame(t, lib.games[0], remote.Game, "remote games hold copies")
}

func TestMatcher_MapPrefersExternalIDs(t *testing.T) {
	t.Parallel()

	byIgdb := game(1, "Different Name", 2015)
	byIgdb.IgdbID = 555
	bySteam := game(2, "Another Name", 2015)
	bySteam.SteamAppID = 777
	lib := &fakeLibrary{games: []*models.Game{byIgdb, bySteam, game(3, "Some Game", 2015)}}
	m := NewMatcher(lib, nil, StrategyFirst)
	ctx := context.Background()

	remote, err := m.Map(ctx, releases.Parse("Some.Game.2015.GOG-GROUP"), &models.ReleaseInfo{IgdbID: 555}, MapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, remote.GameID())
	assert.Equal(t, MatchedByIgdbID, remote.MatchedBy)

	parsed := releases.Parse("Some.Game.2015.GOG-GROUP")
	parsed.SteamAppID = 777
	remote, err = m.Map(ctx, parsed, &models.ReleaseInfo{}, MapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, remote.GameID())
	assert.Equal(t, MatchedBySteamAppID, remote.MatchedBy)

	remote, err = m.Map(ctx, releases.Parse("Some.Game.2015.GOG-GROUP"), &models.ReleaseInfo{IgdbID: 999}, MapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, remote.GameID(), "unknown ids fall back to titles")
}

func TestMatcher_MapSearchTargetIgnoresYear(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{games: []*models.Game{game(1, "Some Game", 2014)}}
	m := NewMatcher(lib, nil, StrategyFirst)
	ctx := context.Background()

	remote, err := m.MapTitle(ctx, "Some.Game.2015.GOG-GROUP", &models.ReleaseInfo{}, MapOptions{})
	require.NoError(t, err)
	assert.Nil(t, remote.Game)

	remote, err = m.MapTitle(ctx, "Some.Game.2015.GOG-GROUP", &models.ReleaseInfo{}, MapOptions{GameID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, remote.GameID())
	assert.Equal(t, MatchedBySearch, remote.MatchedBy)
}

func TestMatcher_MapTitleEndingInYear(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{games: []*models.Game{game(7, "Cyberpunk 2077", 2020)}}
	m := NewMatcher(lib, nil, StrategyFirst)
	ctx := context.Background()

	for _, title := range []string{"Cyberpunk.2077.GOG-GROUP", "Cyberpunk.2077.v2.1-GOG"} {
		remote, err := m.MapTitle(ctx, title, &models.ReleaseInfo{Title: title}, MapOptions{})
		require.NoError(t, err)
		require.NotNil(t, remote.Game, title)
		assert.Equal(t, 7, remote.Game.ID)
		assert.Equal(t, MatchedByTitle, remote.MatchedBy)
	}

}

func TestMatcher_MapSearchTargetEndingInYear(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{games: []*models.Game{game(7, "Cyberpunk 2077", 2020), game(8, "Cyberpunk 2077", 1988)}}
	m := NewMatcher(lib, nil, StrategyFirst)
	ctx := context.Background()

	remote, err := m.MapTitle(ctx, "Cyberpunk.2077.GOG-GROUP", &models.ReleaseInfo{}, MapOptions{})
	require.NoError(t, err)
	assert.Nil(t, remote.Game, "two games share the title")

	remote, err = m.MapTitle(ctx, "Cyberpunk.2077.GOG-GROUP", &models.ReleaseInfo{}, MapOptions{GameID: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, remote.GameID())
	assert.Equal(t, MatchedBySearch, remote.MatchedBy)
}

func TestMatcher_MapYearStillDisambiguates(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{games: []*models.Game{game(1, "Some Game", 2014), game(2, "Some Game 2015", 2020)}}
	m := NewMatcher(lib, nil, StrategyFirst)

	remote, err := m.MapTitle(context.Background(), "Some.Game.2014.GOG-GROUP", &models.ReleaseInfo{}, MapOptions{})
	require.NoError(t, err)
	require.NotNil(t, remote.Game)
	assert.Equal(t, 1, remote.Game.ID)
}

func TestMatcher_MapNilParsed(t *testing.T) {
	t.Parallel()

	m := NewMatcher(&fakeLibrary{}, nil, "")
	remote, err := m.Map(context.Background(), nil, &models.ReleaseInfo{Title: "x"}, MapOptions{})
	require.NoError(t, err)
	assert.Nil(t, remote.Game)
	assert.Equal(t, StrategyFirst, m.Strategy())
}

func TestMatcher_Suggest(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{games: []*models.Game{
		game(1, "Hollow Knight", 2017),
		game(2, "Hollow Knight: Silksong", 2025),
		game(3, "Unrelated", 2017),
	}}
	m := NewMatcher(lib, nil, StrategyFirst)

	suggestions, err := m.Suggest(context.Background(), "Hollow.Knight.2017-CODEX", 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, 1, suggestions[0].Game.ID)
	assert.Equal(t, "exact", suggestions[0].Method)
	assert.Equal(t, 2, suggestions[1].Game.ID)

	suggestions, err = m.Suggest(context.Background(), "Hollow.Knight.2017-CODEX", 1)
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
}
