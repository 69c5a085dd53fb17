// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package matching resolves parsed releases to library games.
package matching

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/library"
	"github.com/autobrr/gamarr/pkg/releases"
	"github.com/autobrr/gamarr/pkg/titles"
)

// Strategy decides which title wins when several candidate titles match.
type Strategy string

const (
	// StrategyFirst returns the match of the first title that resolves unambiguously.
	StrategyFirst Strategy = "first"
	// StrategyBest tries every title and prefers canonical title hits over
	// alternate and translated ones.
	StrategyBest Strategy = "best"
)

// ParseStrategy falls back to StrategyFirst for unknown values.
func ParseStrategy(value string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyBest:
		return StrategyBest
	default:
		return StrategyFirst
	}
}

const (
	MatchedByIgdbID     = "igdbId"
	MatchedBySteamAppID = "steamAppId"
	MatchedByTitle      = "title"
	MatchedBySearch     = "search"
)

// Library is the read side of the library service.
type Library interface {
	Games(ctx context.Context) ([]*models.Game, error)
	Get(ctx context.Context, id int) (*models.Game, error)
	FindByIgdbID(ctx context.Context, igdbID int) (*models.Game, error)
	FindBySteamAppID(ctx context.Context, appID int) (*models.Game, error)
}

type Matcher struct {
	library  Library
	parser   *releases.Parser
	strategy Strategy
}

func NewMatcher(lib Library, parser *releases.Parser, strategy Strategy) *Matcher {
	if parser == nil {
		parser = releases.NewDefaultParser()
	}
	if strategy == "" {
		strategy = StrategyFirst
	}
	return &Matcher{library: lib, parser: parser, strategy: strategy}
}

func (m *Matcher) Strategy() Strategy {
	return m.strategy
}

// FindByTitle applies the matcher's strategy to FindByTitleWith.
func (m *Matcher) FindByTitle(candidates []string, year int, extraTitles []string, pool []*models.Game) *models.Game {
	return FindByTitleWith(m.strategy, candidates, year, extraTitles, pool)
}

// MapOptions narrows a lookup.
type MapOptions struct {
	// GameID restricts the match to one game, as a targeted search does.
	GameID int
}

// Map resolves a parsed release against the library. The returned
// RemoteGame always carries the parsed info and release; Game is nil when
// nothing matched.
func (m *Matcher) Map(ctx context.Context, parsed *releases.ParsedReleaseInfo, release *models.ReleaseInfo, opts MapOptions) (*models.RemoteGame, error) {
	remote := &models.RemoteGame{Parsed: parsed, Release: release}
	if parsed == nil {
		return remote, nil
	}

	game, matchedBy, err := m.lookup(ctx, parsed, release)
	if err != nil {
		return nil, err
	}

	if game == nil && opts.GameID > 0 {
		game, matchedBy, err = m.matchSearchTarget(ctx, parsed, opts.GameID)
		if err != nil {
			return nil, err
		}
	}

	if game != nil {
		remote.Game = game.Clone()
		remote.MatchedBy = matchedBy
	}
	return remote, nil
}

// MapTitle parses a raw title before mapping it.
func (m *Matcher) MapTitle(ctx context.Context, title string, release *models.ReleaseInfo, opts MapOptions) (*models.RemoteGame, error) {
	return m.Map(ctx, m.parser.Parse(title), release, opts)
}

func (m *Matcher) lookup(ctx context.Context, parsed *releases.ParsedReleaseInfo, release *models.ReleaseInfo) (*models.Game, string, error) {
	igdbID := parsed.IgdbID
	if release != nil && release.IgdbID > 0 {
		igdbID = release.IgdbID
	}
	if igdbID > 0 {
		game, err := m.library.FindByIgdbID(ctx, igdbID)
		switch {
		case err == nil:
			return game, MatchedByIgdbID, nil
		case !errors.Is(err, library.ErrGameNotFound):
			return nil, "", fmt.Errorf("find by igdb id %d: %w", igdbID, err)
		}
	}

	if parsed.SteamAppID > 0 {
		game, err := m.library.FindBySteamAppID(ctx, parsed.SteamAppID)
		switch {
		case err == nil:
			return game, MatchedBySteamAppID, nil
		case !errors.Is(err, library.ErrGameNotFound):
			return nil, "", fmt.Errorf("find by steam app id %d: %w", parsed.SteamAppID, err)
		}
	}

	pool, err := m.library.Games(ctx)
	if err != nil {
		return nil, "", err
	}

	if game := m.FindByTitle(parsed.Titles, parsed.Year, nil, pool); game != nil {
		return game, MatchedByTitle, nil
	}
	// The "year" may belong to the name, as in Cyberpunk 2077.
	if game := m.FindByTitle(parsed.YearlessTitles, 0, nil, pool); game != nil {
		return game, MatchedByTitle, nil
	}

	log.Trace().Str("release", parsed.ReleaseTitle).Strs("titles", parsed.Titles).Int("year", parsed.Year).Msg("[MATCHING] No game matched")
	return nil, "", nil
}

// matchSearchTarget accepts the searched game when one of the parsed
// titles equals one of its titles, ignoring the year.
func (m *Matcher) matchSearchTarget(ctx context.Context, parsed *releases.ParsedReleaseInfo, gameID int) (*models.Game, string, error) {
	game, err := m.library.Get(ctx, gameID)
	if errors.Is(err, library.ErrGameNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	for _, title := range slices.Concat(parsed.Titles, parsed.YearlessTitles) {
		if _, ok := matchKindFor(game, titles.Clean(title)); ok {
			return game, MatchedBySearch, nil
		}
	}
	return nil, "", nil
}
