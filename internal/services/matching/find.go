// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package matching

import (
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/titles"
)

type matchKind int

const (
	matchCanonical matchKind = iota
	matchAlternate
	matchTranslation
)

type hit struct {
	game *models.Game
	kind matchKind
}

// FindByTitle returns the single game whose canonical, alternate or
// translated clean title equals one of the titles. Titles are tried in
// order, candidates before extraTitles, and the first unambiguous match
// wins. With a year only games of exactly that year qualify. Two or more
// qualifying games are ambiguous and never resolved by guessing.
func FindByTitle(candidates []string, year int, extraTitles []string, pool []*models.Game) *models.Game {
	return FindByTitleWith(StrategyFirst, candidates, year, extraTitles, pool)
}

// FindByTitleWith is FindByTitle with an explicit strategy.
func FindByTitleWith(strategy Strategy, candidates []string, year int, extraTitles []string, pool []*models.Game) *models.Game {
	if len(pool) == 0 {
		return nil
	}

	all := make([]string, 0, len(candidates)+len(extraTitles))
	all = append(all, candidates...)
	all = append(all, extraTitles...)

	var best *hit
	seen := make(map[string]struct{}, len(all))
	for _, title := range all {
		clean := titles.Clean(title)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}

		h, ok := matchClean(clean, year, pool)
		if !ok {
			continue
		}
		if strategy != StrategyBest {
			return h.game
		}
		if best == nil || h.kind < best.kind {
			best = &h
		}
		if best.kind == matchCanonical {
			break
		}
	}

	if best == nil {
		return nil
	}
	return best.game
}

func matchClean(clean string, year int, pool []*models.Game) (hit, bool) {
	var hits []hit
	for _, game := range pool {
		if game == nil {
			continue
		}
		kind, ok := matchKindFor(game, clean)
		if !ok {
			continue
		}
		if year > 0 && game.Year != year {
			continue
		}
		hits = append(hits, hit{game: game, kind: kind})
	}

	if len(hits) != 1 {
		return hit{}, false
	}
	return hits[0], true
}

func matchKindFor(game *models.Game, clean string) (matchKind, bool) {
	if clean == "" {
		return 0, false
	}
	if gameClean(game) == clean {
		return matchCanonical, true
	}
	for _, alt := range game.AlternateTitles {
		if cleanOf(alt.CleanTitle, alt.Title) == clean {
			return matchAlternate, true
		}
	}
	for _, tr := range game.Translations {
		if cleanOf(tr.CleanTitle, tr.Title) == clean {
			return matchTranslation, true
		}
	}
	return 0, false
}

func gameClean(game *models.Game) string {
	return cleanOf(game.CleanTitle, game.Title)
}

func cleanOf(stored, title string) string {
	if stored != "" {
		return stored
	}
	return titles.Clean(title)
}
