// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package matching

import (
	"context"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

const (
	defaultSuggestionLimit = 5
	maxFuzzyRank           = 10
)

// Suggestion is a game that might be what an unmatched release is about.
type Suggestion struct {
	Game   *models.Game `json:"game"`
	Score  int          `json:"score"`
	Method string       `json:"method"`
}

// Suggest ranks library games against an unmatched release title, best
// first. Lower scores are better. It never decides a match on its own.
func (m *Matcher) Suggest(ctx context.Context, title string, limit int) ([]Suggestion, error) {
	pool, err := m.library.Games(ctx)
	if err != nil {
		return nil, err
	}
	return SuggestFrom(m.parser.Parse(title), pool, limit), nil
}

// SuggestFrom ranks the pool against the primary parsed title.
func SuggestFrom(parsed *releases.ParsedReleaseInfo, pool []*models.Game, limit int) []Suggestion {
	if parsed == nil || len(pool) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	search := normalizeForSearch(parsed.PrimaryTitle())
	if search == "" {
		return nil
	}
	searchWords := strings.Fields(search)

	var suggestions []Suggestion
	for _, game := range pool {
		best, method, ok := rankGame(game, search, searchWords)
		if !ok {
			continue
		}
		if parsed.Year > 0 && game.Year == parsed.Year {
			best--
		}
		suggestions = append(suggestions, Suggestion{Game: game.Clone(), Score: best, Method: method})
	}

	slices.SortStableFunc(suggestions, func(a, b Suggestion) int {
		if a.Score != b.Score {
			return a.Score - b.Score
		}
		return strings.Compare(a.Game.Title, b.Game.Title)
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func rankGame(game *models.Game, search string, searchWords []string) (int, string, bool) {
	names := []string{game.Title}
	for _, alt := range game.AlternateTitles {
		names = append(names, alt.Title)
	}
	for _, tr := range game.Translations {
		names = append(names, tr.Title)
	}

	best, method, found := 0, "", false
	consider := func(score int, how string) {
		if !found || score < best {
			best, method, found = score, how, true
		}
	}

	for _, name := range names {
		normalized := normalizeForSearch(name)
		if normalized == "" {
			continue
		}

		if normalized == search {
			consider(0, "exact")
			continue
		}
		if strings.Contains(normalized, search) || strings.Contains(search, normalized) {
			consider(1, "contains")
			continue
		}
		if len(searchWords) > 1 && allWordsIn(searchWords, normalized) {
			consider(2, "all-words")
			continue
		}
		if fuzzy.MatchNormalizedFold(search, normalized) {
			if rank := fuzzy.RankMatchNormalizedFold(search, normalized); rank >= 0 && rank < maxFuzzyRank {
				consider(3+rank, "fuzzy")
			}
		}
	}
	return best, method, found
}

func allWordsIn(words []string, text string) bool {
	fields := strings.Fields(text)
	for _, word := range words {
		if !slices.Contains(fields, word) {
			return false
		}
	}
	return true
}

// normalizeForSearch keeps word boundaries, unlike titles.Clean.
func normalizeForSearch(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-', ':', '\'', ',', '!', '?', '(', ')', '[', ']':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
