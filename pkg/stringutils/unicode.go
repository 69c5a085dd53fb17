// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stringutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letterReplacer handles letters that NFKD does not decompose into ASCII.
var letterReplacer = strings.NewReplacer(
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ß", "ss", "ẞ", "SS",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
)

// umlautReplacer spells German umlauts the way release names usually do.
var umlautReplacer = strings.NewReplacer(
	"ä", "ae", "Ä", "Ae",
	"ö", "oe", "Ö", "Oe",
	"ü", "ue", "Ü", "Ue",
)

var foldMemo = NewMemo(defaultMemoTTL, foldDiacritics)

func foldDiacritics(s string) string {
	s = letterReplacer.Replace(s)

	// transform.Chain keeps internal state, so it is built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// FoldDiacritics strips combining marks and decomposes ligatures.
//   - "Amélie" → "Amelie"
//   - "Pokémon" → "Pokemon"
//   - "ﬁ" → "fi"
func FoldDiacritics(s string) string {
	return foldMemo.Get(s)
}

// TransliterateUmlauts rewrites ä, ö and ü as ae, oe and ue so that
// "Göthe" and "Goethe" fold to the same text.
func TransliterateUmlauts(s string) string {
	return umlautReplacer.Replace(s)
}
