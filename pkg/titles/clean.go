// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package titles turns display titles into the clean keys used to compare
// release titles with library entries.
package titles

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/autobrr/gamarr/pkg/stringutils"
)

// connectors are dropped from clean keys unless they start the title, so
// "Heroes of Might and Magic" and "Heroes Might Magic" share a key.
var connectors = map[string]struct{}{
	"a":   {},
	"an":  {},
	"the": {},
	"and": {},
	"or":  {},
	"of":  {},
}

var (
	cleanMemo   = stringutils.NewMemo(0, func(s string) string { return clean(s, true) })
	literalMemo = stringutils.NewMemo(0, func(s string) string { return clean(s, false) })
)

// Clean returns the comparison key for a title:
//   - "Game Title II" → "gametitle2"
//   - "Göthe's Faust" → "goethesfaust"
//   - "Tom & Jerry" → "tomjerry"
//
// The result only contains lower-case letters and digits. Clean never fails;
// characters it cannot fold are dropped.
func Clean(title string) string {
	return cleanMemo.Get(title)
}

// CleanLiteral is Clean without roman numeral conversion.
func CleanLiteral(title string) string {
	return literalMemo.Get(title)
}

func clean(title string, numerals bool) string {
	s := stringutils.TransliterateUmlauts(title)
	s = stringutils.FoldDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	b.Grow(len(s))
	for i, word := range words {
		if _, ok := connectors[word]; ok && i > 0 {
			continue
		}
		if numerals {
			if n, ok := RomanToArabic(word); ok {
				word = strconv.Itoa(n)
			}
		}
		b.WriteString(word)
	}

	return b.String()
}
