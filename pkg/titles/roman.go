// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package titles

import "strings"

// maxSequelNumeral bounds the numerals treated as sequel markers. A lone "I"
// is left alone since it is far more often a pronoun than a numeral.
const maxSequelNumeral = 30

var romanNumerals = buildRomanTable(maxSequelNumeral)

func buildRomanTable(limit int) map[string]int {
	table := make(map[string]int, limit)
	for n := 2; n <= limit; n++ {
		table[toRoman(n)] = n
	}
	return table
}

func toRoman(n int) string {
	values := []int{10, 9, 5, 4, 1}
	symbols := []string{"x", "ix", "v", "iv", "i"}

	var b strings.Builder
	for i, v := range values {
		for n >= v {
			b.WriteString(symbols[i])
			n -= v
		}
	}
	return b.String()
}

// RomanToArabic converts a sequel numeral between II and XXX (plus V and X).
func RomanToArabic(token string) (int, bool) {
	n, ok := romanNumerals[strings.ToLower(token)]
	return n, ok
}
