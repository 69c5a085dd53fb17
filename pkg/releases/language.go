// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import "strings"

type Language struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

var (
	LanguageUnknown    = Language{ID: 0, Name: "Unknown"}
	LanguageEnglish    = Language{ID: 1, Name: "English"}
	LanguageFrench     = Language{ID: 2, Name: "French"}
	LanguageGerman     = Language{ID: 3, Name: "German"}
	LanguageSpanish    = Language{ID: 4, Name: "Spanish"}
	LanguageItalian    = Language{ID: 5, Name: "Italian"}
	LanguageRussian    = Language{ID: 6, Name: "Russian"}
	LanguagePolish     = Language{ID: 7, Name: "Polish"}
	LanguagePortuguese = Language{ID: 8, Name: "Portuguese"}
	LanguageJapanese   = Language{ID: 9, Name: "Japanese"}
	LanguageChinese    = Language{ID: 10, Name: "Chinese"}
	LanguageKorean     = Language{ID: 11, Name: "Korean"}
	LanguageDutch      = Language{ID: 12, Name: "Dutch"}
	LanguageSwedish    = Language{ID: 13, Name: "Swedish"}
	LanguageMulti      = Language{ID: 99, Name: "Multi"}
)

var AllLanguages = []Language{
	LanguageUnknown,
	LanguageEnglish,
	LanguageFrench,
	LanguageGerman,
	LanguageSpanish,
	LanguageItalian,
	LanguageRussian,
	LanguagePolish,
	LanguagePortuguese,
	LanguageJapanese,
	LanguageChinese,
	LanguageKorean,
	LanguageDutch,
	LanguageSwedish,
	LanguageMulti,
}

// languageTokens maps lower-cased release tokens to languages.
var languageTokens = map[string]Language{
	"english":    LanguageEnglish,
	"eng":        LanguageEnglish,
	"french":     LanguageFrench,
	"fre":        LanguageFrench,
	"german":     LanguageGerman,
	"ger":        LanguageGerman,
	"deutsch":    LanguageGerman,
	"spanish":    LanguageSpanish,
	"spa":        LanguageSpanish,
	"esp":        LanguageSpanish,
	"italian":    LanguageItalian,
	"ita":        LanguageItalian,
	"russian":    LanguageRussian,
	"rus":        LanguageRussian,
	"polish":     LanguagePolish,
	"pol":        LanguagePolish,
	"portuguese": LanguagePortuguese,
	"japanese":   LanguageJapanese,
	"jpn":        LanguageJapanese,
	"chinese":    LanguageChinese,
	"chs":        LanguageChinese,
	"cht":        LanguageChinese,
	"korean":     LanguageKorean,
	"kor":        LanguageKorean,
	"dutch":      LanguageDutch,
	"swedish":    LanguageSwedish,
}

func (l Language) String() string {
	return l.Name
}

// LanguageByName looks up a language case-insensitively.
func LanguageByName(name string) (Language, bool) {
	for _, l := range AllLanguages {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return LanguageUnknown, false
}

func languageFromToken(token string) (Language, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if strings.HasPrefix(token, "multi") {
		return LanguageMulti, true
	}
	l, ok := languageTokens[token]
	return l, ok
}

// ContainsLanguage reports whether langs contains l.
func ContainsLanguage(langs []Language, l Language) bool {
	for _, candidate := range langs {
		if candidate.ID == l.ID {
			return true
		}
	}
	return false
}
