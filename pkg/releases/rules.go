// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"regexp"
	"strconv"
	"strings"
)

type ruleStage int

const (
	// stageRaw rules see the untouched title and cut their match out.
	stageRaw ruleStage = iota
	// stageStrong matches end the title wherever they occur.
	stageStrong
	// stageGroup picks up a trailing release group.
	stageGroup
	// stageWeak tokens double as ordinary words, so they only count once a
	// title precedes them and never ahead of a strong token.
	stageWeak
)

type rule struct {
	name    string
	stage   ruleStage
	pattern *regexp.Regexp
	// last keeps only the right-most acceptable match.
	last bool
	// notLeading requires title text in front of the match.
	notLeading bool
	apply      func(info *ParsedReleaseInfo, m []string) bool
}

// repackers publish compressed installers and are recognised by name.
var repackers = map[string]string{
	"fitgirl":  "FitGirl",
	"dodi":     "DODI",
	"elamigos": "ElAmigos",
	"kaos":     "KaOs",
	"xatab":    "xatab",
	"chovka":   "Chovka",
}

var sceneGroups = map[string]struct{}{
	"CODEX":       {},
	"SKIDROW":     {},
	"RELOADED":    {},
	"PLAZA":       {},
	"RUNE":        {},
	"TENOKE":      {},
	"FLT":         {},
	"DOGE":        {},
	"EMPRESS":     {},
	"CPY":         {},
	"HOODLUM":     {},
	"RAZOR1911":   {},
	"PROPHET":     {},
	"DARKSIDERS":  {},
	"TINYISO":     {},
	"SIMPLEX":     {},
	"HI2U":        {},
	"ANOMALY":     {},
	"POSTMORTEM":  {},
	"DINOBYTES":   {},
	"ELECTROMANI": {},
	"I_KNOW":      {},
}

func isSceneGroup(name string) bool {
	_, ok := sceneGroups[strings.ToUpper(name)]
	return ok
}

func repackerName(name string) (string, bool) {
	canonical, ok := repackers[strings.ToLower(name)]
	return canonical, ok
}

func setQuality(q Quality) func(*ParsedReleaseInfo, []string) bool {
	return func(info *ParsedReleaseInfo, _ []string) bool {
		if info.Quality.Quality == QualityUnknown {
			info.Quality.Quality = q
		}
		return true
	}
}

func setPlatform(name string) func(*ParsedReleaseInfo, []string) bool {
	return func(info *ParsedReleaseInfo, _ []string) bool {
		if info.Platform == "" {
			info.Platform = name
		}
		return true
	}
}

func setVersion(info *ParsedReleaseInfo, m []string) bool {
	if info.Version == "" {
		info.Version = m[1]
	}
	return true
}

func setEdition(info *ParsedReleaseInfo, m []string) bool {
	if info.Edition == "" {
		info.Edition = strings.Join(strings.Fields(m[1]), " ")
	}
	return true
}

func setYear(info *ParsedReleaseInfo, m []string) bool {
	if info.Year != 0 {
		return false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	info.Year = year
	return true
}

func setRepacker(info *ParsedReleaseInfo, m []string) bool {
	name, ok := repackerName(m[1])
	if !ok {
		return false
	}
	if info.Group == "" {
		info.Group = name
	}
	if info.Quality.Quality == QualityUnknown {
		info.Quality.Quality = QualityRepack
	}
	return true
}

func setGroup(info *ParsedReleaseInfo, m []string) bool {
	if info.Group != "" {
		return false
	}
	info.Group = m[1]
	return true
}

const yearRuleName = "year"

// parseRules is the ordered cascade. Each rule only sees what earlier rules
// left behind.
var parseRules = []rule{
	{
		name:    "external-id",
		stage:   stageRaw,
		pattern: regexp.MustCompile(`(?i)[{\[]\s*(igdb|steam)(?:id)?[-_:= ]\s*(\d+)\s*[}\]]`),
		apply: func(info *ParsedReleaseInfo, m []string) bool {
			id, err := strconv.Atoi(m[2])
			if err != nil {
				return false
			}
			if strings.EqualFold(m[1], "igdb") {
				info.IgdbID = id
			} else {
				info.SteamAppID = id
			}
			return true
		},
	},
	{
		name:    "file-extension",
		stage:   stageRaw,
		pattern: regexp.MustCompile(`(?i)\.(?:iso|zip|rar|7z|nzb|torrent|exe|bin|tar|gz)$`),
		apply:   func(*ParsedReleaseInfo, []string) bool { return true },
	},
	{
		name:    "site-prefix",
		stage:   stageRaw,
		pattern: regexp.MustCompile(`(?i)^\s*(?:\[\s*(?:www\.)?[a-z0-9][a-z0-9-]*\.[a-z]{2,6}\s*\]|www\.[a-z0-9][a-z0-9-]*\.[a-z]{2,6})\s*-?\s*`),
		apply:   func(*ParsedReleaseInfo, []string) bool { return true },
	},
	{
		name:    "repacker-bracket",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)[\[(]\s*(fitgirl|dodi|elamigos|kaos|xatab|chovka)(?:\s+repacks?)?\s*[\])]`),
		apply:   setRepacker,
	},
	{
		name:    "repacker",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\b(fitgirl|dodi|elamigos|kaos|xatab|chovka)(?:\s+repacks?)?\b`),
		apply:   setRepacker,
	},
	{
		name:    "quality-gog",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\bgog(?:\s?rip)?\b`),
		apply:   setQuality(QualityGOG),
	},
	{
		name:    "quality-iso",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\b(?:iso|dvd5|dvd9)\b`),
		apply:   setQuality(QualityISO),
	},
	{
		name:    "quality-portable",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\bportable\b`),
		apply:   setQuality(QualityPortable),
	},
	{
		name:    "revision-proper",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\bproper\b`),
		apply: func(info *ParsedReleaseInfo, _ []string) bool {
			info.Quality.Revision.Version++
			return true
		},
	},
	{
		name:    "revision-real",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`\bREAL\b`),
		apply: func(info *ParsedReleaseInfo, _ []string) bool {
			info.Quality.Revision.Real++
			return true
		},
	},
	{
		name:    "revision-repack",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\b(?:repack|rerip)\b`),
		apply: func(info *ParsedReleaseInfo, _ []string) bool {
			info.Quality.Revision.Version++
			info.Quality.Revision.IsRepack = true
			return true
		},
	},
	{
		name:  "edition",
		stage: stageStrong,
		pattern: regexp.MustCompile(`(?i)\b((?:digital\s+)?(?:deluxe|gold|complete|definitive|ultimate|premium|enhanced|anniversary|collectors|legendary|special|royal|platinum|remastered|standard|digital)\s+edition|goty(?:\s+edition)?|game\s+of\s+the\s+year(?:\s+edition)?|directors\s+cut)\b`),
		apply: setEdition,
	},
	{
		name:    "update-version",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\bupdate\s+v?(\d+(?:\.\d+)*[a-z]?)\b`),
		apply: func(info *ParsedReleaseInfo, m []string) bool {
			info.IsUpdate = true
			return setVersion(info, m)
		},
	},
	{
		name:    "version",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\bv(\d+(?:\.\d+){0,4}[a-z]?)\b`),
		apply:   setVersion,
	},
	{
		name:    "build",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\bbuild\s?(\d{3,})\b`),
		apply:   setVersion,
	},
	{
		name:    "platform-mac",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\b(?:macosx?|osx)\b`),
		apply:   setPlatform("macOS"),
	},
	{
		name:    "platform-linux",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`(?i)\blinux\b`),
		apply:   setPlatform("Linux"),
	},
	{
		name:    "platform-console",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`\b(NSW|PS[345])\b`),
		apply: func(info *ParsedReleaseInfo, m []string) bool {
			name := m[1]
			if name == "NSW" {
				name = "Switch"
			}
			return setPlatform(name)(info, m)
		},
	},
	{
		name:    "year-bracketed",
		stage:   stageStrong,
		pattern: regexp.MustCompile(`[(\[]((?:19|20)\d{2})[)\]]`),
		apply:   setYear,
	},
	{
		name:       yearRuleName,
		stage:      stageStrong,
		pattern:    regexp.MustCompile(`\b((?:19|20)\d{2})\b`),
		last:       true,
		notLeading: true,
		apply:      setYear,
	},
	{
		name:    "group-suffix",
		stage:   stageGroup,
		pattern: regexp.MustCompile(`-\s*([A-Za-z0-9][A-Za-z0-9_]*)\s*$`),
		apply:   setGroup,
	},
	{
		name:    "group-bracket",
		stage:   stageGroup,
		pattern: regexp.MustCompile(`\[\s*([A-Za-z0-9][A-Za-z0-9_]*)\s*\]\s*$`),
		apply:   setGroup,
	},
	{
		name:    "language",
		stage:   stageWeak,
		pattern: regexp.MustCompile(`(?i)\b(multi\s?\d{0,2}|english|eng|french|fre|german|ger|deutsch|spanish|spa|esp|italian|ita|russian|rus|polish|pol|portuguese|japanese|jpn|chinese|chs|cht|korean|kor|dutch|swedish)\b`),
		apply: func(info *ParsedReleaseInfo, m []string) bool {
			lang, ok := languageFromToken(m[1])
			if !ok {
				return false
			}
			if !ContainsLanguage(info.Languages, lang) {
				info.Languages = append(info.Languages, lang)
			}
			return true
		},
	},
	{
		name:    "dlc",
		stage:   stageWeak,
		pattern: regexp.MustCompile(`(?i)\b(?:incl(?:uding)?\s+)?(?:all\s+)?dlcs?\b`),
		apply: func(info *ParsedReleaseInfo, _ []string) bool {
			info.HasDLC = true
			return true
		},
	},
	{
		name:    "platform-windows",
		stage:   stageWeak,
		pattern: regexp.MustCompile(`(?i)\b(?:win(?:dows)?(?:\s?x?(?:64|86|32))?|x64|x86)\b`),
		apply:   setPlatform("Windows"),
	},
	{
		name:    "edition-weak",
		stage:   stageWeak,
		pattern: regexp.MustCompile(`(?i)\b(deluxe|remastered|definitive|ultimate|complete)\b`),
		apply:   setEdition,
	},
	{
		name:    "update",
		stage:   stageWeak,
		pattern: regexp.MustCompile(`(?i)\b(?:update|patch|hotfix)\b`),
		apply: func(info *ParsedReleaseInfo, _ []string) bool {
			info.IsUpdate = true
			return true
		},
	},
	{
		name:    "noise",
		stage:   stageWeak,
		pattern: regexp.MustCompile(`(?i)\b(?:incl\s+)?(?:crack(?:ed)?(?:\s+only)?|readnfo|nfofix|dirfix)\b`),
		apply:   func(*ParsedReleaseInfo, []string) bool { return true },
	},
}

func ruleByName(name string) (rule, bool) {
	for _, r := range parseRules {
		if r.name == name {
			return r, true
		}
	}
	return rule{}, false
}
