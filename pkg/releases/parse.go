// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"regexp"
	"slices"
	"strings"

	"github.com/moistari/rls"
)

var (
	akaSeparator = regexp.MustCompile(`(?i)\s+a\s?k\s?a\s+`)
	subtitleSeps = []string{": ", " - "}
)

// Parse extracts release metadata from a raw title. It never fails: when no
// title can be isolated the raw title is returned as the only candidate and
// Fallback is set.
func Parse(raw string) *ParsedReleaseInfo {
	info := parse(raw)
	enrich(info, raw)
	return info
}

type parseState struct {
	info     *ParsedReleaseInfo
	work     string
	consumed []bool
	boundary int
	// strongStart is the earliest strong match, -1 until one is found.
	strongStart int
	// sceneStyle titles use dots or underscores instead of spaces.
	sceneStyle bool
	// yearStart and yearText locate a bare year token, -1 when none.
	yearStart int
	yearText  string
}

func newParseState(raw string) *parseState {
	return &parseState{
		info: &ParsedReleaseInfo{
			ReleaseTitle: raw,
			Quality: QualityModel{
				Quality:  QualityUnknown,
				Revision: Revision{Version: 1},
			},
		},
		work:        strings.TrimSpace(raw),
		strongStart: -1,
		yearStart:   -1,
	}
}

func parse(raw string) *ParsedReleaseInfo {
	st := newParseState(raw)

	var weak []rule
	started := false
	for _, r := range parseRules {
		switch {
		case r.stage == stageRaw:
			st.cut(r)
			continue
		case r.stage == stageWeak:
			weak = append(weak, r)
			continue
		}
		if !started {
			st.begin()
			started = true
		}
		st.run(r)
	}
	if !started {
		st.begin()
	}

	// Weak tokens chain backwards from the boundary, so keep going until
	// nothing new is consumed.
	for changed := true; changed; {
		changed = false
		for _, r := range weak {
			if st.run(r) {
				changed = true
			}
		}
	}

	st.finish()
	return st.info
}

// begin switches from raw cutting to in-place token consumption.
func (st *parseState) begin() {
	st.info.SimpleTitle = st.work
	st.sceneStyle = strings.ContainsAny(st.work, "._") && !strings.ContainsAny(st.work, " \t")
	st.work = normalizeSeparators(st.work)
	st.consumed = make([]bool, len(st.work))
	st.boundary = len(st.work)
}

func (st *parseState) cut(r rule) {
	locs := r.pattern.FindAllStringSubmatchIndex(st.work, -1)
	if len(locs) == 0 {
		return
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if !r.apply(st.info, submatches(st.work, loc)) {
			continue
		}
		b.WriteString(st.work[last:loc[0]])
		b.WriteByte(' ')
		last = loc[1]
	}
	b.WriteString(st.work[last:])
	st.work = strings.TrimSpace(b.String())
}

// run applies r and reports whether anything was consumed.
func (st *parseState) run(r rule) bool {
	locs := r.pattern.FindAllStringSubmatchIndex(st.work, -1)
	if r.last {
		slices.Reverse(locs)
	}

	consumed := false
	for _, loc := range locs {
		if st.overlaps(loc[0], loc[1]) {
			continue
		}
		m := submatches(st.work, loc)
		if !st.accepts(r, loc[0], loc[1], m) {
			continue
		}
		if !r.apply(st.info, m) {
			continue
		}
		st.consume(r.stage, loc[0], loc[1])
		if r.name == yearRuleName {
			st.yearStart, st.yearText = loc[0], m[1]
		}
		consumed = true
		if r.last {
			break
		}
	}
	return consumed
}

func (st *parseState) accepts(r rule, start, end int, m []string) bool {
	switch r.stage {
	case stageStrong:
		return !r.notLeading || st.hasTitleBefore(start)
	case stageGroup:
		if start >= st.boundary || st.sceneStyle {
			return st.hasTitleBefore(start)
		}
		name := m[1]
		_, repacker := repackerName(name)
		return (isSceneGroup(name) || repacker) && st.hasTitleBefore(start)
	case stageWeak:
		if !st.hasTitleBefore(start) {
			return false
		}
		if st.strongStart >= 0 && start >= st.strongStart {
			return true
		}
		return st.blankBetween(end, st.boundary)
	}
	return true
}

func (st *parseState) overlaps(start, end int) bool {
	for i := start; i < end; i++ {
		if st.consumed[i] {
			return true
		}
	}
	return false
}

// hasTitleBefore reports whether unconsumed text precedes pos.
func (st *parseState) hasTitleBefore(pos int) bool {
	return !st.blankBetween(0, pos)
}

// blankBetween reports whether [from, to) holds only consumed bytes and
// separators.
func (st *parseState) blankBetween(from, to int) bool {
	for i := from; i < to; i++ {
		if st.consumed[i] {
			continue
		}
		switch st.work[i] {
		case ' ', '-', '[', ']', '(', ')':
		default:
			return false
		}
	}
	return true
}

func (st *parseState) consume(stage ruleStage, start, end int) {
	b := []byte(st.work)
	for i := start; i < end; i++ {
		b[i] = ' '
		st.consumed[i] = true
	}
	st.work = string(b)

	if start < st.boundary {
		st.boundary = start
	}
	if stage == stageStrong && (st.strongStart < 0 || start < st.strongStart) {
		st.strongStart = start
	}
}

func (st *parseState) finish() {
	info := st.info

	if info.Quality.Quality == QualityUnknown && info.Group != "" {
		switch _, repacker := repackerName(info.Group); {
		case repacker:
			info.Quality.Quality = QualityRepack
		case isSceneGroup(info.Group):
			info.Quality.Quality = QualityScene
		}
	}

	if title := st.title(); title != "" {
		info.Titles = candidateTitles(title)
		info.YearlessTitles = st.yearlessTitles(title, info.Titles)
	}
	if len(info.Titles) == 0 {
		info.Titles = []string{info.ReleaseTitle}
		info.Fallback = true
	}
}

// yearlessTitles keeps the year as part of the title when it comes straight
// after it. Only candidates that differ from the plain titles are returned.
func (st *parseState) yearlessTitles(title string, plain []string) []string {
	if st.yearStart < 0 || st.yearStart != st.boundary {
		return nil
	}
	if tidyTitle(st.work[:st.boundary]) != title {
		return nil
	}

	var out []string
	for _, t := range candidateTitles(title + " " + st.yearText) {
		if !slices.Contains(plain, t) {
			out = append(out, t)
		}
	}
	return out
}

// title returns the text in front of the first consumed token, or the first
// unconsumed run when the release starts with a token.
func (st *parseState) title() string {
	if t := tidyTitle(st.work[:st.boundary]); t != "" {
		return t
	}

	start := -1
	for i := 0; i <= len(st.work); i++ {
		if i < len(st.work) && !st.consumed[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if t := tidyTitle(st.work[start:i]); t != "" {
				return t
			}
			start = -1
		}
	}
	return ""
}

func candidateTitles(title string) []string {
	var titles []string
	add := func(s string) {
		s = tidyTitle(s)
		if s != "" && !slices.Contains(titles, s) {
			titles = append(titles, s)
		}
	}

	parts := akaSeparator.Split(title, -1)
	for _, part := range parts {
		add(part)
	}
	for _, part := range parts {
		for _, sep := range subtitleSeps {
			if idx := strings.Index(part, sep); idx > 0 {
				add(part[:idx])
				break
			}
		}
	}

	return titles
}

func tidyTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, " -:._,([{+")
	s = strings.TrimLeft(s, " -:._,)]}+")
	return strings.TrimSpace(s)
}

// normalizeSeparators turns dots and underscores into spaces, keeping dots
// between digits so versions like 1.2 survive.
func normalizeSeparators(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch c {
		case '_':
			b[i] = ' '
		case '.':
			if i > 0 && i < len(b)-1 && isDigit(b[i-1]) && isDigit(b[i+1]) {
				continue
			}
			b[i] = ' '
		}
	}
	return string(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// enrich fills fields the cascade left empty from the generic scene parser.
func enrich(info *ParsedReleaseInfo, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	r := rls.ParseString(raw)
	info.ContentType = r.Type.String()
	if info.Group == "" {
		info.Group = r.Group
	}
	if info.Platform == "" {
		info.Platform = r.Platform
	}
	if info.Version == "" {
		info.Version = r.Version
	}
}
