// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import "slices"

// ParsedReleaseInfo is what the parser extracts from a raw release title.
// Values handed out by the parser are copies and may be modified freely.
type ParsedReleaseInfo struct {
	// Titles holds the candidate game titles, primary first.
	Titles         []string     `json:"titles"`
	// YearlessTitles repeat the titles with the year token that directly
	// followed them, for games whose name ends in a year-like number
	// ("Cyberpunk 2077"). They are matched without a year.
	YearlessTitles []string     `json:"yearlessTitles,omitempty"`
	Year           int          `json:"year,omitempty"`
	Quality        QualityModel `json:"quality"`
	Languages      []Language   `json:"languages,omitempty"`
	Group          string       `json:"group,omitempty"`
	Edition        string       `json:"edition,omitempty"`
	ReleaseTitle   string       `json:"releaseTitle"`
	SimpleTitle    string       `json:"simpleTitle"`
	IgdbID         int          `json:"igdbId,omitempty"`
	SteamAppID     int          `json:"steamAppId,omitempty"`
	Version        string       `json:"version,omitempty"`
	Platform       string       `json:"platform,omitempty"`
	IsUpdate       bool         `json:"isUpdate,omitempty"`
	HasDLC         bool         `json:"hasDlc,omitempty"`
	ContentType    string       `json:"contentType,omitempty"`
	// Fallback is set when no title could be extracted and Titles only
	// carries the raw release title.
	Fallback bool `json:"fallback,omitempty"`
}

// PrimaryTitle returns the first candidate title.
func (p *ParsedReleaseInfo) PrimaryTitle() string {
	if p == nil || len(p.Titles) == 0 {
		return ""
	}
	return p.Titles[0]
}

// Clone returns a deep copy.
func (p *ParsedReleaseInfo) Clone() *ParsedReleaseInfo {
	if p == nil {
		return nil
	}
	c := *p
	c.Titles = slices.Clone(p.Titles)
	c.YearlessTitles = slices.Clone(p.YearlessTitles)
	c.Languages = slices.Clone(p.Languages)
	return &c
}
