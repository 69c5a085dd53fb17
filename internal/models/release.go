// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"strings"
	"time"

	"github.com/autobrr/gamarr/pkg/releases"
)

type Protocol string

const (
	ProtocolUnknown Protocol = ""
	ProtocolTorrent Protocol = "torrent"
	ProtocolUsenet  Protocol = "usenet"
)

// IndexerFlags is a bitmask of tracker-provided release flags.
type IndexerFlags int

const (
	IndexerFlagFreeleech IndexerFlags = 1 << iota
	IndexerFlagHalfleech
	IndexerFlagDoubleUpload
	IndexerFlagInternal
	IndexerFlagScene
	IndexerFlagFreeleech75
	IndexerFlagFreeleech25
	IndexerFlagNuked
)

var indexerFlagNames = map[string]IndexerFlags{
	"freeleech":    IndexerFlagFreeleech,
	"halfleech":    IndexerFlagHalfleech,
	"doubleupload": IndexerFlagDoubleUpload,
	"internal":     IndexerFlagInternal,
	"scene":        IndexerFlagScene,
	"freeleech75":  IndexerFlagFreeleech75,
	"freeleech25":  IndexerFlagFreeleech25,
	"nuked":        IndexerFlagNuked,
}

// ParseIndexerFlags turns "freeleech, internal" into a bitmask. Unknown names
// are reported back.
func ParseIndexerFlags(value string) (IndexerFlags, []string) {
	var flags IndexerFlags
	var unknown []string
	for _, name := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '|' || r == ' ' }) {
		flag, ok := indexerFlagNames[strings.ToLower(name)]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		flags |= flag
	}
	return flags, unknown
}

func (f IndexerFlags) Has(flag IndexerFlags) bool {
	return f&flag == flag
}

// ReleaseInfo describes a release offered by an indexer.
type ReleaseInfo struct {
	GUID         string       `json:"guid,omitempty"`
	Title        string       `json:"title" validate:"required"`
	Indexer      string       `json:"indexer,omitempty"`
	IndexerID    int          `json:"indexerId,omitempty" validate:"gte=0"`
	PublishDate  time.Time    `json:"publishDate"`
	Size         int64        `json:"size" validate:"gte=0"`
	Protocol     Protocol     `json:"protocol" validate:"required,oneof=torrent usenet"`
	InfoHash     string       `json:"infoHash,omitempty" validate:"omitempty,hexadecimal"`
	IndexerFlags IndexerFlags `json:"indexerFlags,omitempty"`
	DownloadURL  string       `json:"downloadUrl,omitempty" validate:"omitempty,url"`
	IgdbID       int          `json:"igdbId,omitempty"`
	// TorrentData is the raw .torrent payload when the indexer supplied one.
	TorrentData []byte `json:"-"`
}

// ResolveInfoHash returns the normalized info-hash, deriving it from
// TorrentData when the indexer did not report one. The release is not
// modified.
func (r *ReleaseInfo) ResolveInfoHash() string {
	if r == nil || r.Protocol != ProtocolTorrent {
		return ""
	}
	if r.InfoHash != "" {
		return releases.NormalizeInfoHash(r.InfoHash)
	}
	if len(r.TorrentData) == 0 {
		return ""
	}
	hash, err := releases.InfoHashFromTorrent(r.TorrentData)
	if err != nil {
		return ""
	}
	return hash
}

// Age is how long ago the release was published.
func (r *ReleaseInfo) Age(now time.Time) time.Duration {
	if r.PublishDate.IsZero() {
		return 0
	}
	return now.Sub(r.PublishDate)
}

// RemoteGame pairs a parsed release with the library entry it matched.
type RemoteGame struct {
	Parsed            *releases.ParsedReleaseInfo `json:"parsed"`
	Game              *Game                       `json:"game,omitempty"`
	Release           *ReleaseInfo                `json:"release"`
	CustomFormats     []*CustomFormat             `json:"customFormats,omitempty"`
	CustomFormatScore int                         `json:"customFormatScore"`
	// MatchedBy records how the game was found: "igdbId", "steamAppId" or "title".
	MatchedBy string `json:"matchedBy,omitempty"`
}

// GameID returns 0 when no game matched.
func (r *RemoteGame) GameID() int {
	if r == nil || r.Game == nil {
		return 0
	}
	return r.Game.ID
}

// Title is the release title.
func (r *RemoteGame) Title() string {
	if r == nil || r.Release == nil {
		return ""
	}
	return r.Release.Title
}

// Quality returns the parsed quality or Unknown.
func (r *RemoteGame) Quality() releases.QualityModel {
	if r == nil || r.Parsed == nil {
		return releases.QualityModel{Quality: releases.QualityUnknown, Revision: releases.Revision{Version: 1}}
	}
	return r.Parsed.Quality
}

// CustomFormatNames lists matched format names in order.
func (r *RemoteGame) CustomFormatNames() []string {
	names := make([]string, 0, len(r.CustomFormats))
	for _, cf := range r.CustomFormats {
		names = append(names, cf.Name)
	}
	return names
}
