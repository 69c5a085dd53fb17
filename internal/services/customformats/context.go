// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

// ScoringContext is everything a specification may look at.
type ScoringContext struct {
	Parsed  *releases.ParsedReleaseInfo
	Release *models.ReleaseInfo
	// SourcePath is the downloaded file or folder, when known.
	SourcePath string
	// Profile supplies per-format weights. Nil uses default scores.
	Profile *models.QualityProfile
}

// ContextFor builds a scoring context from a matched release.
func ContextFor(remote *models.RemoteGame, profile *models.QualityProfile) ScoringContext {
	if remote == nil {
		return ScoringContext{Profile: profile}
	}
	return ScoringContext{Parsed: remote.Parsed, Release: remote.Release, Profile: profile}
}

func (c ScoringContext) title() string {
	if c.Release != nil && c.Release.Title != "" {
		return c.Release.Title
	}
	if c.Parsed != nil {
		return c.Parsed.ReleaseTitle
	}
	return ""
}

func (c ScoringContext) size() int64 {
	if c.Release == nil {
		return 0
	}
	return c.Release.Size
}

func (c ScoringContext) flags() models.IndexerFlags {
	if c.Release == nil {
		return 0
	}
	return c.Release.IndexerFlags
}

func (c ScoringContext) languages() []releases.Language {
	if c.Parsed == nil {
		return nil
	}
	return c.Parsed.Languages
}

func (c ScoringContext) quality() releases.Quality {
	if c.Parsed == nil {
		return releases.QualityUnknown
	}
	return c.Parsed.Quality.Quality
}

func (c ScoringContext) parsed() releases.ParsedReleaseInfo {
	if c.Parsed == nil {
		return releases.ParsedReleaseInfo{}
	}
	return *c.Parsed
}
