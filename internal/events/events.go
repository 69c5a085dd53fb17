// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package events delivers typed domain events to the components that clean
// up after them. Each subscriber gets its own queue and goroutine, so a slow
// or failing handler never blocks the publisher or another subscriber.
package events

import (
	"time"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

// GameDeleted is published after a game has been removed from the library.
type GameDeleted struct {
	GameID int
	Title  string
}

// ReleaseGrabbed is published once a download client accepted a release.
type ReleaseGrabbed struct {
	Remote         *models.RemoteGame
	ClientID       int
	DownloadClient string
	DownloadID     string
	Date           time.Time
}

// DownloadFailed is published when a tracked download fails in its client.
type DownloadFailed struct {
	GameID         int
	SourceTitle    string
	Quality        releases.QualityModel
	Languages      []releases.Language
	CustomFormats  []string
	Protocol       models.Protocol
	Indexer        string
	IndexerFlags   models.IndexerFlags
	InfoHash       string
	PublishedDate  *time.Time
	Size           *int64
	DownloadClient string
	DownloadID     string
	Message        string
	// SkipBlocklist is set when the failure should only be recorded.
	SkipBlocklist bool
}

// ImportCompleted is published when a download was imported or blocked
// from importing.
type ImportCompleted struct {
	GameID         int
	SourceTitle    string
	Quality        releases.QualityModel
	DownloadClient string
	DownloadID     string
	Blocked        bool
	Message        string
}

// DownloadIgnored is published when a user stops tracking a download.
type DownloadIgnored struct {
	GameID         int
	SourceTitle    string
	DownloadClient string
	DownloadID     string
}
