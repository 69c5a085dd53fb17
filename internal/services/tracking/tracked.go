// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tracking

import (
	"slices"
	"time"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/download"
	"github.com/autobrr/gamarr/internal/services/matching"
)

// Status is the health of a tracked download, independent of its State.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

type key struct {
	clientID   int
	downloadID string
}

// TrackedDownload follows one download from grab through import. Download
// ids are only unique per client.
type TrackedDownload struct {
	ClientID   int                 `json:"clientId"`
	DownloadID string              `json:"downloadId"`
	Client     download.ClientInfo `json:"client"`
	Item       download.Item       `json:"item"`
	// RemoteGame is nil when nothing matched or the game was deleted.
	RemoteGame  *models.RemoteGame    `json:"remoteGame,omitempty"`
	State       State                 `json:"state"`
	Status      Status                `json:"status"`
	Messages    []string              `json:"messages,omitempty"`
	Rejection   ImportRejectionReason `json:"rejection,omitempty"`
	Suggestions []matching.Suggestion `json:"suggestions,omitempty"`
	Added       time.Time             `json:"added"`
	Updated     time.Time             `json:"updated"`
	// LastSeen is the last poll that reported the download.
	LastSeen time.Time `json:"lastSeen,omitzero"`

	resolved bool
	// detached is set once the matched game was deleted; the record is
	// never attached to a game again.
	detached bool
}

func (t *TrackedDownload) key() key {
	return key{clientID: t.ClientID, downloadID: t.DownloadID}
}

// Title prefers the grabbed release title over the client's name.
func (t *TrackedDownload) Title() string {
	if title := t.RemoteGame.Title(); title != "" {
		return title
	}
	return t.Item.Title
}

func (t *TrackedDownload) Progress() float64 {
	return t.Item.Progress()
}

func (t *TrackedDownload) clone() *TrackedDownload {
	c := *t
	c.Messages = slices.Clone(t.Messages)
	c.Suggestions = slices.Clone(t.Suggestions)
	return &c
}

func (t *TrackedDownload) addMessage(msg string) {
	if msg == "" {
		return
	}
	if n := len(t.Messages); n > 0 && t.Messages[n-1] == msg {
		return
	}
	t.Messages = append(t.Messages, msg)
}
