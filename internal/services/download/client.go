// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package download

import (
	"context"
	"time"

	"github.com/autobrr/gamarr/internal/models"
)

type ClientInfo struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Protocol models.Protocol `json:"protocol"`
	// Priority orders clients of one protocol, lowest first.
	Priority int `json:"priority"`
	// RemoveFailed asks the client to delete failed downloads.
	RemoveFailed bool `json:"removeFailed"`
}

type ItemStatus string

const (
	ItemQueued      ItemStatus = "queued"
	ItemPaused      ItemStatus = "paused"
	ItemDownloading ItemStatus = "downloading"
	ItemCompleted   ItemStatus = "completed"
	ItemWarning     ItemStatus = "warning"
	ItemFailed      ItemStatus = "failed"
)

// Item is one download as reported by its client.
type Item struct {
	DownloadID    string        `json:"downloadId"`
	Title         string        `json:"title"`
	Category      string        `json:"category,omitempty"`
	TotalSize     int64         `json:"totalSize"`
	RemainingSize int64         `json:"remainingSize"`
	RemainingTime time.Duration `json:"remainingTime,omitempty"`
	Status        ItemStatus    `json:"status"`
	Message       string        `json:"message,omitempty"`
	OutputPath    string        `json:"outputPath,omitempty"`
	// Encrypted marks password protected archives.
	Encrypted bool `json:"encrypted,omitempty"`
}

// Progress is the downloaded fraction between 0 and 1.
func (i Item) Progress() float64 {
	if i.TotalSize <= 0 {
		return 0
	}
	done := float64(i.TotalSize-i.RemainingSize) / float64(i.TotalSize)
	switch {
	case done < 0:
		return 0
	case done > 1:
		return 1
	}
	return done
}

// Client is implemented by download client adapters.
type Client interface {
	Info() ClientInfo
	// Download hands the release to the client and returns its download id.
	Download(ctx context.Context, remote *models.RemoteGame) (string, error)
	GetItems(ctx context.Context) ([]Item, error)
}

// Grab describes a release a client accepted.
type Grab struct {
	ClientID       int             `json:"clientId"`
	DownloadClient string          `json:"downloadClient"`
	DownloadID     string          `json:"downloadId"`
	Protocol       models.Protocol `json:"protocol"`
	Date           time.Time       `json:"date"`
}

// Issuer sends releases to download clients.
type Issuer interface {
	Download(ctx context.Context, remote *models.RemoteGame) (Grab, error)
}
