// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package download

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/autobrr/gamarr/internal/models"
)

// DryRunClient accepts every release without sending it anywhere. Accepted
// releases are reported as queued items.
type DryRunClient struct {
	info ClientInfo

	mu    sync.Mutex
	items []Item
}

func NewDryRunClient(info ClientInfo) *DryRunClient {
	if info.Name == "" {
		info.Name = "dry-run-" + string(info.Protocol)
	}
	return &DryRunClient{info: info}
}

func (c *DryRunClient) Info() ClientInfo {
	return c.info
}

func (c *DryRunClient) Download(ctx context.Context, remote *models.RemoteGame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	c.mu.Lock()
	c.items = append(c.items, Item{
		DownloadID:    id,
		Title:         remote.Release.Title,
		TotalSize:     remote.Release.Size,
		RemainingSize: remote.Release.Size,
		Status:        ItemQueued,
	})
	c.mu.Unlock()
	return id, nil
}

func (c *DryRunClient) GetItems(context.Context) ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...), nil
}
