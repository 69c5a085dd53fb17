// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package download

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/models"
)

type stubClient struct {
	info  ClientInfo
	err   error
	delay time.Duration
	calls int
}

func (c *stubClient) Info() ClientInfo { return c.info }

func (c *stubClient) Download(ctx context.Context, _ *models.RemoteGame) (string, error) {
	c.calls++
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.err != nil {
		return "", c.err
	}
	return "id-" + c.info.Name, nil
}

func (c *stubClient) GetItems(context.Context) ([]Item, error) { return nil, nil }

func torrentRemote() *models.RemoteGame {
	return &models.RemoteGame{
		Game:    &models.Game{ID: 1, Title: "Some Game"},
		Release: &models.ReleaseInfo{Title: "Some.Game.2015.GOG-GROUP", Protocol: models.ProtocolTorrent},
	}
}

func TestDownload_PicksClientByProtocolAndPriority(t *testing.T) {
	t.Parallel()

	usenet := &stubClient{info: ClientInfo{ID: 1, Name: "sab", Protocol: models.ProtocolUsenet}}
	second := &stubClient{info: ClientInfo{ID: 2, Name: "second", Protocol: models.ProtocolTorrent, Priority: 5}}
	first := &stubClient{info: ClientInfo{ID: 3, Name: "first", Protocol: models.ProtocolTorrent, Priority: 1}}

	svc := NewService(nil, time.Second, usenet, second, first)
	grab, err := svc.Download(context.Background(), torrentRemote())
	require.NoError(t, err)

	assert.Equal(t, "id-first", grab.DownloadID)
	assert.Equal(t, 3, grab.ClientID)
	assert.Equal(t, models.ProtocolTorrent, grab.Protocol)
	assert.Zero(t, usenet.calls)
	assert.Zero(t, second.calls)
}

func TestDownload_FallsBackWhenClientUnavailable(t *testing.T) {
	t.Parallel()

	down := &stubClient{info: ClientInfo{ID: 1, Name: "down", Protocol: models.ProtocolTorrent}, err: &ClientUnavailableError{Protocol: models.ProtocolTorrent, Client: "down", Err: errors.New("connection refused")}}
	up := &stubClient{info: ClientInfo{ID: 2, Name: "up", Protocol: models.ProtocolTorrent, Priority: 1}}

	grab, err := NewService(nil, time.Second, down, up).Download(context.Background(), torrentRemote())
	require.NoError(t, err)
	assert.Equal(t, "id-up", grab.DownloadID)
}

func TestDownload_Errors(t *testing.T) {
	t.Parallel()

	t.Run("no client", func(t *testing.T) {
		t.Parallel()
		_, err := NewService(nil, time.Second).Download(context.Background(), torrentRemote())
		var unavailable *ClientUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, models.ProtocolTorrent, unavailable.Protocol)
	})

	t.Run("all clients unavailable", func(t *testing.T) {
		t.Parallel()
		down := &stubClient{info: ClientInfo{Name: "down", Protocol: models.ProtocolTorrent}, err: &ClientUnavailableError{Protocol: models.ProtocolTorrent, Err: errors.New("offline")}}
		_, err := NewService(nil, time.Second, down).Download(context.Background(), torrentRemote())
		var unavailable *ClientUnavailableError
		assert.ErrorAs(t, err, &unavailable)
	})

	t.Run("release unavailable", func(t *testing.T) {
		t.Parallel()
		gone := &stubClient{info: ClientInfo{Name: "c", Protocol: models.ProtocolTorrent}, err: &ReleaseUnavailableError{Release: "x", Err: errors.New("404")}}
		_, err := NewService(nil, time.Second, gone).Download(context.Background(), torrentRemote())
		var unavailable *ReleaseUnavailableError
		assert.ErrorAs(t, err, &unavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		slow := &stubClient{info: ClientInfo{Name: "slow", Protocol: models.ProtocolTorrent}, delay: time.Second}
		_, err := NewService(nil, 20*time.Millisecond, slow).Download(context.Background(), torrentRemote())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("nil release", func(t *testing.T) {
		t.Parallel()
		_, err := NewService(nil, time.Second).Download(context.Background(), &models.RemoteGame{})
		assert.ErrorIs(t, err, ErrNoRelease)
	})
}

func TestDownload_PublishesGrab(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(zerolog.Nop())
	t.Cleanup(bus.Close)

	var mu sync.Mutex
	var got []events.ReleaseGrabbed
	bus.ReleaseGrabbed.Subscribe("test", func(_ context.Context, e events.ReleaseGrabbed) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		return nil
	})

	client := NewDryRunClient(ClientInfo{ID: 9, Protocol: models.ProtocolTorrent})
	grab, err := NewService(bus, time.Second, client).Download(context.Background(), torrentRemote())
	require.NoError(t, err)
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, grab.DownloadID, got[0].DownloadID)
	assert.Equal(t, "dry-run-torrent", got[0].DownloadClient)

	items, err := client.GetItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ItemQueued, items[0].Status)
}

func TestItemProgress(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.75, Item{TotalSize: 100, RemainingSize: 25}.Progress(), 0.0001)
	assert.Zero(t, Item{}.Progress())
	assert.InDelta(t, 1.0, Item{TotalSize: 100, RemainingSize: -5}.Progress(), 0.0001)
}
