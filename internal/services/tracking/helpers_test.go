// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/download"
	"github.com/autobrr/gamarr/internal/services/library"
	"github.com/autobrr/gamarr/internal/services/matching"
	"github.com/autobrr/gamarr/pkg/releases"
	"github.com/autobrr/gamarr/pkg/titles"
)

type fakeLibrary struct {
	games []*models.Game
}

func (f *fakeLibrary) Games(context.Context) ([]*models.Game, error) {
	return f.games, nil
}

func (f *fakeLibrary) Get(_ context.Context, id int) (*models.Game, error) {
	for _, g := range f.games {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, library.ErrGameNotFound
}

func (f *fakeLibrary) FindByIgdbID(context.Context, int) (*models.Game, error) {
	return nil, library.ErrGameNotFound
}

func (f *fakeLibrary) FindBySteamAppID(context.Context, int) (*models.Game, error) {
	return nil, library.ErrGameNotFound
}

type fakeClient struct {
	info download.ClientInfo

	mu    sync.Mutex
	items []download.Item
	err   error
	polls int
}

func (c *fakeClient) Info() download.ClientInfo { return c.info }

func (c *fakeClient) Download(context.Context, *models.RemoteGame) (string, error) {
	return "", errors.New("not supported")
}

func (c *fakeClient) GetItems(context.Context) ([]download.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if c.err != nil {
		return nil, c.err
	}
	return append([]download.Item(nil), c.items...), nil
}

func (c *fakeClient) set(items ...download.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *fakeClient) pollCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

type clientList []download.Client

func (l clientList) Clients() []download.Client { return l }

type fakeGrabs map[string]*models.HistoryRecord

func (g fakeGrabs) MostRecentGrab(_ context.Context, downloadID string) (*models.HistoryRecord, error) {
	return g[downloadID], nil
}

type fakeInspector struct {
	finding *Finding
}

func (f fakeInspector) Inspect(context.Context, string, bool) (*Finding, error) {
	return f.finding, nil
}

// recorder collects published lifecycle events.
type recorder struct {
	mu       sync.Mutex
	failed   []events.DownloadFailed
	imported []events.ImportCompleted
	ignored  []events.DownloadIgnored
}

func (r *recorder) subscribe(bus *events.Bus) {
	bus.DownloadFailed.Subscribe("recorder", func(_ context.Context, e events.DownloadFailed) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.failed = append(r.failed, e)
		return nil
	})
	bus.ImportCompleted.Subscribe("recorder", func(_ context.Context, e events.ImportCompleted) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.imported = append(r.imported, e)
		return nil
	})
	bus.DownloadIgnored.Subscribe("recorder", func(_ context.Context, e events.DownloadIgnored) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ignored = append(r.ignored, e)
		return nil
	})
}

type fixture struct {
	svc    *Service
	bus    *events.Bus
	client *fakeClient
	events *recorder
}

func newFixture(t *testing.T, grabs GrabHistory, inspector Inspector) *fixture {
	t.Helper()

	lib := &fakeLibrary{games: []*models.Game{
		{ID: 1, Title: "Some Game", CleanTitle: titles.Clean("Some Game"), Year: 2015, Monitored: true},
		{ID: 2, Title: "Some Game", CleanTitle: titles.Clean("Some Game"), Year: 2014, Monitored: true},
	}}
	matcher := matching.NewMatcher(lib, releases.NewDefaultParser(), matching.StrategyFirst)

	bus := events.NewBus(zerolog.Nop())
	t.Cleanup(bus.Close)

	client := &fakeClient{info: download.ClientInfo{ID: 7, Name: "transmission", Protocol: models.ProtocolTorrent}}
	if inspector == nil {
		inspector = fakeInspector{}
	}
	svc := NewService(bus, clientList{client}, matcher, grabs, inspector, Options{
		PollInterval:  10 * time.Millisecond,
		ClientTimeout: time.Second,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	})
	svc.Subscribe(bus)

	rec := &recorder{}
	rec.subscribe(bus)
	return &fixture{svc: svc, bus: bus, client: client, events: rec}
}

func (f *fixture) refresh(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.Refresh(context.Background()))
	f.bus.Wait()
}

// grab publishes a grab of "Some.Game.2015.GOG-GROUP" for game 1.
func (f *fixture) grab(t *testing.T, downloadID string) {
	t.Helper()
	parsed := releases.Parse("Some.Game.2015.GOG-GROUP")
	f.bus.ReleaseGrabbed.Publish(events.ReleaseGrabbed{
		Remote: &models.RemoteGame{
			Parsed:  parsed,
			Game:    &models.Game{ID: 1, Title: "Some Game", Year: 2015},
			Release: &models.ReleaseInfo{Title: "Some.Game.2015.GOG-GROUP", Protocol: models.ProtocolTorrent, Indexer: "tracker", Size: 1 << 30},
		},
		ClientID:       f.client.info.ID,
		DownloadClient: f.client.info.Name,
		DownloadID:     downloadID,
		Date:           time.Now(),
	})
	f.bus.Wait()
}

func (f *fixture) get(t *testing.T, downloadID string) *TrackedDownload {
	t.Helper()
	td, ok := f.svc.Get(f.client.info.ID, downloadID)
	require.True(t, ok, "download %s is not tracked", downloadID)
	return td
}
