// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/customformats"
	"github.com/autobrr/gamarr/internal/services/download"
	"github.com/autobrr/gamarr/internal/services/library"
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

func newGame(id int, title string, year int) *models.Game {
	return &models.Game{ID: id, Title: title, CleanTitle: titles.Clean(title), Year: year, Monitored: true}
}

type staticFormats struct {
	engine *customformats.Engine
}

func (s staticFormats) Engine(context.Context) (*customformats.Engine, error) {
	return s.engine, nil
}

type profileMap map[int]*models.QualityProfile

func (p profileMap) Get(_ context.Context, id int) (*models.QualityProfile, error) {
	if profile, ok := p[id]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

// remote builds a matched release for pipeline tests.
func remote(gameID int, title string, protocol models.Protocol, score int) *models.RemoteGame {
	r := &models.RemoteGame{
		Parsed:            releases.Parse(title),
		Release:           &models.ReleaseInfo{Title: title, Protocol: protocol, Indexer: "indexer", PublishDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		CustomFormatScore: score,
	}
	if gameID > 0 {
		r.Game = &models.Game{ID: gameID, Title: "Game"}
	}
	return r
}

type issueResult struct {
	grab download.Grab
	err  error
}

type fakeIssuer struct {
	mu      sync.Mutex
	results map[string]issueResult
	issued  []string
	onIssue func()
}

func (f *fakeIssuer) Download(_ context.Context, r *models.RemoteGame) (download.Grab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, r.Release.Title)
	if f.onIssue != nil {
		f.onIssue()
	}
	if res, ok := f.results[r.Release.Title]; ok {
		return res.grab, res.err
	}
	return download.Grab{DownloadID: "dl-" + r.Release.Title, Protocol: r.Release.Protocol}, nil
}

type fakePending struct {
	mu   sync.Mutex
	rows map[string]*models.PendingRelease
	adds int
}

func (f *fakePending) Upsert(_ context.Context, p *models.PendingRelease) (*models.PendingRelease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = map[string]*models.PendingRelease{}
	}
	f.adds++
	f.rows[p.Fingerprint] = p
	return p, nil
}

type fakeBlocker struct {
	mu      sync.Mutex
	blocked []string
}

func (f *fakeBlocker) Block(_ context.Context, r *models.RemoteGame, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = append(f.blocked, r.Release.Title)
	return nil
}

func (f *fakeBlocker) IsBlocked(_ context.Context, _ int, release *models.ReleaseInfo) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.blocked {
		if t == release.Title {
			return true, nil
		}
	}
	return false, nil
}

type fakeQueue map[int][]*models.RemoteGame

func (q fakeQueue) QueuedFor(gameID int) []*models.RemoteGame {
	return q[gameID]
}
