// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

func TestHistoryStore_AddAndLookup(t *testing.T) {
	db := setupStoreDB(t)
	store := models.NewHistoryStore(db)
	ctx := context.Background()
	game := createGame(t, db, "Some Game", 2015)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	grabbed, err := store.Add(ctx, &models.HistoryRecord{
		GameID:         game.ID,
		EventType:      models.HistoryEventGrabbed,
		SourceTitle:    "Some.Game.2015.GOG-GROUP",
		Quality:        releases.QualityModel{Quality: releases.QualityGOG, Revision: releases.Revision{Version: 1}},
		DownloadID:     "dl-1",
		DownloadClient: "client",
		Protocol:       models.ProtocolTorrent,
		Indexer:        "tracker",
		Data:           map[string]string{"size": "1024"},
		Date:           base,
	})
	require.NoError(t, err)
	assert.Equal(t, "1024", grabbed.Data["size"])

	_, err = store.Add(ctx, &models.HistoryRecord{
		GameID:      game.ID,
		EventType:   models.HistoryEventGrabbed,
		SourceTitle: "Some.Game.2015.GOG-GROUP",
		DownloadID:  "dl-1",
		Date:        base.Add(-time.Hour),
	})
	require.NoError(t, err)

	failed, err := store.Add(ctx, &models.HistoryRecord{
		GameID:      game.ID,
		EventType:   models.HistoryEventDownloadFailed,
		SourceTitle: "Some.Game.2015.GOG-GROUP",
		DownloadID:  "dl-1",
		Date:        base.Add(time.Hour),
	})
	require.NoError(t, err)

	records, err := store.FindByDownloadID(ctx, "dl-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, failed.ID, records[0].ID)

	recent, err := store.MostRecentForDownload(ctx, "dl-1", models.HistoryEventGrabbed)
	require.NoError(t, err)
	assert.Equal(t, grabbed.ID, recent.ID)
	assert.Equal(t, releases.QualityGOG, recent.Quality.Quality)

	_, err = store.MostRecentForDownload(ctx, "dl-2", models.HistoryEventGrabbed)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	none, err := store.FindByDownloadID(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistoryStore_PageAndDeleteByGame(t *testing.T) {
	db := setupStoreDB(t)
	store := models.NewHistoryStore(db)
	ctx := context.Background()
	game := createGame(t, db, "Some Game", 0)
	other := createGame(t, db, "Other Game", 0)

	events := []models.HistoryEventType{
		models.HistoryEventGrabbed,
		models.HistoryEventImported,
		models.HistoryEventGrabbed,
		models.HistoryEventImportBlocked,
	}
	for _, event := range events {
		_, err := store.Add(ctx, &models.HistoryRecord{GameID: game.ID, EventType: event, SourceTitle: "Some.Game"})
		require.NoError(t, err)
	}
	_, err := store.Add(ctx, &models.HistoryRecord{GameID: other.ID, EventType: models.HistoryEventGrabbed, SourceTitle: "Other.Game"})
	require.NoError(t, err)

	page, err := store.Page(ctx, models.HistoryQuery{GameID: game.ID, EventTypes: []models.HistoryEventType{models.HistoryEventGrabbed}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Records, 2)

	all, err := store.Page(ctx, models.HistoryQuery{PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, all.Total)
	assert.Len(t, all.Records, 3)

	removed, err := store.DeleteByGame(ctx, game.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, removed)

	remaining, err := store.ListByGame(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestHistoryStore_AddValidates(t *testing.T) {
	db := setupStoreDB(t)
	store := models.NewHistoryStore(db)
	ctx := context.Background()

	_, err := store.Add(ctx, &models.HistoryRecord{SourceTitle: "x"})
	assert.Error(t, err)

	_, err = store.Add(ctx, &models.HistoryRecord{EventType: models.HistoryEventGrabbed})
	assert.ErrorIs(t, err, models.ErrTitleRequired)
}
