// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/models"
)

func TestPendingReleaseStore_UpsertKeepsOneRowPerFingerprint(t *testing.T) {
	db := setupStoreDB(t)
	store := models.NewPendingReleaseStore(db)
	ctx := context.Background()
	game := createGame(t, db, "Some Game", 2015)

	release := &models.ReleaseInfo{Title: "Some.Game.2015.GOG-GROUP", Protocol: models.ProtocolUsenet, Size: 1024, Indexer: "nzb"}

	first, err := store.Upsert(ctx, &models.PendingRelease{GameID: game.ID, Fingerprint: "fp-1", Release: release, Reason: "delay"})
	require.NoError(t, err)
	assert.Equal(t, "Some.Game.2015.GOG-GROUP", first.Title)
	assert.Equal(t, "nzb", first.Release.Indexer)

	second, err := store.Upsert(ctx, &models.PendingRelease{GameID: game.ID, Fingerprint: "fp-1", Release: release, Reason: "client unavailable"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "client unavailable", second.Reason)
	assert.True(t, first.Added.Equal(second.Added))

	_, err = store.Upsert(ctx, &models.PendingRelease{GameID: game.ID, Fingerprint: "fp-2", Release: release, Reason: "delay"})
	require.NoError(t, err)

	pending, err := store.ListByGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, store.DeleteByFingerprint(ctx, "fp-2"))
	require.NoError(t, store.Delete(ctx, first.ID))
	assert.ErrorIs(t, store.Delete(ctx, first.ID), sql.ErrNoRows)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPendingReleaseStore_DeleteByGame(t *testing.T) {
	db := setupStoreDB(t)
	store := models.NewPendingReleaseStore(db)
	ctx := context.Background()
	game := createGame(t, db, "Some Game", 0)

	for _, fp := range []string{"a", "b"} {
		_, err := store.Upsert(ctx, &models.PendingRelease{GameID: game.ID, Fingerprint: fp, Release: &models.ReleaseInfo{Title: "Some.Game"}})
		require.NoError(t, err)
	}

	removed, err := store.DeleteByGame(ctx, game.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestPendingReleaseStore_UpsertValidates(t *testing.T) {
	db := setupStoreDB(t)
	store := models.NewPendingReleaseStore(db)

	_, err := store.Upsert(context.Background(), &models.PendingRelease{Release: &models.ReleaseInfo{Title: "x"}})
	assert.Error(t, err)
	_, err = store.Upsert(context.Background(), nil)
	assert.Error(t, err)
}
