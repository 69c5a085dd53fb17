// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/database"
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/testdb"
)

func setupStoreDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(testdb.PathFromTemplate(t, "models", "models.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func createGame(t *testing.T, db *database.DB, title string, year int) *models.Game {
	t.Helper()

	game, err := models.NewGameStore(db).Create(context.Background(), &models.Game{Title: title, Year: year, Monitored: true})
	require.NoError(t, err)
	return game
}
