// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/gamarr/internal/dbinterface"
	"github.com/autobrr/gamarr/pkg/titles"
)

// Game is a library entry.
type Game struct {
	ID               int              `json:"id"`
	Title            string           `json:"title"`
	CleanTitle       string           `json:"cleanTitle"`
	Year             int              `json:"year,omitempty"`
	IgdbID           int              `json:"igdbId,omitempty"`
	SteamAppID       int              `json:"steamAppId,omitempty"`
	QualityProfileID int              `json:"qualityProfileId,omitempty"`
	Monitored        bool             `json:"monitored"`
	Added            time.Time        `json:"added"`
	AlternateTitles  []AlternateTitle `json:"alternateTitles,omitempty"`
	Translations     []Translation    `json:"translations,omitempty"`
}

type AlternateTitle struct {
	Title      string `json:"title"`
	CleanTitle string `json:"cleanTitle"`
}

type Translation struct {
	Language   string `json:"language"`
	Title      string `json:"title"`
	CleanTitle string `json:"cleanTitle"`
}

// Clone returns a deep copy so callers never share a live library entry.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.AlternateTitles = append([]AlternateTitle(nil), g.AlternateTitles...)
	c.Translations = append([]Translation(nil), g.Translations...)
	return &c
}

func (g *Game) String() string {
	if g.Year > 0 {
		return fmt.Sprintf("%s (%d)", g.Title, g.Year)
	}
	return g.Title
}

// fillCleanTitles derives every clean title from its display title.
func (g *Game) fillCleanTitles() {
	g.CleanTitle = titles.Clean(g.Title)
	for i := range g.AlternateTitles {
		g.AlternateTitles[i].CleanTitle = titles.Clean(g.AlternateTitles[i].Title)
	}
	for i := range g.Translations {
		g.Translations[i].CleanTitle = titles.Clean(g.Translations[i].Title)
	}
}

type GameStore struct {
	db dbinterface.Querier
}

func NewGameStore(db dbinterface.Querier) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, title, clean_title, year, igdb_id, steam_app_id, COALESCE(quality_profile_id, 0), monitored, added`

func scanGame(row interface{ Scan(...any) error }) (*Game, error) {
	var g Game
	if err := row.Scan(&g.ID, &g.Title, &g.CleanTitle, &g.Year, &g.IgdbID, &g.SteamAppID, &g.QualityProfileID, &g.Monitored, &g.Added); err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns every game with its alternate titles and translations.
func (s *GameStore) List(ctx context.Context) ([]*Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*Game
	byID := make(map[int]*Game)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTitles(ctx, byID, "", nil); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *GameStore) Get(ctx context.Context, id int) (*Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadTitles(ctx, map[int]*Game{g.ID: g}, " WHERE game_id = ?", []any{g.ID}); err != nil {
		return nil, err
	}
	return g, nil
}

// FindByIgdbID returns sql.ErrNoRows when no game carries the id.
func (s *GameStore) FindByIgdbID(ctx context.Context, igdbID int) (*Game, error) {
	if igdbID <= 0 {
		return nil, sql.ErrNoRows
	}
	var id int
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM games WHERE igdb_id = ? LIMIT 1`, igdbID).Scan(&id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// FindBySteamAppID returns sql.ErrNoRows when no game carries the id.
func (s *GameStore) FindBySteamAppID(ctx context.Context, appID int) (*Game, error) {
	if appID <= 0 {
		return nil, sql.ErrNoRows
	}
	var id int
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM games WHERE steam_app_id = ? LIMIT 1`, appID).Scan(&id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *GameStore) loadTitles(ctx context.Context, byID map[int]*Game, where string, args []any) error {
	if len(byID) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT game_id, title, clean_title FROM game_alternate_titles`+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return fmt.Errorf("load alternate titles: %w", err)
	}
	for rows.Next() {
		var gameID int
		var alt AlternateTitle
		if err := rows.Scan(&gameID, &alt.Title, &alt.CleanTitle); err != nil {
			rows.Close()
			return err
		}
		if g, ok := byID[gameID]; ok {
			g.AlternateTitles = append(g.AlternateTitles, alt)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT game_id, language, title, clean_title FROM game_translations`+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gameID int
		var tr Translation
		if err := rows.Scan(&gameID, &tr.Language, &tr.Title, &tr.CleanTitle); err != nil {
			return err
		}
		if g, ok := byID[gameID]; ok {
			g.Translations = append(g.Translations, tr)
		}
	}
	return rows.Err()
}

// Create inserts a game and its titles. Clean titles are always derived
// from the display titles.
func (s *GameStore) Create(ctx context.Context, g *Game) (*Game, error) {
	if g == nil {
		return nil, errors.New("game is nil")
	}
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return nil, ErrTitleRequired
	}
	g.fillCleanTitles()

	added := g.Added
	if added.IsZero() {
		added = time.Now().UTC()
	}

	var profileID any
	if g.QualityProfileID > 0 {
		profileID = g.QualityProfileID
	}

	// Titles are inserted in the same transaction when the store can open one.
	q := s.db
	var tx dbinterface.TxQuerier
	if b, ok := s.db.(dbinterface.TxBeginner); ok {
		var err error
		if tx, err = b.BeginTx(ctx, nil); err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()
		q = tx
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO games (title, clean_title, year, igdb_id, steam_app_id, quality_profile_id, monitored, added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.Title, g.CleanTitle, g.Year, g.IgdbID, g.SteamAppID, profileID, g.Monitored, added)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, alt := range g.AlternateTitles {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO game_alternate_titles (game_id, title, clean_title) VALUES (?, ?, ?)
		`, id, alt.Title, alt.CleanTitle); err != nil {
			return nil, fmt.Errorf("insert alternate title: %w", err)
		}
	}
	for _, tr := range g.Translations {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO game_translations (game_id, language, title, clean_title) VALUES (?, ?, ?, ?)
		`, id, tr.Language, tr.Title, tr.CleanTitle); err != nil {
			return nil, fmt.Errorf("insert translation: %w", err)
		}
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit game: %w", err)
		}
	}

	return s.Get(ctx, int(id))
}

// Delete removes a game. Titles go with it through the foreign keys.
func (s *GameStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
