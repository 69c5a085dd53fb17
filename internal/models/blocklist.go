// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/autobrr/gamarr/internal/dbinterface"
	"github.com/autobrr/gamarr/pkg/releases"
)

// BlocklistEntry keeps a rejected or failed release from being offered again.
type BlocklistEntry struct {
	ID              int                   `json:"id"`
	GameID          int                   `json:"gameId"`
	SourceTitle     string                `json:"sourceTitle"`
	Quality         releases.QualityModel `json:"quality"`
	Languages       []releases.Language   `json:"languages"`
	CustomFormats   []string              `json:"customFormats"`
	Protocol        Protocol              `json:"protocol"`
	PublishedDate   *time.Time            `json:"publishedDate,omitempty"`
	Size            *int64                `json:"size,omitempty"`
	Indexer         string                `json:"indexer"`
	IndexerFlags    IndexerFlags          `json:"indexerFlags"`
	TorrentInfoHash string                `json:"torrentInfoHash,omitempty"`
	Message         string                `json:"message"`
	Date            time.Time             `json:"date"`
}

// BlocklistQuery filters a blocklist page. Zero values mean no filter.
type BlocklistQuery struct {
	GameIDs  []int
	Protocol Protocol
	Page     int
	PageSize int
}

type BlocklistPage struct {
	Entries  []*BlocklistEntry `json:"entries"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

const defaultBlocklistPageSize = 50

type BlocklistStore struct {
	db dbinterface.Querier
}

func NewBlocklistStore(db dbinterface.Querier) *BlocklistStore {
	return &BlocklistStore{db: db}
}

var blocklistColumns = []string{
	"id", "game_id", "source_title", "quality", "languages", "custom_formats", "protocol",
	"published_date", "size", "indexer", "indexer_flags", "torrent_info_hash", "message", "date",
}

func scanBlocklistEntry(row interface{ Scan(...any) error }) (*BlocklistEntry, error) {
	var e BlocklistEntry
	var qualityJSON, languagesJSON, formatsJSON string
	var published sql.NullTime
	var size sql.NullInt64

	if err := row.Scan(&e.ID, &e.GameID, &e.SourceTitle, &qualityJSON, &languagesJSON, &formatsJSON, &e.Protocol,
		&published, &size, &e.Indexer, &e.IndexerFlags, &e.TorrentInfoHash, &e.Message, &e.Date); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(qualityJSON), &e.Quality); err != nil {
		return nil, fmt.Errorf("blocklist %d: unmarshal quality: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(languagesJSON), &e.Languages); err != nil {
		return nil, fmt.Errorf("blocklist %d: unmarshal languages: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(formatsJSON), &e.CustomFormats); err != nil {
		return nil, fmt.Errorf("blocklist %d: unmarshal custom formats: %w", e.ID, err)
	}
	if published.Valid {
		t := published.Time
		e.PublishedDate = &t
	}
	if size.Valid {
		v := size.Int64
		e.Size = &v
	}
	return &e, nil
}

func (s *BlocklistStore) query(ctx context.Context, builder sq.SelectBuilder) ([]*BlocklistEntry, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build blocklist query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*BlocklistEntry
	for rows.Next() {
		e, err := scanBlocklistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Create stores a new entry. Info-hashes are kept lower case.
func (s *BlocklistStore) Create(ctx context.Context, e *BlocklistEntry) (*BlocklistEntry, error) {
	if e == nil {
		return nil, errors.New("blocklist entry is nil")
	}
	if e.GameID <= 0 {
		return nil, errors.New("blocklist entry must belong to a game")
	}
	if strings.TrimSpace(e.SourceTitle) == "" {
		return nil, ErrTitleRequired
	}

	qualityJSON, err := json.Marshal(e.Quality)
	if err != nil {
		return nil, fmt.Errorf("marshal quality: %w", err)
	}
	languages := e.Languages
	if languages == nil {
		languages = []releases.Language{}
	}
	languagesJSON, err := json.Marshal(languages)
	if err != nil {
		return nil, fmt.Errorf("marshal languages: %w", err)
	}
	formats := e.CustomFormats
	if formats == nil {
		formats = []string{}
	}
	formatsJSON, err := json.Marshal(formats)
	if err != nil {
		return nil, fmt.Errorf("marshal custom formats: %w", err)
	}

	var published, size any
	if e.PublishedDate != nil {
		published = e.PublishedDate.UTC()
	}
	if e.Size != nil {
		size = *e.Size
	}

	date := e.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO blocklist (game_id, source_title, quality, languages, custom_formats, protocol, published_date, size, indexer, indexer_flags, torrent_info_hash, message, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.GameID, strings.TrimSpace(e.SourceTitle), string(qualityJSON), string(languagesJSON), string(formatsJSON), string(e.Protocol),
		published, size, e.Indexer, int(e.IndexerFlags), releases.NormalizeInfoHash(e.TorrentInfoHash), e.Message, date)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, int(id))
}

func (s *BlocklistStore) Get(ctx context.Context, id int) (*BlocklistEntry, error) {
	query, args, err := sq.Select(blocklistColumns...).From("blocklist").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanBlocklistEntry(s.db.QueryRowContext(ctx, query, args...))
}

// ListByGame returns a game's entries, newest first.
func (s *BlocklistStore) ListByGame(ctx context.Context, gameID int) ([]*BlocklistEntry, error) {
	return s.query(ctx, sq.Select(blocklistColumns...).
		From("blocklist").
		Where(sq.Eq{"game_id": gameID}).
		OrderBy("date DESC", "id DESC"))
}

// ListByGameAndProtocol narrows ListByGame to a single protocol.
func (s *BlocklistStore) ListByGameAndProtocol(ctx context.Context, gameID int, protocol Protocol) ([]*BlocklistEntry, error) {
	return s.query(ctx, sq.Select(blocklistColumns...).
		From("blocklist").
		Where(sq.And{sq.Eq{"game_id": gameID}, sq.Eq{"protocol": string(protocol)}}).
		OrderBy("date DESC", "id DESC"))
}

// FindByInfoHash returns every entry carrying the hash, compared case-insensitively.
func (s *BlocklistStore) FindByInfoHash(ctx context.Context, infoHash string) ([]*BlocklistEntry, error) {
	hash := releases.NormalizeInfoHash(infoHash)
	if hash == "" {
		return nil, nil
	}
	return s.query(ctx, sq.Select(blocklistColumns...).
		From("blocklist").
		Where(sq.Eq{"LOWER(torrent_info_hash)": hash}).
		OrderBy("id ASC"))
}

// Page returns one page of entries, newest first.
func (s *BlocklistStore) Page(ctx context.Context, q BlocklistQuery) (*BlocklistPage, error) {
	if q.PageSize <= 0 {
		q.PageSize = defaultBlocklistPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	where := sq.And{}
	if len(q.GameIDs) > 0 {
		where = append(where, sq.Eq{"game_id": q.GameIDs})
	}
	if q.Protocol != ProtocolUnknown {
		where = append(where, sq.Eq{"protocol": string(q.Protocol)})
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("blocklist").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build blocklist count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	entries, err := s.query(ctx, sq.Select(blocklistColumns...).
		From("blocklist").
		Where(where).
		OrderBy("date DESC", "id DESC").
		Limit(uint64(q.PageSize)).
		Offset(uint64((q.Page-1)*q.PageSize)))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*BlocklistEntry{}
	}

	return &BlocklistPage{Entries: entries, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Delete removes the given entries and reports how many were removed.
func (s *BlocklistStore) Delete(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.Delete("blocklist").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByGame removes every entry of a game.
func (s *BlocklistStore) DeleteByGame(ctx context.Context, gameID int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blocklist WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear empties the blocklist.
func (s *BlocklistStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blocklist`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
