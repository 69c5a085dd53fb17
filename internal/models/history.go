// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/autobrr/gamarr/internal/dbinterface"
	"github.com/autobrr/gamarr/pkg/releases"
)

type HistoryEventType string

const (
	HistoryEventGrabbed         HistoryEventType = "grabbed"
	HistoryEventDownloadFailed  HistoryEventType = "downloadFailed"
	HistoryEventImported        HistoryEventType = "imported"
	HistoryEventImportBlocked   HistoryEventType = "importBlocked"
	HistoryEventDownloadIgnored HistoryEventType = "downloadIgnored"
)

// HistoryRecord is an append-only log line about a release.
type HistoryRecord struct {
	ID             int                   `json:"id"`
	GameID         int                   `json:"gameId"`
	EventType      HistoryEventType      `json:"eventType"`
	SourceTitle    string                `json:"sourceTitle"`
	Quality        releases.QualityModel `json:"quality"`
	DownloadID     string                `json:"downloadId,omitempty"`
	DownloadClient string                `json:"downloadClient,omitempty"`
	Protocol       Protocol              `json:"protocol,omitempty"`
	Indexer        string                `json:"indexer,omitempty"`
	Data           map[string]string     `json:"data,omitempty"`
	Date           time.Time             `json:"date"`
}

type HistoryQuery struct {
	GameID     int
	EventTypes []HistoryEventType
	Page       int
	PageSize   int
}

type HistoryPage struct {
	Records  []*HistoryRecord `json:"records"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type HistoryStore struct {
	db dbinterface.Querier
}

func NewHistoryStore(db dbinterface.Querier) *HistoryStore {
	return &HistoryStore{db: db}
}

var historyColumns = []string{
	"id", "game_id", "event_type", "source_title", "quality", "download_id",
	"download_client", "protocol", "indexer", "data", "date",
}

func scanHistoryRecord(row interface{ Scan(...any) error }) (*HistoryRecord, error) {
	var r HistoryRecord
	var qualityJSON, dataJSON string
	if err := row.Scan(&r.ID, &r.GameID, &r.EventType, &r.SourceTitle, &qualityJSON, &r.DownloadID,
		&r.DownloadClient, &r.Protocol, &r.Indexer, &dataJSON, &r.Date); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(qualityJSON), &r.Quality); err != nil {
		return nil, fmt.Errorf("history %d: unmarshal quality: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(dataJSON), &r.Data); err != nil {
		return nil, fmt.Errorf("history %d: unmarshal data: %w", r.ID, err)
	}
	return &r, nil
}

func (s *HistoryStore) query(ctx context.Context, builder sq.SelectBuilder) ([]*HistoryRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*HistoryRecord
	for rows.Next() {
		r, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Add appends a record and returns it with its id.
func (s *HistoryStore) Add(ctx context.Context, r *HistoryRecord) (*HistoryRecord, error) {
	if r == nil {
		return nil, errors.New("history record is nil")
	}
	if r.EventType == "" {
		return nil, errors.New("history event type is required")
	}
	if strings.TrimSpace(r.SourceTitle) == "" {
		return nil, ErrTitleRequired
	}

	qualityJSON, err := json.Marshal(r.Quality)
	if err != nil {
		return nil, fmt.Errorf("marshal quality: %w", err)
	}
	data := r.Data
	if data == nil {
		data = map[string]string{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}

	date := r.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history (game_id, event_type, source_title, quality, download_id, download_client, protocol, indexer, data, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.GameID, string(r.EventType), strings.TrimSpace(r.SourceTitle), string(qualityJSON), r.DownloadID,
		r.DownloadClient, string(r.Protocol), r.Indexer, string(dataJSON), date)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select(historyColumns...).From("history").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanHistoryRecord(s.db.QueryRowContext(ctx, query, args...))
}

// FindByDownloadID returns the records of a download, newest first.
func (s *HistoryStore) FindByDownloadID(ctx context.Context, downloadID string) ([]*HistoryRecord, error) {
	if downloadID == "" {
		return nil, nil
	}
	return s.query(ctx, sq.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"download_id": downloadID}).
		OrderBy("date DESC", "id DESC"))
}

// MostRecentForDownload returns the newest record of the given type for a
// download, or sql.ErrNoRows.
func (s *HistoryStore) MostRecentForDownload(ctx context.Context, downloadID string, eventType HistoryEventType) (*HistoryRecord, error) {
	query, args, err := sq.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"download_id": downloadID, "event_type": string(eventType)}).
		OrderBy("date DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanHistoryRecord(s.db.QueryRowContext(ctx, query, args...))
}

// ListByGame returns a game's records, newest first.
func (s *HistoryStore) ListByGame(ctx context.Context, gameID int) ([]*HistoryRecord, error) {
	return s.query(ctx, sq.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"game_id": gameID}).
		OrderBy("date DESC", "id DESC"))
}

func (s *HistoryStore) Page(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	if q.PageSize <= 0 {
		q.PageSize = defaultBlocklistPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	where := sq.And{}
	if q.GameID > 0 {
		where = append(where, sq.Eq{"game_id": q.GameID})
	}
	if len(q.EventTypes) > 0 {
		types := make([]string, 0, len(q.EventTypes))
		for _, t := range q.EventTypes {
			types = append(types, string(t))
		}
		where = append(where, sq.Eq{"event_type": types})
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("history").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	records, err := s.query(ctx, sq.Select(historyColumns...).
		From("history").
		Where(where).
		OrderBy("date DESC", "id DESC").
		Limit(uint64(q.PageSize)).
		Offset(uint64((q.Page-1)*q.PageSize)))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*HistoryRecord{}
	}
	return &HistoryPage{Records: records, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *HistoryStore) DeleteByGame(ctx context.Context, gameID int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
