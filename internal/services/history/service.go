// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package history records what happened to grabbed releases.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/models"
)

// Keys of HistoryRecord.Data.
const (
	DataGUID              = "guid"
	DataInfoHash          = "infoHash"
	DataDownloadURL       = "downloadUrl"
	DataIndexerFlags      = "indexerFlags"
	DataPublishedDate     = "publishedDate"
	DataSize              = "size"
	DataCustomFormats     = "customFormats"
	DataCustomFormatScore = "customFormatScore"
	DataMatchedBy         = "matchedBy"
	DataMessage           = "message"
	DataClientID          = "clientId"
)

type Store interface {
	Add(ctx context.Context, r *models.HistoryRecord) (*models.HistoryRecord, error)
	FindByDownloadID(ctx context.Context, downloadID string) ([]*models.HistoryRecord, error)
	MostRecentForDownload(ctx context.Context, downloadID string, eventType models.HistoryEventType) (*models.HistoryRecord, error)
	Page(ctx context.Context, q models.HistoryQuery) (*models.HistoryPage, error)
	DeleteByGame(ctx context.Context, gameID int) (int64, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Subscribe records every lifecycle event and drops the history of deleted games.
func (s *Service) Subscribe(bus *events.Bus) {
	bus.ReleaseGrabbed.Subscribe("history", s.recordGrabbed)
	bus.DownloadFailed.Subscribe("history", s.recordFailed)
	bus.ImportCompleted.Subscribe("history", s.recordImport)
	bus.DownloadIgnored.Subscribe("history", s.recordIgnored)
	bus.GameDeleted.Subscribe("history", s.handleGameDeleted)
}

// MostRecentGrab returns the latest grab of a download, or nil when the
// download was never grabbed by this instance.
func (s *Service) MostRecentGrab(ctx context.Context, downloadID string) (*models.HistoryRecord, error) {
	if downloadID == "" {
		return nil, nil
	}
	record, err := s.store.MostRecentForDownload(ctx, downloadID, models.HistoryEventGrabbed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find grab of %s: %w", downloadID, err)
	}
	return record, nil
}

func (s *Service) FindByDownloadID(ctx context.Context, downloadID string) ([]*models.HistoryRecord, error) {
	return s.store.FindByDownloadID(ctx, downloadID)
}

func (s *Service) List(ctx context.Context, q models.HistoryQuery) (*models.HistoryPage, error) {
	return s.store.Page(ctx, q)
}

// ReleaseFromRecord rebuilds the release descriptor stored with a grab.
func ReleaseFromRecord(r *models.HistoryRecord) *models.ReleaseInfo {
	if r == nil {
		return nil
	}
	release := &models.ReleaseInfo{
		Title:       r.SourceTitle,
		Indexer:     r.Indexer,
		Protocol:    r.Protocol,
		GUID:        r.Data[DataGUID],
		InfoHash:    r.Data[DataInfoHash],
		DownloadURL: r.Data[DataDownloadURL],
	}
	if v, err := strconv.Atoi(r.Data[DataIndexerFlags]); err == nil {
		release.IndexerFlags = models.IndexerFlags(v)
	}
	if v, err := strconv.ParseInt(r.Data[DataSize], 10, 64); err == nil {
		release.Size = v
	}
	if v, err := time.Parse(time.RFC3339, r.Data[DataPublishedDate]); err == nil {
		release.PublishDate = v
	}
	return release
}

func (s *Service) add(ctx context.Context, r *models.HistoryRecord) error {
	if _, err := s.store.Add(ctx, r); err != nil {
		return fmt.Errorf("record %s for %q: %w", r.EventType, r.SourceTitle, err)
	}
	log.Debug().
		Int("gameID", r.GameID).
		Str("event", string(r.EventType)).
		Str("title", r.SourceTitle).
		Msg("[HISTORY] Recorded")
	return nil
}

func (s *Service) recordGrabbed(ctx context.Context, e events.ReleaseGrabbed) error {
	remote := e.Remote
	if remote == nil || remote.Release == nil {
		return errors.New("grab event without release")
	}
	release := remote.Release

	data := map[string]string{
		DataIndexerFlags:      strconv.Itoa(int(release.IndexerFlags)),
		DataCustomFormatScore: strconv.Itoa(remote.CustomFormatScore),
		DataClientID:          strconv.Itoa(e.ClientID),
	}
	setIf(data, DataGUID, release.GUID)
	setIf(data, DataInfoHash, release.ResolveInfoHash())
	setIf(data, DataDownloadURL, release.DownloadURL)
	setIf(data, DataMatchedBy, remote.MatchedBy)
	setIf(data, DataCustomFormats, strings.Join(remote.CustomFormatNames(), ","))
	if release.Size > 0 {
		data[DataSize] = strconv.FormatInt(release.Size, 10)
	}
	if !release.PublishDate.IsZero() {
		data[DataPublishedDate] = release.PublishDate.UTC().Format(time.RFC3339)
	}

	return s.add(ctx, &models.HistoryRecord{
		GameID:         remote.GameID(),
		EventType:      models.HistoryEventGrabbed,
		SourceTitle:    release.Title,
		Quality:        remote.Quality(),
		DownloadID:     e.DownloadID,
		DownloadClient: e.DownloadClient,
		Protocol:       release.Protocol,
		Indexer:        release.Indexer,
		Data:           data,
		Date:           e.Date,
	})
}

func (s *Service) recordFailed(ctx context.Context, e events.DownloadFailed) error {
	data := map[string]string{}
	setIf(data, DataMessage, e.Message)
	setIf(data, DataInfoHash, e.InfoHash)
	setIf(data, DataCustomFormats, strings.Join(e.CustomFormats, ","))

	return s.add(ctx, &models.HistoryRecord{
		GameID:         e.GameID,
		EventType:      models.HistoryEventDownloadFailed,
		SourceTitle:    e.SourceTitle,
		Quality:        e.Quality,
		DownloadID:     e.DownloadID,
		DownloadClient: e.DownloadClient,
		Protocol:       e.Protocol,
		Indexer:        e.Indexer,
		Data:           data,
	})
}

func (s *Service) recordImport(ctx context.Context, e events.ImportCompleted) error {
	eventType := models.HistoryEventImported
	if e.Blocked {
		eventType = models.HistoryEventImportBlocked
	}
	data := map[string]string{}
	setIf(data, DataMessage, e.Message)

	return s.add(ctx, &models.HistoryRecord{
		GameID:         e.GameID,
		EventType:      eventType,
		SourceTitle:    e.SourceTitle,
		Quality:        e.Quality,
		DownloadID:     e.DownloadID,
		DownloadClient: e.DownloadClient,
		Data:           data,
	})
}

func (s *Service) recordIgnored(ctx context.Context, e events.DownloadIgnored) error {
	return s.add(ctx, &models.HistoryRecord{
		GameID:         e.GameID,
		EventType:      models.HistoryEventDownloadIgnored,
		SourceTitle:    e.SourceTitle,
		DownloadID:     e.DownloadID,
		DownloadClient: e.DownloadClient,
	})
}

func (s *Service) handleGameDeleted(ctx context.Context, e events.GameDeleted) error {
	removed, err := s.store.DeleteByGame(ctx, e.GameID)
	if err != nil {
		return fmt.Errorf("remove history of game %d: %w", e.GameID, err)
	}
	if removed > 0 {
		log.Debug().Int("gameID", e.GameID).Int64("removed", removed).Msg("[HISTORY] Records of deleted game removed")
	}
	return nil
}

func setIf(data map[string]string, key, value string) {
	if value != "" {
		data[key] = value
	}
}
