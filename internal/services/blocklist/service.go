// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package blocklist decides whether a release was already rejected for a
// game and records new rejections.
package blocklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

const (
	publishedDateTolerance = 2 * time.Minute
	sizeTolerance          = 2 << 20
)

var ErrNoGame = errors.New("release is not matched to a game")

type Store interface {
	Create(ctx context.Context, e *models.BlocklistEntry) (*models.BlocklistEntry, error)
	ListByGameAndProtocol(ctx context.Context, gameID int, protocol models.Protocol) ([]*models.BlocklistEntry, error)
	FindByInfoHash(ctx context.Context, infoHash string) ([]*models.BlocklistEntry, error)
	Page(ctx context.Context, q models.BlocklistQuery) (*models.BlocklistPage, error)
	Delete(ctx context.Context, ids []int) (int64, error)
	DeleteByGame(ctx context.Context, gameID int) (int64, error)
	Clear(ctx context.Context) (int64, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Subscribe wires game deletion and download failures to the blocklist.
func (s *Service) Subscribe(bus *events.Bus) {
	bus.GameDeleted.Subscribe("blocklist", s.handleGameDeleted)
	bus.DownloadFailed.Subscribe("blocklist", s.BlockFailed)
}

// IsBlocked reports whether release matches an entry of the game.
func (s *Service) IsBlocked(ctx context.Context, gameID int, release *models.ReleaseInfo) (bool, error) {
	if release == nil || gameID <= 0 {
		return false, nil
	}

	if release.Protocol == models.ProtocolTorrent {
		if hash := release.ResolveInfoHash(); hash != "" {
			entries, err := s.store.FindByInfoHash(ctx, hash)
			if err != nil {
				return false, fmt.Errorf("find blocklist by info hash: %w", err)
			}
			for _, e := range entries {
				if e.GameID == gameID {
					return true, nil
				}
			}
			return false, nil
		}
	}

	entries, err := s.store.ListByGameAndProtocol(ctx, gameID, release.Protocol)
	if err != nil {
		return false, fmt.Errorf("list blocklist: %w", err)
	}

	title := strings.ToLower(strings.TrimSpace(release.Title))
	if title == "" {
		return false, nil
	}

	for _, e := range entries {
		if !strings.Contains(strings.ToLower(e.SourceTitle), title) {
			continue
		}
		switch release.Protocol {
		case models.ProtocolTorrent:
			if sameTorrent(e, release) {
				return true, nil
			}
		case models.ProtocolUsenet:
			if sameNzb(e, release) {
				return true, nil
			}
		}
	}
	return false, nil
}

// sameTorrent is only reached when the release has no info-hash.
func sameTorrent(e *models.BlocklistEntry, release *models.ReleaseInfo) bool {
	return sameIndexer(e, release.Indexer)
}

func sameNzb(e *models.BlocklistEntry, release *models.ReleaseInfo) bool {
	if e.PublishedDate != nil && !release.PublishDate.IsZero() && e.PublishedDate.Equal(release.PublishDate) {
		return true
	}
	return sameIndexer(e, release.Indexer) && samePublishedDate(e, release.PublishDate) && sameSize(e, release.Size)
}

func sameIndexer(e *models.BlocklistEntry, indexer string) bool {
	if e.Indexer == "" || indexer == "" {
		return true
	}
	return strings.EqualFold(e.Indexer, indexer)
}

func samePublishedDate(e *models.BlocklistEntry, published time.Time) bool {
	if e.PublishedDate == nil || published.IsZero() {
		return true
	}
	diff := e.PublishedDate.Sub(published)
	return diff >= -publishedDateTolerance && diff <= publishedDateTolerance
}

func sameSize(e *models.BlocklistEntry, size int64) bool {
	if e.Size == nil || size <= 0 {
		return true
	}
	diff := *e.Size - size
	return diff >= -sizeTolerance && diff <= sizeTolerance
}

// Block records a rejected release for its matched game.
func (s *Service) Block(ctx context.Context, remote *models.RemoteGame, message string) error {
	if remote == nil || remote.Release == nil {
		return errors.New("nothing to block")
	}
	if remote.GameID() <= 0 {
		return ErrNoGame
	}

	release := remote.Release
	entry := &models.BlocklistEntry{
		GameID:          remote.GameID(),
		SourceTitle:     release.Title,
		Quality:         remote.Quality(),
		CustomFormats:   remote.CustomFormatNames(),
		Protocol:        release.Protocol,
		Indexer:         release.Indexer,
		IndexerFlags:    release.IndexerFlags,
		TorrentInfoHash: release.ResolveInfoHash(),
		Message:         message,
	}
	if remote.Parsed != nil {
		entry.Languages = remote.Parsed.Languages
	}
	if !release.PublishDate.IsZero() {
		published := release.PublishDate
		entry.PublishedDate = &published
	}
	if release.Size > 0 {
		size := release.Size
		entry.Size = &size
	}

	created, err := s.store.Create(ctx, entry)
	if err != nil {
		return fmt.Errorf("blocklist %q: %w", release.Title, err)
	}

	log.Info().
		Int("gameID", created.GameID).
		Str("title", created.SourceTitle).
		Str("reason", message).
		Msg("[BLOCKLIST] Release blocklisted")
	return nil
}

// BlockFailed records a failed download unless the event opts out.
func (s *Service) BlockFailed(ctx context.Context, event events.DownloadFailed) error {
	if event.SkipBlocklist {
		return nil
	}
	if event.GameID <= 0 {
		log.Debug().Str("title", event.SourceTitle).Msg("[BLOCKLIST] Failed download without game, not blocklisted")
		return nil
	}

	entry := &models.BlocklistEntry{
		GameID:          event.GameID,
		SourceTitle:     event.SourceTitle,
		Quality:         event.Quality,
		Languages:       event.Languages,
		CustomFormats:   event.CustomFormats,
		Protocol:        event.Protocol,
		PublishedDate:   event.PublishedDate,
		Size:            event.Size,
		Indexer:         event.Indexer,
		IndexerFlags:    event.IndexerFlags,
		TorrentInfoHash: releases.NormalizeInfoHash(event.InfoHash),
		Message:         event.Message,
	}
	if _, err := s.store.Create(ctx, entry); err != nil {
		return fmt.Errorf("blocklist failed download %q: %w", event.SourceTitle, err)
	}

	log.Info().
		Int("gameID", event.GameID).
		Str("title", event.SourceTitle).
		Str("client", event.DownloadClient).
		Msg("[BLOCKLIST] Failed download blocklisted")
	return nil
}

func (s *Service) Unblock(ctx context.Context, ids []int) (int64, error) {
	removed, err := s.store.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("unblock: %w", err)
	}
	log.Info().Int64("removed", removed).Msg("[BLOCKLIST] Entries removed")
	return removed, nil
}

func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	removed, err := s.store.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear blocklist: %w", err)
	}
	log.Info().Int64("removed", removed).Msg("[BLOCKLIST] Blocklist cleared")
	return removed, nil
}

func (s *Service) List(ctx context.Context, q models.BlocklistQuery) (*models.BlocklistPage, error) {
	return s.store.Page(ctx, q)
}

func (s *Service) handleGameDeleted(ctx context.Context, event events.GameDeleted) error {
	removed, err := s.store.DeleteByGame(ctx, event.GameID)
	if err != nil {
		return fmt.Errorf("remove blocklist of game %d: %w", event.GameID, err)
	}
	if removed > 0 {
		log.Debug().Int("gameID", event.GameID).Int64("removed", removed).Msg("[BLOCKLIST] Entries of deleted game removed")
	}
	return nil
}
