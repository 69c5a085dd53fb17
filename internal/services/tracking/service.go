// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tracking follows grabbed downloads through their client and the
// import stage.
package tracking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/download"
	"github.com/autobrr/gamarr/internal/services/history"
	"github.com/autobrr/gamarr/internal/services/matching"
)

const (
	DefaultPollInterval  = time.Minute
	DefaultClientTimeout = 30 * time.Second

	maxConcurrentPolls = 4
	suggestionLimit    = 3
)

var ErrNotTracked = errors.New("download is not tracked")

// Clients lists the configured download clients.
type Clients interface {
	Clients() []download.Client
}

// GrabHistory finds the grab that produced a download.
type GrabHistory interface {
	MostRecentGrab(ctx context.Context, downloadID string) (*models.HistoryRecord, error)
}

type Options struct {
	PollInterval  time.Duration
	ClientTimeout time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ClientTimeout <= 0 {
		o.ClientTimeout = DefaultClientTimeout
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	return o
}

// Service owns the tracked download registry.
type Service struct {
	bus       *events.Bus
	clients   Clients
	matcher   *matching.Matcher
	history   GrabHistory
	inspector Inspector
	opts      Options
	now       func() time.Time

	mu        sync.Mutex
	downloads map[key]*TrackedDownload

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(bus *events.Bus, clients Clients, matcher *matching.Matcher, grabs GrabHistory, inspector Inspector, opts Options) *Service {
	if inspector == nil {
		inspector = ContentInspector{}
	}
	return &Service{
		bus:       bus,
		clients:   clients,
		matcher:   matcher,
		history:   grabs,
		inspector: inspector,
		opts:      opts.withDefaults(),
		now:       time.Now,
		downloads: make(map[key]*TrackedDownload),
	}
}

// Subscribe starts tracking grabs as soon as they happen and detaches
// downloads from deleted games.
func (s *Service) Subscribe(bus *events.Bus) {
	bus.ReleaseGrabbed.Subscribe("tracking", s.handleGrabbed)
	bus.GameDeleted.Subscribe("tracking", s.handleGameDeleted)
}

// Start polls every client on a fixed interval until Stop.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Go(func() {
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()

		for {
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("[TRACKING] Refresh incomplete")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})

	log.Info().Dur("interval", s.opts.PollInterval).Msg("[TRACKING] Poller started")
}

func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	log.Info().Msg("[TRACKING] Poller stopped")
}

// Refresh polls all clients once. A client that cannot be reached keeps its
// downloads as they were; the joined poll errors are returned.
func (s *Service) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPolls)

	var mu sync.Mutex
	var pollErrors []error

	for _, client := range s.clients.Clients() {
		g.Go(func() error {
			items, err := s.poll(gctx, client)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				info := client.Info()
				log.Warn().Err(err).Str("client", info.Name).Msg("[TRACKING] Failed to poll download client")
				mu.Lock()
				pollErrors = append(pollErrors, fmt.Errorf("poll %s: %w", info.Name, err))
				mu.Unlock()
				return nil
			}
			s.reconcile(gctx, client.Info(), items)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(pollErrors...)
}

func (s *Service) poll(ctx context.Context, client download.Client) ([]download.Item, error) {
	var items []download.Item
	err := retry.Do(
		func() error {
			pctx, cancel := context.WithTimeout(ctx, s.opts.ClientTimeout)
			defer cancel()

			var err error
			items, err = client.GetItems(pctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.opts.RetryAttempts),
		retry.Delay(s.opts.RetryDelay),
		retry.LastErrorOnly(true),
	)
	return items, err
}

// reconcile applies one client's report and forgets downloads the client
// no longer lists.
func (s *Service) reconcile(ctx context.Context, info download.ClientInfo, items []download.Item) {
	reported := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.DownloadID == "" {
			continue
		}
		reported[item.DownloadID] = struct{}{}
		s.update(ctx, info, item)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, td := range s.downloads {
		if k.clientID != info.ID || td.LastSeen.IsZero() {
			continue
		}
		if _, ok := reported[k.downloadID]; !ok {
			delete(s.downloads, k)
			log.Debug().Str("client", info.Name).Str("downloadID", k.downloadID).Str("state", string(td.State)).Msg("[TRACKING] Download removed from client")
		}
	}
}

func (s *Service) update(ctx context.Context, info download.ClientInfo, item download.Item) {
	k := key{clientID: info.ID, downloadID: item.DownloadID}
	now := s.now()

	s.mu.Lock()
	td, ok := s.downloads[k]
	if !ok {
		td = &TrackedDownload{ClientID: info.ID, DownloadID: item.DownloadID, State: StateDownloading, Status: StatusOK, Added: now}
		s.downloads[k] = td
	}
	td.Client = info
	td.Item = item
	td.LastSeen = now
	needsMatch := !td.resolved
	state := td.State
	s.mu.Unlock()

	if needsMatch {
		remote, suggestions := s.resolve(ctx, info, item)
		s.mu.Lock()
		if !td.resolved {
			td.resolved = true
			td.RemoteGame = remote
			td.Suggestions = suggestions
		}
		s.mu.Unlock()
	}

	if state.IsTerminal() || state == StateFailedPending || state == StateImportBlocked {
		return
	}

	switch item.Status {
	case download.ItemFailed:
		s.fail(td, item.Message)
	case download.ItemCompleted:
		if state == StateDownloading {
			s.completed(ctx, td, item)
		}
	case download.ItemWarning:
		s.mu.Lock()
		td.Status = StatusWarning
		td.addMessage(item.Message)
		s.mu.Unlock()
	default:
		s.mu.Lock()
		if td.State == StateDownloading {
			td.Status = StatusOK
		}
		s.mu.Unlock()
	}
}

// resolve matches a download the tracker has not seen grabbed. The client's
// own title is tried first, then the release title stored with its grab.
func (s *Service) resolve(ctx context.Context, info download.ClientInfo, item download.Item) (*models.RemoteGame, []matching.Suggestion) {
	if s.matcher == nil {
		return nil, nil
	}

	release := &models.ReleaseInfo{Title: item.Title, Protocol: info.Protocol, Size: item.TotalSize}
	remote, err := s.matcher.MapTitle(ctx, item.Title, release, matching.MapOptions{})
	if err != nil {
		log.Warn().Err(err).Str("title", item.Title).Msg("[TRACKING] Failed to match download")
	} else if remote.Game != nil {
		return remote, nil
	}

	if s.history != nil {
		grab, err := s.history.MostRecentGrab(ctx, item.DownloadID)
		if err != nil {
			log.Warn().Err(err).Str("downloadID", item.DownloadID).Msg("[TRACKING] Failed to look up grab history")
		}
		if grab != nil {
			release := history.ReleaseFromRecord(grab)
			remote, err := s.matcher.MapTitle(ctx, grab.SourceTitle, release, matching.MapOptions{GameID: grab.GameID})
			if err == nil && remote.Game != nil {
				log.Debug().Str("downloadID", item.DownloadID).Str("title", grab.SourceTitle).Msg("[TRACKING] Matched download from grab history")
				return remote, nil
			}
		}
	}

	suggestions, err := s.matcher.Suggest(ctx, item.Title, suggestionLimit)
	if err != nil {
		log.Debug().Err(err).Str("title", item.Title).Msg("[TRACKING] Suggestions unavailable")
	}
	return nil, suggestions
}

func (s *Service) fail(td *TrackedDownload, message string) {
	if message == "" {
		message = "Download failed in client"
	}

	s.mu.Lock()
	changed, err := s.transition(td, StateFailedPending, message)
	if err == nil && changed {
		td.Status = StatusError
	}
	event := failedEvent(td, message)
	s.mu.Unlock()

	if err != nil {
		log.Debug().Err(err).Str("downloadID", td.DownloadID).Msg("[TRACKING] Failure ignored")
		return
	}
	if changed {
		s.bus.DownloadFailed.Publish(event)
	}
}

// completed inspects finished content before handing it to import. Content
// that needs review is blocked here so the import stage never sees it.
func (s *Service) completed(ctx context.Context, td *TrackedDownload, item download.Item) {
	finding, err := s.inspector.Inspect(ctx, item.OutputPath, item.Encrypted)
	if err != nil {
		log.Warn().Err(err).Str("downloadID", td.DownloadID).Msg("[TRACKING] Content inspection failed")
		s.mu.Lock()
		td.Status = StatusWarning
		td.addMessage("Content could not be inspected")
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case finding != nil:
		s.block(td, finding.Reason, finding.String())
	case td.RemoteGame == nil:
		if _, err := s.transition(td, StateWarning, "Unknown game, manual import required"); err == nil {
			td.Status = StatusWarning
			td.Rejection = RejectionUnknownGame
		}
	default:
		_, _ = s.transition(td, StateImporting, "")
	}
}

// block must be called with s.mu held.
func (s *Service) block(td *TrackedDownload, reason ImportRejectionReason, message string) {
	changed, err := s.transition(td, StateImportBlocked, message)
	if err != nil || !changed {
		return
	}
	td.Status = StatusError
	td.Rejection = reason
	s.bus.ImportCompleted.Publish(importEvent(td, true, message))
}

// HandleImportResult applies the import stage's verdict. Re-delivering the
// same result is a no-op.
func (s *Service) HandleImportResult(_ context.Context, result ImportResult) (*TrackedDownload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.downloads[key{clientID: result.ClientID, downloadID: result.DownloadID}]
	if !ok {
		return nil, fmt.Errorf("%w: client %d download %s", ErrNotTracked, result.ClientID, result.DownloadID)
	}

	to, reason := result.target()
	message := result.Message
	if message == "" && reason != "" {
		message = string(reason)
	}

	if to == StateImportBlocked {
		if !CanTransition(td.State, to) {
			return nil, transitionError(td.State, to)
		}
		s.block(td, reason, message)
		return td.clone(), nil
	}

	changed, err := s.transition(td, to, message)
	if err != nil {
		return nil, err
	}
	if changed {
		td.Rejection = reason
		switch to {
		case StateImported:
			td.Status = StatusOK
			s.bus.ImportCompleted.Publish(importEvent(td, false, message))
		case StateWarning:
			td.Status = StatusWarning
		}
	}
	return td.clone(), nil
}

// Ignore stops tracking a download without importing or blocklisting it.
func (s *Service) Ignore(_ context.Context, clientID int, downloadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.downloads[key{clientID: clientID, downloadID: downloadID}]
	if !ok {
		return fmt.Errorf("%w: client %d download %s", ErrNotTracked, clientID, downloadID)
	}
	changed, err := s.transition(td, StateIgnored, "Ignored by user")
	if err != nil {
		return err
	}
	if changed {
		s.bus.DownloadIgnored.Publish(events.DownloadIgnored{
			GameID:         td.RemoteGame.GameID(),
			SourceTitle:    td.Title(),
			DownloadClient: td.Client.Name,
			DownloadID:     td.DownloadID,
		})
	}
	return nil
}

// MarkFailedResolved settles a failed download once it was dealt with.
func (s *Service) MarkFailedResolved(_ context.Context, clientID int, downloadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.downloads[key{clientID: clientID, downloadID: downloadID}]
	if !ok {
		return fmt.Errorf("%w: client %d download %s", ErrNotTracked, clientID, downloadID)
	}
	_, err := s.transition(td, StateFailed, "")
	return err
}

// transition must be called with s.mu held.
func (s *Service) transition(td *TrackedDownload, to State, message string) (bool, error) {
	if td.State == to {
		return false, nil
	}
	if !CanTransition(td.State, to) {
		return false, transitionError(td.State, to)
	}

	log.Debug().
		Int("clientID", td.ClientID).
		Str("downloadID", td.DownloadID).
		Str("from", string(td.State)).
		Str("to", string(to)).
		Msg("[TRACKING] State changed")

	td.State = to
	td.Updated = s.now()
	td.addMessage(message)
	return true, nil
}

func (s *Service) Get(clientID int, downloadID string) (*TrackedDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.downloads[key{clientID: clientID, downloadID: downloadID}]
	if !ok {
		return nil, false
	}
	return td.clone(), true
}

// All returns snapshots ordered by when they were first seen.
func (s *Service) All() []*TrackedDownload {
	s.mu.Lock()
	out := make([]*TrackedDownload, 0, len(s.downloads))
	for _, td := range s.downloads {
		out = append(out, td.clone())
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b *TrackedDownload) int {
		return cmp.Or(
			a.Added.Compare(b.Added),
			cmp.Compare(a.ClientID, b.ClientID),
			cmp.Compare(a.DownloadID, b.DownloadID),
		)
	})
	return out
}

// QueuedFor returns the releases still in a client queue for a game.
func (s *Service) QueuedFor(gameID int) []*models.RemoteGame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.RemoteGame
	for _, td := range s.downloads {
		if td.State.IsActive() && td.RemoteGame != nil && td.RemoteGame.GameID() == gameID {
			out = append(out, td.RemoteGame)
		}
	}
	return out
}

// Counts returns the number of tracked downloads per state.
func (s *Service) Counts() map[State]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[State]int, len(transitions))
	for _, td := range s.downloads {
		counts[td.State]++
	}
	return counts
}

func (s *Service) handleGrabbed(_ context.Context, e events.ReleaseGrabbed) error {
	if e.DownloadID == "" || e.Remote == nil {
		return nil
	}

	remote := *e.Remote
	k := key{clientID: e.ClientID, downloadID: e.DownloadID}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.downloads[k]; ok && !existing.State.IsTerminal() {
		// A poll may have registered the download before the grab arrived.
		if existing.RemoteGame == nil && !existing.detached {
			existing.RemoteGame = &remote
			existing.Suggestions = nil
			existing.resolved = true
			existing.Updated = now
		}
		return nil
	}

	var protocol models.Protocol
	if remote.Release != nil {
		protocol = remote.Release.Protocol
	}
	s.downloads[k] = &TrackedDownload{
		ClientID:   e.ClientID,
		DownloadID: e.DownloadID,
		Client:     download.ClientInfo{ID: e.ClientID, Name: e.DownloadClient, Protocol: protocol},
		Item:       download.Item{DownloadID: e.DownloadID, Title: remote.Title(), Status: download.ItemQueued},
		RemoteGame: &remote,
		State:      StateDownloading,
		Status:     StatusOK,
		Added:      now,
		Updated:    now,
		resolved:   true,
	}
	log.Debug().Str("client", e.DownloadClient).Str("downloadID", e.DownloadID).Str("title", remote.Title()).Msg("[TRACKING] Tracking grabbed release")
	return nil
}

func (s *Service) handleGameDeleted(_ context.Context, e events.GameDeleted) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for _, td := range s.downloads {
		if td.RemoteGame == nil || td.RemoteGame.GameID() != e.GameID {
			continue
		}
		td.RemoteGame = nil
		td.detached = true
		td.addMessage("Game is no longer in the library")
		td.Updated = s.now()
		cleared++
	}
	if cleared > 0 {
		log.Info().Int("gameID", e.GameID).Int("downloads", cleared).Msg("[TRACKING] Detached downloads from deleted game")
	}
	return nil
}

func failedEvent(td *TrackedDownload, message string) events.DownloadFailed {
	e := events.DownloadFailed{
		SourceTitle:    td.Title(),
		Protocol:       td.Client.Protocol,
		DownloadClient: td.Client.Name,
		DownloadID:     td.DownloadID,
		Message:        message,
	}

	remote := td.RemoteGame
	if remote == nil {
		return e
	}
	e.GameID = remote.GameID()
	e.Quality = remote.Quality()
	e.CustomFormats = remote.CustomFormatNames()
	if remote.Parsed != nil {
		e.Languages = slices.Clone(remote.Parsed.Languages)
	}
	if r := remote.Release; r != nil {
		e.Protocol = r.Protocol
		e.Indexer = r.Indexer
		e.IndexerFlags = r.IndexerFlags
		e.InfoHash = r.ResolveInfoHash()
		if !r.PublishDate.IsZero() {
			published := r.PublishDate
			e.PublishedDate = &published
		}
		if r.Size > 0 {
			size := r.Size
			e.Size = &size
		}
	}
	return e
}

func importEvent(td *TrackedDownload, blocked bool, message string) events.ImportCompleted {
	return events.ImportCompleted{
		GameID:         td.RemoteGame.GameID(),
		SourceTitle:    td.Title(),
		Quality:        td.RemoteGame.Quality(),
		DownloadClient: td.Client.Name,
		DownloadID:     td.DownloadID,
		Blocked:        blocked,
		Message:        message,
	}
}
