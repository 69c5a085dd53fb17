// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package download hands approved releases to download clients.
package download

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/models"
)

const DefaultTimeout = 30 * time.Second

var ErrNoRelease = errors.New("nothing to download")

// Service picks a client by protocol and priority. A client that reports
// itself unavailable is skipped in favour of the next one.
type Service struct {
	bus     *events.Bus
	timeout time.Duration

	mu      sync.RWMutex
	clients []Client
}

func NewService(bus *events.Bus, timeout time.Duration, clients ...Client) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Service{bus: bus, timeout: timeout}
	for _, c := range clients {
		s.AddClient(c)
	}
	return s
}

func (s *Service) AddClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = append(s.clients, c)
	slices.SortStableFunc(s.clients, func(a, b Client) int {
		return a.Info().Priority - b.Info().Priority
	})
}

// Clients returns every registered client in priority order.
func (s *Service) Clients() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.clients)
}

// ClientsFor returns the clients able to take a protocol.
func (s *Service) ClientsFor(protocol models.Protocol) []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Client
	for _, c := range s.clients {
		if c.Info().Protocol == protocol {
			out = append(out, c)
		}
	}
	return out
}

// Download issues the release. Errors are ClientUnavailableError,
// ReleaseUnavailableError, a context error on timeout, or anything the
// client returned.
func (s *Service) Download(ctx context.Context, remote *models.RemoteGame) (Grab, error) {
	if remote == nil || remote.Release == nil {
		return Grab{}, ErrNoRelease
	}
	release := remote.Release

	clients := s.ClientsFor(release.Protocol)
	if len(clients) == 0 {
		return Grab{}, &ClientUnavailableError{Protocol: release.Protocol, Err: errors.New("no client configured")}
	}

	var lastErr error
	for _, client := range clients {
		info := client.Info()

		grab, err := s.issue(ctx, client, remote)
		if err == nil {
			log.Info().
				Str("client", info.Name).
				Str("downloadID", grab.DownloadID).
				Str("title", release.Title).
				Int("gameID", remote.GameID()).
				Msg("[DOWNLOAD] Release sent to client")

			if s.bus != nil {
				s.bus.ReleaseGrabbed.Publish(events.ReleaseGrabbed{
					Remote:         remote,
					ClientID:       grab.ClientID,
					DownloadClient: grab.DownloadClient,
					DownloadID:     grab.DownloadID,
					Date:           grab.Date,
				})
			}
			return grab, nil
		}

		var unavailable *ClientUnavailableError
		if !errors.As(err, &unavailable) {
			return Grab{}, err
		}
		log.Warn().Err(err).Str("client", info.Name).Msg("[DOWNLOAD] Client unavailable, trying next")
		lastErr = err
	}

	return Grab{}, &ClientUnavailableError{Protocol: release.Protocol, Err: lastErr}
}

func (s *Service) issue(ctx context.Context, client Client, remote *models.RemoteGame) (Grab, error) {
	info := client.Info()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := client.Download(callCtx, remote)
	if err != nil {
		var unavailable *ClientUnavailableError
		var gone *ReleaseUnavailableError
		switch {
		case errors.As(err, &unavailable), errors.As(err, &gone):
			return Grab{}, err
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return Grab{}, errors.Wrapf(err, "download client %s timed out after %s", info.Name, s.timeout)
		}
		return Grab{}, errors.Wrapf(err, "download client %s", info.Name)
	}
	if id == "" {
		return Grab{}, errors.Errorf("download client %s returned no download id", info.Name)
	}

	return Grab{
		ClientID:       info.ID,
		DownloadClient: info.Name,
		DownloadID:     id,
		Protocol:       info.Protocol,
		Date:           time.Now().UTC(),
	}, nil
}
