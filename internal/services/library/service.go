// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package library owns the games the user tracks and announces their removal.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/models"
)

var ErrGameNotFound = errors.New("game not found")

// Store abstracts game persistence.
type Store interface {
	List(ctx context.Context) ([]*models.Game, error)
	Get(ctx context.Context, id int) (*models.Game, error)
	FindByIgdbID(ctx context.Context, igdbID int) (*models.Game, error)
	FindBySteamAppID(ctx context.Context, appID int) (*models.Game, error)
	Create(ctx context.Context, g *models.Game) (*models.Game, error)
	Delete(ctx context.Context, id int) error
}

// Service caches the game pool used for matching. The cached pool is
// rebuilt after every change.
type Service struct {
	store Store
	bus   *events.Bus

	mu    sync.RWMutex
	pool  []*models.Game
	valid bool
	gen   uint64
	loads singleflight.Group
}

func NewService(store Store, bus *events.Bus) *Service {
	return &Service{store: store, bus: bus}
}

// Games returns the current pool. Callers must not modify the games.
func (s *Service) Games(ctx context.Context) ([]*models.Game, error) {
	s.mu.RLock()
	if s.valid {
		pool := s.pool
		s.mu.RUnlock()
		return pool, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.loads.Do("pool", func() (any, error) {
		s.mu.RLock()
		gen := s.gen
		s.mu.RUnlock()

		games, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("load games: %w", err)
		}

		s.mu.Lock()
		if s.gen == gen {
			s.pool = games
			s.valid = true
		}
		s.mu.Unlock()

		log.Debug().Int("games", len(games)).Msg("[LIBRARY] Game pool loaded")
		return games, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Game), nil
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.pool = nil
	s.valid = false
	s.gen++
	s.mu.Unlock()
	s.loads.Forget("pool")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrGameNotFound
	}
	return err
}

func (s *Service) Get(ctx context.Context, id int) (*models.Game, error) {
	g, err := s.store.Get(ctx, id)
	return g, notFound(err)
}

func (s *Service) FindByIgdbID(ctx context.Context, igdbID int) (*models.Game, error) {
	g, err := s.store.FindByIgdbID(ctx, igdbID)
	return g, notFound(err)
}

func (s *Service) FindBySteamAppID(ctx context.Context, appID int) (*models.Game, error) {
	g, err := s.store.FindBySteamAppID(ctx, appID)
	return g, notFound(err)
}

// Add stores a new game.
func (s *Service) Add(ctx context.Context, g *models.Game) (*models.Game, error) {
	created, err := s.store.Create(ctx, g)
	if err != nil {
		return nil, err
	}
	s.invalidate()

	log.Info().Int("gameID", created.ID).Str("title", created.Title).Msg("[LIBRARY] Game added")
	return created, nil
}

// Delete removes a game and publishes GameDeleted. Dependent records are
// cleaned up by the subscribers; their failures do not undo the delete.
func (s *Service) Delete(ctx context.Context, id int) error {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return notFound(err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.invalidate()

	log.Info().Int("gameID", id).Str("title", g.Title).Msg("[LIBRARY] Game deleted")

	if s.bus != nil {
		s.bus.GameDeleted.Publish(events.GameDeleted{GameID: id, Title: g.Title})
	}
	return nil
}
