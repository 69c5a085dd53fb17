// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/models"
)

type Store interface {
	List(ctx context.Context) ([]*models.CustomFormat, error)
	Upsert(ctx context.Context, f *models.CustomFormat) (*models.CustomFormat, error)
}

// Service keeps an engine compiled from the stored formats.
type Service struct {
	store Store

	mu     sync.RWMutex
	engine *Engine
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Engine returns the current engine, compiling it on first use.
func (s *Service) Engine(ctx context.Context) (*Engine, error) {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()
	if engine != nil {
		return engine, nil
	}
	return s.Reload(ctx)
}

// Reload recompiles the engine from the store.
func (s *Service) Reload(ctx context.Context) (*Engine, error) {
	formats, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list custom formats: %w", err)
	}

	engine, err := NewEngine(formats)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()

	log.Debug().Int("formats", engine.Len()).Msg("[FORMATS] Engine compiled")
	return engine, nil
}

// Import upserts the formats of a YAML document by name.
func (s *Service) Import(ctx context.Context, r io.Reader) ([]*models.CustomFormat, error) {
	formats, err := ParseYAML(r)
	if err != nil {
		return nil, err
	}

	stored := make([]*models.CustomFormat, 0, len(formats))
	for _, f := range formats {
		saved, err := s.store.Upsert(ctx, f)
		if err != nil {
			return stored, fmt.Errorf("save custom format %q: %w", f.Name, err)
		}
		stored = append(stored, saved)
	}

	if _, err := s.Reload(ctx); err != nil {
		return stored, err
	}

	log.Info().Int("formats", len(stored)).Msg("[FORMATS] Imported custom formats")
	return stored, nil
}
