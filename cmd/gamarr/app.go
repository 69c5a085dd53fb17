// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/config"
	"github.com/autobrr/gamarr/internal/database"
	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/metrics"
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/blocklist"
	"github.com/autobrr/gamarr/internal/services/customformats"
	"github.com/autobrr/gamarr/internal/services/decision"
	"github.com/autobrr/gamarr/internal/services/download"
	"github.com/autobrr/gamarr/internal/services/history"
	"github.com/autobrr/gamarr/internal/services/library"
	"github.com/autobrr/gamarr/internal/services/matching"
	"github.com/autobrr/gamarr/internal/services/tracking"
	"github.com/autobrr/gamarr/pkg/releases"
)

// dryRunClients stand in for real download clients, one per protocol.
var dryRunClients = []download.ClientInfo{
	{ID: 1, Name: "dry-run-torrent", Protocol: models.ProtocolTorrent},
	{ID: 2, Name: "dry-run-usenet", Protocol: models.ProtocolUsenet},
}

// app holds every service of one gamarr process.
type app struct {
	cfg *config.AppConfig
	db  *database.DB
	bus *events.Bus

	library   *library.Service
	profiles  *models.QualityProfileStore
	pending   *models.PendingReleaseStore
	formats   *customformats.Service
	blocklist *blocklist.Service
	history   *history.Service
	matcher   *matching.Matcher
	downloads *download.Service
	tracking  *tracking.Service
	metrics   *metrics.Manager
	maker     *decision.Maker
	pipeline  *decision.Pipeline
}

// loadConfig reads the config and sends one-shot command logs to stderr so
// they never mix with command output.
func loadConfig(configDir string, stderr io.Writer) (*config.AppConfig, error) {
	cfg, err := config.New(configDir)
	if err != nil {
		return nil, err
	}
	config.SetLogLevel(cfg.Config.LogLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.DateTime, NoColor: true}).
		With().Timestamp().Logger()
	return cfg, nil
}

func newApp(cfg *config.AppConfig) (*app, error) {
	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		return nil, err
	}

	c := cfg.Config
	a := &app{
		cfg:      cfg,
		db:       db,
		bus:      events.NewBus(log.Logger),
		profiles: models.NewQualityProfileStore(db),
		pending:  models.NewPendingReleaseStore(db),
	}

	a.library = library.NewService(models.NewGameStore(db), a.bus)
	a.formats = customformats.NewService(models.NewCustomFormatStore(db))
	a.blocklist = blocklist.NewService(models.NewBlocklistStore(db))
	a.history = history.NewService(models.NewHistoryStore(db))
	a.matcher = matching.NewMatcher(a.library, releases.NewDefaultParser(), matching.ParseStrategy(c.MatchStrategy))

	clients := make([]download.Client, 0, len(dryRunClients))
	for _, info := range dryRunClients {
		clients = append(clients, download.NewDryRunClient(info))
	}
	a.downloads = download.NewService(a.bus, c.ClientTimeout(), clients...)

	a.tracking = tracking.NewService(a.bus, a.downloads, a.matcher, a.history, tracking.ContentInspector{}, tracking.Options{
		PollInterval:  c.PollInterval(),
		ClientTimeout: c.ClientTimeout(),
	})
	a.metrics = metrics.NewMetricsManager(a.tracking, a.bus)

	specs := decision.DefaultSpecifications(decision.SpecOptions{
		MaximumSizeMB: int(c.MaximumSizeMB),
		UsenetDelay:   c.UsenetDelay(),
		TorrentDelay:  c.TorrentDelay(),
	}, a.blocklist, a.tracking)
	a.maker = decision.NewMaker(a.matcher, a.formats, a.profiles, specs)
	a.pipeline = decision.NewPipeline(a.downloads, a.pending, a.blocklist, a.metrics.Decisions(), decision.PipelineOptions{
		BlocklistUnavailable: c.BlocklistUnavailableReleases,
	})

	a.blocklist.Subscribe(a.bus)
	a.history.Subscribe(a.bus)
	a.tracking.Subscribe(a.bus)
	a.bus.GameDeleted.Subscribe("pending", func(ctx context.Context, e events.GameDeleted) error {
		_, err := a.pending.DeleteByGame(ctx, e.GameID)
		return err
	})

	return a, nil
}

// Close drains the event bus before the database goes away.
func (a *app) Close() error {
	a.bus.Wait()
	a.bus.Close()
	return a.db.Close()
}

// withApp runs fn against a freshly wired app and closes it afterwards.
func withApp(configDir string, stderr io.Writer, fn func(a *app) error) error {
	cfg, err := loadConfig(configDir, stderr)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	return errors.Join(fn(a), a.Close())
}
