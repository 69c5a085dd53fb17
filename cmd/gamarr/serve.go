// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/gamarr/internal/buildinfo"
	"github.com/autobrr/gamarr/internal/config"
	"github.com/autobrr/gamarr/internal/domain"
	"github.com/autobrr/gamarr/internal/metrics"
)

const lockFileName = "gamarr.lock"

func RunServeCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Track downloads and serve metrics until interrupted",
		Long: `Track downloads and serve metrics until interrupted.

The built-in download clients are dry-run clients that keep their queue in
memory. serve only tracks releases grabbed by its own process; grabs made
by a separate "process" run are recorded in history but never polled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*configDir)
			if err != nil {
				return err
			}

			logCloser, err := config.SetupLogger(cfg.Config)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			defer logCloser.Close()

			lock := flock.New(filepath.Join(cfg.Config.DataDir, lockFileName))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another gamarr instance is using %s", cfg.Config.DataDir)
			}
			defer lock.Unlock()

			log.Info().
				Str("version", buildinfo.Version).
				Str("config", cfg.Path()).
				Msg("[SERVE] Starting gamarr")

			cfg.OnChange(func(c *domain.Config) {
				log.Info().Str("logLevel", c.LogLevel).Msg("[SERVE] Config reloaded")
			})
			cfg.Watch()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log.Warn().Msg("[SERVE] Dry-run download clients only track grabs made by this process")
			a.tracking.Start(ctx)

			var server *metrics.MetricsServer
			serveErr := make(chan error, 1)
			if cfg.Config.MetricsEnabled {
				server = metrics.NewMetricsServer(a.metrics, cfg.Config.Host, cfg.Config.Port, cfg.Config.MetricsBasicAuthUsers)
				if users := cfg.Config.MetricsBasicAuthUsers; users != "" {
					log.Debug().Str("users", domain.RedactBasicAuthUsers(users)).Msg("[SERVE] Metrics basic auth enabled")
				}
				go func() {
					serveErr <- server.ListenAndServe()
				}()
			}

			select {
			case <-ctx.Done():
				log.Info().Msg("[SERVE] Shutting down")
			case err = <-serveErr:
				if err != nil {
					log.Error().Err(err).Msg("[SERVE] Metrics server stopped")
				}
			}

			a.tracking.Stop()
			var stopErr error
			if server != nil {
				stopErr = server.Stop()
			}
			return errors.Join(err, stopErr, a.Close())
		},
	}
}
