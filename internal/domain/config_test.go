// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{Host: "localhost", Port: 7879, LogLevel: "INFO", PollIntervalSeconds: 60, ClientTimeoutSeconds: 30}
}

func TestConfigValidate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("log level is case insensitive", func(t *testing.T) {
		cfg := validConfig()
		cfg.LogLevel = "debug"
		require.NoError(t, cfg.Validate())
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = 70000
		cfg.LogLevel = "LOUD"
		cfg.MatchStrategy = "random"
		cfg.TorrentDelayMinutes = -1

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port 70000")
		assert.Contains(t, err.Error(), "logLevel")
		assert.Contains(t, err.Error(), "matchStrategy")
		assert.Contains(t, err.Error(), "protocol delays")
	})
}

func TestConfigDurations(t *testing.T) {
	cfg := validConfig()
	cfg.UsenetDelayMinutes = 15

	assert.Equal(t, time.Minute, cfg.PollInterval())
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout())
	assert.Equal(t, 15*time.Minute, cfg.UsenetDelay())
	assert.Zero(t, cfg.TorrentDelay())
}
