// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Version       string
	Host          string `toml:"host" mapstructure:"host"`
	Port          int    `toml:"port" mapstructure:"port"`
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`
	DatabasePath  string `toml:"databasePath" mapstructure:"databasePath"`

	MetricsEnabled        bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsBasicAuthUsers string `toml:"metricsBasicAuthUsers" mapstructure:"metricsBasicAuthUsers"`

	PollIntervalSeconds  int `toml:"pollIntervalSeconds" mapstructure:"pollIntervalSeconds"`
	ClientTimeoutSeconds int `toml:"clientTimeoutSeconds" mapstructure:"clientTimeoutSeconds"`

	// MatchStrategy picks between several titles that match one release:
	// "first" keeps the first candidate, "best" prefers canonical titles.
	MatchStrategy string `toml:"matchStrategy" mapstructure:"matchStrategy"`

	// BlocklistUnavailableReleases blocklists releases an indexer no longer serves.
	BlocklistUnavailableReleases bool `toml:"blocklistUnavailableReleases" mapstructure:"blocklistUnavailableReleases"`

	MaximumSizeMB       int64 `toml:"maximumSizeMB" mapstructure:"maximumSizeMB"`
	UsenetDelayMinutes  int   `toml:"usenetDelayMinutes" mapstructure:"usenetDelayMinutes"`
	TorrentDelayMinutes int   `toml:"torrentDelayMinutes" mapstructure:"torrentDelayMinutes"`
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.ClientTimeoutSeconds) * time.Second
}

func (c *Config) UsenetDelay() time.Duration {
	return time.Duration(c.UsenetDelayMinutes) * time.Minute
}

func (c *Config) TorrentDelay() time.Duration {
	return time.Duration(c.TorrentDelayMinutes) * time.Minute
}

var validLogLevels = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	level := strings.ToUpper(strings.TrimSpace(c.LogLevel))
	valid := false
	for _, l := range validLogLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, fmt.Errorf("logLevel %q must be one of %s", c.LogLevel, strings.Join(validLogLevels, ", ")))
	}
	if c.PollIntervalSeconds < 0 {
		errs = append(errs, errors.New("pollIntervalSeconds must not be negative"))
	}
	if c.ClientTimeoutSeconds < 0 {
		errs = append(errs, errors.New("clientTimeoutSeconds must not be negative"))
	}
	if c.MaximumSizeMB < 0 {
		errs = append(errs, errors.New("maximumSizeMB must not be negative"))
	}
	if c.UsenetDelayMinutes < 0 || c.TorrentDelayMinutes < 0 {
		errs = append(errs, errors.New("protocol delays must not be negative"))
	}
	switch strings.ToLower(c.MatchStrategy) {
	case "", "first", "best":
	default:
		errs = append(errs, fmt.Errorf("matchStrategy %q must be first or best", c.MatchStrategy))
	}

	return errors.Join(errs...)
}
