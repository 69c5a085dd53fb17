// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/gamarr/internal/domain"
)

const (
	envPrefix      = "GAMARR__"
	configFileName = "config.toml"
	databaseFile   = "gamarr.db"

	reloadDebounce = 250 * time.Millisecond
)

// keys lists every setting read from the config file and the environment.
var keys = []string{
	"host", "port", "logLevel", "logPath", "logMaxSize", "logMaxBackups",
	"dataDir", "databasePath", "metricsEnabled", "metricsBasicAuthUsers",
	"pollIntervalSeconds", "clientTimeoutSeconds", "matchStrategy",
	"blocklistUnavailableReleases", "maximumSizeMB", "usenetDelayMinutes", "torrentDelayMinutes",
}

type AppConfig struct {
	Config *domain.Config

	viper      *viper.Viper
	configPath string

	mu        sync.Mutex
	listeners []func(*domain.Config)
}

// New loads configPath, which may be a file or a directory. A missing file
// is created with commented defaults. Environment variables win over the file.
func New(configPath string) (*AppConfig, error) {
	c := &AppConfig{
		Config: &domain.Config{},
		viper:  viper.New(),
	}
	c.defaults()

	path, err := c.resolvePath(configPath)
	if err != nil {
		return nil, err
	}
	c.configPath = path

	if err := c.writeDefaultConfig(path); err != nil {
		return nil, err
	}

	c.viper.SetConfigFile(path)
	c.viper.SetConfigType("toml")
	if err := c.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	for _, key := range keys {
		if err := c.viper.BindEnv(key, envName(key)); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.Config.DataDir == "" {
		c.Config.DataDir = filepath.Dir(path)
	}
	if err := c.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return c, nil
}

func (c *AppConfig) defaults() {
	c.viper.SetDefault("host", "localhost")
	c.viper.SetDefault("port", 7879)
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("dataDir", "")
	c.viper.SetDefault("databasePath", "")
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("metricsBasicAuthUsers", "")
	c.viper.SetDefault("pollIntervalSeconds", 60)
	c.viper.SetDefault("clientTimeoutSeconds", 30)
	c.viper.SetDefault("matchStrategy", "first")
	c.viper.SetDefault("blocklistUnavailableReleases", true)
	c.viper.SetDefault("maximumSizeMB", 0)
	c.viper.SetDefault("usenetDelayMinutes", 0)
	c.viper.SetDefault("torrentDelayMinutes", 0)
}

func (c *AppConfig) resolvePath(configPath string) (string, error) {
	if configPath == "" {
		configPath = getDefaultConfigDir()
	}
	if filepath.Ext(configPath) != ".toml" {
		configPath = filepath.Join(configPath, configFileName)
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}

// envName maps a key such as databasePath to GAMARR__DATABASE_PATH.
func envName(key string) string {
	var b strings.Builder
	b.WriteString(envPrefix)
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// getDefaultConfigDir follows XDG on every platform; containers set
// XDG_CONFIG_HOME=/config and expect the file directly inside it.
func getDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if xdg == "/config" {
			return xdg
		}
		return filepath.Join(xdg, "gamarr")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gamarr")
	}
	return "."
}

func (c *AppConfig) Path() string {
	return c.configPath
}

// GetDatabasePath returns the configured database, or gamarr.db next to
// the config file.
func (c *AppConfig) GetDatabasePath() string {
	if c.Config.DatabasePath != "" {
		return c.Config.DatabasePath
	}
	return filepath.Join(filepath.Dir(c.configPath), databaseFile)
}

// OnChange registers fn to run after a live reload.
func (c *AppConfig) OnChange(fn func(*domain.Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Watch reloads the file when it changes. Only the log level applies live;
// everything else needs a restart.
// Bursts of events from one save collapse into a single reload.
func (c *AppConfig) Watch() {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, c.reload)
	})
	c.viper.WatchConfig()
}

func (c *AppConfig) reload() {
	next := &domain.Config{}
	if err := c.viper.Unmarshal(next); err != nil {
		log.Error().Err(err).Msg("[CONFIG] Failed to reload config")
		return
	}
	if err := next.Validate(); err != nil {
		log.Error().Err(err).Msg("[CONFIG] Ignoring invalid config change")
		return
	}

	c.mu.Lock()
	c.Config.LogLevel = next.LogLevel
	listeners := append(([]func(*domain.Config))(nil), c.listeners...)
	c.mu.Unlock()

	SetLogLevel(next.LogLevel)
	for _, fn := range listeners {
		fn(c.Config)
	}
	log.Info().Str("logLevel", next.LogLevel).Msg("[CONFIG] Config reloaded")
}

// SetLogLevel applies a level name, falling back to INFO.
func SetLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// UpdateLogSettings rewrites the log keys of the config file in place.
func (c *AppConfig) UpdateLogSettings(level, path string, maxSize, maxBackups int) error {
	content, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	updated := updateLogSettingsInTOML(string(content), level, path, maxSize, maxBackups)
	if err := os.WriteFile(c.configPath, []byte(updated), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// updateLogSettingsInTOML replaces the log keys where they are, uncommenting
// them if needed, and only appends keys the file never mentioned.
func updateLogSettingsInTOML(content, level, path string, maxSize, maxBackups int) string {
	values := []struct {
		key   string
		value string
	}{
		{"logLevel", fmt.Sprintf("%q", level)},
		{"logPath", fmt.Sprintf("%q", path)},
		{"logMaxSize", fmt.Sprintf("%d", maxSize)},
		{"logMaxBackups", fmt.Sprintf("%d", maxBackups)},
	}

	lines := strings.Split(content, "\n")
	var missing []string
	for _, kv := range values {
		found := false
		for i, line := range lines {
			trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			if !strings.HasPrefix(trimmed, kv.key) {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, kv.key))
			if !strings.HasPrefix(rest, "=") {
				continue
			}
			lines[i] = kv.key + " = " + kv.value
			found = true
			break
		}
		if !found {
			missing = append(missing, kv.key+" = "+kv.value)
		}
	}

	if len(missing) == 0 {
		return strings.Join(lines, "\n")
	}

	// Keys must land before the first table or TOML puts them inside it.
	insertAt := len(lines)
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			insertAt = i
			break
		}
	}
	out := make([]string, 0, len(lines)+len(missing)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, missing...)
	out = append(out, "")
	out = append(out, lines[insertAt:]...)
	return strings.Join(out, "\n")
}

func (c *AppConfig) writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	log.Info().Str("path", path).Msg("[CONFIG] Wrote default config")
	return nil
}

const defaultConfigTemplate = `# config.toml - Auto-generated on first run

# Metrics server address
host = "localhost"
port = 7879

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "INFO"

# Log file path
# If not defined, logs to stdout
# Optional
#logPath = "log/gamarr.log"

# Maximum log file size in megabytes before rotation
# Default: 50
#logMaxSize = 50

# Number of rotated log files to retain (0 keeps all)
# Default: 3
#logMaxBackups = 3

# Database location, defaults to gamarr.db next to this file
#databasePath = ""

# Prometheus metrics on /metrics
#metricsEnabled = false
#metricsBasicAuthUsers = "user:password"

# Download client polling
#pollIntervalSeconds = 60
#clientTimeoutSeconds = 30

# Release matching: "first" or "best"
#matchStrategy = "first"

# Blocklist releases the indexer no longer serves
#blocklistUnavailableReleases = true

# Decision rules, 0 disables
#maximumSizeMB = 0
#usenetDelayMinutes = 0
#torrentDelayMinutes = 0
`
