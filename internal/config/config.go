// Package config loads runtime settings from an optional YAML file and
// PRMS_-prefixed environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/litikesh/Patient-Record-Management-System/internal/broadcast"
	"github.com/litikesh/Patient-Record-Management-System/internal/records"
	"github.com/litikesh/Patient-Record-Management-System/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. PRMS_DB_PATH.
const EnvPrefix = "PRMS"

// DefaultDBPath is the database file used when none is configured.
const DefaultDBPath = "patients.db"

// Config is the merged result of defaults, the config file and the
// environment. Keys are the mapstructure tags; the environment variable for
// a key is EnvPrefix plus the upper-cased key.
type Config struct {
	DBPath             string `mapstructure:"db_path"`
	Channel            string `mapstructure:"channel"`
	BusyTimeoutMS      int    `mapstructure:"busy_timeout_ms"`
	AtomicRegistration bool   `mapstructure:"atomic_registration"`
	LogLevel           string `mapstructure:"log_level"`

	// SyncDir is where processes sharing the database exchange sync
	// messages. Empty derives a directory from db_path and channel.
	SyncDir string `mapstructure:"sync_dir"`
}

var keys = []string{
	"db_path",
	"channel",
	"busy_timeout_ms",
	"atomic_registration",
	"log_level",
	"sync_dir",
}

// Load reads configuration. file is an optional YAML config file; when set it
// must exist. Environment variables override the file, and both override the
// defaults.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("channel", broadcast.DefaultChannelName)
	v.SetDefault("busy_timeout_ms", int(store.DefaultBusyTimeout/time.Millisecond))
	v.SetDefault("atomic_registration", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("sync_dir", "")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if strings.TrimSpace(c.Channel) == "" {
		return fmt.Errorf("channel must not be empty")
	}
	if c.BusyTimeoutMS < 0 {
		return fmt.Errorf("busy_timeout_ms must not be negative, got %d", c.BusyTimeoutMS)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// BusyTimeout returns busy_timeout_ms as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// Level returns the configured slog level. Invalid values fall back to info;
// Validate reports them.
func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// SyncRendezvous returns the directory used to bridge the sync channel
// between processes.
func (c *Config) SyncRendezvous() string {
	if strings.TrimSpace(c.SyncDir) != "" {
		return c.SyncDir
	}
	return broadcast.RendezvousDir(c.DBPath, c.Channel)
}

// Records returns the settings for the data access layer.
func (c *Config) Records() records.Config {
	return records.Config{
		Path:               c.DBPath,
		BusyTimeout:        c.BusyTimeout(),
		AtomicRegistration: c.AtomicRegistration,
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
}
