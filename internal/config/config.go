// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package config loads the engine configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: explicit mapping in envTransformFunc
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("invalid configuration")
//	}
//	st := store.New(store.Options{Dir: cfg.Storage.RPODir()})
package config

import (
	"path/filepath"
	"time"
)

// Config holds all engine configuration.
type Config struct {
	Storage      StorageConfig      `koanf:"storage"`
	Registry     RegistryConfig     `koanf:"registry"`
	Sync         SyncConfig         `koanf:"sync"`
	Cascade      CascadeConfig      `koanf:"cascade"`
	NATS         NATSConfig         `koanf:"nats"`
	Gamification GamificationConfig `koanf:"gamification"`
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
	Supervisor   SupervisorConfig   `koanf:"supervisor"`
}

// StorageConfig describes the shared storage root and document persistence.
//
// Environment Variables:
//   - STORAGE_PATH: storage root (default: /mnt/cloud, "data" on Windows)
//   - FISCAL_YEAR: fiscal year Y, running Dec 1 Y-1 to Dec 31 Y (default: 2026)
//   - LOCK_TIMEOUT: maximum wait for a document file lock (default: 30s)
//   - LOCK_POLL_INTERVAL: initial poll interval while waiting (default: 50ms)
//   - SAVE_RETRIES: rename attempts before the direct-write fallback (default: 3)
type StorageConfig struct {
	Path             string        `koanf:"path"`
	FiscalYear       int           `koanf:"fiscal_year"`
	LockTimeout      time.Duration `koanf:"lock_timeout"`
	LockPollInterval time.Duration `koanf:"lock_poll_interval"`
	SaveRetries      int           `koanf:"save_retries"`
	SaveRetryBackoff time.Duration `koanf:"save_retry_backoff"`
}

// RPODir returns the directory holding RPO documents.
func (s StorageConfig) RPODir() string {
	return filepath.Join(s.Path, "rpo")
}

// PrevisionsDir returns the directory holding forecast sidecars.
func (s StorageConfig) PrevisionsDir() string {
	return filepath.Join(s.Path, "previsions")
}

// RegistryConfig holds the DuckDB user registry settings.
type RegistryConfig struct {
	// Path of the DuckDB file. Empty means <storage>/registry/users.duckdb.
	Path string `koanf:"path"`

	// ReadOnly opens the registry without taking the DuckDB write lock so
	// several engine processes can share one registry file.
	ReadOnly bool `koanf:"read_only"`
}

// ResolvedPath returns the registry path, defaulting under the storage root.
func (r RegistryConfig) ResolvedPath(storageRoot string) string {
	if r.Path != "" {
		return r.Path
	}
	return filepath.Join(storageRoot, "registry", "users.duckdb")
}

// SyncConfig controls bulk synchronization.
type SyncConfig struct {
	// RatePerSecond paces SyncAll entrepreneur syncs (0 = unlimited).
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`
}

// CascadeConfig selects how upward aggregation is triggered.
//
// Environment Variables:
//   - CASCADE_MODE: direct, bus (default: direct)
//   - CASCADE_TRANSPORT: gochannel, nats (default: gochannel)
type CascadeConfig struct {
	Mode      string `koanf:"mode"`
	Transport string `koanf:"transport"`
	Topic     string `koanf:"topic"`

	// BreakerMaxFailures consecutive publish failures open the breaker.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	CloseTimeout       time.Duration `koanf:"close_timeout"`
}

// NATSConfig holds JetStream settings for the nats cascade transport.
type NATSConfig struct {
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`
}

// GamificationConfig controls badge evaluation after syncs.
type GamificationConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Path       string        `koanf:"path"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ResolvedPath returns the badge store directory, defaulting under the storage root.
func (g GamificationConfig) ResolvedPath(storageRoot string) string {
	if g.Path != "" {
		return g.Path
	}
	return filepath.Join(storageRoot, "gamification")
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	Host              string        `koanf:"host"`
	Timeout           time.Duration `koanf:"timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// SupervisorConfig tunes the suture supervisor tree.
//
// Environment Variables:
//   - SUPERVISOR_FAILURE_THRESHOLD: failures before backoff (default: 5)
//   - SUPERVISOR_FAILURE_DECAY: failure decay in seconds (default: 30)
//   - SUPERVISOR_FAILURE_BACKOFF: backoff duration (default: 15s)
//   - SUPERVISOR_SHUTDOWN_TIMEOUT: per-service stop timeout (default: 10s)
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
