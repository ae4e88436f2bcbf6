// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rpoengine/config.yaml",
	"/etc/rpoengine/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultStoragePath is the shared storage root outside Windows.
const DefaultStoragePath = "/mnt/cloud"

func defaultStoragePath() string {
	if runtime.GOOS == "windows" {
		return "data"
	}
	return DefaultStoragePath
}

func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:             defaultStoragePath(),
			FiscalYear:       2026,
			LockTimeout:      30 * time.Second,
			LockPollInterval: 50 * time.Millisecond,
			SaveRetries:      3,
			SaveRetryBackoff: 100 * time.Millisecond,
		},
		Registry: RegistryConfig{
			Path:     "",
			ReadOnly: false,
		},
		Sync: SyncConfig{
			RatePerSecond: 0,
			Burst:         1,
		},
		Cascade: CascadeConfig{
			Mode:               "direct",
			Transport:          "gochannel",
			Topic:              "rpo.cascade",
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
			CloseTimeout:       30 * time.Second,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      256 << 20,
			MaxStore:       1 << 30,
			DurableName:    "rpo-cascade",
			QueueGroup:     "rpo-engine",
		},
		Gamification: GamificationConfig{
			Enabled:    true,
			Path:       "",
			GCInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Port:            8090,
			Host:            "0.0.0.0",
			Timeout:         60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file
// and environment variables (ENV > File > Defaults), then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"storage_path":       "storage.path",
	"fiscal_year":        "storage.fiscal_year",
	"lock_timeout":       "storage.lock_timeout",
	"lock_poll_interval": "storage.lock_poll_interval",
	"save_retries":       "storage.save_retries",
	"save_retry_backoff": "storage.save_retry_backoff",

	"registry_path":      "registry.path",
	"registry_read_only": "registry.read_only",

	"sync_rate_per_second": "sync.rate_per_second",
	"sync_burst":           "sync.burst",

	"cascade_mode":                 "cascade.mode",
	"cascade_transport":            "cascade.transport",
	"cascade_topic":                "cascade.topic",
	"cascade_breaker_max_failures": "cascade.breaker_max_failures",
	"cascade_breaker_timeout":      "cascade.breaker_timeout",
	"cascade_close_timeout":        "cascade.close_timeout",

	"nats_url":          "nats.url",
	"nats_embedded":     "nats.embedded_server",
	"nats_store_dir":    "nats.store_dir",
	"nats_max_memory":   "nats.max_memory",
	"nats_max_store":    "nats.max_store",
	"nats_durable_name": "nats.durable_name",
	"nats_queue_group":  "nats.queue_group",

	"gamification_enabled":     "gamification.enabled",
	"gamification_path":        "gamification.path",
	"gamification_gc_interval": "gamification.gc_interval",

	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",
	"cors_origins":          "server.cors_origins",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its koanf path.
//
// Examples:
//   - STORAGE_PATH -> storage.path
//   - CASCADE_MODE -> cascade.mode
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
