// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package config

import (
	"fmt"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateCascade(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH must not be empty")
	}
	if c.Storage.FiscalYear < 2000 || c.Storage.FiscalYear > 2100 {
		return fmt.Errorf("FISCAL_YEAR must be between 2000 and 2100, got %d", c.Storage.FiscalYear)
	}
	if c.Storage.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive")
	}
	if c.Storage.LockPollInterval <= 0 || c.Storage.LockPollInterval > c.Storage.LockTimeout {
		return fmt.Errorf("LOCK_POLL_INTERVAL must be positive and not exceed LOCK_TIMEOUT")
	}
	if c.Storage.SaveRetries < 1 {
		return fmt.Errorf("SAVE_RETRIES must be at least 1")
	}
	if c.Sync.RatePerSecond < 0 {
		return fmt.Errorf("SYNC_RATE_PER_SECOND must not be negative")
	}
	return nil
}

var validCascadeModes = map[string]bool{
	"direct": true,
	"bus":    true,
}

var validCascadeTransports = map[string]bool{
	"gochannel": true,
	"nats":      true,
}

func (c *Config) validateCascade() error {
	if !validCascadeModes[c.Cascade.Mode] {
		return fmt.Errorf("CASCADE_MODE must be one of: direct, bus")
	}
	if c.Cascade.Mode == "direct" {
		return nil
	}
	if !validCascadeTransports[c.Cascade.Transport] {
		return fmt.Errorf("CASCADE_TRANSPORT must be one of: gochannel, nats")
	}
	if c.Cascade.Topic == "" {
		return fmt.Errorf("CASCADE_TOPIC must not be empty")
	}
	if c.Cascade.Transport == "nats" && c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("NATS_URL is required when CASCADE_TRANSPORT=nats without an embedded server")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled && (c.Server.RateLimitReqs < 1 || c.Server.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold < 0 || c.Supervisor.FailureDecay < 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD and SUPERVISOR_FAILURE_DECAY must not be negative")
	}
	if c.Supervisor.FailureBackoff < 0 || c.Supervisor.ShutdownTimeout < 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_BACKOFF and SUPERVISOR_SHUTDOWN_TIMEOUT must not be negative")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
