// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

//go:build nats

package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/rpoengine/internal/config"
	"github.com/tomtom215/rpoengine/internal/logging"
)

// EmbeddedNATS is an in-process JetStream server for single-node installs.
type EmbeddedNATS struct {
	server *server.Server
}

// StartEmbeddedNATS starts a loopback JetStream server on a random port and
// waits up to 30s for it to accept connections.
func StartEmbeddedNATS(cfg config.NATSConfig) (*EmbeddedNATS, error) {
	opts := &server.Options{
		ServerName:         "rpoengine-cascade",
		Host:               "127.0.0.1",
		Port:               server.RANDOM_PORT,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		MaxPayload:         1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}
	logging.Info().Str("url", ns.ClientURL()).Str("store_dir", cfg.StoreDir).Msg("Embedded NATS started")
	return &EmbeddedNATS{server: ns}, nil
}

// ClientURL is the address clients connect to.
func (e *EmbeddedNATS) ClientURL() string {
	return e.server.ClientURL()
}

// Shutdown stops the server, giving up on the wait when ctx ends.
func (e *EmbeddedNATS) Shutdown(ctx context.Context) error {
	e.server.Shutdown()
	done := make(chan struct{})
	go func() {
		e.server.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
