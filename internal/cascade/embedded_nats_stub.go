// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

//go:build !nats

package cascade

import (
	"context"

	"github.com/tomtom215/rpoengine/internal/config"
)

// EmbeddedNATS is unavailable without the nats tag.
type EmbeddedNATS struct{}

// StartEmbeddedNATS always fails without the nats tag.
func StartEmbeddedNATS(config.NATSConfig) (*EmbeddedNATS, error) {
	return nil, ErrNATSUnavailable
}

func (e *EmbeddedNATS) ClientURL() string { return "" }

func (e *EmbeddedNATS) Shutdown(context.Context) error { return nil }
