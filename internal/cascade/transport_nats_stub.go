// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

//go:build !nats

package cascade

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/rpoengine/internal/config"
)

func newNATSTransport(config.NATSConfig, string, watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	return nil, nil, ErrNATSUnavailable
}
