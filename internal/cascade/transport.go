// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package cascade

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/rpoengine/internal/config"
)

// Transports.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// ErrNATSUnavailable is returned when the nats transport is requested from
// a binary built without the nats tag.
var ErrNATSUnavailable = errors.New("nats transport not compiled in (build with -tags nats)")

// NewGoChannel returns an in-process transport. The same value publishes
// and subscribes.
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
}

// NewTransport builds the publisher and subscriber named by transport for
// topic.
func NewTransport(transport, topic string, natsCfg config.NATSConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	switch transport {
	case "", TransportGoChannel:
		ch := NewGoChannel(logger)
		return ch, ch, nil
	case TransportNATS:
		if topic == "" {
			topic = DefaultTopic
		}
		return newNATSTransport(natsCfg, topic, logger)
	default:
		return nil, nil, fmt.Errorf("unknown cascade transport %q", transport)
	}
}
