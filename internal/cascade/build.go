// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package cascade

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/rpoengine/internal/config"
	"github.com/tomtom215/rpoengine/internal/registry"
)

// Modes.
const (
	ModeDirect = "direct"
	ModeBus    = "bus"
)

// Cascader is satisfied by Direct and Bus.
type Cascader interface {
	EntrepreneurSynced(ctx context.Context, username string) error
	CoachSynced(ctx context.Context, coach string) error
}

var (
	_ Cascader = (*Direct)(nil)
	_ Cascader = (*Bus)(nil)
)

// New builds the cascader selected by cfg. In bus mode the returned Bus must
// also be supervised so its consumer runs; it is nil in direct mode.
func New(cfg config.CascadeConfig, natsCfg config.NATSConfig, roles registry.Resolver, target Target, logger watermill.LoggerAdapter) (Cascader, *Bus, error) {
	direct := NewDirect(roles, target)
	switch cfg.Mode {
	case "", ModeDirect:
		return direct, nil, nil
	case ModeBus:
		pub, sub, err := NewTransport(cfg.Transport, cfg.Topic, natsCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		bus := NewBus(BusConfig{
			Topic:              cfg.Topic,
			BreakerMaxFailures: cfg.BreakerMaxFailures,
			BreakerTimeout:     cfg.BreakerTimeout,
			CloseTimeout:       cfg.CloseTimeout,
		}, pub, sub, direct, logger)
		return bus, bus, nil
	default:
		return nil, nil, fmt.Errorf("unknown cascade mode %q", cfg.Mode)
	}
}
