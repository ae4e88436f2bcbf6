// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package cascade

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rpoengine/internal/logging"
)

// DefaultTopic carries cascade steps.
const DefaultTopic = "rpo.cascade"

const handlerName = "rpo-cascade"

// BusConfig configures a Bus.
type BusConfig struct {
	Topic string

	// BreakerMaxFailures consecutive publish failures open the breaker.
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration

	// CloseTimeout bounds how long a stopping router waits for its handler.
	CloseTimeout time.Duration
}

func (c *BusConfig) applyDefaults() {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.BreakerMaxFailures == 0 {
		c.BreakerMaxFailures = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 10 * time.Second
	}
}

// Bus queues cascade steps on a Watermill topic and executes them from a
// single consumer. While the consumer is not running, the breaker is open
// or a publish fails, the step runs inline through the Direct cascader.
type Bus struct {
	cfg     BusConfig
	pub     message.Publisher
	sub     message.Subscriber
	direct  *Direct
	breaker *gobreaker.CircuitBreaker[interface{}]
	logger  watermill.LoggerAdapter

	running atomic.Bool

	mu     sync.Mutex
	closed bool
}

// NewBus creates a bus over a transport. direct executes the consumed steps
// and serves as the fallback path.
func NewBus(cfg BusConfig, pub message.Publisher, sub message.Subscriber, direct *Direct, logger watermill.LoggerAdapter) *Bus {
	cfg.applyDefaults()
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}
	return &Bus{
		cfg:     cfg,
		pub:     pub,
		sub:     sub,
		direct:  direct,
		breaker: newBreaker("cascade-publisher", cfg.BreakerMaxFailures, cfg.BreakerTimeout),
		logger:  logger,
	}
}

// EntrepreneurSynced queues the coach step of username.
func (b *Bus) EntrepreneurSynced(ctx context.Context, username string) error {
	return b.enqueue(ctx, Step{Kind: KindEntrepreneurSynced, Target: username})
}

// CoachSynced queues the direction step.
func (b *Bus) CoachSynced(ctx context.Context, coach string) error {
	return b.enqueue(ctx, Step{Kind: KindCoachSynced, Target: coach})
}

// BreakerState returns the publisher breaker state.
func (b *Bus) BreakerState() gobreaker.State {
	return b.breaker.State()
}

func (b *Bus) enqueue(ctx context.Context, s Step) error {
	log := logging.Ctx(ctx)
	if !b.running.Load() {
		log.Debug().Str("kind", s.Kind).Str("target", s.Target).Msg("cascade consumer not running, executing inline")
		return b.direct.apply(ctx, s)
	}
	if err := b.publish(ctx, s); err != nil {
		log.Warn().Err(err).Str("kind", s.Kind).Str("target", s.Target).Msg("cascade publish failed, executing inline")
		return b.direct.apply(ctx, s)
	}
	return nil
}

func (b *Bus) publish(ctx context.Context, s Step) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	msg, err := newMessage(s, logging.CorrelationIDFromContext(ctx))
	if err != nil {
		return err
	}
	_, err = b.breaker.Execute(func() (interface{}, error) {
		return nil, b.pub.Publish(b.cfg.Topic, msg)
	})
	return err
}

// handle executes one consumed step. Failures are logged and the message
// is acknowledged; cascades are not retried.
func (b *Bus) handle(msg *message.Message) error {
	ctx := logging.ContextWithCorrelationID(msg.Context(), correlationOf(msg))
	log := logging.Ctx(ctx)

	s, err := decodeStep(msg)
	if err != nil {
		log.Error().Err(err).Msg("dropping malformed cascade message")
		return nil
	}
	if err := b.direct.apply(ctx, s); err != nil {
		log.Warn().Err(err).Str("kind", s.Kind).Str("target", s.Target).Msg("cascade step failed")
	}
	return nil
}

// Serve consumes the topic until ctx is canceled. Each call builds a fresh
// router so the supervisor can restart it.
func (b *Bus) Serve(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: b.cfg.CloseTimeout}, b.logger)
	if err != nil {
		return fmt.Errorf("create cascade router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	router.AddConsumerHandler(handlerName, b.cfg.Topic, b.sub, b.handle)

	var (
		stateMu sync.Mutex
		stopped bool
		done    = make(chan struct{})
	)
	go func() {
		select {
		case <-router.Running():
			stateMu.Lock()
			if !stopped {
				b.running.Store(true)
				logging.Info().Str("topic", b.cfg.Topic).Msg("cascade consumer running")
			}
			stateMu.Unlock()
		case <-done:
		}
	}()
	defer func() {
		stateMu.Lock()
		stopped = true
		b.running.Store(false)
		stateMu.Unlock()
		close(done)
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("cascade router: %w", err)
	}
	return ctx.Err()
}

// Running reports whether the consumer is accepting steps.
func (b *Bus) Running() bool {
	return b.running.Load()
}

// String implements fmt.Stringer for the supervisor.
func (b *Bus) String() string {
	return "cascade-router"
}

// Close closes the transport. Later steps run inline.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	b.running.Store(false)

	pubErr := b.pub.Close()
	if any(b.sub) != any(b.pub) {
		if err := b.sub.Close(); err != nil && pubErr == nil {
			pubErr = err
		}
	}
	return pubErr
}
