// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

//go:build nats

package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/rpoengine/internal/config"
)

func TestBusOverEmbeddedNATS(t *testing.T) {
	natsCfg := config.NATSConfig{
		StoreDir:    t.TempDir(),
		MaxMemory:   16 << 20,
		MaxStore:    64 << 20,
		DurableName: "rpo-cascade-embedded",
		QueueGroup:  "rpo-cascade-embedded",
	}
	ns, err := StartEmbeddedNATS(natsCfg)
	if err != nil {
		t.Fatalf("StartEmbeddedNATS: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ns.Shutdown(ctx)
	}()
	natsCfg.URL = ns.ClientURL()

	logger := watermill.NopLogger{}
	pub, sub, err := NewTransport(TransportNATS, "rpo.cascade.embedded", natsCfg, logger)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	target := newFakeTarget()
	bus := NewBus(BusConfig{Topic: "rpo.cascade.embedded"}, pub, sub, NewDirect(testRoles(), target), logger)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- bus.Serve(ctx) }()
	defer func() {
		cancel()
		<-served
		_ = bus.Close()
	}()

	deadline := time.Now().Add(10 * time.Second)
	for !bus.Running() {
		if time.Now().After(deadline) {
			t.Fatal("router did not start")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := bus.EntrepreneurSynced(context.Background(), "e1"); err != nil {
		t.Fatal(err)
	}
	target.wait(t)
	if coaches, _ := target.snapshot(); len(coaches) != 1 || coaches[0] != "coach3" {
		t.Errorf("coach syncs = %v, want [coach3]", coaches)
	}
}
