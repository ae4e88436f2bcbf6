// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is behind the integration build tag and needs a Docker
// daemon; tests call SkipIfNoDocker first so a plain `go test -tags
// integration` still passes on machines without one.
//
//	nats, err := testinfra.NewNATSContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, nats)
//	// nats.URL is a JetStream-enabled server for the cascade bus.
package testinfra
