// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package main runs the RPO engine: the HTTP API over the per-user RPO
documents kept under the shared storage root.

# Supervisor Tree

	rpoengine
	├── data-layer
	│   └── badge-store-gc (GAMIFICATION_ENABLED=true)
	├── messaging-layer
	│   └── cascade-router (CASCADE_MODE=bus)
	└── api-layer
	    └── http-server

Startup order:

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. User registry (DuckDB)
 4. Store, file locks, event reader, previsions, engine
 5. Embedded NATS when NATS_EMBEDDED=true and the nats transport is selected
 6. Cascade (direct or watermill bus)
 7. Badge store (badger) when gamification is enabled
 8. Supervisor tree and HTTP server

# Build Tags

	go build ./cmd/server               # gochannel bus only
	go build -tags nats ./cmd/server    # adds the JetStream transport

# Example

	export STORAGE_PATH=/mnt/cloud
	export FISCAL_YEAR=2026
	export CASCADE_MODE=bus
	./rpoengine

SIGINT and SIGTERM cancel the tree. Each layer stops its services and the
HTTP server drains within SERVER_SHUTDOWN_TIMEOUT.
*/
package main
