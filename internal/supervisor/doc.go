// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package supervisor runs the engine's long-lived services under suture v4.

The tree has three layers so a failure in one does not restart the others:

	rpoengine
	├── data-layer
	│   └── badge-store-gc          (if GAMIFICATION_ENABLED)
	├── messaging-layer
	│   └── cascade-router          (if CASCADE_MODE=bus)
	└── api-layer
	    └── http-server

Supervisor events are logged through sutureslog, which writes to the slog
bridge of the logging package. Crashed services are restarted with the
configured failure threshold, decay and backoff.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddDataService(badgeStore)
	tree.AddMessagingService(bus)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)
*/
package supervisor
