// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package cascade propagates a committed entrepreneur sync to its coach and a
coach sync to the direction.

Two cascaders are provided:

  - Direct calls the engine synchronously. It is the default and the path
    every test relies on for deterministic results.
  - Bus publishes each step as a Watermill message on the rpo.cascade topic
    and executes it from a single router handler. The transport is an
    in-process GoChannel or, in binaries built with the nats tag, a
    JetStream stream shared by several processes.

The Bus guards publishing with a gobreaker circuit breaker. When the breaker
is open, the consumer is down or a publish fails, the step runs inline
through Direct, so a broken transport only costs latency.

Cascade failures never fail the sync that triggered them: steps are logged,
counted in rpo_cascade_total, and not retried. Reordered or repeated steps
are harmless because every aggregation recomputes its document from scratch.
*/
package cascade
