// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package api exposes the RPO engine over HTTP using the Chi router.

Routes:

	GET   /api/v1/health/live
	GET   /api/v1/health/ready
	GET   /metrics

	POST  /api/v1/rpo/sync/entrepreneurs/{username}
	POST  /api/v1/rpo/sync/coaches/{username}
	POST  /api/v1/rpo/sync/direction
	POST  /api/v1/rpo/sync/all                      (rate limited)

	GET   /api/v1/rpo/{username}/annual
	PATCH /api/v1/rpo/{username}/annual
	GET   /api/v1/rpo/{username}/monthly            (all thirteen buckets)
	GET   /api/v1/rpo/{username}/monthly/{month}    (month = jan..dec or dec<Y-1>)
	PATCH /api/v1/rpo/{username}/monthly/{month}
	GET   /api/v1/rpo/{username}/weekly/{month}     (weeks 1..5 of a fiscal month)
	GET   /api/v1/rpo/{username}/weekly/{month}/{week}
	PATCH /api/v1/rpo/{username}/weekly/{month}/{week}
	GET   /api/v1/rpo/{username}/etats-resultats/budget
	PUT   /api/v1/rpo/{username}/etats-resultats/budget
	GET   /api/v1/rpo/{username}/etats-resultats/cible
	PUT   /api/v1/rpo/{username}/etats-resultats/cible
	GET   /api/v1/rpo/{username}/badges

Every JSON response uses the models.APIResponse envelope. PATCH responses
list the protected fields that were ignored under data.ignored_fields.

Errors map to status codes as follows: invalid names, slots, months and
values and role mismatches are 400, a lock timeout is 503, anything else
is 500.
*/
package api
