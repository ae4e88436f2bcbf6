// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package events provides read-only typed views over the event files that
feed RPO documents.

Each stream lives under <root>/<stream>/<username>/:

	soumissions_completes/<u>/soumissions.json      submitted quotes (num, date)
	ventes_acceptees/<u>/ventes.json                accepted sales (num, prix, client)
	ventes_produit/<u>/ventes.json                  produced sales (num, prix, date)
	facturation_qe_statuts/<u>/statuts_clients.json object keyed by num
	clients_perdus/<u>/clients.json                 lost clients (id, num)
	reviews/<u>/reviews.json                        ratings (timestamp, rating)
	signatures/<u>/user_info.json                   profile (grade)

Missing or blank files read as empty. A file whose top-level shape is wrong
returns ErrSchema. Individual malformed records are skipped, logged and
counted in rpo_event_records_skipped_total.
*/
package events
