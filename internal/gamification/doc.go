// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package gamification awards achievement badges after an entrepreneur sync.

The engine calls a Hook once the entrepreneur document is committed and its
lock released. Noop disables badges. CapEvaluator reads the annual dollar_reel
total and awards one badge per full multiple of each threshold:

	cap_six_chiffres     100 000
	ascension            125 000
	palier_titans        300 000
	demi_millionnaire    500 000
	club_million       1 000 000

Award counts live in a BadgerDB database under badge:<user>:<id>. Only the
positive difference between the expected count and the stored count is
awarded, so re-evaluating an unchanged document awards nothing and a drop in
sales never revokes a badge.

BadgeStore doubles as a supervised service that runs value-log garbage
collection on a fixed interval.
*/
package gamification
