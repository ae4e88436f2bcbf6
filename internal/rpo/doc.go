// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package rpo derives and serves RPO (résultats, prévisions, objectifs)
documents.

An Engine owns three aggregation levels:

  - SyncEntrepreneur rebuilds an entrepreneur's weekly counters (estimation,
    contract, dollar, produit), annual and monthly reals, running revenue
    and running satisfaction from the event streams.
  - SyncCoach sums the weeks of a coach's active entrepreneurs and adds
    forecasts and per-grade splits.
  - SyncDirection sums all active coaches into the shared direction
    document.

Every write is load, modify, save under the document lock. Lock order is
entrepreneur, coach, direction: a level reads the documents below it
without their locks and triggers the level above only after releasing its
own lock, through the Cascader.

Updates merge into existing sections and drop derived fields, which only
synchronization writes.
*/
package rpo
