// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

/*
Package models defines the RPO document and the API envelope.

An RPO (Résultats-Prévisions-Objectifs) document is the per-user JSON record
holding weekly activity, yearly targets and reals, and forecasts:

  - Document: top-level sections (annual, monthly, weekly, previsions,
    entrepreneurs_metrics, etats_resultats, last_updated)
  - WeekCell: one week of activity
  - Hours: number-or-missing value used for h_marketing and prod_horaire
  - Fields: open map of scalar fields for annual, monthly and P&L sections

Unknown keys at the document top level and inside week cells survive a
load/save cycle. Documents marshal with a stable key order so that files
diff cleanly between syncs.
*/
package models
