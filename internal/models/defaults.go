// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

import (
	"github.com/tomtom215/rpoengine/internal/fiscal"
)

// Default annual targets of a new entrepreneur.
const (
	DefaultRatioMktg   = 85
	DefaultCMPrevision = 2500
	DefaultTauxVente   = 30
)

// entrepreneurAnnualKeys are zero-valued on a new entrepreneur document.
var entrepreneurAnnualKeys = []string{
	"objectif_ca", "objectif_pap", "objectif_rep",
	"hrpap_vise", "estimation_vise", "contract_vise", "dollar_vise",
	"mktg_vise", "vente_vise", "moyen_vise", "tendance_vise",
	FieldHrPapReel, FieldHrPapReelSansWeek1, FieldEstimationReel,
	FieldContractReel, FieldDollarReel, FieldProduitReel,
	FieldMktgReel, FieldVenteReel, FieldMoyenReel, FieldProdHoraire,
}

// MonthlyKeys are the fields of a monthly bucket.
var MonthlyKeys = []string{
	"obj_pap", "obj_rep", "hrpap_vise", "estimation_vise", "contract_vise", "dollar_vise",
	FieldMonthHrPapReel, FieldMonthEstimationReel, FieldMonthContractReel, FieldMonthDollarReel,
}

// aggregateAnnualKeys are zero-valued on a new coach or direction document.
var aggregateAnnualKeys = []string{
	FieldHrPapReel, FieldHrPapReelSansWeek1, FieldEstimationReel,
	FieldContractReel, FieldDollarReel, FieldProduitReel,
	FieldMktgReel, FieldVenteReel, FieldMoyenReel,
	FieldNbEntrepreneurs, FieldNbRecrue, FieldNbSenior,
	FieldEstimationReelRecrue, FieldEstimationReelSenior,
	FieldHrPapReelRecrue, FieldHrPapReelSenior,
}

// NewEntrepreneurDocument returns the default document of an entrepreneur.
func NewEntrepreneurDocument(cal *fiscal.Calendar) *Document {
	annual := Fields{}
	for _, k := range entrepreneurAnnualKeys {
		annual[k] = 0.0
	}
	annual[FieldRatioMktg] = float64(DefaultRatioMktg)
	annual[FieldCMPrevision] = float64(DefaultCMPrevision)
	annual[FieldTauxVente] = float64(DefaultTauxVente)

	monthly := make(map[string]Fields, 13)
	for _, label := range cal.MonthLabels() {
		monthly[label] = NewMonthlyBucket()
	}

	weekly := Weekly{}
	for _, s := range fiscal.Slots() {
		label := cal.WeekLabel(s)
		weekly.Ensure(s.Month, s.Week, func() *WeekCell { return NewEntrepreneurCell(label) })
	}

	return &Document{
		Annual:         annual,
		Monthly:        monthly,
		Weekly:         weekly,
		EtatsResultats: Fields{},
	}
}

// NewMonthlyBucket returns a zeroed monthly bucket.
func NewMonthlyBucket() Fields {
	b := make(Fields, len(MonthlyKeys))
	for _, k := range MonthlyKeys {
		b[k] = 0.0
	}
	return b
}

// NewAggregateDocument returns the default document of a coach or of the direction.
func NewAggregateDocument() *Document {
	annual := Fields{}
	for _, k := range aggregateAnnualKeys {
		annual[k] = 0.0
	}

	weekly := Weekly{}
	for _, s := range fiscal.AggregateSlots() {
		weekly.Ensure(s.Month, s.Week, NewAggregateCell)
	}
	return &Document{Annual: annual, Weekly: weekly}
}
