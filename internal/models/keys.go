// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

// Annual field names.
const (
	FieldObjectifCA  = "objectif_ca"
	FieldRatioMktg   = "ratio_mktg"
	FieldCMPrevision = "cm_prevision"
	FieldTauxVente   = "taux_vente"

	FieldHrPapReel          = "hr_pap_reel"
	FieldHrPapReelSansWeek1 = "hr_pap_reel_sans_week1"
	FieldEstimationReel     = "estimation_reel"
	FieldContractReel       = "contract_reel"
	FieldDollarReel         = "dollar_reel"
	FieldProduitReel        = "produit_reel"
	FieldMktgReel           = "mktg_reel"
	FieldVenteReel          = "vente_reel"
	FieldMoyenReel          = "moyen_reel"
	FieldProdHoraire        = "prod_horaire"

	FieldNbEntrepreneurs      = "nb_entrepreneurs"
	FieldNbCoaches            = "nb_coaches"
	FieldNbRecrue             = "nb_recrue"
	FieldNbSenior             = "nb_senior"
	FieldEstimationReelRecrue = "estimation_reel_recrue"
	FieldEstimationReelSenior = "estimation_reel_senior"
	FieldHrPapReelRecrue      = "hr_pap_reel_recrue"
	FieldHrPapReelSenior      = "hr_pap_reel_senior"
)

// Monthly bucket reals.
const (
	FieldMonthHrPapReel      = "hrpap_reel"
	FieldMonthEstimationReel = "estimation_reel"
	FieldMonthContractReel   = "contract_reel"
	FieldMonthDollarReel     = "dollar_reel"
)

// P&L fields.
const (
	FieldBudgetPercent = "budget_percent"
	FieldCiblePercent  = "cible_percent"
)

// Week cell keys.
const (
	KeyWeekLabel    = "week_label"
	KeyHMarketing   = "h_marketing"
	KeyEstimation   = "estimation"
	KeyContract     = "contract"
	KeyDollar       = "dollar"
	KeyCACumul      = "ca_cumul"
	KeyProduit      = "produit"
	KeyRating       = "rating"
	KeyProbleme     = "probleme"
	KeyFocus        = "focus"
	KeyProdHoraire  = "prod_horaire"
	KeySatisfaction = "satisfaction"
)

// ProtectedFields are derived by synchronization and never written by updates.
var ProtectedFields = map[string]bool{
	FieldHrPapReel:          true,
	FieldHrPapReelSansWeek1: true,
	FieldEstimationReel:     true,
	FieldContractReel:       true,
	FieldDollarReel:         true,
	FieldMktgReel:           true,
	FieldVenteReel:          true,
	FieldMoyenReel:          true,
	FieldProdHoraire:        true,
}

// WeeklyProtectedFields is ProtectedFields without prod_horaire, which is an
// input at week level.
var WeeklyProtectedFields = func() map[string]bool {
	m := make(map[string]bool, len(ProtectedFields))
	for k := range ProtectedFields {
		if k != FieldProdHoraire {
			m[k] = true
		}
	}
	return m
}()

// MonthlyProtectedFields are the reals of a monthly bucket.
var MonthlyProtectedFields = func() map[string]bool {
	m := make(map[string]bool, len(ProtectedFields)+1)
	for k := range ProtectedFields {
		m[k] = true
	}
	m[FieldMonthHrPapReel] = true
	return m
}()
