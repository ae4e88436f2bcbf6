// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/rpoengine/internal/events"
	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/models"
)

func TestSyncEntrepreneurInvoicedSale(t *testing.T) {
	env := newTestEnv(t)
	seedInvoicedQuote(t, env, "mathis")
	ctx := context.Background()

	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatalf("SyncEntrepreneur: %v", err)
	}
	doc := env.load(t, "mathis")

	wantFloat(t, "weekly[1][2].estimation", cellOf(t, doc, 1, 2).Estimation, 1)
	wantFloat(t, "weekly[2][1].contract", cellOf(t, doc, 2, 1).Contract, 1)
	wantFloat(t, "weekly[2][1].dollar", cellOf(t, doc, 2, 1).Dollar, 2500)

	tests := []struct {
		field string
		want  float64
	}{
		{models.FieldEstimationReel, 1},
		{models.FieldContractReel, 1},
		{models.FieldDollarReel, 2500},
		{models.FieldMoyenReel, 2500},
		{models.FieldVenteReel, 100},
		{models.FieldMktgReel, 0},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			wantFloat(t, tt.field, doc.Annual.Float(tt.field), tt.want)
		})
	}

	march := doc.Monthly["mar"]
	wantFloat(t, "monthly.mar.contract_reel", march.Float(models.FieldMonthContractReel), 1)
	wantFloat(t, "monthly.mar.dollar_reel", march.Float(models.FieldMonthDollarReel), 2500)
	wantFloat(t, "monthly.feb.estimation_reel", doc.Monthly["feb"].Float(models.FieldMonthEstimationReel), 1)
}

func TestSyncEntrepreneurLostClient(t *testing.T) {
	env := newTestEnv(t)
	seedInvoicedQuote(t, env, "mathis")
	ctx := context.Background()

	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatal(err)
	}
	before := env.load(t, "mathis").Annual.Clone()

	env.write(t, events.StreamLostClients, "mathis", `[{"id": 7, "num": "Q1"}]`)
	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatal(err)
	}
	after := env.load(t, "mathis").Annual

	wantFloat(t, "estimation_reel", after.Float(models.FieldEstimationReel), before.Float(models.FieldEstimationReel))
	wantFloat(t, "contract_reel", after.Float(models.FieldContractReel), before.Float(models.FieldContractReel)-1)
	wantFloat(t, "dollar_reel", after.Float(models.FieldDollarReel), before.Float(models.FieldDollarReel)-2500)
	wantFloat(t, "vente_reel", after.Float(models.FieldVenteReel), 0)
	wantFloat(t, "moyen_reel", after.Float(models.FieldMoyenReel), 0)
}

func TestSyncEntrepreneurIdempotent(t *testing.T) {
	env := newTestEnv(t)
	seedInvoicedQuote(t, env, "mathis")
	env.write(t, events.StreamReviews, "mathis", `[{"timestamp": "2026-01-06T10:00:00", "rating": 4}]`)
	ctx := context.Background()

	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatal(err)
	}
	first := canonical(t, env.load(t, "mathis"))
	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatal(err)
	}
	if second := canonical(t, env.load(t, "mathis")); second != first {
		t.Errorf("second sync changed the document\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestSyncEntrepreneurTrainingWeekExcluded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.UpdateWeekly(ctx, "mathis", 0, 1, map[string]any{"h_marketing": 7}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.engine.UpdateWeekly(ctx, "mathis", 0, 3, map[string]any{"h_marketing": "12,5"}); err != nil {
		t.Fatal(err)
	}
	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatal(err)
	}
	doc := env.load(t, "mathis")

	wantFloat(t, "hr_pap_reel", doc.Annual.Float(models.FieldHrPapReel), 19.5)
	wantFloat(t, "hr_pap_reel_sans_week1", doc.Annual.Float(models.FieldHrPapReelSansWeek1), 12.5)
	week1 := cellOf(t, doc, 0, 1).HMarketing.Number()
	if diff := doc.Annual.Float(models.FieldHrPapReel) - doc.Annual.Float(models.FieldHrPapReelSansWeek1); diff != week1 {
		t.Errorf("hr_pap_reel - hr_pap_reel_sans_week1 = %v, want %v", diff, week1)
	}
	if v, ok := cellOf(t, doc, 0, 3).HMarketing.Value(); !ok || v != 12.5 {
		t.Errorf("weekly[0][3].h_marketing = %v, %v, want 12.5", v, ok)
	}
	wantFloat(t, "monthly.jan.hrpap_reel", doc.Monthly["jan"].Float(models.FieldMonthHrPapReel), 19.5)
}

func TestSyncEntrepreneurRunningRevenue(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, events.StreamAcceptedSales, "lea", `[
		{"num": "A", "prix": 1000},
		{"num": "B", "prix": "1.250,50 €"},
		{"num": "C", "prix": "300"}
	]`)
	env.write(t, events.StreamStatuses, "lea", `{
		"A": {"datePremiereFacturation": "2025-12-03"},
		"B": {"datePremiereFacturation": "2026-06-15"},
		"C": {"datePremiereFacturation": "2026-11-02"}
	}`)
	if err := env.engine.SyncEntrepreneur(context.Background(), "lea"); err != nil {
		t.Fatal(err)
	}
	doc := env.load(t, "lea")

	var last float64
	for _, s := range fiscal.Slots() {
		c := cellOf(t, doc, s.Month, s.Week)
		if c.CACumul == nil {
			t.Fatalf("%s: ca_cumul missing", s)
		}
		if *c.CACumul < last {
			t.Fatalf("%s: ca_cumul %v decreased from %v", s, *c.CACumul, last)
		}
		last = *c.CACumul
	}
	wantFloat(t, "dollar_reel", doc.Annual.Float(models.FieldDollarReel), 2550.5)
	wantFloat(t, "final ca_cumul", last, doc.Annual.Float(models.FieldDollarReel))
	wantFloat(t, "weekly[-2][1].ca_cumul", *cellOf(t, doc, -2, 1).CACumul, 1000)
}

func TestSyncEntrepreneurProducedRevenue(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, events.StreamProducedSales, "lea", `[
		{"num": "P1", "prix": 800, "date": "2026-05-05"},
		{"num": "P1", "prix": 900, "date": "2026-05-05"},
		{"num": "P2", "prix": 0, "date": "2026-05-05"},
		{"num": "P3", "prix": 200},
		{"num": "P4", "prix": 100, "date": "someday"}
	]`)
	if err := env.engine.SyncEntrepreneur(context.Background(), "lea"); err != nil {
		t.Fatal(err)
	}
	doc := env.load(t, "lea")

	wantFloat(t, "weekly[4][1].produit", cellOf(t, doc, 4, 1).Produit, 800)
	wantFloat(t, "produit_reel", doc.Annual.Float(models.FieldProduitReel), 800)
	wantFloat(t, "dollar_reel", doc.Annual.Float(models.FieldDollarReel), 0)
}

func TestSyncEntrepreneurMissingSaleSkipped(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, events.StreamStatuses, "lea", `{
		"GHOST": {"datePremiereFacturation": "2026-02-02"},
		"OPEN": {"datePremiereFacturation": ""}
	}`)
	env.write(t, events.StreamProducedSales, "lea", `[{"num": "OPEN", "prix": 10}]`)
	if err := env.engine.SyncEntrepreneur(context.Background(), "lea"); err != nil {
		t.Fatalf("SyncEntrepreneur: %v", err)
	}
	doc := env.load(t, "lea")
	wantFloat(t, "contract_reel", doc.Annual.Float(models.FieldContractReel), 0)
}

func TestSyncEntrepreneurProducedSaleCountsAsContract(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, events.StreamProducedSales, "lea", `[{"num": "P1", "prix": "450,00"}]`)
	env.write(t, events.StreamStatuses, "lea", `{"P1": {"datePremiereFacturation": "2026-02-02"}}`)
	if err := env.engine.SyncEntrepreneur(context.Background(), "lea"); err != nil {
		t.Fatal(err)
	}
	doc := env.load(t, "lea")
	wantFloat(t, "weekly[1][1].dollar", cellOf(t, doc, 1, 1).Dollar, 450)
}

func TestSyncEntrepreneurSchemaErrorTolerated(t *testing.T) {
	env := newTestEnv(t)
	seedInvoicedQuote(t, env, "mathis")
	env.write(t, events.StreamQuotes, "mathis", `{"not": "a list"}`)
	if err := env.engine.SyncEntrepreneur(context.Background(), "mathis"); err != nil {
		t.Fatalf("SyncEntrepreneur: %v", err)
	}
	doc := env.load(t, "mathis")
	wantFloat(t, "estimation_reel", doc.Annual.Float(models.FieldEstimationReel), 0)
	wantFloat(t, "contract_reel", doc.Annual.Float(models.FieldContractReel), 1)
	wantFloat(t, "vente_reel", doc.Annual.Float(models.FieldVenteReel), 0)
}

func TestSyncEntrepreneurSatisfaction(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, events.StreamReviews, "lea", `[
		{"timestamp": "2026-01-06T09:00:00", "rating": 4},
		{"timestamp": "2026-01-13T09:00:00-05:00", "rating": 5},
		{"timestamp": "2026-01-14T09:00:00", "rating": 0},
		{"timestamp": "garbage", "rating": 3}
	]`)
	if err := env.engine.SyncEntrepreneur(context.Background(), "lea"); err != nil {
		t.Fatal(err)
	}
	doc := env.load(t, "lea")

	tests := []struct {
		month, week int
		want        float64
	}{
		{-2, 1, 0},
		{-2, 5, 0},
		{0, 1, 4},
		{0, 2, 4.5},
		{0, 3, 4.5},
		{11, 5, 4.5},
	}
	for _, tt := range tests {
		c := cellOf(t, doc, tt.month, tt.week)
		if c.Satisfaction == nil || *c.Satisfaction != tt.want {
			t.Errorf("weekly[%d][%d].satisfaction = %v, want %v", tt.month, tt.week, c.Satisfaction, tt.want)
		}
	}
}

func TestSyncEntrepreneurProdHoraire(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	updates := []struct {
		month, week int
		value       any
	}{
		{4, 1, 100},
		{5, 2, "50,5"},
		{6, 1, 0},
		{3, 1, 999},
		{7, 1, "-"},
	}
	for _, u := range updates {
		if _, err := env.engine.UpdateWeekly(ctx, "lea", u.month, u.week, map[string]any{"prod_horaire": u.value}); err != nil {
			t.Fatal(err)
		}
	}
	if err := env.engine.SyncEntrepreneur(ctx, "lea"); err != nil {
		t.Fatal(err)
	}
	doc := env.load(t, "lea")
	wantFloat(t, "prod_horaire", doc.Annual.Float(models.FieldProdHoraire), 75.25)
}

func TestSyncEntrepreneurConcurrent(t *testing.T) {
	env := newTestEnv(t)
	seedInvoicedQuote(t, env, "mathis")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- env.engine.SyncEntrepreneur(ctx, "mathis")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent sync: %v", err)
		}
	}
	concurrent := canonical(t, env.load(t, "mathis"))

	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatal(err)
	}
	if single := canonical(t, env.load(t, "mathis")); single != concurrent {
		t.Errorf("concurrent result differs from a single sync")
	}
}

func TestSyncEntrepreneurRejectsAggregateRole(t *testing.T) {
	env := newTestEnv(t, models.User{Username: "coach3", Role: models.RoleCoach, IsActive: true})
	err := env.engine.SyncEntrepreneur(context.Background(), "coach3")
	if !errors.Is(err, ErrRoleMismatch) {
		t.Fatalf("err = %v, want ErrRoleMismatch", err)
	}
}

func TestSyncEntrepreneurHooks(t *testing.T) {
	env := newTestEnv(t)
	seedInvoicedQuote(t, env, "mathis")
	cascader := &recordingCascader{err: errors.New("coach unreachable")}
	badges := &failingBadges{}
	env.engine.SetCascader(cascader)
	env.engine.SetBadgeHook(badges)

	if err := env.engine.SyncEntrepreneur(context.Background(), "mathis"); err != nil {
		t.Fatalf("hook failure surfaced: %v", err)
	}
	if badges.calls != 1 {
		t.Errorf("badge hook calls = %d, want 1", badges.calls)
	}
	if len(cascader.entrepreneur) != 1 || cascader.entrepreneur[0] != "mathis" {
		t.Errorf("cascade calls = %v, want [mathis]", cascader.entrepreneur)
	}
	wantFloat(t, "dollar_reel", env.load(t, "mathis").Annual.Float(models.FieldDollarReel), 2500)
}

func TestGradeBucket(t *testing.T) {
	tests := []struct {
		grade, want string
	}{
		{"Senior", GradeSenior},
		{"senior II", GradeSenior},
		{" SENIOR", GradeSenior},
		{"recrue", GradeRecrue},
		{"", GradeRecrue},
		{"junior", GradeRecrue},
	}
	for _, tt := range tests {
		if got := GradeBucket(tt.grade); got != tt.want {
			t.Errorf("GradeBucket(%q) = %q, want %q", tt.grade, got, tt.want)
		}
	}
}

func TestSyncEntrepreneurSkipsNonFinitePrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.write(t, events.StreamAcceptedSales, "mathis", `[{"num": "Q1", "prix": "2 500,00 $"}, {"num": "Q2", "prix": "NaN"}]`)
	env.write(t, events.StreamStatuses, "mathis", `{
		"Q1": {"datePremiereFacturation": "2026-03-02T00:00:00"},
		"Q2": {"datePremiereFacturation": "2026-03-03T00:00:00"}
	}`)

	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatalf("SyncEntrepreneur: %v", err)
	}
	doc := env.load(t, "mathis")
	wantFloat(t, "dollar_reel", doc.Annual.Float(models.FieldDollarReel), 2500)
	wantFloat(t, "contract_reel", doc.Annual.Float(models.FieldContractReel), 1)
}
