// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/rpoengine/internal/models"
)

func TestUpdateAnnualDropsProtectedFields(t *testing.T) {
	env := newTestEnv(t)
	seedInvoicedQuote(t, env, "mathis")
	ctx := context.Background()
	if err := env.engine.SyncEntrepreneur(ctx, "mathis"); err != nil {
		t.Fatal(err)
	}

	skipped, err := env.engine.UpdateAnnual(ctx, "mathis", map[string]any{
		models.FieldObjectifCA: 150000,
		models.FieldDollarReel: 1,
		models.FieldVenteReel:  1,
		"note":                 "q3 push",
	})
	if err != nil {
		t.Fatalf("UpdateAnnual: %v", err)
	}
	if want := []string{models.FieldDollarReel, models.FieldVenteReel}; !reflect.DeepEqual(skipped, want) {
		t.Errorf("skipped = %v, want %v", skipped, want)
	}

	annual, err := env.engine.GetAnnual(ctx, "mathis")
	if err != nil {
		t.Fatal(err)
	}
	wantFloat(t, "objectif_ca", annual.Float(models.FieldObjectifCA), 150000)
	wantFloat(t, "dollar_reel", annual.Float(models.FieldDollarReel), 2500)
	if annual["note"] != "q3 push" {
		t.Errorf("note = %v", annual["note"])
	}
}

func TestUpdateMonthly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	skipped, err := env.engine.UpdateMonthly(ctx, "lea", "dec2025", map[string]any{
		models.FieldMonthHrPapReel: 40,
		"objectif":                 12,
	})
	if err != nil {
		t.Fatalf("UpdateMonthly: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != models.FieldMonthHrPapReel {
		t.Errorf("skipped = %v", skipped)
	}
	bucket, err := env.engine.GetMonthly(ctx, "lea", "dec2025")
	if err != nil {
		t.Fatal(err)
	}
	wantFloat(t, "objectif", bucket.Float("objectif"), 12)
	wantFloat(t, "hrpap_reel", bucket.Float(models.FieldMonthHrPapReel), 0)

	for _, label := range []string{"2025", "", "dec2024", "janvier"} {
		if _, err := env.engine.GetMonthly(ctx, "lea", label); !errors.Is(err, ErrUnknownMonth) {
			t.Errorf("GetMonthly(%q) = %v, want ErrUnknownMonth", label, err)
		}
		if _, err := env.engine.UpdateMonthly(ctx, "lea", label, map[string]any{"x": 1}); !errors.Is(err, ErrUnknownMonth) {
			t.Errorf("UpdateMonthly(%q) = %v, want ErrUnknownMonth", label, err)
		}
	}
}

func TestUpdateWeekly(t *testing.T) {
	env := newTestEnv(t)
	cascader := &recordingCascader{}
	env.engine.SetCascader(cascader)
	ctx := context.Background()

	skipped, err := env.engine.UpdateWeekly(ctx, "lea", 0, 3, map[string]any{
		"h_marketing":          "12,5",
		"focus":                "door to door",
		"prod_horaire":         80,
		models.FieldDollarReel: 5,
	})
	if err != nil {
		t.Fatalf("UpdateWeekly: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != models.FieldDollarReel {
		t.Errorf("skipped = %v", skipped)
	}

	cell, err := env.engine.GetWeekly(ctx, "lea", 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := cell.HMarketing.Value(); !ok || v != 12.5 {
		t.Errorf("h_marketing = %v, %v", v, ok)
	}
	if cell.Focus == nil || *cell.Focus != "door to door" {
		t.Errorf("focus = %v", cell.Focus)
	}

	annual, err := env.engine.GetAnnual(ctx, "lea")
	if err != nil {
		t.Fatal(err)
	}
	wantFloat(t, "hr_pap_reel", annual.Float(models.FieldHrPapReel), 12.5)
	wantFloat(t, "prod_horaire", annual.Float(models.FieldProdHoraire), 0)
	if len(cascader.entrepreneur) != 1 {
		t.Errorf("cascade calls = %v, want one", cascader.entrepreneur)
	}
}

func TestWeeklyInvalidSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	slots := []struct{ month, week int }{
		{-1, 1}, {12, 1}, {0, 0}, {0, 6}, {-3, 2},
	}
	for _, s := range slots {
		if _, err := env.engine.GetWeekly(ctx, "lea", s.month, s.week); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("GetWeekly(%d,%d) = %v, want ErrInvalidSlot", s.month, s.week, err)
		}
		if _, err := env.engine.UpdateWeekly(ctx, "lea", s.month, s.week, map[string]any{"focus": "x"}); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("UpdateWeekly(%d,%d) = %v, want ErrInvalidSlot", s.month, s.week, err)
		}
	}
}

func TestGetWeeklyDefaults(t *testing.T) {
	env := newTestEnv(t, models.User{Username: "coach3", Role: models.RoleCoach, IsActive: true})
	ctx := context.Background()

	cell, err := env.engine.GetWeekly(ctx, "lea", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if cell.WeekLabel == nil || *cell.WeekLabel != "2026-01-05" {
		t.Errorf("week_label = %v, want 2026-01-05", cell.WeekLabel)
	}
	if !cell.HMarketing.IsMissing() {
		t.Error("fresh h_marketing is not missing")
	}

	agg, err := env.engine.GetWeekly(ctx, "coach3", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if agg.WeekLabel != nil || agg.HMarketing.IsMissing() {
		t.Errorf("coach cell = %+v", agg)
	}
}

func TestAggregateRolesRejectEntrepreneurWrites(t *testing.T) {
	env := newTestEnv(t, models.User{Username: "coach3", Role: models.RoleCoach, IsActive: true})
	ctx := context.Background()

	if _, err := env.engine.UpdateWeekly(ctx, "coach3", 0, 1, map[string]any{"h_marketing": 1}); !errors.Is(err, ErrRoleMismatch) {
		t.Errorf("UpdateWeekly = %v, want ErrRoleMismatch", err)
	}
	if err := env.engine.UpdateEtatsResultatsBudget(ctx, "coach3", map[string]float64{"a": 1}); !errors.Is(err, ErrRoleMismatch) {
		t.Errorf("UpdateEtatsResultatsBudget = %v, want ErrRoleMismatch", err)
	}
	if _, err := env.engine.GetMonthly(ctx, "coach3", "jan"); !errors.Is(err, ErrUnknownMonth) {
		t.Errorf("GetMonthly = %v, want ErrUnknownMonth", err)
	}
	if _, err := env.engine.UpdateAnnual(ctx, "coach3", map[string]any{models.FieldObjectifCA: 5}); err != nil {
		t.Errorf("UpdateAnnual on coach: %v", err)
	}
}

func TestEtatsResultats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	actuel, err := env.engine.GetEtatsResultatsActuel(ctx, "lea")
	if err != nil {
		t.Fatal(err)
	}
	if len(actuel) != 0 {
		t.Errorf("fresh actuel = %v", actuel)
	}

	budget := map[string]float64{"marketing": 12.5, "salaires": 40}
	if err := env.engine.UpdateEtatsResultatsBudget(ctx, "lea", budget); err != nil {
		t.Fatal(err)
	}
	got, err := env.engine.GetEtatsResultatsBudget(ctx, "lea")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, budget) {
		t.Errorf("budget = %v, want %v", got, budget)
	}

	if err := env.engine.UpdateEtatsResultatsBudget(ctx, "lea", map[string]float64{"marketing": 10}); err != nil {
		t.Fatal(err)
	}
	got, _ = env.engine.GetEtatsResultatsBudget(ctx, "lea")
	if want := map[string]float64{"marketing": 10}; !reflect.DeepEqual(got, want) {
		t.Errorf("replaced budget = %v, want %v", got, want)
	}

	actuel, _ = env.engine.GetEtatsResultatsActuel(ctx, "lea")
	if want := map[string]float64{"marketing": 10}; !reflect.DeepEqual(actuel, want) {
		t.Errorf("actuel without cible = %v, want budget %v", actuel, want)
	}

	if err := env.engine.UpdateEtatsResultatsCiblePercent(ctx, "lea", nil); err != nil {
		t.Fatal(err)
	}
	cible := map[string]float64{"marketing": 8}
	if err := env.engine.UpdateEtatsResultatsCiblePercent(ctx, "lea", cible); err != nil {
		t.Fatal(err)
	}
	actuel, _ = env.engine.GetEtatsResultatsActuel(ctx, "lea")
	if !reflect.DeepEqual(actuel, cible) {
		t.Errorf("actuel = %v, want cible %v", actuel, cible)
	}
}

func TestUpdateWeeklyRejectsNonNumericHours(t *testing.T) {
	env := newTestEnv(t)
	cascader := &recordingCascader{}
	env.engine.SetCascader(cascader)
	ctx := context.Background()

	for _, v := range []any{"nan", "Infinity", "12h"} {
		_, err := env.engine.UpdateWeekly(ctx, "lea", 0, 3, map[string]any{"h_marketing": v, "focus": "relance"})
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("h_marketing %q: err = %v, want ErrInvalidValue", v, err)
		}
	}
	cell, err := env.engine.GetWeekly(ctx, "lea", 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !cell.HMarketing.IsMissing() || *cell.Focus != models.MissingMarker {
		t.Errorf("rejected update was applied: %+v", cell)
	}
	if len(cascader.entrepreneur) != 0 {
		t.Errorf("cascade ran for a rejected update: %v", cascader.entrepreneur)
	}
}

func TestGetAllMonthly(t *testing.T) {
	env := newTestEnv(t, models.User{Username: "coach3", Role: models.RoleCoach, IsActive: true})
	ctx := context.Background()

	if _, err := env.engine.UpdateMonthly(ctx, "lea", "mar", map[string]any{"objectif": 7}); err != nil {
		t.Fatal(err)
	}
	all, err := env.engine.GetAllMonthly(ctx, "lea")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 13 {
		t.Fatalf("buckets = %d, want 13", len(all))
	}
	wantFloat(t, "mar objectif", all["mar"].Float("objectif"), 7)
	if all["dec2025"] == nil || all["jan"] == nil {
		t.Errorf("missing blank buckets: %v", all)
	}

	// Mutating the result leaves the stored bucket alone.
	all["mar"]["objectif"] = 99.0
	bucket, err := env.engine.GetMonthly(ctx, "lea", "mar")
	if err != nil {
		t.Fatal(err)
	}
	wantFloat(t, "stored objectif", bucket.Float("objectif"), 7)

	agg, err := env.engine.GetAllMonthly(ctx, "coach3")
	if err != nil || len(agg) != 0 {
		t.Errorf("coach monthly = %v, %v; want empty", agg, err)
	}
}

func TestGetMonth(t *testing.T) {
	env := newTestEnv(t, models.User{Username: "coach3", Role: models.RoleCoach, IsActive: true})
	ctx := context.Background()

	if _, err := env.engine.UpdateWeekly(ctx, "lea", 0, 2, map[string]any{"h_marketing": 6}); err != nil {
		t.Fatal(err)
	}
	weeks, err := env.engine.GetMonth(ctx, "lea", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(weeks) != 5 {
		t.Fatalf("weeks = %d, want 5", len(weeks))
	}
	if v, ok := weeks[2].HMarketing.Value(); !ok || v != 6 {
		t.Errorf("week 2 h_marketing = %v, %v", v, ok)
	}
	if weeks[1].WeekLabel == nil || *weeks[1].WeekLabel != "2026-01-05" {
		t.Errorf("week 1 label = %v", weeks[1].WeekLabel)
	}
	if !weeks[5].HMarketing.IsMissing() {
		t.Error("untouched week is not blank")
	}

	agg, err := env.engine.GetMonth(ctx, "coach3", 3)
	if err != nil {
		t.Fatal(err)
	}
	if agg[1].WeekLabel != nil {
		t.Errorf("coach week = %+v", agg[1])
	}

	for _, month := range []int{-1, 12, -3} {
		if _, err := env.engine.GetMonth(ctx, "lea", month); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("GetMonth(%d) = %v, want ErrInvalidSlot", month, err)
		}
	}
}
