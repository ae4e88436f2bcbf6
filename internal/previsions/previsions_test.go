// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package previsions

import (
	"errors"
	"os"
	"testing"

	"github.com/tomtom215/rpoengine/internal/models"
)

func TestLoad(t *testing.T) {
	t.Parallel()
	s := NewStore(t.TempDir())

	write := func(name, body string) {
		if err := os.WriteFile(s.Path(name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("carol", `{"metrics": {"cm": 2600, "ratioMktg": 80, "tauxVente": 35}, "entrepreneurs": {"alice": 100000, "bob": 50000}}`)
	write("cyril", `{"entrepreneurs": {"x": 1}, "totalObjectif": 9}`)
	write(DirectionName, `{"metrics": {"cm": 3000}, "coaches": {"carol": 150000, "cyril": 9}}`)
	write("broken", `[1, 2]`)
	write("blank", "\n")

	tests := []struct {
		name    string
		total   float64
		cm      float64
		wantErr error
	}{
		{name: "carol", total: 150000, cm: 2600},
		{name: "cyril", total: 9},
		{name: DirectionName, total: 150009, cm: 3000},
		{name: "missing", total: 0},
		{name: "blank", total: 0},
		{name: "broken", wantErr: ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := s.Load(tt.name)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := f.TotalObjectif(); got != tt.total {
				t.Errorf("TotalObjectif = %v, want %v", got, tt.total)
			}
			if got := f.Previsions(nil).CM; got != tt.cm {
				t.Errorf("cm = %v, want %v", got, tt.cm)
			}
			total, err := s.TotalObjectif(tt.name)
			if err != nil || total != tt.total {
				t.Errorf("Store.TotalObjectif = %v, %v", total, err)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestPrevisionsSection(t *testing.T) {
	t.Parallel()
	stored := &models.Previsions{CM: 2700, RatioMktg: 90, TauxVente: 35, TotalObjectif: 400000}

	tests := []struct {
		name     string
		forecast Forecast
		want     models.Previsions
	}{
		{
			name:     "no sidecar keeps stored values",
			forecast: Forecast{},
			want:     *stored,
		},
		{
			name:     "partial metrics",
			forecast: Forecast{Metrics: Metrics{CM: ptr(2500)}},
			want:     models.Previsions{CM: 2500, RatioMktg: 90, TauxVente: 35, TotalObjectif: 400000},
		},
		{
			name: "full sidecar",
			forecast: Forecast{
				Metrics:       Metrics{CM: ptr(2500), RatioMktg: ptr(85), TauxVente: ptr(30)},
				Entrepreneurs: map[string]float64{"alice": 80000},
			},
			want: models.Previsions{CM: 2500, RatioMktg: 85, TauxVente: 30, TotalObjectif: 80000},
		},
		{
			name:     "explicit zero objective",
			forecast: Forecast{Objectif: ptr(0)},
			want:     models.Previsions{CM: 2700, RatioMktg: 90, TauxVente: 35},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.forecast.Previsions(stored); *got != tt.want {
				t.Errorf("Previsions() = %+v, want %+v", *got, tt.want)
			}
		})
	}
	if stored.CM != 2700 {
		t.Error("stored section was modified")
	}
	if got := (Forecast{}).Previsions(nil); *got != (models.Previsions{}) {
		t.Errorf("Previsions(nil) = %+v", *got)
	}
}

func TestEntrepreneurObjectif(t *testing.T) {
	t.Parallel()
	f := Forecast{Entrepreneurs: map[string]float64{"alice": 80000}}
	if v, ok := f.EntrepreneurObjectif("alice"); !ok || v != 80000 {
		t.Errorf("EntrepreneurObjectif(alice) = %v, %v", v, ok)
	}
	if _, ok := f.EntrepreneurObjectif("bob"); ok {
		t.Error("bob has no override")
	}
}
