// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/metrics"
	"github.com/tomtom215/rpoengine/internal/models"
)

type staticRoles map[string]models.Role

func (r staticRoles) RoleOf(_ context.Context, username string) (models.Role, error) {
	if role, ok := r[username]; ok {
		return role, nil
	}
	return models.RoleEntrepreneur, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(Options{
		Dir:      t.TempDir(),
		Calendar: fiscal.NewCalendar(2026),
		Roles: staticRoles{
			"carol": models.RoleCoach,
			"dana":  models.RoleDirection,
			"eve":   models.RoleDirection,
		},
	})
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Monthly == nil || doc.Weekly.Cell(fiscal.PreviousDecember, 1) == nil {
		t.Error("entrepreneur default should carry monthly buckets and month -2")
	}

	coach, err := s.Load(ctx, "carol")
	if err != nil {
		t.Fatalf("Load coach: %v", err)
	}
	if coach.Monthly != nil || coach.Weekly.Cell(fiscal.PreviousDecember, 1) != nil {
		t.Error("coach default should have neither monthly nor month -2")
	}
	if _, err := os.Stat(s.Path("alice")); !errors.Is(err, os.ErrNotExist) {
		t.Error("Load must not create files")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	doc, _ := s.Load(ctx, "alice")
	doc.Annual["objectif_ca"] = 150000.0
	doc.Weekly.Cell(0, 2).Estimation = 3
	doc.Extra = map[string]json.RawMessage{"notes": json.RawMessage(`{"memo":"café"}`)}

	if err := s.Save(ctx, "alice", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(s.Path("alice") + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("staging file left behind")
	}

	got, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Annual.Float("objectif_ca") != 150000 {
		t.Errorf("objectif_ca = %v", got.Annual.Float("objectif_ca"))
	}
	if got.Weekly.Cell(0, 2).Estimation != 3 {
		t.Errorf("estimation = %v", got.Weekly.Cell(0, 2).Estimation)
	}
	var notes map[string]string
	if err := json.Unmarshal(got.Extra["notes"], &notes); err != nil || notes["memo"] != "café" {
		t.Errorf("unknown section = %s (%v)", got.Extra["notes"], err)
	}
	if got.LastUpdated == "" {
		t.Error("last_updated not stamped")
	}
}

func TestDirectionUsersShareDocument(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	doc, _ := s.Load(ctx, "dana")
	doc.Annual[models.FieldNbCoaches] = 4.0
	if err := s.Save(ctx, "dana", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	key, role, err := s.Key(ctx, "eve")
	if err != nil || key != DirectionKey || role != models.RoleDirection {
		t.Fatalf("Key(eve) = %q, %q, %v", key, role, err)
	}
	got, err := s.Load(ctx, "eve")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Annual.Float(models.FieldNbCoaches) != 4 {
		t.Errorf("eve sees nb_coaches = %v, want 4", got.Annual.Float(models.FieldNbCoaches))
	}
	if filepath.Base(s.Path(key)) != "direction_rpo.json" {
		t.Errorf("path = %s", s.Path(key))
	}
}

func TestLoadRecoversFromStagingFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	path := s.Path("alice")
	if err := os.WriteFile(path, []byte(`{"annual": {"objectif_ca": 10`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+".tmp", []byte(`{"annual":{"objectif_ca":42},"weekly":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	before := testutil.ToFloat64(metrics.StoreRecoveries.WithLabelValues("tmp"))
	doc, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Annual.Float("objectif_ca") != 42 {
		t.Errorf("objectif_ca = %v, want 42 from staging file", doc.Annual.Float("objectif_ca"))
	}
	if got := testutil.ToFloat64(metrics.StoreRecoveries.WithLabelValues("tmp")); got != before+1 {
		t.Errorf("tmp recoveries = %v, want %v", got, before+1)
	}
}

func TestLoadCorruptedWithoutStagingFallsBackToDefault(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path("alice"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Load(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Annual.Float(models.FieldCMPrevision) != models.DefaultCMPrevision {
		t.Error("expected default document")
	}
}

func TestInvalidNames(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, name := range []string{"", "..", "../etc/passwd", "a/b", `a\b`, "."} {
		if _, err := s.Load(context.Background(), name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Load(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestSaveIntoUnwritableDirectory(t *testing.T) {
	t.Parallel()

	// A regular file where the directory should be makes MkdirAll fail.
	base := t.TempDir()
	blocker := filepath.Join(base, "rpo")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(Options{Dir: blocker, Calendar: fiscal.NewCalendar(2026)})

	err := s.SaveKey(context.Background(), "alice", models.NewAggregateDocument())
	if !errors.Is(err, ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
}

// failRenames makes the next n renames fail, or all of them when n < 0.
func failRenames(t *testing.T, n int) *int {
	t.Helper()
	calls := 0
	orig := rename
	rename = func(from, to string) error {
		calls++
		if n < 0 || calls <= n {
			return &os.LinkError{Op: "rename", Old: from, New: to, Err: os.ErrPermission}
		}
		return orig(from, to)
	}
	t.Cleanup(func() { rename = orig })
	return &calls
}

func TestSaveFallsBackToDirectWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old, _ := s.Load(ctx, "alice")
	old.Annual["objectif_ca"] = 1.0
	if err := s.Save(ctx, "alice", old); err != nil {
		t.Fatal(err)
	}

	calls := failRenames(t, -1)
	retries := testutil.ToFloat64(metrics.StoreSaveRetries)
	fallbacks := testutil.ToFloat64(metrics.StoreSaveFallbacks)

	doc, _ := s.Load(ctx, "alice")
	doc.Annual["objectif_ca"] = 250000.0
	if err := s.Save(ctx, "alice", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if *calls != 3 {
		t.Errorf("rename attempts = %d, want 3", *calls)
	}
	if d := testutil.ToFloat64(metrics.StoreSaveRetries) - retries; d != 3 {
		t.Errorf("retry counter delta = %v, want 3", d)
	}
	if d := testutil.ToFloat64(metrics.StoreSaveFallbacks) - fallbacks; d != 1 {
		t.Errorf("fallback counter delta = %v, want 1", d)
	}
	if _, err := os.Stat(s.Path("alice") + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("staging file left behind")
	}
	got, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.Annual.Float("objectif_ca") != 250000 {
		t.Errorf("objectif_ca = %v, want the new document", got.Annual.Float("objectif_ca"))
	}
}

func TestSaveRetriesRename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	calls := failRenames(t, 1)
	fallbacks := testutil.ToFloat64(metrics.StoreSaveFallbacks)

	doc, _ := s.Load(ctx, "alice")
	doc.Annual["objectif_ca"] = 42.0
	if err := s.Save(ctx, "alice", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if *calls != 2 {
		t.Errorf("rename attempts = %d, want 2", *calls)
	}
	if d := testutil.ToFloat64(metrics.StoreSaveFallbacks) - fallbacks; d != 0 {
		t.Errorf("fallback used after a successful retry")
	}
	if got, _ := s.Load(ctx, "alice"); got.Annual.Float("objectif_ca") != 42 {
		t.Errorf("objectif_ca = %v", got.Annual.Float("objectif_ca"))
	}
}
