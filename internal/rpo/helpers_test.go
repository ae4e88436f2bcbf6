// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package rpo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rpoengine/internal/events"
	"github.com/tomtom215/rpoengine/internal/filelock"
	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/models"
	"github.com/tomtom215/rpoengine/internal/previsions"
	"github.com/tomtom215/rpoengine/internal/registry"
	"github.com/tomtom215/rpoengine/internal/store"
)

// testEnv is an engine over a temporary storage root.
type testEnv struct {
	root     string
	engine   *Engine
	store    *store.Store
	events   *events.Reader
	registry *registry.Memory
}

func newTestEnv(t *testing.T, users ...models.User) *testEnv {
	t.Helper()
	root := t.TempDir()
	cal := fiscal.NewCalendar(2026)
	reg := registry.NewMemory(users...)
	st := store.New(store.Options{
		Dir:          filepath.Join(root, "rpo"),
		Calendar:     cal,
		Roles:        reg,
		RetryBackoff: time.Millisecond,
	})
	reader := events.NewReader(root)
	engine := New(Options{
		Store:      st,
		Locks:      filelock.NewManager(filelock.Options{Timeout: 5 * time.Second, PollInterval: time.Millisecond}),
		Events:     reader,
		Registry:   reg,
		Previsions: previsions.NewStore(filepath.Join(root, "previsions")),
		Calendar:   cal,
	})
	return &testEnv{root: root, engine: engine, store: st, events: reader, registry: reg}
}

// write stores an event file.
func (env *testEnv) write(t *testing.T, stream, username, body string) {
	t.Helper()
	path := env.events.Path(stream, username)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeSidecar stores a forecast sidecar.
func (env *testEnv) writeSidecar(t *testing.T, name, body string) {
	t.Helper()
	dir := filepath.Join(env.root, "previsions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (env *testEnv) load(t *testing.T, username string) *models.Document {
	t.Helper()
	doc, err := env.store.Load(context.Background(), username)
	if err != nil {
		t.Fatalf("Load(%s): %v", username, err)
	}
	return doc
}

// canonical returns the document bytes without last_updated.
func canonical(t *testing.T, doc *models.Document) string {
	t.Helper()
	cp := *doc
	cp.LastUpdated = ""
	b, err := json.Marshal(&cp)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func cellOf(t *testing.T, doc *models.Document, month, week int) *models.WeekCell {
	t.Helper()
	c := doc.Weekly.Cell(month, week)
	if c == nil {
		t.Fatalf("missing cell (%d,%d)", month, week)
	}
	return c
}

func wantFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// recordingCascader records cascade calls.
type recordingCascader struct {
	mu           sync.Mutex
	entrepreneur []string
	coach        []string
	err          error
}

func (r *recordingCascader) EntrepreneurSynced(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entrepreneur = append(r.entrepreneur, username)
	return r.err
}

func (r *recordingCascader) CoachSynced(_ context.Context, coach string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coach = append(r.coach, coach)
	return r.err
}

// failingBadges always fails.
type failingBadges struct {
	calls int
}

func (f *failingBadges) Evaluate(context.Context, string) error {
	f.calls++
	return errors.New("badge store offline")
}

// seedInvoicedQuote writes one quote, one accepted sale and its invoicing status.
func seedInvoicedQuote(t *testing.T, env *testEnv, username string) {
	t.Helper()
	env.write(t, events.StreamQuotes, username, `[{"num": "Q1", "date": "2026-02-10"}]`)
	env.write(t, events.StreamAcceptedSales, username, `[{"num": "Q1", "prix": "2 500,00 $", "clientPrenom": "Ana", "clientNom": "Roy"}]`)
	env.write(t, events.StreamStatuses, username, `{"Q1": {"datePremiereFacturation": "2026-03-02T00:00:00"}}`)
}
