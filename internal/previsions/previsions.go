// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package previsions reads the forecast sidecars kept next to RPO
// documents. A sidecar is previsions/<name>.json where name is a coach
// username or "direction" for the shared direction forecast:
//
//	{
//	  "metrics":       {"cm": 2500, "ratioMktg": 85, "tauxVente": 30},
//	  "entrepreneurs": {"alice": 120000},
//	  "coaches":       {"carol": 400000},
//	  "totalObjectif": 520000
//	}
//
// The engine never writes sidecars.
package previsions

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rpoengine/internal/models"
)

// DirectionName is the sidecar shared by all direction users.
const DirectionName = "direction"

// ErrSchema is returned for sidecars that are not the expected JSON shape.
var ErrSchema = errors.New("forecast sidecar has unexpected shape")

// Metrics are the global forecast ratios of a coach or of the direction.
// Nil means the sidecar does not set the ratio.
type Metrics struct {
	CM        *float64 `json:"cm,omitempty"`
	RatioMktg *float64 `json:"ratioMktg,omitempty"`
	TauxVente *float64 `json:"tauxVente,omitempty"`
}

// Forecast is the content of one sidecar.
type Forecast struct {
	Metrics       Metrics            `json:"metrics"`
	Entrepreneurs map[string]float64 `json:"entrepreneurs,omitempty"`
	Coaches       map[string]float64 `json:"coaches,omitempty"`
	Objectif      *float64           `json:"totalObjectif,omitempty"`
}

// TotalObjectif returns the explicit total, else the sum of per-entrepreneur
// objectives, else the sum of per-coach objectives.
func (f Forecast) TotalObjectif() float64 {
	if f.Objectif != nil {
		return *f.Objectif
	}
	var total float64
	for _, v := range f.Entrepreneurs {
		total += v
	}
	if len(f.Entrepreneurs) > 0 {
		return total
	}
	for _, v := range f.Coaches {
		total += v
	}
	return total
}

// HasObjectif reports whether the sidecar sets a total objective, directly
// or through per-entrepreneur or per-coach objectives.
func (f Forecast) HasObjectif() bool {
	return f.Objectif != nil || len(f.Entrepreneurs) > 0 || len(f.Coaches) > 0
}

// Previsions merges the forecast over the current document section. Values
// the sidecar does not set keep their current value, so a missing sidecar
// leaves the section unchanged.
func (f Forecast) Previsions(current *models.Previsions) *models.Previsions {
	var p models.Previsions
	if current != nil {
		p = *current
	}
	if f.Metrics.CM != nil {
		p.CM = *f.Metrics.CM
	}
	if f.Metrics.RatioMktg != nil {
		p.RatioMktg = *f.Metrics.RatioMktg
	}
	if f.Metrics.TauxVente != nil {
		p.TauxVente = *f.Metrics.TauxVente
	}
	if f.HasObjectif() {
		p.TotalObjectif = f.TotalObjectif()
	}
	return &p
}

// EntrepreneurObjectif returns the forecast objective for username.
func (f Forecast) EntrepreneurObjectif(username string) (float64, bool) {
	v, ok := f.Entrepreneurs[username]
	return v, ok
}

// Store reads sidecars from a directory.
type Store struct {
	dir string
}

// NewStore creates a Store over dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the sidecar file of name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load returns the forecast of name. A missing or blank sidecar yields an
// empty forecast that sets nothing.
func (s *Store) Load(name string) (Forecast, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Forecast{}, nil
	}
	if err != nil {
		return Forecast{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Forecast{}, nil
	}
	var f Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return Forecast{}, fmt.Errorf("%w: %s: %w", ErrSchema, path, err)
	}
	return f, nil
}

// TotalObjectif returns Load(name).TotalObjectif().
func (s *Store) TotalObjectif(name string) (float64, error) {
	f, err := s.Load(name)
	if err != nil {
		return 0, err
	}
	return f.TotalObjectif(), nil
}
