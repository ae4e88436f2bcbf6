// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Document section keys.
const (
	SectionAnnual               = "annual"
	SectionMonthly              = "monthly"
	SectionWeekly               = "weekly"
	SectionCoachPrevisions      = "coach_previsions"
	SectionDirectionPrevisions  = "direction_previsions"
	SectionEntrepreneursMetrics = "entrepreneurs_metrics"
	SectionEtatsResultats       = "etats_resultats"
	SectionLastUpdated          = "last_updated"

	// Legacy sections removed from aggregate documents.
	SectionTeamMetrics    = "team_metrics"
	SectionTeamPrevisions = "team_previsions"
)

// Previsions is the forecast block of a coach or direction document.
type Previsions struct {
	CM            float64 `json:"cm"`
	RatioMktg     float64 `json:"ratioMktg"`
	TauxVente     float64 `json:"tauxVente"`
	TotalObjectif float64 `json:"totalObjectif"`
}

// EntrepreneurMetrics is a coach's per-entrepreneur forecast snapshot.
type EntrepreneurMetrics struct {
	ObjectifCA float64 `json:"objectif_ca"`
	CM         float64 `json:"cm"`
	RatioMktg  float64 `json:"ratioMktg"`
	TauxVente  float64 `json:"tauxVente"`
}

// Document is a complete RPO document.
type Document struct {
	Annual               Fields
	Monthly              map[string]Fields
	Weekly               Weekly
	CoachPrevisions      *Previsions
	DirectionPrevisions  *Previsions
	EntrepreneursMetrics map[string]EntrepreneurMetrics
	EtatsResultats       Fields
	LastUpdated          string

	// Extra holds unknown top-level sections verbatim.
	Extra map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler with a fixed section order.
func (d *Document) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	annual := d.Annual
	if annual == nil {
		annual = Fields{}
	}
	w.field(SectionAnnual, annual)
	if d.Monthly != nil {
		w.field(SectionMonthly, d.Monthly)
	}
	weekly := d.Weekly
	if weekly == nil {
		weekly = Weekly{}
	}
	w.field(SectionWeekly, weekly)
	if d.CoachPrevisions != nil {
		w.field(SectionCoachPrevisions, d.CoachPrevisions)
	}
	if d.DirectionPrevisions != nil {
		w.field(SectionDirectionPrevisions, d.DirectionPrevisions)
	}
	if d.EntrepreneursMetrics != nil {
		w.field(SectionEntrepreneursMetrics, d.EntrepreneursMetrics)
	}
	if d.EtatsResultats != nil {
		w.field(SectionEtatsResultats, d.EtatsResultats)
	}
	w.extras(d.Extra)
	if d.LastUpdated != "" {
		w.field(SectionLastUpdated, d.LastUpdated)
	}
	return w.bytes()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("document: %w", err)
	}

	*d = Document{}
	for key, v := range raw {
		if isNull(v) {
			continue
		}
		var err error
		switch key {
		case SectionAnnual:
			err = json.Unmarshal(v, &d.Annual)
		case SectionMonthly:
			err = json.Unmarshal(v, &d.Monthly)
		case SectionWeekly:
			err = json.Unmarshal(v, &d.Weekly)
		case SectionCoachPrevisions:
			err = json.Unmarshal(v, &d.CoachPrevisions)
		case SectionDirectionPrevisions:
			err = json.Unmarshal(v, &d.DirectionPrevisions)
		case SectionEntrepreneursMetrics:
			err = json.Unmarshal(v, &d.EntrepreneursMetrics)
		case SectionEtatsResultats:
			err = json.Unmarshal(v, &d.EtatsResultats)
		case SectionLastUpdated:
			err = json.Unmarshal(v, &d.LastUpdated)
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = v
		}
		if err != nil {
			return fmt.Errorf("document section %s: %w", key, err)
		}
	}

	if d.Annual == nil {
		d.Annual = Fields{}
	}
	if d.Weekly == nil {
		d.Weekly = Weekly{}
	}
	return nil
}

// DropExtra removes unknown top-level sections by name.
func (d *Document) DropExtra(keys ...string) {
	for _, k := range keys {
		delete(d.Extra, k)
	}
}
