// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package events

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/metrics"
)

var (
	// ErrSchema is returned when an event file is not the expected JSON shape.
	ErrSchema = errors.New("event file has unexpected shape")

	// ErrMissingReference marks an invoicing status whose sale is unknown.
	ErrMissingReference = errors.New("invoicing status references unknown sale")
)

// Stream names, used for file layout and skip metrics.
const (
	StreamQuotes        = "soumissions_completes"
	StreamAcceptedSales = "ventes_acceptees"
	StreamProducedSales = "ventes_produit"
	StreamStatuses      = "facturation_qe_statuts"
	StreamLostClients   = "clients_perdus"
	StreamReviews       = "reviews"
	StreamUserInfo      = "signatures"
)

var fileNames = map[string]string{
	StreamQuotes:        "soumissions.json",
	StreamAcceptedSales: "ventes.json",
	StreamProducedSales: "ventes.json",
	StreamStatuses:      "statuts_clients.json",
	StreamLostClients:   "clients.json",
	StreamReviews:       "reviews.json",
	StreamUserInfo:      "user_info.json",
}

// Reader exposes the event files of a storage root. It never writes.
type Reader struct {
	root string
}

// NewReader creates a Reader over root.
func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// Path returns the file holding stream for username.
func (r *Reader) Path(stream, username string) string {
	return filepath.Join(r.root, stream, username, fileNames[stream])
}

// readFile returns nil for missing or blank files.
func (r *Reader) readFile(stream, username string) ([]byte, error) {
	path := r.Path(stream, username)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// readArray decodes a top-level array into one raw value per record.
func (r *Reader) readArray(stream, username string) ([]json.RawMessage, error) {
	data, err := r.readFile(stream, username)
	if err != nil || data == nil {
		return nil, err
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchema, r.Path(stream, username), err)
	}
	return records, nil
}

func skip(ctx context.Context, stream, username string, index int, err error) {
	logging.Ctx(ctx).Warn().Err(err).
		Str("stream", stream).
		Str("username", username).
		Int("index", index).
		Msg("skipping malformed event record")
	metrics.RecordSkippedRecord(stream)
}

// Quote is a submitted quote.
type Quote struct {
	Num  FlexString `json:"num"`
	Date string     `json:"date"`
}

// Quotes returns username's quotes, first occurrence per num. Quotes
// without a num are dropped.
func (r *Reader) Quotes(ctx context.Context, username string) ([]Quote, error) {
	records, err := r.readArray(StreamQuotes, username)
	if err != nil {
		return nil, err
	}
	seen := make(map[FlexString]struct{}, len(records))
	quotes := make([]Quote, 0, len(records))
	for i, raw := range records {
		var q Quote
		if err := json.Unmarshal(raw, &q); err != nil {
			skip(ctx, StreamQuotes, username, i, err)
			continue
		}
		if q.Num == "" {
			continue
		}
		if _, dup := seen[q.Num]; dup {
			continue
		}
		seen[q.Num] = struct{}{}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Sale is an accepted or produced sale.
type Sale struct {
	Num       string
	ID        string
	Price     float64
	FirstName string
	LastName  string
	Date      string
	Source    string
}

type saleRecord struct {
	Num          FlexString      `json:"num"`
	ID           FlexString      `json:"id"`
	Prix         json.RawMessage `json:"prix"`
	Prenom       string          `json:"prenom"`
	ClientPrenom string          `json:"clientPrenom"`
	Nom          string          `json:"nom"`
	ClientNom    string          `json:"clientNom"`
	Date         string          `json:"date"`
}

func (rec saleRecord) sale(source string) (Sale, error) {
	price, err := priceOf(rec.Prix)
	if err != nil {
		return Sale{}, err
	}
	s := Sale{
		Num:       rec.Num.String(),
		ID:        rec.ID.String(),
		Price:     price,
		FirstName: rec.Prenom,
		LastName:  rec.Nom,
		Date:      rec.Date,
		Source:    source,
	}
	if s.FirstName == "" {
		s.FirstName = rec.ClientPrenom
	}
	if s.LastName == "" {
		s.LastName = rec.ClientNom
	}
	return s, nil
}

func (r *Reader) sales(ctx context.Context, stream, username string) ([]Sale, error) {
	records, err := r.readArray(stream, username)
	if err != nil {
		return nil, err
	}
	sales := make([]Sale, 0, len(records))
	for i, raw := range records {
		var rec saleRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			skip(ctx, stream, username, i, err)
			continue
		}
		sale, err := rec.sale(stream)
		if err != nil {
			skip(ctx, stream, username, i, err)
			continue
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

// AcceptedSales returns username's accepted sales in file order.
func (r *Reader) AcceptedSales(ctx context.Context, username string) ([]Sale, error) {
	return r.sales(ctx, StreamAcceptedSales, username)
}

// ProducedSales returns username's produced sales. Records sharing a num
// are reported once; records without a num are all kept.
func (r *Reader) ProducedSales(ctx context.Context, username string) ([]Sale, error) {
	all, err := r.sales(ctx, StreamProducedSales, username)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, s := range all {
		if s.Num != "" {
			if _, dup := seen[s.Num]; dup {
				continue
			}
			seen[s.Num] = struct{}{}
		}
		out = append(out, s)
	}
	return out, nil
}

// SalesLookup indexes sales by num, accepted sales first, then produced
// sales. The first occurrence of a num wins. A schema error in one stream
// is logged and that stream contributes nothing.
func (r *Reader) SalesLookup(ctx context.Context, username string) (map[string]Sale, error) {
	lookup := make(map[string]Sale)
	for _, stream := range []string{StreamAcceptedSales, StreamProducedSales} {
		sales, err := r.sales(ctx, stream, username)
		if err != nil {
			if !errors.Is(err, ErrSchema) {
				return nil, err
			}
			logging.Ctx(ctx).Error().Err(err).Str("stream", stream).Str("username", username).Msg("ignoring sales stream")
			continue
		}
		for _, s := range sales {
			if s.Num == "" {
				continue
			}
			if _, ok := lookup[s.Num]; !ok {
				lookup[s.Num] = s
			}
		}
	}
	return lookup, nil
}

// InvoicingStatus is the invoicing state of one contract.
type InvoicingStatus struct {
	Num                     string
	DatePremiereFacturation string
}

type statusRecord struct {
	DatePremiereFacturation string `json:"datePremiereFacturation"`
}

// InvoicingStatuses returns username's invoicing statuses sorted by num.
func (r *Reader) InvoicingStatuses(ctx context.Context, username string) ([]InvoicingStatus, error) {
	data, err := r.readFile(StreamStatuses, username)
	if err != nil || data == nil {
		return nil, err
	}
	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchema, r.Path(StreamStatuses, username), err)
	}
	nums := make([]string, 0, len(records))
	for num := range records {
		nums = append(nums, num)
	}
	sort.Strings(nums)

	statuses := make([]InvoicingStatus, 0, len(nums))
	for i, num := range nums {
		var rec statusRecord
		if err := json.Unmarshal(records[num], &rec); err != nil {
			skip(ctx, StreamStatuses, username, i, err)
			continue
		}
		statuses = append(statuses, InvoicingStatus{Num: num, DatePremiereFacturation: rec.DatePremiereFacturation})
	}
	return statuses, nil
}

type lostRecord struct {
	ID  FlexString `json:"id"`
	Num FlexString `json:"num"`
}

// LostClients returns the set of ids and nums of username's lost clients.
func (r *Reader) LostClients(ctx context.Context, username string) (map[string]struct{}, error) {
	records, err := r.readArray(StreamLostClients, username)
	if err != nil {
		return nil, err
	}
	lost := make(map[string]struct{}, 2*len(records))
	for i, raw := range records {
		var rec lostRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			skip(ctx, StreamLostClients, username, i, err)
			continue
		}
		if rec.ID != "" {
			lost[rec.ID.String()] = struct{}{}
		}
		if rec.Num != "" {
			lost[rec.Num.String()] = struct{}{}
		}
	}
	return lost, nil
}

// Review is a customer rating.
type Review struct {
	Timestamp string  `json:"timestamp"`
	Rating    float64 `json:"rating"`
}

// Reviews returns username's reviews in file order.
func (r *Reader) Reviews(ctx context.Context, username string) ([]Review, error) {
	records, err := r.readArray(StreamReviews, username)
	if err != nil {
		return nil, err
	}
	reviews := make([]Review, 0, len(records))
	for i, raw := range records {
		var rev Review
		if err := json.Unmarshal(raw, &rev); err != nil {
			skip(ctx, StreamReviews, username, i, err)
			continue
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}

// UserInfo holds profile data kept alongside signatures.
type UserInfo struct {
	Grade string `json:"grade"`
}

// UserInfo returns username's profile. A missing file yields a zero value.
func (r *Reader) UserInfo(_ context.Context, username string) (UserInfo, error) {
	var info UserInfo
	data, err := r.readFile(StreamUserInfo, username)
	if err != nil || data == nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return UserInfo{}, fmt.Errorf("%w: %s: %w", ErrSchema, r.Path(StreamUserInfo, username), err)
	}
	return info, nil
}
