// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

import (
	"bytes"
	"sort"

	"github.com/goccy/go-json"
)

// objectWriter emits a JSON object with keys in insertion order.
type objectWriter struct {
	buf     bytes.Buffer
	written map[string]bool
	err     error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{written: make(map[string]bool)}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}
	raw, err := json.MarshalNoEscape(v)
	if err != nil {
		w.err = err
		return
	}
	w.raw(key, raw)
}

func (w *objectWriter) raw(key string, raw []byte) {
	if w.err != nil || w.written[key] {
		return
	}
	k, err := json.MarshalNoEscape(key)
	if err != nil {
		w.err = err
		return
	}
	if len(w.written) > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
	w.written[key] = true
}

// extras writes the remaining raw values sorted by key, skipping keys already written.
func (w *objectWriter) extras(extra map[string]json.RawMessage) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.raw(k, extra[k])
	}
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}
