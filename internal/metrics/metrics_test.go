// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSync(t *testing.T) {
	before := testutil.ToFloat64(SyncTotal.WithLabelValues(LevelCoach, ResultSuccess))
	RecordSync(LevelCoach, 20*time.Millisecond, ResultSuccess)
	if got := testutil.ToFloat64(SyncTotal.WithLabelValues(LevelCoach, ResultSuccess)); got != before+1 {
		t.Errorf("success count = %v, want %v", got, before+1)
	}
	if testutil.ToFloat64(SyncLastSuccess.WithLabelValues(LevelCoach)) == 0 {
		t.Error("last success timestamp not set")
	}

	before = testutil.ToFloat64(SyncTotal.WithLabelValues(LevelDirection, ResultLockTimeout))
	RecordSync(LevelDirection, time.Second, ResultLockTimeout)
	if got := testutil.ToFloat64(SyncTotal.WithLabelValues(LevelDirection, ResultLockTimeout)); got != before+1 {
		t.Errorf("lock timeout count = %v, want %v", got, before+1)
	}
}

func TestRecordCascade(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("coach locked"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CascadeTotal.WithLabelValues("coach_synced", tt.result)
			before := testutil.ToFloat64(c)
			RecordCascade("coach_synced", tt.err)
			if got := testutil.ToFloat64(c); got != before+1 {
				t.Errorf("count = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRecordBadgeAndSkipped(t *testing.T) {
	b := BadgesAwarded.WithLabelValues("cap_six_chiffres")
	before := testutil.ToFloat64(b)
	RecordBadge("cap_six_chiffres", 2)
	if got := testutil.ToFloat64(b); got != before+2 {
		t.Errorf("badges = %v, want %v", got, before+2)
	}

	s := EventRecordsSkipped.WithLabelValues("statuses")
	before = testutil.ToFloat64(s)
	RecordSkippedRecord("statuses")
	if got := testutil.ToFloat64(s); got != before+1 {
		t.Errorf("skipped = %v, want %v", got, before+1)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	before := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("cascade", "closed", "open"))
	RecordBreakerTransition("cascade", "closed", "open", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("cascade")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("cascade", "closed", "open")); got != before+1 {
		t.Errorf("transitions = %v, want %v", got, before+1)
	}
}
