// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

import (
	"time"
)

// APIResponse is the envelope of every HTTP response.
//
//	{
//	  "status": "success",
//	  "data": {"estimation_reel": 42, ...},
//	  "metadata": {"timestamp": "2026-03-02T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
//
// Codes:
//   - VALIDATION_ERROR: invalid path parameter or body
//   - LOCK_TIMEOUT: the document stayed locked by another process
//   - STORAGE_ERROR: the document could not be read or written
//   - RATE_LIMIT_EXCEEDED: too many sync requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SyncResult reports the outcome of a sync request.
type SyncResult struct {
	Level    string `json:"level"`
	Target   string `json:"target"`
	Success  bool   `json:"success"`
	Duration string `json:"duration"`
}
