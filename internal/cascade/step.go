// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package cascade

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/rpoengine/internal/logging"
)

var (
	// ErrUnknownKind is returned for a queued step of an unknown kind.
	ErrUnknownKind = errors.New("unknown cascade kind")

	// ErrBusClosed is returned when publishing on a closed bus.
	ErrBusClosed = errors.New("cascade bus closed")
)

// Metadata keys set on cascade messages.
const (
	metadataKind          = "kind"
	metadataCorrelationID = "correlation_id"
)

// Step is one queued cascade action.
type Step struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// newMessage encodes s. The message UUID doubles as the JetStream
// deduplication ID on the nats transport.
func newMessage(s Step, correlationID string) (*message.Message, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode cascade step: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metadataKind, s.Kind)
	if correlationID != "" {
		msg.Metadata.Set(metadataCorrelationID, correlationID)
	}
	return msg, nil
}

// decodeStep reads a step from msg.
func decodeStep(msg *message.Message) (Step, error) {
	var s Step
	if err := json.Unmarshal(msg.Payload, &s); err != nil {
		return Step{}, fmt.Errorf("decode cascade step %s: %w", msg.UUID, err)
	}
	if s.Kind == "" {
		return Step{}, fmt.Errorf("%w: empty kind in %s", ErrUnknownKind, msg.UUID)
	}
	return s, nil
}

func correlationOf(msg *message.Message) string {
	if id := msg.Metadata.Get(metadataCorrelationID); id != "" {
		return id
	}
	return logging.GenerateCorrelationID()
}
