// Package bus carries operational events, such as captured command failures,
// from the dispatcher to their sinks.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic names a stream of messages.
type Topic string

const (
	// TopicFailure carries report.Failure payloads.
	TopicFailure Topic = "failure"
	// TopicStats carries periodic stats snapshots.
	TopicStats Topic = "stats"
)

// Message is an envelope flowing through the bus.
type Message struct {
	ID        string          `json:"id"`
	Topic     Topic           `json:"topic"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps payload as JSON under topic.
func NewMessage(topic Topic, source string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	return &Message{
		ID:        uuid.NewString(),
		Topic:     topic,
		Source:    source,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", m.Topic, err)
	}
	return nil
}

// Handler processes messages of one topic.
type Handler func(ctx context.Context, msg *Message) error

// Bus is the interface for event routing.
type Bus interface {
	// Start starts delivering messages.
	Start() error

	// Stop stops delivery and waits for in-flight handlers.
	Stop() error

	// Subscribe registers a handler for a topic.
	Subscribe(topic Topic, handler Handler)

	// Unsubscribe removes all handlers for a topic.
	Unsubscribe(topic Topic)

	// Publish sends a message to every subscriber of its topic.
	Publish(ctx context.Context, msg *Message) error

	// GetMetrics returns current bus metrics.
	GetMetrics() map[string]uint64
}
