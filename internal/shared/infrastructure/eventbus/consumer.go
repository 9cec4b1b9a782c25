package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// EventConsumer handles specific event types.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["habits.habit.created", "habits.mood.logged"].
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope carried on the bus.
type ConsumedEvent struct {
	EventID       string          `json:"event_id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata contains optional metadata about the event.
type EventMetadata struct {
	UserID        string `json:"user_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WildcardEventType subscribes a consumer to every routing key.
const WildcardEventType = "#"

// LoggingConsumer logs every event it receives at debug level.
type LoggingConsumer struct {
	logger *slog.Logger
}

// NewLoggingConsumer creates a wildcard consumer that logs events.
func NewLoggingConsumer(logger *slog.Logger) *LoggingConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingConsumer{logger: logger}
}

func (c *LoggingConsumer) EventTypes() []string { return []string{WildcardEventType} }

func (c *LoggingConsumer) Handle(ctx context.Context, event *ConsumedEvent) error {
	c.logger.DebugContext(ctx, "event",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"aggregate_id", event.AggregateID,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}
