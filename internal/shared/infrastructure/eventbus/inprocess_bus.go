package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// InProcessEventBus delivers events synchronously to registered consumers.
// It is the local-mode replacement for the broker.
type InProcessEventBus struct {
	mu        sync.RWMutex
	consumers map[string][]EventConsumer
	logger    *slog.Logger
}

// NewInProcessEventBus creates a new in-process event bus.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		consumers: make(map[string][]EventConsumer),
		logger:    logger,
	}
}

// RegisterConsumer adds a consumer for its declared event types.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range consumer.EventTypes() {
		b.consumers[eventType] = append(b.consumers[eventType], consumer)
		b.logger.Debug("registered consumer", "event_type", eventType)
	}
}

// Consumers returns the consumers that receive routingKey, wildcard ones included.
func (b *InProcessEventBus) Consumers(routingKey string) []EventConsumer {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]EventConsumer, 0, len(b.consumers[routingKey]))
	out = append(out, b.consumers[routingKey]...)
	if routingKey != WildcardEventType {
		out = append(out, b.consumers[WildcardEventType]...)
	}
	return out
}

// Publish decodes the envelope and dispatches it. Undecodable payloads and
// consumer failures are logged, never returned.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		b.logger.Error("failed to unmarshal event payload",
			"routing_key", routingKey,
			"error", err,
		)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	b.Dispatch(ctx, event)
	return nil
}

// Dispatch sends an event to every matching consumer and returns how many failed.
func (b *InProcessEventBus) Dispatch(ctx context.Context, event *ConsumedEvent) int {
	failed := 0
	for _, consumer := range b.Consumers(event.RoutingKey) {
		if err := consumer.Handle(ctx, event); err != nil {
			failed++
			b.logger.Error("consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
		}
	}
	return failed
}

// Close is a no-op for the in-process bus.
func (b *InProcessEventBus) Close() error {
	return nil
}
