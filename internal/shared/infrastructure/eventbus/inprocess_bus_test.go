package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/habitat/internal/shared/domain"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

type testEvent struct {
	domain.BaseEvent
	Name string `json:"name"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(quietLogger())
	consumer := &mockConsumer{eventTypes: []string{"habits.habit.created"}}
	bus.RegisterConsumer(consumer)

	event := &eventbus.ConsumedEvent{
		EventID:       "evt-1",
		AggregateID:   "habit-1",
		AggregateType: "Habit",
		RoutingKey:    "habits.habit.created",
		OccurredAt:    time.Now(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = bus.Publish(context.Background(), "habits.habit.created", payload)
	require.NoError(t, err)

	require.Len(t, consumer.events, 1)
	assert.Equal(t, "evt-1", consumer.events[0].EventID)
}

func TestInProcessEventBus_Wildcard(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(quietLogger())
	specific := &mockConsumer{eventTypes: []string{"habits.mood.logged"}}
	all := &mockConsumer{eventTypes: []string{eventbus.WildcardEventType}}
	bus.RegisterConsumer(specific)
	bus.RegisterConsumer(all)

	failed := bus.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "habits.habit.created"})
	assert.Zero(t, failed)
	failed = bus.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "habits.mood.logged"})
	assert.Zero(t, failed)

	assert.Len(t, specific.events, 1)
	assert.Len(t, all.events, 2)
}

func TestInProcessEventBus_ConsumerError(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(quietLogger())
	consumer := &mockConsumer{
		eventTypes: []string{"habits.habit.created"},
		err:        errors.New("consumer error"),
	}
	bus.RegisterConsumer(consumer)

	payload, err := json.Marshal(&eventbus.ConsumedEvent{EventID: "evt-1", RoutingKey: "habits.habit.created"})
	require.NoError(t, err)

	// Consumer failures are logged, not returned.
	err = bus.Publish(context.Background(), "habits.habit.created", payload)
	require.NoError(t, err)
	assert.Len(t, consumer.events, 1)
}

func TestInProcessEventBus_InvalidPayload(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(quietLogger())
	consumer := &mockConsumer{eventTypes: []string{"habits.habit.created"}}
	bus.RegisterConsumer(consumer)

	err := bus.Publish(context.Background(), "habits.habit.created", []byte("invalid json"))

	require.NoError(t, err)
	assert.Empty(t, consumer.events)
}

func TestInProcessEventBus_NoConsumers(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(quietLogger())

	failed := bus.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "unknown.event.type"})

	assert.Zero(t, failed)
	assert.NoError(t, bus.Close())
}

func TestPublishEvent_Envelope(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(quietLogger())
	consumer := &mockConsumer{eventTypes: []string{"habits.habit.created"}}
	bus.RegisterConsumer(consumer)

	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	event := &testEvent{
		BaseEvent: domain.NewBaseEvent("habit-1", "Habit", "habits.habit.created", at),
		Name:      "Read",
	}

	err := eventbus.PublishEvent(context.Background(), bus, event, "user-1")
	require.NoError(t, err)

	require.Len(t, consumer.events, 1)
	got := consumer.events[0]
	assert.Equal(t, event.EventID(), got.EventID)
	assert.Equal(t, "habit-1", got.AggregateID)
	assert.Equal(t, "Habit", got.AggregateType)
	assert.Equal(t, "user-1", got.Metadata.UserID)
	assert.True(t, got.OccurredAt.Equal(at))
	assert.JSONEq(t, `{"name":"Read"}`, string(got.Payload))
}

func TestNoopPublisher(t *testing.T) {
	p := eventbus.NewNoopPublisher(nil)

	assert.NoError(t, p.Publish(context.Background(), "habits.habit.created", []byte("{}")))
	assert.NoError(t, p.Close())
}

func TestLoggingConsumer(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bus := eventbus.NewInProcessEventBus(quietLogger())
	bus.RegisterConsumer(eventbus.NewLoggingConsumer(logger))

	failed := bus.Dispatch(context.Background(), &eventbus.ConsumedEvent{
		EventID:    "e1",
		RoutingKey: "habits.mood.logged",
	})

	assert.Zero(t, failed)
	assert.Contains(t, buf.String(), "routing_key=habits.mood.logged")
	assert.Contains(t, buf.String(), "event_id=e1")
}
