package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/habitat/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	at := time.Date(2024, 3, 4, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	event := domain.NewBaseEvent("habit-1", "Habit", "habits.habit.created", at)

	assert.NotEmpty(t, event.EventID())
	assert.Equal(t, "habit-1", event.AggregateID())
	assert.Equal(t, "Habit", event.AggregateType())
	assert.Equal(t, "habits.habit.created", event.RoutingKey())
	assert.True(t, event.OccurredAt().Equal(at))
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestNewBaseEvent_UniqueIDs(t *testing.T) {
	a := domain.NewBaseEvent("x", "Habit", "k", time.Now())
	b := domain.NewBaseEvent("x", "Habit", "k", time.Now())

	assert.NotEqual(t, a.EventID(), b.EventID())
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	event := domain.NewBaseEvent("habit-1", "Habit", "habits.habit.created", time.Now())
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: "corr-1",
		UserID:        "user-1",
	})

	metadata := event.Metadata()
	assert.Equal(t, "corr-1", metadata.CorrelationID)
	assert.Equal(t, "user-1", metadata.UserID)
}
