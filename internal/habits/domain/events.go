package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/habitat/internal/shared/domain"
)

const (
	habitAggregate = "Habit"
	moodAggregate  = "Mood"
)

// Routing keys of the emitted events.
const (
	RoutingHabitCreated      = "habits.habit.created"
	RoutingHabitCompleted    = "habits.habit.completed"
	RoutingHabitStreakBroken = "habits.habit.streak_broken"
	RoutingHabitArchived     = "habits.habit.archived"
	RoutingHabitDeleted      = "habits.habit.deleted"
	RoutingMoodLogged        = "habits.mood.logged"
)

// HabitCreated is emitted when a habit is created.
type HabitCreated struct {
	sharedDomain.BaseEvent
	HabitID  string    `json:"habit_id"`
	Name     string    `json:"name"`
	Type     HabitType `json:"type"`
	Schedule []Weekday `json:"schedule"`
}

// NewHabitCreated creates a HabitCreated event.
func NewHabitCreated(h Habit, at time.Time) *HabitCreated {
	return &HabitCreated{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID, habitAggregate, RoutingHabitCreated, at),
		HabitID:   h.ID,
		Name:      h.Name,
		Type:      h.Type,
		Schedule:  h.Schedule,
	}
}

// HabitCompleted is emitted when a log reaches the habit's target.
type HabitCompleted struct {
	sharedDomain.BaseEvent
	HabitID string  `json:"habit_id"`
	Day     string  `json:"day"`
	Value   float64 `json:"value"`
	Streak  int     `json:"streak"`
}

// NewHabitCompleted creates a HabitCompleted event.
func NewHabitCompleted(h Habit, l HabitLog, at time.Time) *HabitCompleted {
	return &HabitCompleted{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID, habitAggregate, RoutingHabitCompleted, at),
		HabitID:   h.ID,
		Day:       l.Day(),
		Value:     l.Value,
		Streak:    h.Streak,
	}
}

// HabitStreakBroken is emitted when daily decay resets a streak.
type HabitStreakBroken struct {
	sharedDomain.BaseEvent
	HabitID    string `json:"habit_id"`
	LastStreak int    `json:"last_streak"`
	MissedDay  string `json:"missed_day"`
}

// NewHabitStreakBroken creates a HabitStreakBroken event.
func NewHabitStreakBroken(h Habit, missedDay string, lastStreak int, at time.Time) *HabitStreakBroken {
	return &HabitStreakBroken{
		BaseEvent:  sharedDomain.NewBaseEvent(h.ID, habitAggregate, RoutingHabitStreakBroken, at),
		HabitID:    h.ID,
		LastStreak: lastStreak,
		MissedDay:  missedDay,
	}
}

// HabitArchived is emitted when a habit is archived.
type HabitArchived struct {
	sharedDomain.BaseEvent
	HabitID string `json:"habit_id"`
}

// NewHabitArchived creates a HabitArchived event.
func NewHabitArchived(h Habit, at time.Time) *HabitArchived {
	return &HabitArchived{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID, habitAggregate, RoutingHabitArchived, at),
		HabitID:   h.ID,
	}
}

// HabitDeleted is emitted when a habit and its logs are removed.
type HabitDeleted struct {
	sharedDomain.BaseEvent
	HabitID     string `json:"habit_id"`
	LogsRemoved int    `json:"logs_removed"`
}

// NewHabitDeleted creates a HabitDeleted event.
func NewHabitDeleted(h Habit, logsRemoved int, at time.Time) *HabitDeleted {
	return &HabitDeleted{
		BaseEvent:   sharedDomain.NewBaseEvent(h.ID, habitAggregate, RoutingHabitDeleted, at),
		HabitID:     h.ID,
		LogsRemoved: logsRemoved,
	}
}

// MoodLogged is emitted when a day's mood is logged or updated.
type MoodLogged struct {
	sharedDomain.BaseEvent
	MoodID string `json:"mood_id"`
	Day    string `json:"day"`
	Score  int    `json:"score"`
}

// NewMoodLogged creates a MoodLogged event.
func NewMoodLogged(m MoodLog, at time.Time) *MoodLogged {
	return &MoodLogged{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID, moodAggregate, RoutingMoodLogged, at),
		MoodID:    m.ID,
		Day:       m.Day(),
		Score:     m.Score,
	}
}
