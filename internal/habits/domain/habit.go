package domain

import (
	"errors"
	"math"
	"slices"
	"strings"
	"time"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrHabitEmptyName = errors.New("habit name cannot be empty")
	ErrEmptySchedule  = errors.New("habit schedule cannot be empty")
	ErrInvalidTarget  = errors.New("habit target must be a positive finite number")
	ErrInvalidValue   = errors.New("logged value must be a non-negative finite number")
)

// HabitType represents how a habit's value is measured.
type HabitType string

const (
	HabitTypeSimple   HabitType = "simple"   // done / not done, target fixed at 1
	HabitTypeDuration HabitType = "duration" // minutes or similar
	HabitTypeCount    HabitType = "count"    // repeatable increments
)

// IsValid checks if the habit type is known.
func (t HabitType) IsValid() bool {
	switch t {
	case HabitTypeSimple, HabitTypeDuration, HabitTypeCount:
		return true
	default:
		return false
	}
}

// Defaults applied to new habits and backfilled into old persisted records.
const (
	DefaultCategory = "other"
	DefaultIcon     = "star"
	DefaultType     = HabitTypeSimple
)

// Habit is a recurring activity definition.
type Habit struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            HabitType `json:"type"`
	Unit            string    `json:"unit"`
	Target          float64   `json:"target"`
	Schedule        []Weekday `json:"schedule"`
	Streak          int       `json:"streak"`
	BestStreak      int       `json:"bestStreak"`
	ShieldAvailable bool      `json:"shieldAvailable"`
	CreatedAt       time.Time `json:"createdAt"`
	Category        string    `json:"category"`
	Icon            string    `json:"icon"`
	IsArchived      bool      `json:"isArchived"`
	// ShieldedDays lists the missed days a shield absorbed.
	ShieldedDays    []string  `json:"shieldedDays,omitempty"`
}

// HabitDraft holds the caller-supplied fields of a new habit.
type HabitDraft struct {
	Name     string    `validate:"required"`
	Type     HabitType `validate:"omitempty,oneof=simple duration count"`
	Unit     string
	Target   float64   `validate:"gt=0,finite"`
	Schedule []Weekday `validate:"required,min=1,dive,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	Category string
	Icon     string
}

// HabitUpdate is a partial update; nil fields are left unchanged.
type HabitUpdate struct {
	Name     *string
	Type     *HabitType
	Unit     *string
	Target   *float64
	Schedule []Weekday
	Category *string
	Icon     *string
}

// NewHabit creates a habit from a draft, applying defaults. The draft must already be valid.
func NewHabit(draft HabitDraft, now time.Time) Habit {
	h := Habit{
		ID:              NewID(),
		Name:            strings.TrimSpace(draft.Name),
		Type:            draft.Type,
		Unit:            draft.Unit,
		Target:          draft.Target,
		Schedule:        normalizeSchedule(draft.Schedule),
		ShieldAvailable: true,
		CreatedAt:       now,
		Category:        draft.Category,
		Icon:            draft.Icon,
	}
	h.applyDefaults()
	return h
}

// Apply merges a partial update into a copy of the habit.
func (h Habit) Apply(u HabitUpdate) Habit {
	if u.Name != nil {
		h.Name = strings.TrimSpace(*u.Name)
	}
	if u.Type != nil {
		h.Type = *u.Type
	}
	if u.Unit != nil {
		h.Unit = *u.Unit
	}
	if u.Target != nil {
		h.Target = *u.Target
	}
	if u.Schedule != nil {
		h.Schedule = normalizeSchedule(u.Schedule)
	}
	if u.Category != nil {
		h.Category = *u.Category
	}
	if u.Icon != nil {
		h.Icon = *u.Icon
	}
	h.applyDefaults()
	return h
}

func (h *Habit) applyDefaults() {
	if h.Type == "" {
		h.Type = DefaultType
	}
	if h.Type == HabitTypeSimple {
		h.Target = 1
	}
	if h.Category == "" {
		h.Category = DefaultCategory
	}
	if h.Icon == "" {
		h.Icon = DefaultIcon
	}
}

// IsScheduledOn reports whether the habit is active on a day key:
// the weekday is in the schedule and the day is not before creation.
func (h Habit) IsScheduledOn(day string) bool {
	if day < DayKey(h.CreatedAt) {
		return false
	}
	return h.HasWeekday(WeekdayOfDay(day))
}

// HasWeekday reports whether the tag is in the schedule.
func (h Habit) HasWeekday(w Weekday) bool {
	return slices.Contains(h.Schedule, w)
}

// CompletionRatio returns value/target, or 0 when the target is not positive.
func (h Habit) CompletionRatio(value float64) float64 {
	if h.Target <= 0 {
		return 0
	}
	return value / h.Target
}

// CompletionPercent returns min(1, value/target) as a fraction.
func (h Habit) CompletionPercent(value float64) float64 {
	return math.Max(0, math.Min(1, h.CompletionRatio(value)))
}

// IsComplete reports whether a logged value meets the target.
func (h Habit) IsComplete(value float64) bool {
	return h.CompletionRatio(value) >= 1
}

func (h Habit) clone() Habit {
	h.Schedule = slices.Clone(h.Schedule)
	h.ShieldedDays = slices.Clone(h.ShieldedDays)
	return h
}

// normalizeSchedule removes duplicates and orders tags Monday first.
func normalizeSchedule(days []Weekday) []Weekday {
	out := make([]Weekday, 0, len(days))
	for _, d := range AllWeekdays {
		if slices.Contains(days, d) {
			out = append(out, d)
		}
	}
	// Unknown tags are kept so validation can reject them.
	for _, d := range days {
		if !d.IsValid() && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}
