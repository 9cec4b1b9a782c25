package queries

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// HabitDTO is a habit with its state for a given day.
type HabitDTO struct {
	ID              string
	Name            string
	Type            domain.HabitType
	Unit            string
	Target          float64
	Schedule        []domain.Weekday
	Category        string
	Icon            string
	Streak          int
	BestStreak      int
	ShieldAvailable bool
	IsArchived      bool
	IsDueToday      bool
	CompletedToday  bool
	TodayValue      float64
	Health          int
	CreatedAt       time.Time
}

// ListHabitsQuery contains the parameters for listing habits.
type ListHabitsQuery struct {
	IncludeArchived bool
	OnlyArchived    bool
	OnlyDueToday    bool
	Category        string
	HasStreak       bool   // only habits with an active streak
	BrokenStreak    bool   // only habits that had a streak and lost it
	SortBy          string // "streak", "name", "created_at", "best_streak"
	SortOrder       string // "asc", "desc"
}

// ListHabitsHandler handles the ListHabitsQuery.
type ListHabitsHandler struct {
	analytics *Analytics
}

// NewListHabitsHandler creates a new ListHabitsHandler.
func NewListHabitsHandler(analytics *Analytics) *ListHabitsHandler {
	return &ListHabitsHandler{analytics: analytics}
}

// Handle executes the ListHabitsQuery.
func (h *ListHabitsHandler) Handle(_ context.Context, query ListHabitsQuery) ([]HabitDTO, error) {
	v := h.analytics.view()
	today := h.analytics.today()

	habits := slices.DeleteFunc(slices.Clone(v.snap.Habits), func(habit domain.Habit) bool {
		switch {
		case query.OnlyArchived && !habit.IsArchived:
			return true
		case !query.OnlyArchived && !query.IncludeArchived && habit.IsArchived:
			return true
		case query.OnlyDueToday && !habit.IsScheduledOn(today):
			return true
		case query.Category != "" && !strings.EqualFold(habit.Category, query.Category):
			return true
		case query.HasStreak && habit.Streak == 0:
			return true
		case query.BrokenStreak && (habit.BestStreak == 0 || habit.Streak > 0):
			return true
		}
		return false
	})

	sortHabits(habits, query.SortBy, query.SortOrder)

	dtos := make([]HabitDTO, len(habits))
	for i, habit := range habits {
		dtos[i] = toHabitDTO(h.analytics, v, habit, today)
	}
	return dtos, nil
}

func sortHabits(habits []domain.Habit, sortBy, sortOrder string) {
	var compare func(a, b domain.Habit) int
	switch sortBy {
	case "streak":
		compare = func(a, b domain.Habit) int { return cmp.Compare(a.Streak, b.Streak) }
	case "best_streak":
		compare = func(a, b domain.Habit) int { return cmp.Compare(a.BestStreak, b.BestStreak) }
	case "name":
		compare = func(a, b domain.Habit) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case "created_at":
		compare = func(a, b domain.Habit) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return
	}

	if sortOrder == "" {
		sortOrder = "desc"
		if sortBy == "name" {
			sortOrder = "asc"
		}
	}
	slices.SortStableFunc(habits, func(a, b domain.Habit) int {
		if sortOrder == "desc" {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func toHabitDTO(a *Analytics, v view, h domain.Habit, today string) HabitDTO {
	value, _ := v.value(h.ID, today)
	return HabitDTO{
		ID:              h.ID,
		Name:            h.Name,
		Type:            h.Type,
		Unit:            h.Unit,
		Target:          h.Target,
		Schedule:        h.Schedule,
		Category:        h.Category,
		Icon:            h.Icon,
		Streak:          h.Streak,
		BestStreak:      h.BestStreak,
		ShieldAvailable: h.ShieldAvailable,
		IsArchived:      h.IsArchived,
		IsDueToday:      h.IsScheduledOn(today),
		CompletedToday:  h.IsComplete(value),
		TodayValue:      value,
		Health:          a.healthOf(v, h, today),
		CreatedAt:       h.CreatedAt,
	}
}
