package queries

import (
	"context"
	"errors"
)

// ErrHabitNotFound is returned when a habit is not found.
var ErrHabitNotFound = errors.New("habit not found")

// GetHabitQuery contains the parameters for getting a single habit.
type GetHabitQuery struct {
	HabitID string
}

// GetHabitHandler handles the GetHabitQuery.
type GetHabitHandler struct {
	analytics *Analytics
}

// NewGetHabitHandler creates a new GetHabitHandler.
func NewGetHabitHandler(analytics *Analytics) *GetHabitHandler {
	return &GetHabitHandler{analytics: analytics}
}

// Handle executes the GetHabitQuery. Ids may be given as a unique prefix.
func (h *GetHabitHandler) Handle(_ context.Context, query GetHabitQuery) (*HabitDTO, error) {
	if query.HabitID == "" {
		return nil, ErrHabitNotFound
	}
	v := h.analytics.view()
	today := h.analytics.today()

	var match *HabitDTO
	for _, habit := range v.snap.Habits {
		if habit.ID == query.HabitID {
			dto := toHabitDTO(h.analytics, v, habit, today)
			return &dto, nil
		}
		if len(query.HabitID) < len(habit.ID) && habit.ID[:len(query.HabitID)] == query.HabitID {
			if match != nil {
				return nil, ErrAmbiguousHabitID
			}
			dto := toHabitDTO(h.analytics, v, habit, today)
			match = &dto
		}
	}
	if match == nil {
		return nil, ErrHabitNotFound
	}
	return match, nil
}

// ErrAmbiguousHabitID is returned when an id prefix matches several habits.
var ErrAmbiguousHabitID = errors.New("habit id prefix is ambiguous")
