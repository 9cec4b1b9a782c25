package application

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
	sharedDomain "github.com/felixgeelhaar/habitat/internal/shared/domain"
)

// AddHabit validates the draft and creates a habit with zeroed streaks and
// an available shield.
func (s *Store) AddHabit(ctx context.Context, draft domain.HabitDraft) (domain.Habit, error) {
	if err := domain.ValidateDraft(draft); err != nil {
		return domain.Habit{}, err
	}

	var created domain.Habit
	err := s.mutate(ctx, "add_habit", func(next *domain.Snapshot, now time.Time) (change, error) {
		created = domain.NewHabit(draft, now)
		next.Habits = append(next.Habits, created)
		return changed(domain.NewHabitCreated(created, now)), nil
	})
	return created, err
}

// UpdateHabit applies a partial update. The streak is recomputed when the
// target, schedule or type changes. Unknown ids are ignored.
func (s *Store) UpdateHabit(ctx context.Context, id string, u domain.HabitUpdate) error {
	return s.mutate(ctx, "update_habit", func(next *domain.Snapshot, now time.Time) (change, error) {
		h, ok := findHabit(next, id)
		if !ok {
			return unchanged, nil
		}
		merged := h.Apply(u)
		if err := domain.ValidateHabit(merged); err != nil {
			return unchanged, err
		}
		if merged.Target != h.Target || merged.Type != h.Type || !slices.Equal(merged.Schedule, h.Schedule) {
			res := domain.RecalculateStreak(merged, next.HabitLogs, domain.DayKey(now))
			merged.Streak, merged.BestStreak = res.Streak, res.BestStreak
		}
		*h = merged
		return changed(), nil
	})
}

// DeleteHabit removes a habit and all of its logs.
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	return s.BulkDelete(ctx, []string{id})
}

// ArchiveHabit hides a habit from active views; its logs are kept.
func (s *Store) ArchiveHabit(ctx context.Context, id string) error {
	return s.BulkArchive(ctx, []string{id})
}

// UnarchiveHabit restores an archived habit.
func (s *Store) UnarchiveHabit(ctx context.Context, id string) error {
	return s.BulkUnarchive(ctx, []string{id})
}

// ResetHabitStats zeroes a habit's streaks and deletes its logs.
func (s *Store) ResetHabitStats(ctx context.Context, id string) error {
	return s.mutate(ctx, "reset_habit", func(next *domain.Snapshot, _ time.Time) (change, error) {
		h, ok := findHabit(next, id)
		if !ok {
			return unchanged, nil
		}
		h.Streak, h.BestStreak = 0, 0
		h.ShieldedDays = nil
		next.HabitLogs = slices.DeleteFunc(next.HabitLogs, func(l domain.HabitLog) bool {
			return l.HabitID == id
		})
		return changed(), nil
	})
}

// BulkArchive archives every listed habit in one transition.
func (s *Store) BulkArchive(ctx context.Context, ids []string) error {
	return s.mutate(ctx, "archive_habits", func(next *domain.Snapshot, now time.Time) (change, error) {
		var events []sharedDomain.DomainEvent
		for i := range next.Habits {
			h := &next.Habits[i]
			if !slices.Contains(ids, h.ID) || h.IsArchived {
				continue
			}
			h.IsArchived = true
			events = append(events, domain.NewHabitArchived(*h, now))
		}
		if len(events) == 0 {
			return unchanged, nil
		}
		return changed(events...), nil
	})
}

// BulkUnarchive restores every listed habit in one transition.
func (s *Store) BulkUnarchive(ctx context.Context, ids []string) error {
	return s.mutate(ctx, "unarchive_habits", func(next *domain.Snapshot, _ time.Time) (change, error) {
		c := unchanged
		for i := range next.Habits {
			h := &next.Habits[i]
			if slices.Contains(ids, h.ID) && h.IsArchived {
				h.IsArchived = false
				c = changed()
			}
		}
		return c, nil
	})
}

// BulkDelete removes every listed habit and their logs in one transition.
func (s *Store) BulkDelete(ctx context.Context, ids []string) error {
	return s.mutate(ctx, "delete_habits", func(next *domain.Snapshot, now time.Time) (change, error) {
		removed := make(map[string]int)
		var events []sharedDomain.DomainEvent
		next.Habits = slices.DeleteFunc(next.Habits, func(h domain.Habit) bool {
			if !slices.Contains(ids, h.ID) {
				return false
			}
			removed[h.ID] = 0
			return true
		})
		if len(removed) == 0 {
			return unchanged, nil
		}
		next.HabitLogs = slices.DeleteFunc(next.HabitLogs, func(l domain.HabitLog) bool {
			if _, ok := removed[l.HabitID]; ok {
				removed[l.HabitID]++
				return true
			}
			return false
		})
		for _, id := range ids {
			if n, ok := removed[id]; ok {
				events = append(events, domain.NewHabitDeleted(domain.Habit{ID: id}, n, now))
			}
		}
		return changed(events...), nil
	})
}

// BulkChangeCategory moves every listed habit to category.
func (s *Store) BulkChangeCategory(ctx context.Context, ids []string, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return domain.NewValidationError("category", "category cannot be empty", nil)
	}
	return s.mutate(ctx, "change_category", func(next *domain.Snapshot, _ time.Time) (change, error) {
		c := unchanged
		for i := range next.Habits {
			h := &next.Habits[i]
			if slices.Contains(ids, h.ID) && h.Category != category {
				h.Category = category
				c = changed()
			}
		}
		return c, nil
	})
}

// UseShield marks a habit's shield as engaged. The shield protects the
// next missed scheduled day from the daily decay pass. No-op when the
// shield is already engaged.
func (s *Store) UseShield(ctx context.Context, habitID string) error {
	return s.mutate(ctx, "use_shield", func(next *domain.Snapshot, _ time.Time) (change, error) {
		h, ok := findHabit(next, habitID)
		if !ok || !h.ShieldAvailable {
			return unchanged, nil
		}
		h.ShieldAvailable = false
		return changed(), nil
	})
}
