package domain

import "slices"

// StreakResult is the outcome of a streak recompute.
type StreakResult struct {
	Streak     int
	BestStreak int
}

// RecalculateStreak recomputes a habit's current and best streak from its full
// log history, scanning every day up to and including asOf.
//
// The scan starts at the later of the creation day and the first log day.
// Only scheduled days count; a scheduled day is complete when its log meets
// the target. An incomplete day the habit's shield covered leaves the running
// value untouched. The current streak is the running value at the last
// scheduled day on or before asOf, so an incomplete scheduled asOf yields 0.
// The best streak never drops below the habit's recorded best.
func RecalculateStreak(h Habit, logs []HabitLog, asOf string) StreakResult {
	result := StreakResult{BestStreak: h.BestStreak}

	values := IndexLogsByDay(LogsForHabit(logs, h.ID))
	first := ""
	for day := range values {
		if first == "" || day < first {
			first = day
		}
	}
	if first == "" {
		return result
	}

	start := DayKey(h.CreatedAt)
	if first > start {
		start = first
	}

	running := 0
	for day := start; day <= asOf; day = AddDays(day, 1) {
		if !h.IsScheduledOn(day) {
			continue
		}
		v, ok := values[day]
		switch {
		case ok && h.IsComplete(v):
			running++
			if running > result.BestStreak {
				result.BestStreak = running
			}
		case slices.Contains(h.ShieldedDays, day):
		default:
			running = 0
		}
		result.Streak = running
	}
	return result
}
