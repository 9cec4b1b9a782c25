package application

import (
	"context"
	"slices"
	"time"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
	sharedDomain "github.com/felixgeelhaar/habitat/internal/shared/domain"
)

// resolveDay turns "" into today's key and validates explicit dates.
func resolveDay(date string, now time.Time) (string, time.Time, error) {
	if date == "" {
		return domain.DayKey(now), domain.StartOfDay(now), nil
	}
	t, err := domain.ParseDay(date, now.Location())
	if err != nil {
		return "", time.Time{}, domain.NewValidationError("date", err.Error(), err)
	}
	return date, t, nil
}

// atWallClock returns the day at now's time of day.
func atWallClock(day, now time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
}

func findLog(logs []domain.HabitLog, habitID, day string) int {
	return slices.IndexFunc(logs, func(l domain.HabitLog) bool {
		return l.HabitID == habitID && l.Day() == day
	})
}

// recompute refreshes a habit's streaks from the full log set as of today.
func recompute(h *domain.Habit, logs []domain.HabitLog, today string) {
	res := domain.RecalculateStreak(*h, logs, today)
	h.Streak, h.BestStreak = res.Streak, res.BestStreak
}

// LogHabitCompletion records value for the habit on date ("" for today).
// An existing log for that day is updated in place. Unknown habits are ignored.
func (s *Store) LogHabitCompletion(ctx context.Context, habitID string, value float64, date string) error {
	if err := domain.ValidateLogValue(value); err != nil {
		return err
	}
	return s.mutate(ctx, "log_completion", func(next *domain.Snapshot, now time.Time) (change, error) {
		day, dayStart, err := resolveDay(date, now)
		if err != nil {
			return unchanged, err
		}
		h, ok := findHabit(next, habitID)
		if !ok {
			return unchanged, nil
		}

		oldValue := 0.0
		var logged domain.HabitLog
		if i := findLog(next.HabitLogs, habitID, day); i >= 0 {
			oldValue = next.HabitLogs[i].Value
			next.HabitLogs[i].Value = value
			logged = next.HabitLogs[i]
		} else {
			logged = domain.HabitLog{
				ID:          domain.NewID(),
				HabitID:     habitID,
				CompletedAt: atWallClock(dayStart, now),
				Value:       value,
			}
			next.HabitLogs = append(next.HabitLogs, logged)
		}

		recompute(h, next.HabitLogs, domain.DayKey(now))
		next.Momentum = next.Momentum.ApplyCredit(s.cfg, h.CompletionPercent(oldValue), h.CompletionPercent(value))

		var events []sharedDomain.DomainEvent
		if !h.IsComplete(oldValue) && h.IsComplete(value) {
			events = append(events, domain.NewHabitCompleted(*h, logged, now))
		}
		return changed(events...), nil
	})
}

// RemoveHabitCompletion deletes the habit's log for date ("" for today) and
// reverses its momentum credit. No-op when there is no such log.
func (s *Store) RemoveHabitCompletion(ctx context.Context, habitID string, date string) error {
	return s.mutate(ctx, "remove_completion", func(next *domain.Snapshot, now time.Time) (change, error) {
		day, _, err := resolveDay(date, now)
		if err != nil {
			return unchanged, err
		}
		h, ok := findHabit(next, habitID)
		if !ok {
			return unchanged, nil
		}
		i := findLog(next.HabitLogs, habitID, day)
		if i < 0 {
			return unchanged, nil
		}

		oldValue := next.HabitLogs[i].Value
		next.HabitLogs = slices.Delete(next.HabitLogs, i, i+1)
		recompute(h, next.HabitLogs, domain.DayKey(now))
		next.Momentum = next.Momentum.ApplyCredit(s.cfg, h.CompletionPercent(oldValue), 0)
		return changed(), nil
	})
}

// LogMood records the mood score for date ("" for today), replacing any
// score already logged that day.
func (s *Store) LogMood(ctx context.Context, score int, date string) error {
	if err := domain.ValidateMoodScore(score); err != nil {
		return err
	}
	return s.mutate(ctx, "log_mood", func(next *domain.Snapshot, now time.Time) (change, error) {
		day, dayStart, err := resolveDay(date, now)
		if err != nil {
			return unchanged, err
		}

		i := slices.IndexFunc(next.MoodLogs, func(m domain.MoodLog) bool { return m.Day() == day })
		var mood domain.MoodLog
		if i >= 0 {
			next.MoodLogs[i].Score = score
			mood = next.MoodLogs[i]
		} else {
			mood = domain.MoodLog{ID: domain.NewID(), Score: score, LoggedAt: atWallClock(dayStart, now)}
			next.MoodLogs = append(next.MoodLogs, mood)
		}
		return changed(domain.NewMoodLogged(mood, now)), nil
	})
}

// DecayResult reports what a daily decay pass did.
type DecayResult struct {
	Applied         bool
	Missed          int
	ShieldsConsumed []string
	SnapshotTaken   bool
	Score           float64
}

// ApplyDailyDecay runs the once-per-day momentum pass: the weekly snapshot,
// then a decay for each habit missed yesterday. A missed habit with an
// engaged shield is spared and its shield becomes available again; any
// other missed habit loses its streak. Repeated calls on the same day do nothing.
func (s *Store) ApplyDailyDecay(ctx context.Context) (DecayResult, error) {
	var result DecayResult
	err := s.mutate(ctx, "daily_decay", func(next *domain.Snapshot, now time.Time) (change, error) {
		today := domain.DayKey(now)
		if !next.Momentum.DecayDue(today) {
			result.Score = next.Momentum.Score
			return unchanged, nil
		}

		next.Momentum, result.SnapshotTaken = next.Momentum.MaybeSnapshot(today)

		yesterday := domain.AddDays(today, -1)
		var events []sharedDomain.DomainEvent
		for i := range next.Habits {
			h := &next.Habits[i]
			if h.IsArchived || !h.IsScheduledOn(yesterday) {
				continue
			}
			value := 0.0
			if j := findLog(next.HabitLogs, h.ID, yesterday); j >= 0 {
				value = next.HabitLogs[j].Value
			}
			if h.CompletionRatio(value) >= s.cfg.ShieldThreshold {
				continue
			}
			if !h.ShieldAvailable {
				h.ShieldAvailable = true
				h.ShieldedDays = append(h.ShieldedDays, yesterday)
				result.ShieldsConsumed = append(result.ShieldsConsumed, h.ID)
				continue
			}
			result.Missed++
			if h.Streak > 0 {
				events = append(events, domain.NewHabitStreakBroken(*h, yesterday, h.Streak, now))
			}
			h.Streak = 0
		}

		next.Momentum, result.Applied = next.Momentum.ApplyDecay(s.cfg, today, result.Missed)
		result.Score = next.Momentum.Score
		s.logger.InfoContext(ctx, "daily decay applied",
			"day", today,
			"missed", result.Missed,
			"shields_consumed", len(result.ShieldsConsumed),
			"momentum", next.Momentum.Rounded(),
		)
		return changed(events...), nil
	})
	return result, err
}
