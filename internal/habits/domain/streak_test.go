package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func logOn(habitID, day string, value float64) HabitLog {
	t, _ := time.ParseInLocation(DayLayout, day, time.UTC)
	return HabitLog{ID: NewID(), HabitID: habitID, CompletedAt: t.Add(8 * time.Hour), Value: value}
}

func TestRecalculateStreak_WeekdayRun(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Read", Schedule: weekdays()}, created)
	logs := []HabitLog{
		logOn(h.ID, "2024-01-01", 1),
		logOn(h.ID, "2024-01-02", 1),
		logOn(h.ID, "2024-01-03", 1),
	}

	assert.Equal(t, StreakResult{Streak: 3, BestStreak: 3}, RecalculateStreak(h, logs, "2024-01-03"))
	assert.Equal(t, StreakResult{Streak: 0, BestStreak: 3}, RecalculateStreak(h, logs, "2024-01-04"),
		"an incomplete scheduled day resets the run")
}

func TestRecalculateStreak_WeekendIsSkipped(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Read", Schedule: weekdays()}, created)
	var logs []HabitLog
	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"} {
		logs = append(logs, logOn(h.ID, d, 1))
	}

	assert.Equal(t, 5, RecalculateStreak(h, logs, "2024-01-06").Streak, "Saturday carries Friday's run")
	assert.Equal(t, 5, RecalculateStreak(h, logs, "2024-01-07").Streak)
	assert.Equal(t, StreakResult{Streak: 6, BestStreak: 6}, RecalculateStreak(h, logs, "2024-01-08"))
}

func TestRecalculateStreak_SparseScheduleLooksBackFullWeek(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Review", Schedule: []Weekday{Monday}}, created)
	logs := []HabitLog{logOn(h.ID, "2024-01-01", 1), logOn(h.ID, "2024-01-08", 1)}

	assert.Equal(t, 2, RecalculateStreak(h, logs, "2024-01-14").Streak)
}

func TestRecalculateStreak_PartialValueIsNotComplete(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Run", Type: HabitTypeDuration, Target: 30, Schedule: AllWeekdays}, created)
	logs := []HabitLog{
		logOn(h.ID, "2024-01-01", 30),
		logOn(h.ID, "2024-01-02", 45),
		logOn(h.ID, "2024-01-03", 29),
	}

	assert.Equal(t, StreakResult{Streak: 0, BestStreak: 2}, RecalculateStreak(h, logs, "2024-01-03"))
}

func TestRecalculateStreak_BestNeverDrops(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Read", Schedule: AllWeekdays}, created)
	h.BestStreak = 9
	logs := []HabitLog{logOn(h.ID, "2024-01-01", 1), logOn(h.ID, "2024-01-02", 1)}

	got := RecalculateStreak(h, logs, "2024-01-02")

	assert.Equal(t, 2, got.Streak)
	assert.Equal(t, 9, got.BestStreak)
	assert.Equal(t, StreakResult{BestStreak: 9}, RecalculateStreak(h, nil, "2024-01-02"))
}

func TestRecalculateStreak_IgnoresOtherHabitsAndPreCreationLogs(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Read", Schedule: AllWeekdays}, created)
	logs := []HabitLog{
		logOn(h.ID, "2023-12-30", 1),
		logOn(h.ID, "2023-12-31", 1),
		logOn("other", "2024-01-01", 1),
		logOn(h.ID, "2024-01-02", 1),
	}

	assert.Equal(t, StreakResult{Streak: 1, BestStreak: 1}, RecalculateStreak(h, logs, "2024-01-02"))
}

func TestRecalculateStreak_StartsAtFirstLog(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Read", Schedule: AllWeekdays}, created)
	logs := []HabitLog{logOn(h.ID, "2024-01-10", 1), logOn(h.ID, "2024-01-11", 1)}

	assert.Equal(t, StreakResult{Streak: 2, BestStreak: 2}, RecalculateStreak(h, logs, "2024-01-11"))
}

func TestRecalculateStreak_ShieldedDayCarriesRun(t *testing.T) {
	h := NewHabit(HabitDraft{Name: "Read", Schedule: AllWeekdays}, created)
	h.ShieldedDays = []string{"2024-01-03"}
	logs := []HabitLog{
		logOn(h.ID, "2024-01-01", 1),
		logOn(h.ID, "2024-01-02", 1),
		logOn(h.ID, "2024-01-04", 1),
	}

	assert.Equal(t, StreakResult{Streak: 2, BestStreak: 2}, RecalculateStreak(h, logs, "2024-01-03"))
	assert.Equal(t, StreakResult{Streak: 3, BestStreak: 3}, RecalculateStreak(h, logs, "2024-01-04"))
	assert.Equal(t, StreakResult{Streak: 0, BestStreak: 3}, RecalculateStreak(h, logs, "2024-01-05"),
		"only the shielded day is spared")
}

func TestIndexLogsByDay_ForOneHabit(t *testing.T) {
	logs := []HabitLog{
		logOn("a", "2024-01-01", 1),
		logOn("b", "2024-01-01", 7),
		logOn("a", "2024-01-02", 3),
	}

	own := LogsForHabit(logs, "a")
	assert.Len(t, own, 2)
	assert.Equal(t, map[string]float64{"2024-01-01": 1, "2024-01-02": 3}, IndexLogsByDay(own))
	assert.Empty(t, LogsForHabit(logs, "missing"))
}
