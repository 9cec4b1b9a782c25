package domain

import "time"

// Mood score bounds.
const (
	MinMoodScore = 1
	MaxMoodScore = 10
)

// HabitLog records the value logged for a habit on one calendar day.
type HabitLog struct {
	ID          string    `json:"id"`
	HabitID     string    `json:"habitId"`
	CompletedAt time.Time `json:"completedAt"`
	Value       float64   `json:"value"`
}

// Day returns the logical day key of the log.
func (l HabitLog) Day() string {
	return DayKey(l.CompletedAt)
}

// MoodLog records the mood score for one calendar day.
type MoodLog struct {
	ID       string    `json:"id"`
	Score    int       `json:"score"`
	LoggedAt time.Time `json:"loggedAt"`
}

// Day returns the logical day key of the mood log.
func (m MoodLog) Day() string {
	return DayKey(m.LoggedAt)
}

// LogsForHabit returns the logs owned by a habit, in stored order.
func LogsForHabit(logs []HabitLog, habitID string) []HabitLog {
	out := make([]HabitLog, 0)
	for _, l := range logs {
		if l.HabitID == habitID {
			out = append(out, l)
		}
	}
	return out
}

// IndexLogsByDay maps day key to value for one habit's logs.
func IndexLogsByDay(logs []HabitLog) map[string]float64 {
	idx := make(map[string]float64, len(logs))
	for _, l := range logs {
		idx[l.Day()] = l.Value
	}
	return idx
}
