package domain

import "math"

// MomentumConfig is the tuning table for the momentum score.
type MomentumConfig struct {
	InitialScore        float64
	MinScore            float64
	MaxScore            float64
	FullCompletionBonus float64 // credit for moving a day from 0% to 100%
	ScoreIncrement      float64 // decay per missed habit
	DailyBaseDecay      float64
	ShieldThreshold     float64 // below this fraction of target a day counts as missed
}

// DefaultMomentumConfig returns the standard momentum constants.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		InitialScore:        50,
		MinScore:            0,
		MaxScore:            100,
		FullCompletionBonus: 5,
		ScoreIncrement:      3,
		DailyBaseDecay:      1,
		ShieldThreshold:     0.5,
	}
}

// MomentumState is the persisted momentum scalar and its day gates.
type MomentumState struct {
	Score                float64 `json:"momentumScore"`
	LastDecayDate        string  `json:"lastDecayDate"`
	PreviousWeekMomentum float64 `json:"previousWeekMomentum"`
	LastSnapshotDate     string  `json:"lastSnapshotDate"`
}

// NewMomentumState returns the initial state for a config.
func NewMomentumState(cfg MomentumConfig) MomentumState {
	return MomentumState{
		Score:                cfg.InitialScore,
		PreviousWeekMomentum: cfg.InitialScore,
	}
}

// ApplyCredit moves the score by the change in a day's completion percent.
// Percents are fractions in [0,1]. The result is clamped and the clamped
// excess is not remembered, so undoing a credit near a bound lands below or
// above the starting score.
func (m MomentumState) ApplyCredit(cfg MomentumConfig, oldPercent, newPercent float64) MomentumState {
	m.Score = cfg.clamp(m.Score + (newPercent-oldPercent)*cfg.FullCompletionBonus)
	return m
}

// ApplyDecay subtracts the base decay plus one increment per missed habit and
// records today as the decay day. The second return is false when decay was
// already applied today and the state is unchanged.
func (m MomentumState) ApplyDecay(cfg MomentumConfig, today string, missed int) (MomentumState, bool) {
	if m.LastDecayDate == today {
		return m, false
	}
	m.Score = cfg.clamp(m.Score - (cfg.ScoreIncrement*float64(missed) + cfg.DailyBaseDecay))
	m.LastDecayDate = today
	return m, true
}

// DecayDue reports whether decay has not yet run on today.
func (m MomentumState) DecayDue(today string) bool {
	return m.LastDecayDate != today
}

// MaybeSnapshot records the current score as last week's momentum when no
// snapshot exists, seven or more days have passed, or today is a new Sunday.
func (m MomentumState) MaybeSnapshot(today string) (MomentumState, bool) {
	due := m.LastSnapshotDate == "" ||
		DaysBetween(m.LastSnapshotDate, today) >= 7 ||
		(WeekdayOfDay(today) == Sunday && m.LastSnapshotDate != today)
	if !due {
		return m, false
	}
	m.PreviousWeekMomentum = m.Score
	m.LastSnapshotDate = today
	return m, true
}

// WeekDelta returns the change since the last weekly snapshot.
func (m MomentumState) WeekDelta() float64 {
	return m.Score - m.PreviousWeekMomentum
}

// Rounded returns the score rounded to the nearest integer.
func (m MomentumState) Rounded() int {
	return int(math.Round(m.Score))
}

func (c MomentumConfig) clamp(v float64) float64 {
	return math.Max(c.MinScore, math.Min(c.MaxScore, v))
}
