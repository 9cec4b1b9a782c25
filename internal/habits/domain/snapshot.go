package domain

import "slices"

// SchemaVersion is the current version of the persisted snapshot shape.
const SchemaVersion = 2

// Profile holds the user's profile fields.
type Profile struct {
	DisplayName        string `json:"displayName"`
	AvatarURL          string `json:"avatarUrl"`
	OnboardingComplete bool   `json:"onboardingComplete"`
}

// ProfileUpdate is a partial profile update; nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName        *string
	AvatarURL          *string
	OnboardingComplete *bool
}

// Apply merges the update into a copy of the profile.
func (p Profile) Apply(u ProfileUpdate) Profile {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	if u.OnboardingComplete != nil {
		p.OnboardingComplete = *u.OnboardingComplete
	}
	return p
}

// Snapshot is the complete state of one user's data. It is the unit of
// local persistence, remote sync, export and import.
type Snapshot struct {
	SchemaVersion int           `json:"schemaVersion"`
	Habits        []Habit       `json:"habits"`
	HabitLogs     []HabitLog    `json:"habitLogs"`
	MoodLogs      []MoodLog     `json:"moodLogs"`
	Profile       Profile       `json:"profile"`
	Momentum      MomentumState `json:"momentum"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Habits = make([]Habit, len(s.Habits))
	for i, h := range s.Habits {
		out.Habits[i] = h.clone()
	}
	out.HabitLogs = slices.Clone(s.HabitLogs)
	out.MoodLogs = slices.Clone(s.MoodLogs)
	if out.HabitLogs == nil {
		out.HabitLogs = []HabitLog{}
	}
	if out.MoodLogs == nil {
		out.MoodLogs = []MoodLog{}
	}
	return out
}

// FindHabit returns the habit with the given id.
func (s Snapshot) FindHabit(id string) (Habit, bool) {
	for _, h := range s.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return Habit{}, false
}

// ActiveHabits returns the non-archived habits.
func (s Snapshot) ActiveHabits() []Habit {
	out := make([]Habit, 0, len(s.Habits))
	for _, h := range s.Habits {
		if !h.IsArchived {
			out = append(out, h)
		}
	}
	return out
}

// NewSnapshot returns an empty snapshot with an initial momentum state.
func NewSnapshot(cfg MomentumConfig) Snapshot {
	return Snapshot{
		SchemaVersion: SchemaVersion,
		Habits:        []Habit{},
		HabitLogs:     []HabitLog{},
		MoodLogs:      []MoodLog{},
		Momentum:      NewMomentumState(cfg),
	}
}
