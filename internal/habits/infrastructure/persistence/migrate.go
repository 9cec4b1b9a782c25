// Package persistence stores the habitat snapshot document locally and
// migrates documents written by older versions.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// ErrUnsupportedVersion is returned for documents newer than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")

type document = map[string]any

// migration upgrades a document from version n to n+1.
type migration func(doc document, cfg domain.MomentumConfig)

// migrationSteps[n] upgrades version n to n+1.
var migrationSteps = []migration{
	migrateV0ToV1,
	migrateV1ToV2,
}

// Decode parses a persisted document of any known version into a current
// snapshot. Empty input yields a fresh snapshot.
func Decode(raw []byte, cfg domain.MomentumConfig) (domain.Snapshot, error) {
	if len(raw) == 0 {
		return domain.NewSnapshot(cfg), nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc == nil {
		return domain.NewSnapshot(cfg), nil
	}

	version := 0
	if v, ok := doc["schemaVersion"].(float64); ok {
		version = int(v)
	}
	if version > domain.SchemaVersion {
		return domain.Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	for ; version < domain.SchemaVersion; version++ {
		migrationSteps[version](doc, cfg)
	}
	doc["schemaVersion"] = domain.SchemaVersion

	upgraded, err := json.Marshal(doc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("encode migrated snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(upgraded, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode migrated snapshot: %w", err)
	}
	return normalize(snap), nil
}

// Encode serializes a snapshot at the current schema version.
func Encode(s domain.Snapshot) ([]byte, error) {
	s.SchemaVersion = domain.SchemaVersion
	raw, err := json.Marshal(normalize(s))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

// Migrate backfills defaults into a snapshot from an import or a remote fetch.
func Migrate(s domain.Snapshot, cfg domain.MomentumConfig) (domain.Snapshot, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return Decode(raw, cfg)
}

// migrateV0ToV1 backfills the habit fields added after the first release.
func migrateV0ToV1(doc document, _ domain.MomentumConfig) {
	habits, _ := doc["habits"].([]any)
	for _, item := range habits {
		h, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := h["bestStreak"]; !ok {
			h["bestStreak"] = numberOr(h["streak"], 0)
		}
		setDefault(h, "category", domain.DefaultCategory)
		setDefault(h, "icon", domain.DefaultIcon)
		setDefault(h, "type", string(domain.DefaultType))
		setDefault(h, "unit", "")
		setDefault(h, "isArchived", false)
		setDefault(h, "shieldAvailable", true)
		if numberOr(h["target"], 0) <= 0 {
			h["target"] = 1.0
		}
		if s, ok := h["schedule"].([]any); !ok || len(s) == 0 {
			all := make([]any, len(domain.AllWeekdays))
			for i, d := range domain.AllWeekdays {
				all[i] = string(d)
			}
			h["schedule"] = all
		}
	}
	for _, key := range []string{"habits", "habitLogs", "moodLogs"} {
		if _, ok := doc[key].([]any); !ok {
			doc[key] = []any{}
		}
	}
}

// migrateV1ToV2 moves the top-level momentum fields into the momentum block.
func migrateV1ToV2(doc document, cfg domain.MomentumConfig) {
	if _, ok := doc["momentum"].(map[string]any); ok {
		return
	}
	score := numberOr(doc["momentumScore"], cfg.InitialScore)
	m := map[string]any{
		"momentumScore":        score,
		"previousWeekMomentum": numberOr(doc["previousWeekMomentum"], score),
		"lastDecayDate":        stringOr(doc["lastDecayDate"], ""),
		"lastSnapshotDate":     "",
	}
	for _, key := range []string{"momentumScore", "previousWeekMomentum", "lastDecayDate"} {
		delete(doc, key)
	}
	doc["momentum"] = m
}

func normalize(s domain.Snapshot) domain.Snapshot {
	if s.Habits == nil {
		s.Habits = []domain.Habit{}
	}
	if s.HabitLogs == nil {
		s.HabitLogs = []domain.HabitLog{}
	}
	if s.MoodLogs == nil {
		s.MoodLogs = []domain.MoodLog{}
	}
	for i := range s.Habits {
		h := &s.Habits[i]
		if h.Type == "" {
			h.Type = domain.DefaultType
		}
		if h.Type == domain.HabitTypeSimple || h.Target <= 0 {
			h.Target = 1
		}
		if h.Category == "" {
			h.Category = domain.DefaultCategory
		}
		if h.Icon == "" {
			h.Icon = domain.DefaultIcon
		}
		if len(h.Schedule) == 0 {
			h.Schedule = slices.Clone(domain.AllWeekdays)
		}
		if h.BestStreak < h.Streak {
			h.BestStreak = h.Streak
		}
	}
	return s
}

func setDefault(m map[string]any, key string, value any) {
	if v, ok := m[key]; !ok || v == nil {
		m[key] = value
	}
}

func numberOr(v any, fallback float64) float64 {
	if n, ok := v.(float64); ok {
		return n
	}
	return fallback
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
