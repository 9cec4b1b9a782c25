// Package cloud contains the remote sync adapters for habitat snapshots.
package cloud

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// Sink upserts and fetches one user's snapshot on a remote backend.
type Sink interface {
	SyncToCloud(ctx context.Context, userID string, snap domain.Snapshot) error
	// FetchFromCloud returns nil when the backend holds no data for the user.
	FetchFromCloud(ctx context.Context, userID string) (*domain.Snapshot, error)
}

// timestamps are stored as text so the original offset, and with it the day key, survives.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// sortSnapshot orders fetched records deterministically.
func sortSnapshot(s *domain.Snapshot) {
	slices.SortFunc(s.Habits, func(a, b domain.Habit) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(s.HabitLogs, func(a, b domain.HabitLog) int {
		return cmp.Or(a.CompletedAt.Compare(b.CompletedAt), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(s.MoodLogs, func(a, b domain.MoodLog) int {
		return cmp.Or(a.LoggedAt.Compare(b.LoggedAt), cmp.Compare(a.ID, b.ID))
	})
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = id(item)
	}
	return out
}
