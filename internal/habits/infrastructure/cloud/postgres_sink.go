package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/migrations"
)

// PostgresSink mirrors a snapshot into per-collection tables keyed by record id.
type PostgresSink struct {
	conn   database.Connection
	logger *slog.Logger
}

// NewPostgresSink applies the remote schema and returns a sink.
func NewPostgresSink(ctx context.Context, conn database.Connection, logger *slog.Logger) (*PostgresSink, error) {
	if conn.Driver() != database.DriverPostgres {
		return nil, fmt.Errorf("postgres sink requires a postgres connection, got %s", conn.Driver())
	}
	if err := migrations.Run(ctx, conn); err != nil {
		return nil, fmt.Errorf("migrate remote schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSink{conn: conn, logger: logger.With("sink", "postgres")}, nil
}

// SyncToCloud upserts every record in one transaction and prunes records
// the snapshot no longer contains.
func (s *PostgresSink) SyncToCloud(ctx context.Context, userID string, snap domain.Snapshot) error {
	return database.InTx(ctx, s.conn, func(ctx context.Context) error {
		exec := database.ExecutorFromContext(ctx, s.conn)

		for _, h := range snap.Habits {
			if err := upsertHabit(ctx, exec, userID, h); err != nil {
				return err
			}
		}
		for _, l := range snap.HabitLogs {
			if _, err := exec.Exec(ctx, `
				INSERT INTO habit_logs (id, user_id, habit_id, completed_at, value, updated_at)
				VALUES ($1, $2, $3, $4, $5, NOW())
				ON CONFLICT (id) DO UPDATE SET
					habit_id = EXCLUDED.habit_id, completed_at = EXCLUDED.completed_at,
					value = EXCLUDED.value, updated_at = NOW()`,
				l.ID, userID, l.HabitID, formatTime(l.CompletedAt), l.Value); err != nil {
				return fmt.Errorf("upsert habit log %s: %w", l.ID, err)
			}
		}
		for _, m := range snap.MoodLogs {
			if _, err := exec.Exec(ctx, `
				INSERT INTO mood_logs (id, user_id, score, logged_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW())
				ON CONFLICT (id) DO UPDATE SET
					score = EXCLUDED.score, logged_at = EXCLUDED.logged_at, updated_at = NOW()`,
				m.ID, userID, m.Score, formatTime(m.LoggedAt)); err != nil {
				return fmt.Errorf("upsert mood log %s: %w", m.ID, err)
			}
		}
		if err := upsertProfile(ctx, exec, userID, snap.Profile, snap.Momentum); err != nil {
			return err
		}

		prune := []struct {
			table string
			keep  []string
		}{
			{"habit_logs", ids(snap.HabitLogs, func(l domain.HabitLog) string { return l.ID })},
			{"mood_logs", ids(snap.MoodLogs, func(m domain.MoodLog) string { return m.ID })},
			{"habits", ids(snap.Habits, func(h domain.Habit) string { return h.ID })},
		}
		for _, p := range prune {
			res, err := exec.Exec(ctx,
				`DELETE FROM `+p.table+` WHERE user_id = $1 AND NOT (id = ANY($2))`, userID, p.keep)
			if err != nil {
				return fmt.Errorf("prune %s: %w", p.table, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				s.logger.DebugContext(ctx, "pruned stale records", "table", p.table, "count", n)
			}
		}
		return nil
	})
}

func upsertHabit(ctx context.Context, exec database.Executor, userID string, h domain.Habit) error {
	schedule := make([]string, len(h.Schedule))
	for i, d := range h.Schedule {
		schedule[i] = string(d)
	}
	shielded := append([]string{}, h.ShieldedDays...)
	_, err := exec.Exec(ctx, `
		INSERT INTO habits (id, user_id, name, type, unit, target, schedule, streak, best_streak,
			shield_available, created_at, category, icon, is_archived, shielded_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, type = EXCLUDED.type, unit = EXCLUDED.unit,
			target = EXCLUDED.target, schedule = EXCLUDED.schedule, streak = EXCLUDED.streak,
			best_streak = EXCLUDED.best_streak, shield_available = EXCLUDED.shield_available,
			created_at = EXCLUDED.created_at, category = EXCLUDED.category, icon = EXCLUDED.icon,
			is_archived = EXCLUDED.is_archived, shielded_days = EXCLUDED.shielded_days,
			updated_at = NOW()`,
		h.ID, userID, h.Name, string(h.Type), h.Unit, h.Target, schedule, h.Streak, h.BestStreak,
		h.ShieldAvailable, formatTime(h.CreatedAt), h.Category, h.Icon, h.IsArchived, shielded)
	if err != nil {
		return fmt.Errorf("upsert habit %s: %w", h.ID, err)
	}
	return nil
}

func upsertProfile(ctx context.Context, exec database.Executor, userID string, p domain.Profile, m domain.MomentumState) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO profiles (user_id, display_name, avatar_url, onboarding_complete, momentum_score,
			last_decay_date, previous_week_momentum, last_snapshot_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name, avatar_url = EXCLUDED.avatar_url,
			onboarding_complete = EXCLUDED.onboarding_complete, momentum_score = EXCLUDED.momentum_score,
			last_decay_date = EXCLUDED.last_decay_date,
			previous_week_momentum = EXCLUDED.previous_week_momentum,
			last_snapshot_date = EXCLUDED.last_snapshot_date, updated_at = NOW()`,
		userID, p.DisplayName, p.AvatarURL, p.OnboardingComplete, m.Score,
		m.LastDecayDate, m.PreviousWeekMomentum, m.LastSnapshotDate)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// FetchFromCloud reads every record of the user. A user without a profile
// row and without records has no remote data.
func (s *PostgresSink) FetchFromCloud(ctx context.Context, userID string) (*domain.Snapshot, error) {
	snap := domain.Snapshot{
		SchemaVersion: domain.SchemaVersion,
		Habits:        []domain.Habit{},
		HabitLogs:     []domain.HabitLog{},
		MoodLogs:      []domain.MoodLog{},
	}

	hasProfile := true
	err := s.conn.QueryRow(ctx, `
		SELECT display_name, avatar_url, onboarding_complete, momentum_score, last_decay_date,
			previous_week_momentum, last_snapshot_date
		FROM profiles WHERE user_id = $1`, userID).
		Scan(&snap.Profile.DisplayName, &snap.Profile.AvatarURL, &snap.Profile.OnboardingComplete,
			&snap.Momentum.Score, &snap.Momentum.LastDecayDate, &snap.Momentum.PreviousWeekMomentum,
			&snap.Momentum.LastSnapshotDate)
	if database.IsNoRows(err) {
		hasProfile = false
	} else if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	if err := s.fetchHabits(ctx, userID, &snap); err != nil {
		return nil, err
	}
	if err := s.fetchHabitLogs(ctx, userID, &snap); err != nil {
		return nil, err
	}
	if err := s.fetchMoodLogs(ctx, userID, &snap); err != nil {
		return nil, err
	}

	if !hasProfile && len(snap.Habits) == 0 && len(snap.HabitLogs) == 0 && len(snap.MoodLogs) == 0 {
		return nil, nil
	}
	sortSnapshot(&snap)
	return &snap, nil
}

func (s *PostgresSink) fetchHabits(ctx context.Context, userID string, snap *domain.Snapshot) error {
	rows, err := s.conn.Query(ctx, `
		SELECT id, name, type, unit, target, schedule, streak, best_streak, shield_available,
			created_at, category, icon, is_archived, shielded_days
		FROM habits WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("fetch habits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h         domain.Habit
			habitType string
			schedule  []string
			createdAt string
		)
		if err := rows.Scan(&h.ID, &h.Name, &habitType, &h.Unit, &h.Target, &schedule, &h.Streak,
			&h.BestStreak, &h.ShieldAvailable, &createdAt, &h.Category, &h.Icon, &h.IsArchived,
			&h.ShieldedDays); err != nil {
			return fmt.Errorf("scan habit: %w", err)
		}
		h.Type = domain.HabitType(habitType)
		for _, d := range schedule {
			h.Schedule = append(h.Schedule, domain.Weekday(d))
		}
		if h.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("habit %s created_at: %w", h.ID, err)
		}
		if len(h.ShieldedDays) == 0 {
			h.ShieldedDays = nil
		}
		snap.Habits = append(snap.Habits, h)
	}
	return rows.Err()
}

func (s *PostgresSink) fetchHabitLogs(ctx context.Context, userID string, snap *domain.Snapshot) error {
	rows, err := s.conn.Query(ctx,
		`SELECT id, habit_id, completed_at, value FROM habit_logs WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("fetch habit logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l           domain.HabitLog
			completedAt string
		)
		if err := rows.Scan(&l.ID, &l.HabitID, &completedAt, &l.Value); err != nil {
			return fmt.Errorf("scan habit log: %w", err)
		}
		if l.CompletedAt, err = parseTime(completedAt); err != nil {
			return fmt.Errorf("habit log %s completed_at: %w", l.ID, err)
		}
		snap.HabitLogs = append(snap.HabitLogs, l)
	}
	return rows.Err()
}

func (s *PostgresSink) fetchMoodLogs(ctx context.Context, userID string, snap *domain.Snapshot) error {
	rows, err := s.conn.Query(ctx,
		`SELECT id, score, logged_at FROM mood_logs WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("fetch mood logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m        domain.MoodLog
			loggedAt string
		)
		if err := rows.Scan(&m.ID, &m.Score, &loggedAt); err != nil {
			return fmt.Errorf("scan mood log: %w", err)
		}
		if m.LoggedAt, err = parseTime(loggedAt); err != nil {
			return fmt.Errorf("mood log %s logged_at: %w", m.ID, err)
		}
		snap.MoodLogs = append(snap.MoodLogs, m)
	}
	return rows.Err()
}

// Ping checks the underlying connection.
func (s *PostgresSink) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}
