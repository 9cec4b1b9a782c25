// Package application holds the habitat entity store: the single owner of
// habits, logs, mood and momentum, with local persistence and debounced
// remote sync.
package application

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
	"github.com/felixgeelhaar/habitat/internal/habits/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/habitat/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/habitat/internal/shared/domain"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

// Default sync timings.
const (
	DefaultSyncDebounce = 500 * time.Millisecond
	DefaultSyncTimeout  = 10 * time.Second
)

// LocalStore is durable key-value storage for the whole snapshot document.
type LocalStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, value []byte) error
}

// CloudSink is the remote sync collaborator. Writes are upserts by id.
type CloudSink interface {
	SyncToCloud(ctx context.Context, userID string, snap domain.Snapshot) error
	// FetchFromCloud returns nil when the remote holds no data.
	FetchFromCloud(ctx context.Context, userID string) (*domain.Snapshot, error)
}

// Options configures a Store. Zero values pick defaults; Local is required.
type Options struct {
	Clock     func() time.Time
	Logger    *slog.Logger
	Metrics   observability.Metrics
	Publisher eventbus.Publisher
	Local     LocalStore
	// Cloud is optional; without it the store runs local-only.
	Cloud        CloudSink
	UserID       string
	Momentum     domain.MomentumConfig
	SyncDebounce time.Duration
	SyncTimeout  time.Duration
}

// Store owns one user's collections. Mutations are serialized by a mutex;
// each one persists locally before returning and schedules a debounced sync.
type Store struct {
	mu      sync.Mutex
	state   domain.Snapshot
	pending []sharedDomain.DomainEvent

	clock     func() time.Time
	logger    *slog.Logger
	metrics   observability.Metrics
	publisher eventbus.Publisher
	local     LocalStore
	cloud     CloudSink
	userID    string
	cfg       domain.MomentumConfig
	debounce  time.Duration
	timeout   time.Duration

	// syncRun serializes sync runs; statusMu guards the fields below it.
	syncRun  sync.Mutex
	statusMu sync.Mutex
	timer    *time.Timer
	dirty    bool
	closed   bool
	status   SyncStatus
}

// NewStore loads and migrates the local document and returns a ready store.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.Local == nil {
		return nil, fmt.Errorf("local store is required")
	}
	s := &Store{
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		local:     opts.Local,
		cloud:     opts.Cloud,
		userID:    cmp.Or(opts.UserID, "local"),
		cfg:       opts.Momentum,
		debounce:  cmp.Or(opts.SyncDebounce, DefaultSyncDebounce),
		timeout:   cmp.Or(opts.SyncTimeout, DefaultSyncTimeout),
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "habit_store")
	if s.metrics == nil {
		s.metrics = observability.NoopMetrics{}
	}
	if s.publisher == nil {
		s.publisher = eventbus.NewNoopPublisher(s.logger)
	}
	if s.cfg == (domain.MomentumConfig{}) {
		s.cfg = domain.DefaultMomentumConfig()
	}

	raw, err := s.local.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	state, err := persistence.Decode(raw, s.cfg)
	if err != nil {
		return nil, err
	}
	s.state = state
	s.metrics.Gauge(observability.MetricMomentumScore, s.state.Momentum.Score)
	s.logger.DebugContext(ctx, "store loaded",
		"habits", len(state.Habits),
		"habit_logs", len(state.HabitLogs),
		"mood_logs", len(state.MoodLogs),
	)
	return s, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Export returns the current state in its serializable form.
func (s *Store) Export() domain.Snapshot {
	snap := s.Snapshot()
	snap.SchemaVersion = domain.SchemaVersion
	return snap
}

// UserID returns the user the store syncs as.
func (s *Store) UserID() string {
	return s.userID
}

// MomentumConfig returns the momentum constants in use.
func (s *Store) MomentumConfig() domain.MomentumConfig {
	return s.cfg
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.clock()
}

// change is the outcome of a mutation body.
type change struct {
	events  []sharedDomain.DomainEvent
	changed bool
}

func changed(events ...sharedDomain.DomainEvent) change {
	return change{events: events, changed: true}
}

var unchanged = change{}

// mutate runs fn against a copy of the state. On success the copy becomes
// the state, is saved locally and a sync is scheduled. A validation error
// from fn leaves state untouched.
func (s *Store) mutate(ctx context.Context, op string, fn func(next *domain.Snapshot, now time.Time) (change, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	next := s.state.Clone()
	c, err := fn(&next, now)
	if err != nil {
		return err
	}
	if !c.changed {
		return nil
	}

	s.state = next
	if len(c.events) > 0 {
		sharedApplication.ApplyEventMetadata(c.events, sharedApplication.EventMetadataFromContext(ctx, s.userID))
		s.pending = append(s.pending, c.events...)
	}
	s.metrics.Counter(observability.MetricMutationsTotal, 1, observability.T("op", op))
	s.metrics.Gauge(observability.MetricMomentumScore, s.state.Momentum.Score)

	persistErr := s.persistLocked(ctx)
	s.scheduleSync()
	return persistErr
}

// persistLocked saves the state document. The caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	raw, err := persistence.Encode(s.state)
	if err == nil {
		err = s.local.Save(ctx, raw)
	}
	if err != nil {
		s.metrics.Counter(observability.MetricLocalSaves, 1, observability.T("result", "failure"))
		s.logger.ErrorContext(ctx, "failed to persist state", observability.ErrorKey, err)
		return fmt.Errorf("persist state: %w", err)
	}
	s.metrics.Counter(observability.MetricLocalSaves, 1, observability.T("result", "success"))
	return nil
}

// Import replaces every collection with the snapshot, after migrating it
// to the current schema.
func (s *Store) Import(ctx context.Context, snap domain.Snapshot) error {
	migrated, err := persistence.Migrate(snap, s.cfg)
	if err != nil {
		return domain.NewValidationError("snapshot", err.Error(), err)
	}
	for _, h := range migrated.Habits {
		if err := domain.ValidateHabit(h); err != nil {
			return err
		}
	}
	for _, m := range migrated.MoodLogs {
		if err := domain.ValidateMoodScore(m.Score); err != nil {
			return err
		}
	}
	return s.mutate(ctx, "import", func(next *domain.Snapshot, _ time.Time) (change, error) {
		*next = migrated
		return changed(), nil
	})
}

// UpdateProfile merges a partial profile update.
func (s *Store) UpdateProfile(ctx context.Context, u domain.ProfileUpdate) error {
	return s.mutate(ctx, "update_profile", func(next *domain.Snapshot, _ time.Time) (change, error) {
		next.Profile = next.Profile.Apply(u)
		return changed(), nil
	})
}

func findHabit(s *domain.Snapshot, id string) (*domain.Habit, bool) {
	for i := range s.Habits {
		if s.Habits[i].ID == id {
			return &s.Habits[i], true
		}
	}
	return nil, false
}
