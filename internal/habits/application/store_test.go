package application

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
	"github.com/felixgeelhaar/habitat/internal/habits/infrastructure/persistence"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

// monday is 2024-01-01 09:00 UTC.
var monday = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) SyncToCloud(ctx context.Context, userID string, snap domain.Snapshot) error {
	args := m.Called(ctx, userID, snap)
	return args.Error(0)
}

func (m *mockSink) FetchFromCloud(ctx context.Context, userID string) (*domain.Snapshot, error) {
	args := m.Called(ctx, userID)
	snap, _ := args.Get(0).(*domain.Snapshot)
	return snap, args.Error(1)
}

type recordingConsumer struct {
	mu     sync.Mutex
	events []*eventbus.ConsumedEvent
}

func (c *recordingConsumer) EventTypes() []string { return []string{eventbus.WildcardEventType} }

func (c *recordingConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConsumer) RoutingKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.RoutingKey
	}
	return out
}

type harness struct {
	store    *Store
	local    *persistence.MemoryStore
	clock    *fakeClock
	metrics  *observability.InMemoryMetrics
	consumer *recordingConsumer
}

func newHarness(t *testing.T, cloud CloudSink) *harness {
	t.Helper()
	h := &harness{
		local:    persistence.NewMemoryStore(nil),
		clock:    &fakeClock{now: monday},
		metrics:  observability.NewInMemoryMetrics(),
		consumer: &recordingConsumer{},
	}
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(h.consumer)

	opts := Options{
		Clock:        h.clock.Now,
		Metrics:      h.metrics,
		Publisher:    bus,
		Local:        h.local,
		UserID:       "user-1",
		Cloud:        cloud,
		SyncDebounce: time.Hour,
	}
	store, err := NewStore(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	h.store = store
	return h
}

func (h *harness) addDaily(t *testing.T, name string) domain.Habit {
	t.Helper()
	habit, err := h.store.AddHabit(context.Background(), domain.HabitDraft{Name: name, Schedule: domain.AllWeekdays})
	require.NoError(t, err)
	return habit
}

func (h *harness) habit(t *testing.T, id string) domain.Habit {
	t.Helper()
	got, ok := h.store.Snapshot().FindHabit(id)
	require.True(t, ok)
	return got
}

func TestNewStore_RequiresLocal(t *testing.T) {
	_, err := NewStore(context.Background(), Options{})
	assert.Error(t, err)
}

func TestNewStore_StartsEmpty(t *testing.T) {
	h := newHarness(t, nil)

	snap := h.store.Snapshot()
	assert.Empty(t, snap.Habits)
	assert.Equal(t, 50.0, snap.Momentum.Score)
	assert.Equal(t, "user-1", h.store.UserID())
	assert.False(t, h.store.SyncStatus().Enabled)
}

func TestAddHabit(t *testing.T) {
	h := newHarness(t, nil)

	habit := h.addDaily(t, "  Read  ")

	assert.Equal(t, "Read", habit.Name)
	assert.True(t, habit.ShieldAvailable)
	assert.Zero(t, habit.Streak)
	assert.Equal(t, monday, habit.CreatedAt)
	assert.Len(t, h.store.Snapshot().Habits, 1)
	assert.Equal(t, 1, h.local.Saves())
	assert.Equal(t, int64(1), h.metrics.GetCounter(observability.MetricMutationsTotal, observability.T("op", "add_habit")))
}

func TestAddHabit_ValidationLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, nil)
	before := h.store.Snapshot()

	_, err := h.store.AddHabit(context.Background(), domain.HabitDraft{Name: " ", Schedule: domain.AllWeekdays})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = h.store.AddHabit(context.Background(), domain.HabitDraft{Name: "Run", Schedule: []domain.Weekday{}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, before, h.store.Snapshot())
	assert.Zero(t, h.local.Saves())
}

func TestLogHabitCompletion_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")

	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))

	snap := h.store.Snapshot()
	require.Len(t, snap.HabitLogs, 1)
	assert.Equal(t, 55.0, snap.Momentum.Score, "credited once")
	assert.Equal(t, 1, h.habit(t, habit.ID).Streak)
}

func TestLogThenRemove_ConservesMomentum(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	water, err := h.store.AddHabit(ctx, domain.HabitDraft{
		Name: "Water", Type: domain.HabitTypeCount, Target: 8, Schedule: domain.AllWeekdays,
	})
	require.NoError(t, err)

	require.NoError(t, h.store.LogHabitCompletion(ctx, water.ID, 4, ""))
	assert.Equal(t, 52.5, h.store.Snapshot().Momentum.Score)
	require.NoError(t, h.store.LogHabitCompletion(ctx, water.ID, 12, ""))
	assert.Equal(t, 55.0, h.store.Snapshot().Momentum.Score, "credit is capped at the target")

	require.NoError(t, h.store.RemoveHabitCompletion(ctx, water.ID, ""))
	snap := h.store.Snapshot()
	assert.Empty(t, snap.HabitLogs)
	assert.Equal(t, 50.0, snap.Momentum.Score)
	assert.Zero(t, h.habit(t, water.ID).Streak)

	require.NoError(t, h.store.RemoveHabitCompletion(ctx, water.ID, ""), "removing nothing is a no-op")
}

func TestLogThenRemove_NearMaxLosesClampedCredit(t *testing.T) {
	ctx := context.Background()
	cfg := domain.DefaultMomentumConfig()
	cfg.InitialScore = 98
	store, err := NewStore(ctx, Options{
		Clock:        (&fakeClock{now: monday}).Now,
		Local:        persistence.NewMemoryStore(nil),
		Momentum:     cfg,
		SyncDebounce: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })
	habit, err := store.AddHabit(ctx, domain.HabitDraft{Name: "Read", Schedule: domain.AllWeekdays})
	require.NoError(t, err)

	require.NoError(t, store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	assert.Equal(t, 100.0, store.Snapshot().Momentum.Score)
	require.NoError(t, store.RemoveHabitCompletion(ctx, habit.ID, ""))
	assert.Equal(t, 95.0, store.Snapshot().Momentum.Score)
}

func TestLogHabitCompletion_Validation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	saves := h.local.Saves()

	var verr *domain.ValidationError
	err := h.store.LogHabitCompletion(ctx, habit.ID, -1, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "value", verr.Field)

	err = h.store.LogHabitCompletion(ctx, habit.ID, 1, "2024-13-40")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)

	require.NoError(t, h.store.LogHabitCompletion(ctx, "unknown", 1, ""), "unknown habits are ignored")
	assert.Empty(t, h.store.Snapshot().HabitLogs)
	assert.Equal(t, saves, h.local.Saves())
}

func TestLogHabitCompletion_RejectsNonFiniteValues(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	saves := h.local.Saves()

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := h.store.LogHabitCompletion(ctx, habit.ID, v, "")
		assert.ErrorIs(t, err, domain.ErrInvalidValue, v)
	}

	snap := h.store.Snapshot()
	assert.Empty(t, snap.HabitLogs)
	assert.Equal(t, 50.0, snap.Momentum.Score)
	assert.Equal(t, saves, h.local.Saves(), "rejected before any persist")

	require.NoError(t, h.store.LogMood(ctx, 5, ""), "store keeps persisting after a rejected value")
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	assert.Equal(t, 55.0, h.store.Snapshot().Momentum.Score)
}

func TestAddHabit_RejectsInfiniteTarget(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.store.AddHabit(context.Background(), domain.HabitDraft{
		Name: "Water", Type: domain.HabitTypeCount, Target: math.Inf(1), Schedule: domain.AllWeekdays,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
	assert.Empty(t, h.store.Snapshot().Habits)
}

func TestLogHabitCompletion_PastDateUsesWallClock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	h.clock.Advance(2*24*time.Hour + 90*time.Minute)

	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, "2024-01-02"))

	logs := h.store.Snapshot().HabitLogs
	require.Len(t, logs, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC), logs[0].CompletedAt)
	assert.Zero(t, h.habit(t, habit.ID).Streak, "today is scheduled and not done")
	assert.Equal(t, 1, h.habit(t, habit.ID).BestStreak)
}

func TestLogMood(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	assert.ErrorIs(t, h.store.LogMood(ctx, 0, ""), domain.ErrValidation)
	assert.ErrorIs(t, h.store.LogMood(ctx, 11, ""), domain.ErrValidation)

	require.NoError(t, h.store.LogMood(ctx, 4, ""))
	require.NoError(t, h.store.LogMood(ctx, 8, ""))
	require.NoError(t, h.store.LogMood(ctx, 6, "2023-12-31"))

	moods := h.store.Snapshot().MoodLogs
	require.Len(t, moods, 2)
	assert.Equal(t, 8, moods[0].Score, "same day replaces")
	assert.Equal(t, "2023-12-31", moods[1].Day())
}

func TestUpdateHabit_RecomputesStreak(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	run, err := h.store.AddHabit(ctx, domain.HabitDraft{
		Name: "Run", Type: domain.HabitTypeCount, Target: 2, Schedule: domain.AllWeekdays,
	})
	require.NoError(t, err)
	require.NoError(t, h.store.LogHabitCompletion(ctx, run.ID, 1, ""))
	assert.Zero(t, h.habit(t, run.ID).Streak)

	target := 1.0
	require.NoError(t, h.store.UpdateHabit(ctx, run.ID, domain.HabitUpdate{Target: &target}))
	assert.Equal(t, 1, h.habit(t, run.ID).Streak)

	empty := ""
	err = h.store.UpdateHabit(ctx, run.ID, domain.HabitUpdate{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Run", h.habit(t, run.ID).Name)
}

func TestArchive_ExcludesButRetains(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))

	require.NoError(t, h.store.ArchiveHabit(ctx, habit.ID))

	snap := h.store.Snapshot()
	assert.Empty(t, snap.ActiveHabits())
	assert.Len(t, snap.Habits, 1)
	assert.Len(t, snap.HabitLogs, 1)

	require.NoError(t, h.store.UnarchiveHabit(ctx, habit.ID))
	assert.Len(t, h.store.Snapshot().ActiveHabits(), 1)
}

func TestBulkOperations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a := h.addDaily(t, "A")
	b := h.addDaily(t, "B")
	c := h.addDaily(t, "C")
	require.NoError(t, h.store.LogHabitCompletion(ctx, a.ID, 1, ""))
	require.NoError(t, h.store.LogHabitCompletion(ctx, b.ID, 1, ""))

	require.NoError(t, h.store.BulkChangeCategory(ctx, []string{a.ID, c.ID}, "health"))
	assert.Equal(t, "health", h.habit(t, a.ID).Category)
	assert.Equal(t, domain.DefaultCategory, h.habit(t, b.ID).Category)
	assert.ErrorIs(t, h.store.BulkChangeCategory(ctx, []string{a.ID}, "  "), domain.ErrValidation)

	require.NoError(t, h.store.BulkArchive(ctx, []string{a.ID, b.ID}))
	assert.Len(t, h.store.Snapshot().ActiveHabits(), 1)
	require.NoError(t, h.store.BulkUnarchive(ctx, []string{a.ID}))
	assert.Len(t, h.store.Snapshot().ActiveHabits(), 2)

	require.NoError(t, h.store.BulkDelete(ctx, []string{a.ID, b.ID, "unknown"}))
	snap := h.store.Snapshot()
	require.Len(t, snap.Habits, 1)
	assert.Equal(t, c.ID, snap.Habits[0].ID)
	assert.Empty(t, snap.HabitLogs, "logs go with their habit")
}

func TestResetHabitStats(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a := h.addDaily(t, "A")
	b := h.addDaily(t, "B")
	require.NoError(t, h.store.LogHabitCompletion(ctx, a.ID, 1, ""))
	require.NoError(t, h.store.LogHabitCompletion(ctx, b.ID, 1, ""))

	require.NoError(t, h.store.ResetHabitStats(ctx, a.ID))

	reset := h.habit(t, a.ID)
	assert.Zero(t, reset.Streak)
	assert.Zero(t, reset.BestStreak)
	logs := h.store.Snapshot().HabitLogs
	require.Len(t, logs, 1)
	assert.Equal(t, b.ID, logs[0].HabitID)
}

func TestApplyDailyDecay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.addDaily(t, "Read")
	h.clock.Advance(24 * time.Hour)

	res, err := h.store.ApplyDailyDecay(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.SnapshotTaken)
	assert.Equal(t, 1, res.Missed)
	assert.Equal(t, 46.0, res.Score)

	again, err := h.store.ApplyDailyDecay(ctx)
	require.NoError(t, err)
	assert.False(t, again.Applied, "once per day")
	assert.Equal(t, 46.0, h.store.Snapshot().Momentum.Score)
	assert.Equal(t, "2024-01-02", h.store.Snapshot().Momentum.LastDecayDate)
	assert.Equal(t, 50.0, h.store.Snapshot().Momentum.PreviousWeekMomentum, "snapshot taken before decay")
}

func TestApplyDailyDecay_ShieldSparesMissedHabit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	require.NoError(t, h.store.UseShield(ctx, habit.ID))
	assert.False(t, h.habit(t, habit.ID).ShieldAvailable)
	h.clock.Advance(24 * time.Hour)

	res, err := h.store.ApplyDailyDecay(ctx)
	require.NoError(t, err)

	assert.Zero(t, res.Missed)
	assert.Equal(t, []string{habit.ID}, res.ShieldsConsumed)
	assert.Equal(t, 49.0, res.Score)
	assert.True(t, h.habit(t, habit.ID).ShieldAvailable)
}

func TestApplyDailyDecay_ShieldedDaySurvivesRecompute(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	h.clock.Advance(24 * time.Hour)
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	require.NoError(t, h.store.UseShield(ctx, habit.ID))
	h.clock.Advance(2 * 24 * time.Hour)

	res, err := h.store.ApplyDailyDecay(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{habit.ID}, res.ShieldsConsumed)
	assert.Equal(t, 2, h.habit(t, habit.ID).Streak)
	assert.Equal(t, []string{"2024-01-03"}, h.habit(t, habit.ID).ShieldedDays)

	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	got := h.habit(t, habit.ID)
	assert.Equal(t, 3, got.Streak, "the shielded Wednesday carries the run")
	assert.Equal(t, 3, got.BestStreak)

	require.NoError(t, h.store.ResetHabitStats(ctx, habit.ID))
	assert.Empty(t, h.habit(t, habit.ID).ShieldedDays)
}

func TestApplyDailyDecay_BreaksStreak(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	h.clock.Advance(2 * 24 * time.Hour)

	res, err := h.store.ApplyDailyDecay(ctx)
	require.NoError(t, err)
	require.NoError(t, h.store.SyncNow(ctx))

	assert.Equal(t, 1, res.Missed)
	assert.Zero(t, h.habit(t, habit.ID).Streak)
	assert.Equal(t, 1, h.habit(t, habit.ID).BestStreak)
	assert.Contains(t, h.consumer.RoutingKeys(), domain.RoutingHabitStreakBroken)
}

func TestApplyDailyDecay_PartialBelowThresholdIsMissed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	water, err := h.store.AddHabit(ctx, domain.HabitDraft{
		Name: "Water", Type: domain.HabitTypeCount, Target: 8, Schedule: domain.AllWeekdays,
	})
	require.NoError(t, err)
	stretch, err := h.store.AddHabit(ctx, domain.HabitDraft{
		Name: "Stretch", Type: domain.HabitTypeCount, Target: 4, Schedule: domain.AllWeekdays,
	})
	require.NoError(t, err)
	require.NoError(t, h.store.LogHabitCompletion(ctx, water.ID, 3, ""))
	require.NoError(t, h.store.LogHabitCompletion(ctx, stretch.ID, 2, ""))
	h.clock.Advance(24 * time.Hour)

	res, err := h.store.ApplyDailyDecay(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Missed, "half the target is not missed")
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newHarness(t, nil)
	habit := src.addDaily(t, "Read")
	require.NoError(t, src.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	require.NoError(t, src.store.LogMood(ctx, 7, ""))
	name := "Sam"
	require.NoError(t, src.store.UpdateProfile(ctx, domain.ProfileUpdate{DisplayName: &name}))
	exported := src.store.Export()

	dst := newHarness(t, nil)
	require.NoError(t, dst.store.Import(ctx, exported))

	assert.Equal(t, exported, dst.store.Snapshot())
	assert.Equal(t, "Sam", dst.store.Snapshot().Profile.DisplayName)
}

func TestImport_RejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.addDaily(t, "Keep")
	before := h.store.Snapshot()

	bad := domain.NewSnapshot(domain.DefaultMomentumConfig())
	bad.MoodLogs = []domain.MoodLog{{ID: "m1", Score: 42, LoggedAt: monday}}
	assert.ErrorIs(t, h.store.Import(ctx, bad), domain.ErrValidation)

	assert.Equal(t, before, h.store.Snapshot())
}

func TestStore_ReloadsPersistedState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	habit := h.addDaily(t, "Read")
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))

	reopened, err := NewStore(ctx, Options{Clock: h.clock.Now, Local: h.local})
	require.NoError(t, err)
	defer reopened.Close(ctx)

	assert.Equal(t, h.store.Snapshot(), reopened.Snapshot())
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.local.FailWith(errors.New("disk full"))

	_, err := h.store.AddHabit(ctx, domain.HabitDraft{Name: "Read", Schedule: domain.AllWeekdays})

	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, h.store.Snapshot().Habits, 1)
	assert.Equal(t, int64(1), h.metrics.GetCounter(observability.MetricLocalSaves, observability.T("result", "failure")))
}

func TestSync_DebouncesMutations(t *testing.T) {
	ctx := context.Background()
	sink := new(mockSink)
	sink.On("SyncToCloud", mock.Anything, "user-1", mock.Anything).Return(nil)

	bus := eventbus.NewInProcessEventBus(nil)
	clock := &fakeClock{now: monday}
	store, err := NewStore(ctx, Options{
		Clock:        clock.Now,
		Publisher:    bus,
		Local:        persistence.NewMemoryStore(nil),
		Cloud:        sink,
		UserID:       "user-1",
		SyncDebounce: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer store.Close(ctx)

	for _, name := range []string{"A", "B", "C"} {
		_, err := store.AddHabit(ctx, domain.HabitDraft{Name: name, Schedule: domain.AllWeekdays})
		require.NoError(t, err)
	}
	assert.True(t, store.SyncStatus().Pending)

	require.Eventually(t, func() bool {
		status := store.SyncStatus()
		return !status.Pending && !status.LastSyncedAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	sink.AssertNumberOfCalls(t, "SyncToCloud", 1)
	synced := sink.Calls[0].Arguments.Get(2).(domain.Snapshot)
	assert.Len(t, synced.Habits, 3)
}

func TestSyncNow_PublishesEventsWithCorrelation(t *testing.T) {
	sink := new(mockSink)
	sink.On("SyncToCloud", mock.Anything, "user-1", mock.Anything).Return(nil)
	h := newHarness(t, sink)
	ctx := observability.WithCorrelationID(context.Background(), "corr-1")

	habit, err := h.store.AddHabit(ctx, domain.HabitDraft{Name: "Read", Schedule: domain.AllWeekdays})
	require.NoError(t, err)
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	require.NoError(t, h.store.LogHabitCompletion(ctx, habit.ID, 1, ""))
	assert.Empty(t, h.consumer.RoutingKeys(), "events wait for the sync")

	require.NoError(t, h.store.SyncNow(ctx))

	assert.Equal(t, []string{domain.RoutingHabitCreated, domain.RoutingHabitCompleted}, h.consumer.RoutingKeys())
	event := h.consumer.events[0]
	assert.Equal(t, habit.ID, event.AggregateID)
	assert.Equal(t, "corr-1", event.Metadata.CorrelationID)
	assert.Equal(t, "user-1", event.Metadata.UserID)

	status := h.store.SyncStatus()
	assert.True(t, status.Enabled)
	assert.NoError(t, status.SyncError)
	assert.Equal(t, monday, status.LastSyncedAt)
	assert.Equal(t, int64(1), h.metrics.GetCounter(observability.MetricSyncTotal, observability.T("result", "success")))
}

func TestSyncNow_CapturesError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("network down")
	sink := new(mockSink)
	sink.On("SyncToCloud", mock.Anything, "user-1", mock.Anything).Return(boom)
	h := newHarness(t, sink)
	h.addDaily(t, "Read")

	err := h.store.SyncNow(ctx)

	assert.ErrorIs(t, err, boom)
	status := h.store.SyncStatus()
	assert.ErrorIs(t, status.SyncError, boom)
	assert.True(t, status.LastSyncedAt.IsZero())
	assert.False(t, status.IsSyncing)
	assert.Len(t, h.store.Snapshot().Habits, 1, "local state is kept")
	assert.Equal(t, []string{domain.RoutingHabitCreated}, h.consumer.RoutingKeys(), "events still go out")
}

func TestFlush_SkipsWhenClean(t *testing.T) {
	ctx := context.Background()
	sink := new(mockSink)
	h := newHarness(t, sink)

	require.NoError(t, h.store.Flush(ctx))

	sink.AssertNotCalled(t, "SyncToCloud", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadFromCloud(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		_, err := newHarness(t, nil).store.LoadFromCloud(ctx)
		assert.Error(t, err)
	})

	t.Run("no remote data", func(t *testing.T) {
		sink := new(mockSink)
		sink.On("FetchFromCloud", ctx, "user-1").Return(nil, nil)
		sink.On("SyncToCloud", mock.Anything, "user-1", mock.Anything).Return(nil).Maybe()
		h := newHarness(t, sink)
		h.addDaily(t, "Local")

		loaded, err := h.store.LoadFromCloud(ctx)

		require.NoError(t, err)
		assert.False(t, loaded)
		assert.Len(t, h.store.Snapshot().Habits, 1)
	})

	t.Run("replaces local state", func(t *testing.T) {
		remote := domain.NewSnapshot(domain.DefaultMomentumConfig())
		remote.Habits = []domain.Habit{domain.NewHabit(domain.HabitDraft{Name: "Remote", Schedule: domain.AllWeekdays}, monday)}
		remote.Momentum.Score = 70
		sink := new(mockSink)
		sink.On("FetchFromCloud", ctx, "user-1").Return(&remote, nil)
		sink.On("SyncToCloud", mock.Anything, "user-1", mock.Anything).Return(nil).Maybe()
		h := newHarness(t, sink)
		h.addDaily(t, "Local")
		saves := h.local.Saves()

		loaded, err := h.store.LoadFromCloud(ctx)

		require.NoError(t, err)
		assert.True(t, loaded)
		snap := h.store.Snapshot()
		require.Len(t, snap.Habits, 1)
		assert.Equal(t, "Remote", snap.Habits[0].Name)
		assert.Equal(t, 70.0, snap.Momentum.Score)
		assert.Equal(t, saves+1, h.local.Saves())
	})

	t.Run("records fetch error", func(t *testing.T) {
		boom := errors.New("timeout")
		sink := new(mockSink)
		sink.On("FetchFromCloud", ctx, "user-1").Return(nil, boom)
		h := newHarness(t, sink)

		_, err := h.store.LoadFromCloud(ctx)

		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, h.store.SyncStatus().SyncError, boom)
	})
}

func TestClose_StopsScheduling(t *testing.T) {
	ctx := context.Background()
	sink := new(mockSink)
	sink.On("SyncToCloud", mock.Anything, "user-1", mock.Anything).Return(nil)
	h := newHarness(t, sink)
	h.addDaily(t, "Read")

	require.NoError(t, h.store.Close(ctx))
	sink.AssertNumberOfCalls(t, "SyncToCloud", 1)

	h.addDaily(t, "After close")
	assert.False(t, h.store.SyncStatus().Pending)
}
