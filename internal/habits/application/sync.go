package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/habitat/internal/habits/infrastructure/persistence"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

// SyncStatus describes the remote sync state.
type SyncStatus struct {
	IsSyncing    bool
	SyncError    error
	LastSyncedAt time.Time
	// Pending is true while a debounced sync is scheduled but not yet run.
	Pending bool
	// Enabled is false when the store has no cloud sink.
	Enabled bool
}

// SyncStatus returns a copy of the current sync status.
func (s *Store) SyncStatus() SyncStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	status := s.status
	status.Pending = s.dirty
	status.Enabled = s.cloud != nil
	return status
}

// scheduleSync (re)starts the debounce timer; calls inside the window
// collapse into one sync.
func (s *Store) scheduleSync() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.closed {
		return
	}
	s.dirty = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.runScheduledSync)
		return
	}
	s.timer.Reset(s.debounce)
}

// runScheduledSync is the detached sync task. It is not tied to any
// caller's context.
func (s *Store) runScheduledSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.runSync(ctx, false)
}

// runSync pushes the current snapshot to the sink and flushes queued
// events. Without force it does nothing when no mutation happened since
// the last run.
func (s *Store) runSync(ctx context.Context, force bool) error {
	s.syncRun.Lock()
	defer s.syncRun.Unlock()

	s.statusMu.Lock()
	if !s.dirty && !force {
		s.statusMu.Unlock()
		return nil
	}
	s.dirty = false
	s.status.IsSyncing = true
	s.statusMu.Unlock()

	s.mu.Lock()
	snap := s.state.Clone()
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	var syncErr error
	if s.cloud != nil {
		timer := observability.StartTimer("cloud_sync", observability.MetricSyncDuration).
			WithLogger(s.logger).
			WithMetrics(s.metrics)
		syncErr = s.cloud.SyncToCloud(ctx, s.userID, snap)
		timer.Stop(syncErr)
		s.metrics.Counter(observability.MetricSyncTotal, 1, observability.T("result", result(syncErr)))
	}

	for _, event := range events {
		err := eventbus.PublishEvent(ctx, s.publisher, event, s.userID)
		s.metrics.Counter(observability.MetricEventsTotal, 1,
			observability.T("routing_key", event.RoutingKey()),
			observability.T("result", result(err)),
		)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to publish event",
				"routing_key", event.RoutingKey(),
				"event_id", event.EventID(),
				observability.ErrorKey, err,
			)
		}
	}

	s.statusMu.Lock()
	s.status.IsSyncing = false
	s.status.SyncError = syncErr
	if syncErr == nil && s.cloud != nil {
		s.status.LastSyncedAt = s.clock()
	}
	s.statusMu.Unlock()

	if syncErr != nil {
		return fmt.Errorf("sync to cloud: %w", syncErr)
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// SyncNow cancels any pending debounce and syncs immediately.
func (s *Store) SyncNow(ctx context.Context) error {
	s.stopTimer()
	return s.runSync(ctx, true)
}

// Flush runs a pending debounced sync now and waits for any in-flight one.
func (s *Store) Flush(ctx context.Context) error {
	s.stopTimer()
	return s.runSync(ctx, false)
}

// Close flushes pending work and stops scheduling new syncs.
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.statusMu.Lock()
	s.closed = true
	s.statusMu.Unlock()
	return err
}

func (s *Store) stopTimer() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

// LoadFromCloud replaces local state with the remote snapshot and saves it.
// It reports false when the remote holds no data for the user.
func (s *Store) LoadFromCloud(ctx context.Context) (bool, error) {
	if s.cloud == nil {
		return false, fmt.Errorf("cloud sync is not configured")
	}

	remote, err := s.cloud.FetchFromCloud(ctx, s.userID)
	s.statusMu.Lock()
	s.status.SyncError = err
	if err == nil {
		s.status.LastSyncedAt = s.clock()
	}
	s.statusMu.Unlock()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to fetch from cloud", observability.ErrorKey, err)
		return false, fmt.Errorf("fetch from cloud: %w", err)
	}
	if remote == nil {
		return false, nil
	}

	migrated, err := persistence.Migrate(*remote, s.cfg)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = migrated
	s.metrics.Gauge(observability.MetricMomentumScore, s.state.Momentum.Score)
	s.logger.InfoContext(ctx, "loaded state from cloud",
		"habits", len(migrated.Habits),
		"habit_logs", len(migrated.HabitLogs),
		"mood_logs", len(migrated.MoodLogs),
	)
	return true, s.persistLocked(ctx)
}
