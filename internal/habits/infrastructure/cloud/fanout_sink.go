package cloud

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// FanoutSink writes to every sink and reads from the first one holding data.
type FanoutSink struct {
	sinks []Sink
}

// NewFanoutSink combines sinks in priority order.
func NewFanoutSink(sinks ...Sink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

// SyncToCloud pushes to every sink; one failing sink does not stop the others.
func (f *FanoutSink) SyncToCloud(ctx context.Context, userID string, snap domain.Snapshot) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.SyncToCloud(ctx, userID, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FetchFromCloud returns the first non-empty snapshot. Errors are returned
// only when no sink produced data.
func (f *FanoutSink) FetchFromCloud(ctx context.Context, userID string) (*domain.Snapshot, error) {
	var errs []error
	for _, s := range f.sinks {
		snap, err := s.FetchFromCloud(ctx, userID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if snap != nil {
			return snap, nil
		}
	}
	return nil, errors.Join(errs...)
}
