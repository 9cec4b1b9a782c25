package cloud

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// BreakerConfig configures BreakerSink.
type BreakerConfig struct {
	Name string
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout     time.Duration
	MaxRequests uint32
}

// DefaultBreakerConfig returns the standard breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "cloud-sync",
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// BreakerSink guards another sink with a circuit breaker. While open, calls
// fail fast with gobreaker.ErrOpenState.
type BreakerSink struct {
	inner   Sink
	breaker *gobreaker.CircuitBreaker[*domain.Snapshot]
}

// NewBreakerSink wraps inner.
func NewBreakerSink(inner Sink, cfg BreakerConfig, logger *slog.Logger) *BreakerSink {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerSink{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*domain.Snapshot](settings),
	}
}

func (s *BreakerSink) SyncToCloud(ctx context.Context, userID string, snap domain.Snapshot) error {
	_, err := s.breaker.Execute(func() (*domain.Snapshot, error) {
		return nil, s.inner.SyncToCloud(ctx, userID, snap)
	})
	return err
}

func (s *BreakerSink) FetchFromCloud(ctx context.Context, userID string) (*domain.Snapshot, error) {
	return s.breaker.Execute(func() (*domain.Snapshot, error) {
		return s.inner.FetchFromCloud(ctx, userID)
	})
}

// State returns the breaker state name.
func (s *BreakerSink) State() string {
	return s.breaker.State().String()
}
