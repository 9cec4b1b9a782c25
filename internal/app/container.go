// Package app wires habitat's dependencies from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	habitApp "github.com/felixgeelhaar/habitat/internal/habits/application"
	habitQueries "github.com/felixgeelhaar/habitat/internal/habits/application/queries"
	habitsDomain "github.com/felixgeelhaar/habitat/internal/habits/domain"
	"github.com/felixgeelhaar/habitat/internal/habits/infrastructure/cloud"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/habitat/pkg/config"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Metrics *observability.PrometheusMetrics
	Health  *observability.HealthRegistry

	// Publishers
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus

	// Remote sync; nil when no remote backend is configured.
	CloudSink *cloud.BreakerSink

	// Habits
	Store             *habitApp.Store
	Analytics         *habitQueries.Analytics
	ListHabitsHandler *habitQueries.ListHabitsHandler
	GetHabitHandler   *habitQueries.GetHabitHandler

	local   localStore
	remotes []remoteSink
}

// Options overrides parts of the container, mostly for tests.
type Options struct {
	Clock func() time.Time
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	return NewContainerWithOptions(ctx, cfg, logger, Options{})
}

// NewContainerWithOptions is NewContainer with overrides.
func NewContainerWithOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(logger),
		Health:  observability.NewHealthRegistry(),
	}

	local, check, err := openLocalStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}
	c.local = local
	c.Health.Register("local_"+cfg.LocalBackend, check)
	logger.Debug("local storage ready", "backend", cfg.LocalBackend)

	c.remotes, err = openRemoteSinks(ctx, cfg, logger)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	for _, r := range c.remotes {
		c.Health.Register(r.name, observability.PingChecker(r.ping, observability.HealthStatusDegraded))
	}
	c.CloudSink = combineSinks(c.remotes, cfg, logger)

	// Create event publisher
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		switch {
		case err == nil:
			c.EventPublisher = publisher
		case cfg.IsDevelopment():
			logger.Warn("RabbitMQ not available, using in-process bus", observability.ErrorKey, err)
		default:
			_ = c.closeStorage()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	}
	if c.EventPublisher == nil {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
		c.InProcessEventBus.RegisterConsumer(eventbus.NewLoggingConsumer(logger))
		c.EventPublisher = c.InProcessEventBus
	}

	storeOpts := habitApp.Options{
		Clock:        opts.Clock,
		Logger:       logger,
		Metrics:      c.Metrics,
		Publisher:    c.EventPublisher,
		Local:        local,
		UserID:       cfg.UserID,
		Momentum:     MomentumConfig(cfg),
		SyncDebounce: cfg.SyncDebounce,
		SyncTimeout:  cfg.SyncTimeout,
	}
	if c.CloudSink != nil {
		storeOpts.Cloud = c.CloudSink
	}
	c.Store, err = habitApp.NewStore(ctx, storeOpts)
	if err != nil {
		_ = c.EventPublisher.Close()
		_ = c.closeStorage()
		return nil, err
	}

	if cfg.DecayOnStart {
		res, err := c.Store.ApplyDailyDecay(ctx)
		if err != nil {
			logger.Warn("startup decay failed", observability.ErrorKey, err)
		} else if res.Applied {
			logger.Debug("startup decay applied", "missed", res.Missed, "momentum", res.Score)
		}
	}

	c.Analytics = habitQueries.NewAnalytics(c.Store, c.Store.Now)
	c.ListHabitsHandler = habitQueries.NewListHabitsHandler(c.Analytics)
	c.GetHabitHandler = habitQueries.NewGetHabitHandler(c.Analytics)

	return c, nil
}

// MomentumConfig builds the momentum constants from configuration.
func MomentumConfig(cfg *config.Config) habitsDomain.MomentumConfig {
	m := habitsDomain.DefaultMomentumConfig()
	m.InitialScore = cfg.MomentumInitial
	m.FullCompletionBonus = cfg.MomentumFullCompletionBonus
	m.ScoreIncrement = cfg.MomentumScoreIncrement
	m.DailyBaseDecay = cfg.MomentumDailyBaseDecay
	return m
}

// Close flushes pending sync work and releases all resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Config.MetricsFile != "" {
		if err := c.Metrics.WriteTextfile(c.Config.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, c.closeStorage())
	return errors.Join(errs...)
}

func (c *Container) closeStorage() error {
	var errs []error
	for _, r := range c.remotes {
		errs = append(errs, r.closer())
	}
	if c.local != nil {
		errs = append(errs, c.local.Close())
	}
	return errors.Join(errs...)
}
