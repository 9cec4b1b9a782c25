package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	habitApp "github.com/felixgeelhaar/habitat/internal/habits/application"
	"github.com/felixgeelhaar/habitat/internal/habits/infrastructure/cloud"
	"github.com/felixgeelhaar/habitat/internal/habits/infrastructure/persistence"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/habitat/pkg/config"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

// localStore is a LocalStore the container can probe and release.
type localStore interface {
	habitApp.LocalStore
	io.Closer
}

// openLocalStore opens the configured local backend.
func openLocalStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (localStore, observability.HealthChecker, error) {
	switch cfg.LocalBackend {
	case config.BackendMemory:
		store := persistence.NewMemoryStore(nil)
		return store, staticHealthy, nil

	case config.BackendBadger:
		store, err := persistence.OpenBadgerStore(persistence.BadgerConfig{
			Dir:        cfg.BadgerDir(),
			SyncWrites: true,
			Logger:     logger.With("component", "badger"),
		})
		if err != nil {
			return nil, nil, err
		}
		return store, observability.PingChecker(store.Ping, observability.HealthStatusUnhealthy), nil

	case config.BackendSQLite:
		conn, err := database.NewConnection(ctx, database.Config{
			Driver:     database.DriverSQLite,
			SQLitePath: cfg.SQLitePath(),
		})
		if err != nil {
			return nil, nil, err
		}
		store, err := persistence.NewSQLiteStore(ctx, conn, persistence.DefaultStateKey)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return store, observability.PingChecker(store.Ping, observability.HealthStatusUnhealthy), nil

	default:
		return nil, nil, fmt.Errorf("unsupported local backend: %s", cfg.LocalBackend)
	}
}

func staticHealthy(context.Context) observability.HealthCheckResult {
	return observability.HealthCheckResult{Status: observability.HealthStatusHealthy, Message: "in memory"}
}

// remoteSink is one opened remote backend.
type remoteSink struct {
	name   string
	sink   cloud.Sink
	ping   func(ctx context.Context) error
	closer func() error
}

// openRemoteSinks opens every configured remote backend. In development a
// backend that cannot be reached is skipped with a warning.
func openRemoteSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]remoteSink, error) {
	var sinks []remoteSink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.closer()
		}
	}

	if cfg.DatabaseURL != "" {
		s, err := openPostgresSink(ctx, cfg, logger)
		switch {
		case err == nil:
			sinks = append(sinks, s)
			logger.Info("connected to database")
		case cfg.IsDevelopment():
			logger.Warn("PostgreSQL not available, skipping postgres sync", observability.ErrorKey, err)
		default:
			return nil, err
		}
	}

	if cfg.RedisURL != "" {
		rs, err := cloud.OpenRedisSink(ctx, cfg.RedisURL)
		switch {
		case err == nil:
			sinks = append(sinks, remoteSink{name: "redis", sink: rs, ping: rs.Ping, closer: rs.Close})
			logger.Info("connected to Redis")
		case cfg.IsDevelopment():
			logger.Warn("Redis not available, skipping redis sync", observability.ErrorKey, err)
		default:
			closeAll()
			return nil, err
		}
	}
	return sinks, nil
}

func openPostgresSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remoteSink, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		Driver: database.DriverPostgres,
		URL:    cfg.DatabaseURL,
	})
	if err != nil {
		return remoteSink{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	sink, err := cloud.NewPostgresSink(ctx, conn, logger)
	if err != nil {
		_ = conn.Close()
		return remoteSink{}, err
	}
	return remoteSink{name: "postgres", sink: sink, ping: sink.Ping, closer: conn.Close}, nil
}

// combineSinks puts the sinks behind one circuit breaker. It returns nil for no sinks.
func combineSinks(sinks []remoteSink, cfg *config.Config, logger *slog.Logger) *cloud.BreakerSink {
	if len(sinks) == 0 {
		return nil
	}
	var inner cloud.Sink
	if len(sinks) == 1 {
		inner = sinks[0].sink
	} else {
		all := make([]cloud.Sink, len(sinks))
		for i, s := range sinks {
			all[i] = s.sink
		}
		inner = cloud.NewFanoutSink(all...)
	}

	breaker := cloud.DefaultBreakerConfig()
	if cfg.BreakerFailures > 0 {
		breaker.FailureThreshold = uint32(cfg.BreakerFailures)
	}
	if cfg.BreakerTimeout > 0 {
		breaker.Timeout = cfg.BreakerTimeout
	}
	return cloud.NewBreakerSink(inner, breaker, logger)
}
