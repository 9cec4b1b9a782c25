package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/habitat/adapter/cli"
	"github.com/felixgeelhaar/habitat/adapter/cli/habit"
	"github.com/felixgeelhaar/habitat/internal/app"
	"github.com/felixgeelhaar/habitat/pkg/config"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

// shutdownTimeout bounds the final sync flush on exit.
const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}

	logger, logCloser := observability.NewLogger(observability.LogConfig{
		Level:          observability.LogLevel(cfg.LogLevel),
		Format:         observability.LogFormat(cfg.LogFormat),
		FilePath:       cfg.LogFile,
		ServiceName:    "habitat",
		ServiceVersion: cli.Version,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", observability.ErrorKey, err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		// The signal context may already be cancelled; the flush gets its own deadline.
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("shutdown incomplete", observability.ErrorKey, err)
		}
	}()

	cli.SetApp(cli.NewApp(
		container.Store,
		container.Analytics,
		container.ListHabitsHandler,
		container.GetHabitHandler,
		container.Health,
	))
	cli.AddCommand(habit.Cmd)

	// cobra has already printed the error.
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
