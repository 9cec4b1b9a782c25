package cli

import (
	"errors"

	habitApp "github.com/felixgeelhaar/habitat/internal/habits/application"
	habitQueries "github.com/felixgeelhaar/habitat/internal/habits/application/queries"
	"github.com/felixgeelhaar/habitat/pkg/observability"
)

// ErrNotInitialized is returned by commands run before SetApp.
var ErrNotInitialized = errors.New("habitat is not initialized")

// App holds the CLI application dependencies.
type App struct {
	Store     *habitApp.Store
	Analytics *habitQueries.Analytics

	// Habit Query Handlers
	ListHabitsHandler *habitQueries.ListHabitsHandler
	GetHabitHandler   *habitQueries.GetHabitHandler

	Health *observability.HealthRegistry
}

// NewApp creates a new CLI application.
func NewApp(
	store *habitApp.Store,
	analytics *habitQueries.Analytics,
	listHabitsHandler *habitQueries.ListHabitsHandler,
	getHabitHandler *habitQueries.GetHabitHandler,
	health *observability.HealthRegistry,
) *App {
	return &App{
		Store:             store,
		Analytics:         analytics,
		ListHabitsHandler: listHabitsHandler,
		GetHabitHandler:   getHabitHandler,
		Health:            health,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil || app.Store == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}
