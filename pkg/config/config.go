package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Local backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string
	LogFile   string
	UserID    string
	// MetricsFile receives a Prometheus textfile on shutdown when set.
	MetricsFile string

	// Local storage
	DataDir      string
	LocalBackend string

	// Remote sync. Empty URLs disable the sink.
	DatabaseURL     string
	RedisURL        string
	SyncDebounce    time.Duration
	SyncTimeout     time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration

	// RabbitMQ. Empty uses the in-process bus.
	RabbitMQURL string

	// Momentum tuning
	MomentumInitial             float64
	MomentumFullCompletionBonus float64
	MomentumScoreIncrement      float64
	MomentumDailyBaseDecay      float64
	// DecayOnStart runs the daily momentum pass when the container starts.
	DecayOnStart                bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("HABITAT_LOG_FILE", ""),
		UserID:    getEnv("HABITAT_USER_ID", "local"),

		MetricsFile: getEnv("HABITAT_METRICS_FILE", ""),

		DataDir:      getEnv("HABITAT_DATA_DIR", defaultDataDir()),
		LocalBackend: getEnv("HABITAT_LOCAL_BACKEND", BackendSQLite),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		SyncDebounce:    getDurationEnv("HABITAT_SYNC_DEBOUNCE", 500*time.Millisecond),
		SyncTimeout:     getDurationEnv("HABITAT_SYNC_TIMEOUT", 10*time.Second),
		BreakerFailures: getIntEnv("HABITAT_BREAKER_FAILURES", 5),
		BreakerTimeout:  getDurationEnv("HABITAT_BREAKER_TIMEOUT", 30*time.Second),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		MomentumInitial:             getFloatEnv("MOMENTUM_INITIAL", 50),
		MomentumFullCompletionBonus: getFloatEnv("MOMENTUM_FULL_COMPLETION_BONUS", 5),
		MomentumScoreIncrement:      getFloatEnv("MOMENTUM_SCORE_INCREMENT", 3),
		MomentumDailyBaseDecay:      getFloatEnv("MOMENTUM_DAILY_BASE_DECAY", 1),
		DecayOnStart:                getBoolEnv("HABITAT_DECAY_ON_START", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.LocalBackend {
	case BackendSQLite, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("HABITAT_LOCAL_BACKEND: unknown backend %q", c.LocalBackend)
	}
	if c.UserID == "" {
		return fmt.Errorf("HABITAT_USER_ID must not be empty")
	}
	if c.MomentumInitial < 0 || c.MomentumInitial > 100 {
		return fmt.Errorf("MOMENTUM_INITIAL must be within [0, 100], got %v", c.MomentumInitial)
	}
	return nil
}

// SQLitePath returns the local SQLite file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "habitat.db")
}

// BadgerDir returns the local Badger directory.
func (c *Config) BadgerDir() string {
	return filepath.Join(c.DataDir, "badger")
}

// RemoteSyncEnabled reports whether any remote sink is configured.
func (c *Config) RemoteSyncEnabled() bool {
	return c.DatabaseURL != "" || c.RedisURL != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".habitat"
	}
	return filepath.Join(home, ".habitat")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
