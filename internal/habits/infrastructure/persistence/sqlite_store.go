package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/migrations"
)

// DefaultStateKey is the app_state row holding the snapshot document.
const DefaultStateKey = "habitat-storage"

// SQLiteStore keeps the snapshot document in the app_state table.
type SQLiteStore struct {
	conn database.Connection
	key  string
	now  func() time.Time
}

// NewSQLiteStore applies the local schema and returns a store for key.
func NewSQLiteStore(ctx context.Context, conn database.Connection, key string) (*SQLiteStore, error) {
	if err := migrations.Run(ctx, conn); err != nil {
		return nil, fmt.Errorf("migrate local state: %w", err)
	}
	if key == "" {
		key = DefaultStateKey
	}
	return &SQLiteStore{conn: conn, key: key, now: time.Now}, nil
}

// Load returns the stored document, or nil when nothing was saved yet.
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var value []byte
	err := database.ExecutorFromContext(ctx, s.conn).
		QueryRow(ctx, `SELECT value FROM app_state WHERE key = ?`, s.key).
		Scan(&value)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load local state: %w", err)
	}
	return value, nil
}

// Save replaces the stored document.
func (s *SQLiteStore) Save(ctx context.Context, value []byte) error {
	_, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, `
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save local state: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
