package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database/sqlite"
)

func TestRun_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: sqlite.MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Run(ctx, conn))
	// Idempotent.
	require.NoError(t, Run(ctx, conn))

	_, err = conn.Exec(ctx, `INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)`, "k", []byte("v"), "now")
	assert.NoError(t, err)
}

func TestUpFiles(t *testing.T) {
	for _, dir := range []string{"sqlite", "postgres"} {
		names, err := upFiles(dir)
		require.NoError(t, err)
		assert.NotEmpty(t, names, dir)
	}
}

func TestUpFiles_PostgresInNameOrder(t *testing.T) {
	names, err := upFiles("postgres")
	require.NoError(t, err)

	assert.Equal(t, []string{"000001_habitat_sync.up.sql", "000002_shielded_days.up.sql"}, names)
}

func TestStatements(t *testing.T) {
	got := statements("CREATE TABLE a (x INT);\n\n CREATE INDEX i ON a (x);\n")

	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, got)
}
