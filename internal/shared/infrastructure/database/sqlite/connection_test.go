package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/database"
)

func openTestDB(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "nested", "habitat.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(context.Background(), `CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)
	return conn
}

func TestNewConnection_File(t *testing.T) {
	conn := openTestDB(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestNewConnection_Memory(t *testing.T) {
	ctx := context.Background()
	conn, err := NewConnection(ctx, database.Config{SQLitePath: MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, `CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `INSERT INTO t (id) VALUES (1)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	result, err := conn.Exec(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`, "a", "1")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = conn.Exec(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`, "b", "2")
	require.NoError(t, err)

	rows, err := conn.Query(ctx, `SELECT key FROM kv ORDER BY key`)
	require.NoError(t, err)
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		keys = append(keys, k)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestConnection_QueryRowNoRows(t *testing.T) {
	conn := openTestDB(t)

	var v string
	err := conn.QueryRow(context.Background(), `SELECT value FROM kv WHERE key = ?`, "missing").Scan(&v)

	assert.True(t, database.IsNoRows(err))
}

func TestInTx(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	t.Run("commits", func(t *testing.T) {
		err := database.InTx(ctx, conn, func(ctx context.Context) error {
			_, err := database.ExecutorFromContext(ctx, conn).Exec(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`, "c", "3")
			return err
		})
		require.NoError(t, err)

		var v string
		require.NoError(t, conn.QueryRow(ctx, `SELECT value FROM kv WHERE key = ?`, "c").Scan(&v))
		assert.Equal(t, "3", v)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := database.InTx(ctx, conn, func(ctx context.Context) error {
			require.NotNil(t, database.TxFromContext(ctx))
			if _, err := database.ExecutorFromContext(ctx, conn).Exec(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`, "d", "4"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM kv WHERE key = ?`, "d").Scan(&n))
		assert.Zero(t, n)
	})
}
