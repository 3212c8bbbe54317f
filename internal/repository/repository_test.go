package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmehdipour/inventory-sim/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "inventory.db") + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	conn, err := db.NewSQLiteConnection(dsn, db.PoolOpts{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, ApplySchema(context.Background(), conn, DialectSQLite))
	return conn
}
