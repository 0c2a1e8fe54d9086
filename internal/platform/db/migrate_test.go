package db

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	fsys := fstest.MapFS{
		"9001_migrate_probe.sql": &fstest.MapFile{Data: []byte("CREATE TABLE IF NOT EXISTS migrate_probe (id INT PRIMARY KEY)")},
		"README.md":              &fstest.MapFile{Data: []byte("not a migration")},
	}
	require.NoError(t, Migrate(ctx, pool, fsys))
	require.NoError(t, Migrate(ctx, pool, fsys))

	applied, err := migrationApplied(ctx, pool, "9001_migrate_probe")
	require.NoError(t, err)
	require.True(t, applied)
	applied, err = migrationApplied(ctx, pool, "README")
	require.NoError(t, err)
	require.False(t, applied)

	_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS migrate_probe")
	_, _ = pool.Exec(ctx, "DELETE FROM schema_migrations WHERE version = '9001_migrate_probe'")
}
