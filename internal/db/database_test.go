package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tasktracker/internal/models"
)

func TestOpenSQLite_MigrateAndPing(t *testing.T) {
	ctx := context.Background()

	gdb, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, Migrate(ctx, gdb))
	require.NoError(t, Ping(ctx, gdb))

	for _, m := range models.All() {
		require.True(t, gdb.Migrator().HasTable(m))
	}
}

func TestOpen_RejectsEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.EqualError(t, err, "DATABASE_URL is empty")
}
