package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// openTestDB opens a file database in a temp dir, optionally migrated.
func openTestDB(t *testing.T, migrate bool) *DB {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	if migrate {
		require.NoError(t, db.Migrator().Migrate(context.Background()))
	}
	return db
}

// tickingClock returns increasing timestamps one second apart.
func tickingClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}
