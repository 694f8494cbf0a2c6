package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tarot.db")

	db, err := Open(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()

	var fk int
	require.NoError(t, db.conn.GetContext(ctx, &fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.conn.GetContext(ctx, &mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", strings.ToLower(mode))
}

func TestOpen_InMemory(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrator().Migrate(ctx))
	ok, err := db.TableExists(ctx, "daily_cards")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dsn(":memory:"))
	assert.Equal(t,
		"a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		dsn("a.db"))
	assert.True(t, strings.HasPrefix(dsn("a.db?mode=ro"), "a.db?mode=ro&"))
}
