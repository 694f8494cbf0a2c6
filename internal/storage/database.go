package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sqlx.DB
	log  zerolog.Logger
	now  func() time.Time
}

// Open creates a new database connection. It does not migrate; use
// Migrator to bring the schema up to date.
//
// Foreign keys and a busy timeout are enabled on every connection. File
// databases use WAL journaling. SQLite allows a single writer, so the pool
// is limited to one connection, which also keeps ":memory:" databases
// consistent across calls.
func Open(ctx context.Context, path string, log zerolog.Logger) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Debug().Str("path", path).Msg("database opened")
	return &DB{conn: conn, log: log, now: utcNow}, nil
}

func dsn(path string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if path != ":memory:" && !strings.HasPrefix(path, "file::memory:") {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying connection for diagnostics and tests.
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// TableExists reports whether a table with the given name exists.
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	return tableExists(ctx, db.conn, name)
}

func tableExists(ctx context.Context, q sqlx.QueryerContext, name string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return n > 0, nil
}

// inTx runs fn inside a transaction, committing on success.
func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
