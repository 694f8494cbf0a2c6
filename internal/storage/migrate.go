package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
)

// ErrUnknownVersion is returned for a migration target that is not defined.
var ErrUnknownVersion = errors.New("unknown schema version")

// Migration is one reversible schema change. Up and Down each run inside
// their own transaction.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, tx *sqlx.Tx) error
	Down        func(ctx context.Context, tx *sqlx.Tx) error
}

// Migrator applies and reverts migrations against a database, tracking
// applied versions in schema_migrations.
type Migrator struct {
	db         *DB
	migrations []Migration
}

// NewMigrator returns a Migrator for the given migrations, sorted by version.
func NewMigrator(db *DB, migrations []Migration) *Migrator {
	ms := slices.Clone(migrations)
	slices.SortFunc(ms, func(a, b Migration) int { return a.Version - b.Version })
	return &Migrator{db: db, migrations: ms}
}

// Migrator returns a Migrator for the application's schema.
func (db *DB) Migrator() *Migrator {
	return NewMigrator(db, Migrations())
}

// Latest returns the highest defined version, or 0 if there are none.
func (m *Migrator) Latest() int {
	if len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].Version
}

// CurrentVersion returns the highest successfully applied version. A store
// without a tracking table is at version 0.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	exists, err := tableExists(ctx, m.db.conn, "schema_migrations")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	var version int
	err = m.db.conn.GetContext(ctx, &version,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations WHERE success = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Migrate applies every pending migration.
func (m *Migrator) Migrate(ctx context.Context) error {
	return m.MigrateTo(ctx, m.Latest())
}

// MigrateTo applies pending migrations in ascending order up to and
// including target. A failed migration stops the run and is returned.
func (m *Migrator) MigrateTo(ctx context.Context, target int) error {
	if !m.known(target) {
		return fmt.Errorf("%w: %d", ErrUnknownVersion, target)
	}
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	for _, mig := range m.migrations {
		if mig.Version <= current || mig.Version > target {
			continue
		}
		if err := m.up(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

// Rollback reverts applied migrations in descending order until the schema
// is at target.
func (m *Migrator) Rollback(ctx context.Context, target int) error {
	if !m.known(target) {
		return fmt.Errorf("%w: %d", ErrUnknownVersion, target)
	}
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if mig.Version > current || mig.Version <= target {
			continue
		}
		if err := m.down(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) known(version int) bool {
	if version == 0 {
		return true
	}
	return slices.ContainsFunc(m.migrations, func(mig Migration) bool { return mig.Version == version })
}

func (m *Migrator) up(ctx context.Context, mig Migration) error {
	log := m.db.log.With().Int("version", mig.Version).Str("description", mig.Description).Logger()
	log.Info().Msg("applying migration")

	err := m.db.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := mig.Up(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, trackingTable); err != nil {
			return fmt.Errorf("failed to create tracking table: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schema_migrations (version, description, applied_at, success)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(version) DO UPDATE SET
				description = excluded.description,
				applied_at = excluded.applied_at,
				success = 1
		`, mig.Version, mig.Description, m.db.now())
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
	if err != nil {
		m.recordFailure(ctx, mig)
		log.Error().Err(err).Msg("migration failed")
		return fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Description, err)
	}
	return nil
}

// recordFailure notes a failed version when the tracking table exists. It
// never marks a version successful.
func (m *Migrator) recordFailure(ctx context.Context, mig Migration) {
	exists, err := tableExists(ctx, m.db.conn, "schema_migrations")
	if err != nil || !exists {
		return
	}
	_, err = m.db.conn.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, description, applied_at, success)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(version) DO UPDATE SET applied_at = excluded.applied_at, success = 0
	`, mig.Version, mig.Description, m.db.now())
	if err != nil {
		m.db.log.Warn().Err(err).Int("version", mig.Version).Msg("failed to record migration failure")
	}
}

func (m *Migrator) down(ctx context.Context, mig Migration) error {
	m.db.log.Info().Int("version", mig.Version).Str("description", mig.Description).Msg("reverting migration")

	err := m.db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, mig.Version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return mig.Down(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("rollback %d (%s): %w", mig.Version, mig.Description, err)
	}
	return nil
}
