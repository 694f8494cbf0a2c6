package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const trackingTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at DATETIME NOT NULL,
    success BOOLEAN NOT NULL DEFAULT 1
);
`

const initialSchema = trackingTable + `
-- One row per materialized day.
CREATE TABLE IF NOT EXISTS daily_sessions (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL UNIQUE,
    seed TEXT NOT NULL,
    deck_id TEXT NOT NULL DEFAULT 'classic',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- One row per hour of a session. memo is the only user-authored column.
CREATE TABLE IF NOT EXISTS daily_cards (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES daily_sessions(id) ON DELETE CASCADE,
    hour INTEGER NOT NULL CHECK (hour >= 0 AND hour <= 23),
    card_key TEXT NOT NULL,
    memo TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (session_id, hour)
);

CREATE TABLE IF NOT EXISTS spreads (
    id TEXT PRIMARY KEY,
    spread_type TEXT NOT NULL,
    deck_id TEXT NOT NULL DEFAULT 'classic',
    title TEXT,
    image_uri TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS spread_cards (
    id TEXT PRIMARY KEY,
    spread_id TEXT NOT NULL REFERENCES spreads(id) ON DELETE CASCADE,
    position_index INTEGER NOT NULL,
    card_key TEXT NOT NULL,
    reversed BOOLEAN NOT NULL DEFAULT 0,
    x REAL NOT NULL DEFAULT 0,
    y REAL NOT NULL DEFAULT 0,
    width REAL NOT NULL DEFAULT 0,
    height REAL NOT NULL DEFAULT 0,
    UNIQUE (spread_id, position_index)
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS purchases (
    id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL,
    purchase_date DATETIME NOT NULL,
    platform TEXT NOT NULL CHECK (platform IN ('ios', 'android')),
    is_active BOOLEAN NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_daily_sessions_date ON daily_sessions(date);
CREATE INDEX IF NOT EXISTS idx_daily_cards_session_hour ON daily_cards(session_id, hour);
CREATE INDEX IF NOT EXISTS idx_daily_cards_updated_at ON daily_cards(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_spreads_created_at ON spreads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_spread_cards_spread_position ON spread_cards(spread_id, position_index);
CREATE INDEX IF NOT EXISTS idx_purchases_product_active ON purchases(product_id, is_active);
`

// Tables lists every table created by the initial schema.
var Tables = []string{
	"schema_migrations",
	"daily_sessions",
	"daily_cards",
	"spreads",
	"spread_cards",
	"settings",
	"purchases",
}

// DefaultSettings are inserted by the initial schema.
var DefaultSettings = map[string]string{
	"app_version":           "1.0.0",
	"notifications_enabled": "true",
	"hourly_notifications":  "true",
	"active_deck_id":        "classic",
	"auto_save":             "true",
	"theme":                 "dark",
}

// Migrations returns the ordered list of schema migrations.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "initial schema",
			Up:          upInitialSchema,
			Down:        downInitialSchema,
		},
	}
}

func upInitialSchema(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, initialSchema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	for key, value := range DefaultSettings {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

// downInitialSchema drops parents before children so that rows of dependent
// tables are removed by ON DELETE CASCADE.
func downInitialSchema(ctx context.Context, tx *sqlx.Tx) error {
	drops := []string{
		"daily_sessions",
		"daily_cards",
		"spreads",
		"spread_cards",
		"settings",
		"purchases",
		"schema_migrations",
	}
	for _, table := range drops {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}
