package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Session is the stored materialization of one day's card set.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Date      string    `db:"date" json:"date"`
	Seed      string    `db:"seed" json:"seed"`
	DeckID    string    `db:"deck_id" json:"deckId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// HourCard is the generated part of an hourly row.
type HourCard struct {
	Hour    int
	CardKey string
}

// HourEntry is one stored hour of a session, including the user's memo.
type HourEntry struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	Hour      int       `db:"hour" json:"hour"`
	CardKey   string    `db:"card_key" json:"cardKey"`
	Memo      *string   `db:"memo" json:"memo"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// MemoEntry is a memo together with the day and hour it belongs to.
type MemoEntry struct {
	Date      string    `db:"date" json:"date"`
	Hour      int       `db:"hour" json:"hour"`
	CardKey   string    `db:"card_key" json:"cardKey"`
	Memo      string    `db:"memo" json:"memo"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UpsertSession stores the session for date, updating seed and deck if the
// date already has one. The session id never changes once created.
func (db *DB) UpsertSession(ctx context.Context, date, seed, deckID string) (Session, error) {
	var s Session
	err := db.conn.GetContext(ctx, &s, `
		INSERT INTO daily_sessions (id, date, seed, deck_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET seed = excluded.seed, deck_id = excluded.deck_id
		RETURNING id, date, seed, deck_id, created_at
	`, uuid.NewString(), date, seed, deckID, db.now())
	if err != nil {
		return Session{}, fmt.Errorf("failed to upsert session for %s: %w", date, err)
	}
	return s, nil
}

// SessionByDate retrieves the session stored for date.
func (db *DB) SessionByDate(ctx context.Context, date string) (Session, error) {
	var s Session
	err := db.conn.GetContext(ctx, &s, `
		SELECT id, date, seed, deck_id, created_at
		FROM daily_sessions WHERE date = ?
	`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to find session for %s: %w", date, err)
	}
	return s, nil
}

// DeleteSession removes a session and, by cascade, its hourly rows.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM daily_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return expectAffected(res)
}

// UpsertHourCards writes the card key for each hour of a session in one
// transaction. Existing rows keep their memo; only card_key is replaced.
func (db *DB) UpsertHourCards(ctx context.Context, sessionID string, cards []HourCard) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO daily_cards (id, session_id, hour, card_key, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id, hour) DO UPDATE SET card_key = excluded.card_key
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare hour upsert: %w", err)
		}
		defer stmt.Close()

		now := db.now()
		for _, c := range cards {
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), sessionID, c.Hour, c.CardKey, now, now); err != nil {
				return fmt.Errorf("failed to upsert hour %d of session %s: %w", c.Hour, sessionID, err)
			}
		}
		return nil
	})
}

// HourEntries returns the stored hours of a session ordered by hour.
func (db *DB) HourEntries(ctx context.Context, sessionID string) ([]HourEntry, error) {
	var entries []HourEntry
	err := db.conn.SelectContext(ctx, &entries, `
		SELECT id, session_id, hour, card_key, memo, created_at, updated_at
		FROM daily_cards WHERE session_id = ?
		ORDER BY hour
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hours for session %s: %w", sessionID, err)
	}
	return entries, nil
}

// SetMemo replaces the memo of one hour. A nil memo clears it. Concurrent
// writers to the same hour are last-write-wins.
func (db *DB) SetMemo(ctx context.Context, sessionID string, hour int, memo *string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE daily_cards SET memo = ?, updated_at = ?
		WHERE session_id = ? AND hour = ?
	`, memo, db.now(), sessionID, hour)
	if err != nil {
		return fmt.Errorf("failed to set memo for hour %d of session %s: %w", hour, sessionID, err)
	}
	return expectAffected(res)
}

// RecentMemos returns up to limit memos, most recently edited first.
func (db *DB) RecentMemos(ctx context.Context, limit int) ([]MemoEntry, error) {
	var out []MemoEntry
	err := db.conn.SelectContext(ctx, &out, `
		SELECT s.date, c.hour, c.card_key, c.memo, c.updated_at
		FROM daily_cards c
		JOIN daily_sessions s ON s.id = c.session_id
		WHERE c.memo IS NOT NULL
		ORDER BY c.updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent memos: %w", err)
	}
	return out, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
