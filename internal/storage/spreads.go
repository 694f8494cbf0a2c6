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

// Spread is a saved card layout.
type Spread struct {
	ID         string    `db:"id" json:"id"`
	SpreadType string    `db:"spread_type" json:"spreadType"`
	DeckID     string    `db:"deck_id" json:"deckId"`
	Title      *string   `db:"title" json:"title,omitempty"`
	ImageURI   *string   `db:"image_uri" json:"imageUri,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SpreadCard is one placed card of a spread.
type SpreadCard struct {
	ID            string  `db:"id" json:"id"`
	SpreadID      string  `db:"spread_id" json:"spreadId"`
	PositionIndex int     `db:"position_index" json:"positionIndex"`
	CardKey       string  `db:"card_key" json:"cardKey"`
	Reversed      bool    `db:"reversed" json:"reversed"`
	X             float64 `db:"x" json:"x"`
	Y             float64 `db:"y" json:"y"`
	Width         float64 `db:"width" json:"width"`
	Height        float64 `db:"height" json:"height"`
}

// CreateSpread stores a spread and its cards in one transaction. Empty ids
// are generated and an empty deck id defaults to classic. The stored spread
// is returned.
func (db *DB) CreateSpread(ctx context.Context, sp Spread, cards []SpreadCard) (Spread, error) {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	if sp.DeckID == "" {
		sp.DeckID = "classic"
	}
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = db.now()
	}

	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO spreads (id, spread_type, deck_id, title, image_uri, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sp.ID, sp.SpreadType, sp.DeckID, sp.Title, sp.ImageURI, sp.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert spread: %w", err)
		}
		for _, c := range cards {
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO spread_cards (id, spread_id, position_index, card_key, reversed, x, y, width, height)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, c.ID, sp.ID, c.PositionIndex, c.CardKey, c.Reversed, c.X, c.Y, c.Width, c.Height)
			if err != nil {
				return fmt.Errorf("failed to insert card at position %d: %w", c.PositionIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		return Spread{}, err
	}
	return sp, nil
}

// Spread retrieves a spread by id.
func (db *DB) Spread(ctx context.Context, id string) (Spread, error) {
	var sp Spread
	err := db.conn.GetContext(ctx, &sp, `
		SELECT id, spread_type, deck_id, title, image_uri, created_at
		FROM spreads WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Spread{}, ErrNotFound
	}
	if err != nil {
		return Spread{}, fmt.Errorf("failed to get spread %s: %w", id, err)
	}
	return sp, nil
}

// SpreadCards returns the cards of a spread ordered by position.
func (db *DB) SpreadCards(ctx context.Context, spreadID string) ([]SpreadCard, error) {
	var cards []SpreadCard
	err := db.conn.SelectContext(ctx, &cards, `
		SELECT id, spread_id, position_index, card_key, reversed, x, y, width, height
		FROM spread_cards WHERE spread_id = ?
		ORDER BY position_index
	`, spreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for spread %s: %w", spreadID, err)
	}
	return cards, nil
}

// ListSpreads returns up to limit spreads, newest first.
func (db *DB) ListSpreads(ctx context.Context, limit int) ([]Spread, error) {
	var out []Spread
	err := db.conn.SelectContext(ctx, &out, `
		SELECT id, spread_type, deck_id, title, image_uri, created_at
		FROM spreads
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list spreads: %w", err)
	}
	return out, nil
}

// DeleteSpread removes a spread and, by cascade, its cards.
func (db *DB) DeleteSpread(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM spreads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete spread %s: %w", id, err)
	}
	return expectAffected(res)
}
