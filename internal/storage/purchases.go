package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPlatform is returned for a purchase platform other than ios or
// android.
var ErrInvalidPlatform = errors.New("platform must be ios or android")

// Purchase is a recorded product purchase.
type Purchase struct {
	ID           string    `db:"id" json:"id"`
	ProductID    string    `db:"product_id" json:"productId"`
	PurchaseDate time.Time `db:"purchase_date" json:"purchaseDate"`
	Platform     string    `db:"platform" json:"platform"`
	IsActive     bool      `db:"is_active" json:"isActive"`
}

// RecordPurchase stores an active purchase of productID.
func (db *DB) RecordPurchase(ctx context.Context, productID, platform string, at time.Time) (Purchase, error) {
	if platform != "ios" && platform != "android" {
		return Purchase{}, fmt.Errorf("%w: %q", ErrInvalidPlatform, platform)
	}
	p := Purchase{
		ID:           uuid.NewString(),
		ProductID:    productID,
		PurchaseDate: at.UTC(),
		Platform:     platform,
		IsActive:     true,
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO purchases (id, product_id, purchase_date, platform, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.ProductID, p.PurchaseDate, p.Platform, p.IsActive)
	if err != nil {
		return Purchase{}, fmt.Errorf("failed to record purchase of %s: %w", productID, err)
	}
	return p, nil
}

// ActivePurchases returns the active purchases of productID, newest first.
func (db *DB) ActivePurchases(ctx context.Context, productID string) ([]Purchase, error) {
	var out []Purchase
	err := db.conn.SelectContext(ctx, &out, `
		SELECT id, product_id, purchase_date, platform, is_active
		FROM purchases WHERE product_id = ? AND is_active = 1
		ORDER BY purchase_date DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases of %s: %w", productID, err)
	}
	return out, nil
}

// DeactivatePurchase marks a purchase inactive.
func (db *DB) DeactivatePurchase(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE purchases SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate purchase %s: %w", id, err)
	}
	return expectAffected(res)
}
