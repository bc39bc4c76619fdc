// Package orders reads and adjusts storefront orders on behalf of gift cards.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/giftcards/internal/giftcards"
)

// Repository implements giftcards.OrderGateway on the storefront tables
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new orders repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ giftcards.OrderGateway = (*Repository)(nil)

// GetOrder retrieves an order by ID
func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*giftcards.Order, error) {
	query := `
		SELECT id, number, email, state, currency, item_total, adjustment_total, total, created_at
		FROM orders
		WHERE id = $1
	`

	order := &giftcards.Order{}
	var state string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.Number, &order.Email, &state, &order.Currency,
		&order.ItemTotal, &order.AdjustmentTotal, &order.Total, &order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, giftcards.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.State = giftcards.OrderState(state)

	return order, nil
}

// GiftCreditExists reports whether cardID already credits orderID
func (r *Repository) GiftCreditExists(ctx context.Context, orderID, cardID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM adjustments
			WHERE order_id = $1 AND source_type = $2 AND source_id = $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, orderID, giftcards.AdjustmentSourceGiftCard, cardID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check gift credit: %w", err)
	}
	return exists, nil
}

// UpdateTotals sums the order's adjustments into adjustment_total and total
// and copies the stored figures back into order
func (r *Repository) UpdateTotals(ctx context.Context, order *giftcards.Order) error {
	query := `
		UPDATE orders o
		SET adjustment_total = a.sum,
		    total = o.item_total + a.sum,
		    updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(amount), 0) AS sum
			FROM adjustments
			WHERE order_id = $1
		) a
		WHERE o.id = $1
		RETURNING o.item_total, o.adjustment_total, o.total
	`

	err := r.db.QueryRow(ctx, query, order.ID).Scan(&order.ItemTotal, &order.AdjustmentTotal, &order.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return giftcards.ErrOrderNotFound
		}
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return nil
}

// CreateAdjustment attaches an adjustment. A second gift card adjustment for
// the same order and card is ignored.
func (r *Repository) CreateAdjustment(ctx context.Context, adjustment *giftcards.Adjustment) error {
	query := `
		INSERT INTO adjustments (id, order_id, source_type, source_id, label, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		adjustment.ID, adjustment.OrderID, adjustment.SourceType,
		adjustment.SourceID, adjustment.Label, adjustment.Amount,
	).Scan(&adjustment.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return giftcards.ErrAdjustmentExists
	}
	if err != nil {
		return fmt.Errorf("failed to create adjustment: %w", err)
	}
	return nil
}
