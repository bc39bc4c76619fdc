package giftcards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/giftcards/pkg/database"
	"github.com/shopspring/decimal"
)

const codeUniqueConstraint = "gift_cards_code_key"

const cardColumns = `
	id, code, original_value, current_value, currency,
	variant_id, variant_sku, variant_price,
	line_item_id, line_item_order_id, line_item_unit_price, line_item_quantity,
	calculator_type, calculator_amount, email, name, note, sent_at,
	version, created_at, updated_at
`

// Repository handles database operations for gift cards
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new gift cards repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CodeExists reports whether a card already uses code
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM gift_cards WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check gift card code: %w", err)
	}
	return exists, nil
}

// CreateCard inserts a new card. A taken code yields ErrDuplicateCode.
func (r *Repository) CreateCard(ctx context.Context, card *GiftCard) error {
	query := `
		INSERT INTO gift_cards (
			id, code, original_value, current_value, currency,
			variant_id, variant_sku, variant_price,
			line_item_id, line_item_order_id, line_item_unit_price, line_item_quantity,
			calculator_type, calculator_amount, email, name, note,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING version
	`

	var (
		variantID, lineItemID, lineItemOrderID *uuid.UUID
		variantSKU                             *string
		variantPrice, unitPrice                decimal.NullDecimal
		quantity                               *int
	)
	if v := card.Variant; v != nil {
		variantID = &v.ID
		variantSKU = &v.SKU
		variantPrice = decimal.NewNullDecimal(v.Price)
	}
	if li := card.LineItem; li != nil {
		lineItemID = &li.ID
		lineItemOrderID = &li.OrderID
		unitPrice = decimal.NewNullDecimal(li.UnitPrice)
		quantity = &li.Quantity
	}

	calcType := card.CalculatorSpec.Type
	if calcType == "" {
		calcType = CalculatorCapped
	}

	err := r.db.QueryRow(ctx, query,
		card.ID, card.Code, card.OriginalValue, card.CurrentValue, card.Currency,
		variantID, variantSKU, variantPrice,
		lineItemID, lineItemOrderID, unitPrice, quantity,
		string(calcType), card.CalculatorSpec.Amount, card.Email, card.Name, card.Note,
		card.CreatedAt, card.UpdatedAt,
	).Scan(&card.Version)
	if err != nil {
		if database.IsUniqueViolation(err, codeUniqueConstraint) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to create gift card: %w", err)
	}

	return nil
}

// GetCardByID retrieves a card by its ID
func (r *Repository) GetCardByID(ctx context.Context, id uuid.UUID) (*GiftCard, error) {
	query := `SELECT ` + cardColumns + ` FROM gift_cards WHERE id = $1`
	return scanCard(r.db.QueryRow(ctx, query, id))
}

// GetCardByCode retrieves a card by its code
func (r *Repository) GetCardByCode(ctx context.Context, code string) (*GiftCard, error) {
	query := `SELECT ` + cardColumns + ` FROM gift_cards WHERE code = $1`
	return scanCard(r.db.QueryRow(ctx, query, code))
}

// MarkSent records when the voucher was emailed
func (r *Repository) MarkSent(ctx context.Context, cardID uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE gift_cards
		SET sent_at = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, cardID, sentAt)
	if err != nil {
		return fmt.Errorf("failed to mark gift card sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// SaveDebit stores the new balance and its ledger entry in one transaction.
// The row must still carry card.Version, otherwise ErrConcurrentUpdate.
func (r *Repository) SaveDebit(ctx context.Context, card *GiftCard, txn *Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var version int64
	err = tx.QueryRow(ctx, `SELECT version FROM gift_cards WHERE id = $1 FOR UPDATE`, card.ID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to lock gift card: %w", err)
	}
	if version != card.Version {
		return ErrConcurrentUpdate
	}

	_, err = tx.Exec(ctx, `
		UPDATE gift_cards
		SET current_value = $2, version = version + 1, updated_at = $3
		WHERE id = $1
	`, card.ID, card.CurrentValue, card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update gift card balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO gift_card_transactions (id, gift_card_id, order_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, txn.ID, txn.GiftCardID, txn.OrderID, txn.Amount, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert gift card transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit debit: %w", err)
	}

	card.Version = version + 1
	return nil
}

// ListTransactions returns a page of a card's ledger, newest first, with the
// total entry count
func (r *Repository) ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*Transaction, int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM gift_card_transactions WHERE gift_card_id = $1`, cardID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT id, gift_card_id, order_id, amount, created_at
		FROM gift_card_transactions
		WHERE gift_card_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, cardID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]*Transaction, 0)
	for rows.Next() {
		t := &Transaction{}
		if err := rows.Scan(&t.ID, &t.GiftCardID, &t.OrderID, &t.Amount, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, total, nil
}

func scanCard(row pgx.Row) (*GiftCard, error) {
	var (
		card                                   GiftCard
		variantID, lineItemID, lineItemOrderID *uuid.UUID
		variantSKU                             *string
		variantPrice, unitPrice                decimal.NullDecimal
		quantity                               *int
		calcType                               string
	)

	err := row.Scan(
		&card.ID, &card.Code, &card.OriginalValue, &card.CurrentValue, &card.Currency,
		&variantID, &variantSKU, &variantPrice,
		&lineItemID, &lineItemOrderID, &unitPrice, &quantity,
		&calcType, &card.CalculatorSpec.Amount, &card.Email, &card.Name, &card.Note, &card.SentAt,
		&card.Version, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get gift card: %w", err)
	}

	if variantID != nil {
		card.Variant = &Variant{ID: *variantID, Price: variantPrice.Decimal}
		if variantSKU != nil {
			card.Variant.SKU = *variantSKU
		}
	}
	if lineItemID != nil {
		card.LineItem = &LineItem{ID: *lineItemID, UnitPrice: unitPrice.Decimal}
		if lineItemOrderID != nil {
			card.LineItem.OrderID = *lineItemOrderID
		}
		if quantity != nil {
			card.LineItem.Quantity = *quantity
		}
	}

	card.CalculatorSpec.Type = CalculatorType(calcType)
	calc, err := NewCalculator(card.CalculatorSpec)
	if err != nil {
		return nil, fmt.Errorf("gift card %s: %w", card.ID, err)
	}
	card.Calculator = calc

	return &card, nil
}
