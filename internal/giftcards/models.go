package giftcards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState is the checkout state of a storefront order
type OrderState string

const (
	OrderStateCart           OrderState = "cart"
	OrderStateAddress        OrderState = "address"
	OrderStateDelivery       OrderState = "delivery"
	OrderStatePayment        OrderState = "payment"
	OrderStateConfirm        OrderState = "confirm"
	OrderStateComplete       OrderState = "complete"
	OrderStateCanceled       OrderState = "canceled"
	OrderStateAwaitingReturn OrderState = "awaiting_return"
	OrderStateReturned       OrderState = "returned"
)

// AdjustmentSourceGiftCard tags adjustments created by gift cards
const AdjustmentSourceGiftCard = "gift_card"

// CalculatorType names a discount policy
type CalculatorType string

const (
	CalculatorCapped     CalculatorType = "capped"
	CalculatorFlat       CalculatorType = "flat"
	CalculatorPercentage CalculatorType = "percentage"
)

// Variant is the priced catalog item a card was bought as
type Variant struct {
	ID    uuid.UUID       `json:"id"`
	SKU   string          `json:"sku"`
	Price decimal.Decimal `json:"price" validate:"decimal_gte0"`
}

// LineItem is the order line a card was bought on
type LineItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"decimal_gte0"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
}

// CalculatorSpec is the persisted form of a card's calculator
type CalculatorSpec struct {
	Type   CalculatorType  `json:"type" validate:"calculator_type"`
	Amount decimal.Decimal `json:"amount" validate:"decimal_gte0"`
}

// GiftCard is a store-issued card with a spendable balance
type GiftCard struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	OriginalValue  decimal.Decimal `json:"original_value"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	Currency       string          `json:"currency"`
	Variant        *Variant        `json:"variant,omitempty"`
	LineItem       *LineItem       `json:"line_item,omitempty"`
	CalculatorSpec CalculatorSpec  `json:"calculator"`
	Calculator     Calculator      `json:"-"`
	Email          string          `json:"email,omitempty"`
	Name           string          `json:"name,omitempty"`
	Note           string          `json:"note,omitempty"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	Version        int64           `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Transaction is an append-only ledger entry for a debit
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	GiftCardID uuid.UUID       `json:"gift_card_id"`
	OrderID    *uuid.UUID      `json:"order_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Order is the part of a storefront order gift cards read
type Order struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	Email           string          `json:"email"`
	State           OrderState      `json:"state"`
	Currency        string          `json:"currency"`
	ItemTotal       decimal.Decimal `json:"item_total"`
	AdjustmentTotal decimal.Decimal `json:"adjustment_total"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Adjustment is a credit or charge attached to an order
type Adjustment struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	SourceType string          `json:"source_type"`
	SourceID   uuid.UUID       `json:"source_id"`
	Label      string          `json:"label"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateGiftCardRequest represents a purchase or admin issue of one card.
// The value comes from Amount, then LineItem, then Variant.
type CreateGiftCardRequest struct {
	Amount     *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,decimal_gt0"`
	Currency   string           `json:"currency,omitempty" validate:"omitempty,iso4217"`
	Variant    *Variant         `json:"variant,omitempty"`
	LineItem   *LineItem        `json:"line_item,omitempty"`
	Calculator *CalculatorSpec  `json:"calculator,omitempty"`
	Email      string           `json:"email,omitempty" validate:"omitempty,email"`
	Name       string           `json:"name,omitempty" validate:"max=255"`
	Note       string           `json:"note,omitempty" validate:"max=1000"`
}

// CreateBulkRequest issues many cards of the same value
type CreateBulkRequest struct {
	Count      int             `json:"count" validate:"required,min=1,max=1000"`
	Amount     decimal.Decimal `json:"amount" validate:"decimal_gt0"`
	Currency   string          `json:"currency,omitempty" validate:"omitempty,iso4217"`
	Calculator *CalculatorSpec `json:"calculator,omitempty"`
	Note       string          `json:"note,omitempty" validate:"max=1000"`
}

// BulkCreateResponse lists the cards created by CreateBulk
type BulkCreateResponse struct {
	Cards []*GiftCard     `json:"cards"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// DebitRequest spends from a card
type DebitRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"decimal_gte0"`
	OrderID *uuid.UUID      `json:"order_id,omitempty"`
}

// OrderRequest names the order an operation targets
type OrderRequest struct {
	OrderID uuid.UUID `json:"order_id" form:"order_id" validate:"required"`
}

// DeliverRequest resends a voucher, optionally to an order's email
type DeliverRequest struct {
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

// DebitResponse is returned after a successful debit
type DebitResponse struct {
	Transaction  *Transaction    `json:"transaction"`
	CurrentValue decimal.Decimal `json:"current_value"`
}

// BalanceResponse is the public view of a card's balance
type BalanceResponse struct {
	Code             string          `json:"code"`
	Price            decimal.Decimal `json:"price"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	Currency         string          `json:"currency"`
	FormattedBalance string          `json:"formatted_balance"`
	Usable           bool            `json:"usable"`
}

// EligibilityResponse tells whether a card can be applied to an order
type EligibilityResponse struct {
	Code     string          `json:"code"`
	OrderID  uuid.UUID       `json:"order_id"`
	Eligible bool            `json:"eligible"`
	Amount   decimal.Decimal `json:"amount"`
}

// ApplyResponse is returned after applying a card to an order
type ApplyResponse struct {
	Applied    bool        `json:"applied"`
	Adjustment *Adjustment `json:"adjustment,omitempty"`
	Order      *Order      `json:"order"`
}
