package eventbus

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subjects and event types
const (
	SubjectGiftCardPurchased = "giftcards.purchased"
	SubjectGiftCardDebited   = "giftcards.debited"

	TypeGiftCardPurchased = "giftcard.purchased"
	TypeGiftCardDebited   = "giftcard.debited"
)

// GiftCardPurchasedData is published when a card is created from an order
type GiftCardPurchasedData struct {
	CardID  uuid.UUID  `json:"card_id"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
	Email   string     `json:"email,omitempty"`
}

// GiftCardDebitedData is published after a committed debit
type GiftCardDebitedData struct {
	CardID        uuid.UUID       `json:"card_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CurrentValue  decimal.Decimal `json:"current_value"`
}
