package giftcards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/giftcards/pkg/eventbus"
)

// RepositoryInterface defines the contract for gift cards repository operations
type RepositoryInterface interface {
	CodeChecker

	// Gift card operations
	CreateCard(ctx context.Context, card *GiftCard) error
	GetCardByID(ctx context.Context, id uuid.UUID) (*GiftCard, error)
	GetCardByCode(ctx context.Context, code string) (*GiftCard, error)
	MarkSent(ctx context.Context, cardID uuid.UUID, sentAt time.Time) error

	// Ledger operations
	SaveDebit(ctx context.Context, card *GiftCard, tx *Transaction) error
	ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*Transaction, int64, error)
}

// OrderGateway is the storefront order engine as seen by gift cards
type OrderGateway interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GiftCreditExists(ctx context.Context, orderID, cardID uuid.UUID) (bool, error)
	// UpdateTotals recomputes and persists the order totals, refreshing order in place
	UpdateTotals(ctx context.Context, order *Order) error
	CreateAdjustment(ctx context.Context, adjustment *Adjustment) error
}

// CardLocker serializes writers per card
type CardLocker interface {
	Lock(ctx context.Context, cardID uuid.UUID) (unlock func(), err error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event *eventbus.Event) error
}

// VoucherRenderer turns a card into a printable document
type VoucherRenderer interface {
	Render(ctx context.Context, card *GiftCard) ([]byte, error)
}
