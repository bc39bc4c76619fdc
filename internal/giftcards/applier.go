package giftcards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/richxcame/giftcards/pkg/i18n"
	"github.com/richxcame/giftcards/pkg/logger"
	"go.uber.org/zap"
)

// Applier attaches a card's credit to an order as an adjustment
type Applier struct {
	orders OrderGateway
	label  string
}

// NewApplier creates an applier labelling adjustments in lang
func NewApplier(orders OrderGateway, lang string) *Applier {
	return &Applier{
		orders: orders,
		label:  i18n.Translate("giftcard.adjustment.label", lang),
	}
}

// Apply credits order with card. It returns nil without error when the order
// already carries this card's credit, including when a concurrent apply wins
// the insert. Totals are recomputed before the
// adjustment is sized and again after it is attached.
func (a *Applier) Apply(ctx context.Context, card *GiftCard, order *Order) (*Adjustment, error) {
	exists, err := a.orders.GiftCreditExists(ctx, order.ID, card.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing credit: %w", err)
	}
	if exists {
		logger.WithContext(ctx).Debug("gift card already applied",
			zap.String("code", card.Code),
			zap.String("order_id", order.ID.String()),
		)
		return nil, nil
	}

	if err := a.orders.UpdateTotals(ctx, order); err != nil {
		return nil, fmt.Errorf("update totals: %w", err)
	}

	adjustment := &Adjustment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		SourceType: AdjustmentSourceGiftCard,
		SourceID:   card.ID,
		Label:      a.label,
		Amount:     card.ComputeAmount(order).Neg(),
	}
	if err := a.orders.CreateAdjustment(ctx, adjustment); err != nil {
		if errors.Is(err, ErrAdjustmentExists) {
			logger.WithContext(ctx).Debug("gift card credit attached concurrently",
				zap.String("code", card.Code),
				zap.String("order_id", order.ID.String()),
			)
			return nil, a.refresh(ctx, order)
		}
		return nil, fmt.Errorf("create adjustment: %w", err)
	}

	if err := a.refresh(ctx, order); err != nil {
		return nil, err
	}
	return adjustment, nil
}

func (a *Applier) refresh(ctx context.Context, order *Order) error {
	if err := a.orders.UpdateTotals(ctx, order); err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	return nil
}
