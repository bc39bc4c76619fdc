package giftcards

import (
	"context"
	"fmt"
	"net/http"

	"github.com/richxcame/giftcards/pkg/common"
	"github.com/richxcame/giftcards/pkg/eventbus"
	"github.com/richxcame/giftcards/pkg/logger"
	"go.uber.org/zap"
)

// VoucherConsumer is the durable consumer name for voucher delivery
const VoucherConsumer = "giftcards-vouchers"

// EventSubscriber is the subscribing side of the event bus
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durable string, handler eventbus.Handler) error
}

// EventHandler reacts to gift card events
type EventHandler struct {
	service *Service
}

// NewEventHandler creates a new gift card event handler
func NewEventHandler(service *Service) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterSubscriptions wires purchase events to voucher delivery
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, bus EventSubscriber) error {
	if err := bus.Subscribe(ctx, eventbus.SubjectGiftCardPurchased, VoucherConsumer, h.HandlePurchased); err != nil {
		return fmt.Errorf("subscribe %s: %w", eventbus.SubjectGiftCardPurchased, err)
	}
	return nil
}

// HandlePurchased emails the voucher of a freshly bought card. Unknown cards
// and cards without a recipient are skipped. Delivery failures are returned
// so the message is redelivered.
func (h *EventHandler) HandlePurchased(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.GiftCardPurchasedData
	if err := event.Decode(&data); err != nil {
		logger.WithContext(ctx).Error("dropping undecodable purchase event",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return nil
	}

	log := logger.WithContext(ctx).With(
		zap.String("event_id", event.ID),
		zap.String("card_id", data.CardID.String()),
	)

	err := h.service.Deliver(ctx, data.CardID, data.OrderID)
	if err == nil {
		log.Info("gift card voucher delivered")
		return nil
	}

	if appErr, ok := common.AsAppError(err); ok {
		switch appErr.Code {
		case http.StatusNotFound, http.StatusBadRequest:
			log.Warn("skipping voucher delivery", zap.Error(err))
			return nil
		}
	}
	return err
}
