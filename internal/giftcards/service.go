package giftcards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/richxcame/giftcards/pkg/common"
	"github.com/richxcame/giftcards/pkg/eventbus"
	"github.com/richxcame/giftcards/pkg/i18n"
	"github.com/richxcame/giftcards/pkg/logger"
	"github.com/richxcame/giftcards/pkg/security"
	"github.com/richxcame/giftcards/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultTransactionLimit = 20
	maxTransactionLimit     = 100
	eventSource             = "giftcards-service"
	maxNameLength           = 255
	maxNoteLength           = 1000
)

// ServiceConfig holds gift card tuning
type ServiceConfig struct {
	DefaultCurrency string
	CodeMaxAttempts int
	Language        string
}

// Service handles gift card business logic
type Service struct {
	repo       RepositoryInterface
	orders     OrderGateway
	locker     CardLocker
	codes      *CodeGenerator
	applier    *Applier
	dispatcher *Dispatcher
	renderer   VoucherRenderer
	events     EventPublisher
	cfg        ServiceConfig
}

// NewService creates a new gift cards service
func NewService(repo RepositoryInterface, orders OrderGateway, locker CardLocker, cfg ServiceConfig) *Service {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &Service{
		repo:    repo,
		orders:  orders,
		locker:  locker,
		codes:   NewCodeGenerator(repo, cfg.CodeMaxAttempts),
		applier: NewApplier(orders, cfg.Language),
		cfg:     cfg,
	}
}

// SetDelivery enables voucher rendering and email delivery
func (s *Service) SetDelivery(renderer VoucherRenderer, dispatcher *Dispatcher) {
	s.renderer = renderer
	s.dispatcher = dispatcher
}

// SetEventPublisher enables domain events
func (s *Service) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// ========================================
// ISSUING
// ========================================

// CreateCard issues one card and announces the purchase
func (s *Service) CreateCard(ctx context.Context, req *CreateGiftCardRequest) (*GiftCard, error) {
	calc, err := s.calculatorFor(req.Calculator)
	if err != nil {
		return nil, err
	}

	card, err := s.issue(ctx, NewCardParams{
		Amount:     req.Amount,
		Currency:   s.currencyOr(req.Currency),
		Variant:    req.Variant,
		LineItem:   req.LineItem,
		Calculator: calc,
		Email:      req.Email,
		Name:       req.Name,
		Note:       req.Note,
	})
	if err != nil {
		return nil, err
	}
	cardsCreated.WithLabelValues("purchase").Inc()

	var orderID *uuid.UUID
	if card.LineItem != nil && card.LineItem.OrderID != uuid.Nil {
		id := card.LineItem.OrderID
		orderID = &id
	}
	s.publish(ctx, eventbus.SubjectGiftCardPurchased, eventbus.TypeGiftCardPurchased, eventbus.GiftCardPurchasedData{
		CardID:  card.ID,
		OrderID: orderID,
		Email:   card.Email,
	})

	logger.WithContext(ctx).Info("gift card issued",
		zap.String("card_id", card.ID.String()),
		zap.String("value", card.OriginalValue.StringFixed(2)),
		zap.String("currency", card.Currency),
	)
	return card, nil
}

// CreateBulk issues req.Count cards of the same value
func (s *Service) CreateBulk(ctx context.Context, req *CreateBulkRequest) (*BulkCreateResponse, error) {
	calc, err := s.calculatorFor(req.Calculator)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	currency := s.currencyOr(req.Currency)
	cards := make([]*GiftCard, 0, req.Count)

	for i := 0; i < req.Count; i++ {
		card, err := s.issue(ctx, NewCardParams{
			Amount:     &amount,
			Currency:   currency,
			Calculator: calc,
			Note:       req.Note,
		})
		if err != nil {
			return nil, fmt.Errorf("create card %d: %w", i+1, err)
		}
		cards = append(cards, card)
	}
	cardsCreated.WithLabelValues("bulk").Add(float64(len(cards)))

	total := decimal.Zero
	for _, card := range cards {
		total = total.Add(card.OriginalValue)
	}

	return &BulkCreateResponse{Cards: cards, Count: len(cards), Total: total}, nil
}

// issue generates a code and persists the card, regenerating when the insert
// hits the unique constraint on code
func (s *Service) issue(ctx context.Context, params NewCardParams) (*GiftCard, error) {
	params.Email = security.SanitizeEmail(params.Email)
	params.Name = security.SanitizeName(params.Name, maxNameLength)
	params.Note = security.SanitizeText(params.Note, maxNoteLength)

	for attempt := 1; attempt <= s.codes.MaxAttempts(); attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			if errors.Is(err, ErrCodeGenerationExhausted) {
				return nil, common.NewServiceUnavailableError("could not allocate a gift card code", err)
			}
			return nil, common.NewInternalError("failed to generate gift card code", err)
		}

		params.Code = code
		card, err := NewGiftCard(params)
		if err != nil {
			return nil, common.NewBadRequestError(err.Error(), err)
		}

		err = s.repo.CreateCard(ctx, card)
		if err == nil {
			return card, nil
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return nil, common.NewInternalError("failed to create gift card", err)
		}

		codeCollisions.WithLabelValues("insert").Inc()
		logger.WithContext(ctx).Warn("gift card code taken at insert, regenerating",
			zap.String("code", code),
			zap.Int("attempt", attempt),
		)
	}
	return nil, common.NewServiceUnavailableError("could not allocate a gift card code", ErrCodeGenerationExhausted)
}

// ========================================
// LOOKUPS
// ========================================

// GetCard returns a card by ID
func (s *Service) GetCard(ctx context.Context, id uuid.UUID) (*GiftCard, error) {
	card, err := s.repo.GetCardByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return card, nil
}

// GetCardByCode returns a card by its code
func (s *Service) GetCardByCode(ctx context.Context, code string) (*GiftCard, error) {
	code = normalizeCode(code)
	if !validation.IsGiftCardCode(code) {
		return nil, common.NewNotFoundError("gift card not found", ErrCardNotFound)
	}

	card, err := s.repo.GetCardByCode(ctx, code)
	if err != nil {
		return nil, lookupError(err)
	}
	return card, nil
}

// CheckBalance returns the public balance view of a card
func (s *Service) CheckBalance(ctx context.Context, code string) (*BalanceResponse, error) {
	card, err := s.GetCardByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{
		Code:             card.Code,
		Price:            card.Price(),
		CurrentValue:     card.CurrentValue,
		Currency:         card.Currency,
		FormattedBalance: i18n.FormatAmount(card.CurrentValue, card.Currency),
		Usable:           card.CurrentValue.IsPositive(),
	}, nil
}

// ListTransactions returns a page of a card's ledger, newest first
func (s *Service) ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*Transaction, int64, error) {
	if _, err := s.GetCard(ctx, cardID); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}
	if offset < 0 {
		offset = 0
	}

	txns, total, err := s.repo.ListTransactions(ctx, cardID, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list transactions", err)
	}
	if txns == nil {
		txns = []*Transaction{}
	}
	return txns, total, nil
}

// ========================================
// LEDGER
// ========================================

// Debit spends amount from a card while holding its lock. The balance update
// and the ledger entry are stored together or not at all.
func (s *Service) Debit(ctx context.Context, cardID uuid.UUID, amount decimal.Decimal, orderID *uuid.UUID) (*DebitResponse, error) {
	unlock, err := s.lock(ctx, cardID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	card, err := s.repo.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, lookupError(err)
	}

	txn, err := card.Debit(amount, orderID)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			debitsTotal.WithLabelValues("invalid").Inc()
			return nil, common.NewBadRequestError(err.Error(), err)
		}
		debitsTotal.WithLabelValues("insufficient").Inc()
		return nil, common.NewUnprocessableError(err.Error(), err)
	}

	if err := s.repo.SaveDebit(ctx, card, txn); err != nil {
		debitsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, ErrConcurrentUpdate) {
			return nil, common.NewConflictError("gift card was updated concurrently, retry", err)
		}
		return nil, common.NewInternalError("failed to record debit", err)
	}

	debitsTotal.WithLabelValues("ok").Inc()
	debitAmountTotal.WithLabelValues(card.Currency).Add(txn.Amount.InexactFloat64())

	s.publish(ctx, eventbus.SubjectGiftCardDebited, eventbus.TypeGiftCardDebited, eventbus.GiftCardDebitedData{
		CardID:        card.ID,
		TransactionID: txn.ID,
		OrderID:       orderID,
		Amount:        txn.Amount,
		CurrentValue:  card.CurrentValue,
	})

	return &DebitResponse{Transaction: txn, CurrentValue: card.CurrentValue}, nil
}

// ========================================
// ORDERS
// ========================================

// CheckEligibility reports whether a card can be applied to an order and
// the credit it would grant
func (s *Service) CheckEligibility(ctx context.Context, code string, orderID uuid.UUID) (*EligibilityResponse, error) {
	card, err := s.GetCardByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := &EligibilityResponse{Code: card.Code, OrderID: order.ID, Amount: decimal.Zero}
	if card.OrderActivatable(order) {
		resp.Eligible = true
		resp.Amount = card.ComputeAmount(order)
	}
	return resp, nil
}

// ApplyToOrder attaches the card's credit to an order. Applying the same
// card twice leaves a single adjustment.
func (s *Service) ApplyToOrder(ctx context.Context, code string, orderID uuid.UUID) (*ApplyResponse, error) {
	card, err := s.GetCardByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// reload under the lock so the credit sees the latest balance
	card, err = s.repo.GetCardByID(ctx, card.ID)
	if err != nil {
		return nil, lookupError(err)
	}
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !card.OrderActivatable(order) {
		return nil, common.NewBadRequestError("gift card cannot be applied to this order", ErrNotActivatable)
	}

	adjustment, err := s.applier.Apply(ctx, card, order)
	if err != nil {
		return nil, common.NewInternalError("failed to apply gift card", err)
	}

	return &ApplyResponse{Applied: adjustment != nil, Adjustment: adjustment, Order: order}, nil
}

// ========================================
// VOUCHERS
// ========================================

// RenderVoucher returns the voucher PDF of a card
func (s *Service) RenderVoucher(ctx context.Context, cardID uuid.UUID) ([]byte, *GiftCard, error) {
	if s.renderer == nil {
		return nil, nil, common.NewServiceUnavailableError("voucher rendering is not configured", nil)
	}

	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}

	pdf, err := s.renderer.Render(ctx, card)
	if err != nil {
		return nil, nil, common.NewInternalError("failed to render voucher", err)
	}
	return pdf, card, nil
}

// Deliver emails the voucher again, to the order's address when orderID is given
func (s *Service) Deliver(ctx context.Context, cardID uuid.UUID, orderID *uuid.UUID) error {
	if s.dispatcher == nil {
		return common.NewServiceUnavailableError("voucher delivery is not configured", nil)
	}

	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return err
	}

	var order *Order
	if orderID != nil {
		if order, err = s.getOrder(ctx, *orderID); err != nil {
			return err
		}
	}
	if order == nil && card.Email == "" {
		return common.NewBadRequestError("gift card has no recipient email", nil)
	}

	if err := s.dispatcher.Send(ctx, card, order); err != nil {
		return common.NewServiceUnavailableError("failed to deliver voucher", err)
	}
	return nil
}

// ========================================
// HELPERS
// ========================================

func (s *Service) lock(ctx context.Context, cardID uuid.UUID) (func(), error) {
	unlock, err := s.locker.Lock(ctx, cardID)
	if err != nil {
		if errors.Is(err, ErrCardLocked) {
			return nil, common.NewConflictError("gift card is busy, retry shortly", err)
		}
		return nil, common.NewServiceUnavailableError("could not lock gift card", err)
	}
	return unlock, nil
}

func (s *Service) getOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, common.NewNotFoundError("order not found", err)
		}
		return nil, common.NewInternalError("failed to load order", err)
	}
	return order, nil
}

func (s *Service) calculatorFor(spec *CalculatorSpec) (Calculator, error) {
	if spec == nil {
		return CappedCalculator{}, nil
	}
	calc, err := NewCalculator(*spec)
	if err != nil {
		return nil, common.NewBadRequestError(err.Error(),
			validation.NewFieldError("calculator", err.Error(), ErrInvalidCard))
	}
	return calc, nil
}

func (s *Service) currencyOr(currency string) string {
	if currency == "" {
		return s.cfg.DefaultCurrency
	}
	return strings.ToUpper(currency)
}

func (s *Service) publish(ctx context.Context, subject, eventType string, data interface{}) {
	if s.events == nil {
		return
	}

	event, err := eventbus.NewEvent(ctx, eventType, eventSource, data)
	if err == nil {
		err = s.events.Publish(ctx, subject, event)
	}
	if err != nil {
		logger.WithContext(ctx).Warn("failed to publish gift card event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func lookupError(err error) error {
	if errors.Is(err, ErrCardNotFound) {
		return common.NewNotFoundError("gift card not found", err)
	}
	return common.NewInternalError("failed to load gift card", err)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
