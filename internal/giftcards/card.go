package giftcards

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/giftcards/pkg/validation"
	"github.com/shopspring/decimal"
)

var unactivatableOrderStates = map[OrderState]bool{
	OrderStateComplete:       true,
	OrderStateAwaitingReturn: true,
	OrderStateReturned:       true,
}

// NewCardParams carries everything needed to issue a card
type NewCardParams struct {
	Code       string
	Amount     *decimal.Decimal
	Currency   string
	Variant    *Variant
	LineItem   *LineItem
	Calculator Calculator
	Email      string
	Name       string
	Note       string
	Now        time.Time
}

// NewGiftCard builds a card with its code, calculator and both values set.
// The value is the explicit amount, else the line item total, else the
// variant price.
func NewGiftCard(params NewCardParams) (*GiftCard, error) {
	if params.Code == "" {
		return nil, validation.NewFieldError("code", "code is required", ErrInvalidCard)
	}

	value, ok := resolveValue(params)
	if !ok {
		return nil, validation.NewFieldError("original_value",
			"a value, line item or variant price is required", ErrMissingValue)
	}
	if value.IsNegative() {
		return nil, validation.NewFieldError("original_value", "value must not be negative", ErrInvalidCard)
	}

	calc := params.Calculator
	if calc == nil {
		calc = CappedCalculator{}
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &GiftCard{
		ID:             uuid.New(),
		Code:           params.Code,
		OriginalValue:  value,
		CurrentValue:   value,
		Currency:       params.Currency,
		Variant:        params.Variant,
		LineItem:       params.LineItem,
		CalculatorSpec: calc.Spec(),
		Calculator:     calc,
		Email:          params.Email,
		Name:           params.Name,
		Note:           params.Note,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func resolveValue(params NewCardParams) (decimal.Decimal, bool) {
	switch {
	case params.Amount != nil:
		return params.Amount.Round(2), true
	case params.LineItem != nil:
		return params.LineItem.CalculableTotal().Round(2), true
	case params.Variant != nil:
		return params.Variant.Price.Round(2), true
	default:
		return decimal.Zero, false
	}
}

// Price is the face value printed on the voucher. It does not change as the
// card is spent.
func (g *GiftCard) Price() decimal.Decimal {
	switch {
	case g.LineItem != nil:
		return g.LineItem.CalculableTotal()
	case g.Variant != nil:
		return g.Variant.Price
	default:
		return g.OriginalValue
	}
}

// Debit takes |amount| off the balance and returns the ledger entry. On a
// shortfall or a sub-cent amount the card is left untouched.
func (g *GiftCard) Debit(amount decimal.Decimal, orderID *uuid.UUID) (*Transaction, error) {
	magnitude := amount.Abs()
	if !magnitude.Equal(magnitude.Round(2)) {
		return nil, validation.NewFieldError("amount", "amount must not have more than 2 decimal places", ErrInvalidAmount)
	}

	if g.CurrentValue.Sub(magnitude).IsNegative() {
		return nil, &InsufficientBalanceError{
			CardID:    g.ID,
			Balance:   g.CurrentValue,
			Requested: magnitude,
		}
	}

	now := time.Now().UTC()
	g.CurrentValue = g.CurrentValue.Sub(magnitude)
	g.UpdatedAt = now

	return &Transaction{
		ID:         uuid.New(),
		GiftCardID: g.ID,
		OrderID:    orderID,
		Amount:     magnitude,
		CreatedAt:  now,
	}, nil
}

// OrderActivatable reports whether the card may be applied to order
func (g *GiftCard) OrderActivatable(order *Order) bool {
	return order != nil &&
		g.CreatedAt.Before(order.CreatedAt) &&
		g.CurrentValue.IsPositive() &&
		!unactivatableOrderStates[order.State]
}

// ComputeAmount is the credit the card's calculator grants against calculable
func (g *GiftCard) ComputeAmount(calculable Calculable) decimal.Decimal {
	calc := g.Calculator
	if calc == nil {
		calc = CappedCalculator{}
	}
	return calc.Compute(calculable, g)
}
