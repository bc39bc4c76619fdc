package giftcards

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCardNotFound            = errors.New("gift card not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInsufficientBalance     = errors.New("insufficient gift card balance")
	ErrMissingValue            = errors.New("gift card value could not be resolved")
	ErrInvalidCard             = errors.New("invalid gift card")
	ErrDuplicateCode           = errors.New("gift card code already exists")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique gift card code")
	ErrConcurrentUpdate        = errors.New("gift card was updated concurrently")
	ErrCardLocked              = errors.New("gift card is busy, retry shortly")
	ErrNotActivatable          = errors.New("gift card cannot be applied to this order")
	ErrInvalidAmount           = errors.New("invalid debit amount")
	ErrAdjustmentExists        = errors.New("gift card credit already applied to order")
)

// InsufficientBalanceError reports a debit larger than the remaining balance
type InsufficientBalanceError struct {
	CardID    uuid.UUID
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("cannot debit %s from gift card %s: balance is %s",
		e.Requested.StringFixed(2), e.CardID, e.Balance.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
