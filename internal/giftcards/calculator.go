package giftcards

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculable is anything a discount can be computed against
type Calculable interface {
	CalculableTotal() decimal.Decimal
}

// Calculator computes the credit a card grants against a calculable.
// Results are always within [0, calculable total].
type Calculator interface {
	Compute(calculable Calculable, card *GiftCard) decimal.Decimal
	Spec() CalculatorSpec
}

// CalculableTotal implements Calculable
func (o *Order) CalculableTotal() decimal.Decimal {
	return o.Total
}

// CalculableTotal implements Calculable
func (li *LineItem) CalculableTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CappedCalculator credits the whole remaining balance, up to the total.
// It is the default gift card policy.
type CappedCalculator struct{}

func (CappedCalculator) Compute(calculable Calculable, card *GiftCard) decimal.Decimal {
	if card == nil {
		return decimal.Zero
	}
	return bound(card.CurrentValue, calculable.CalculableTotal())
}

func (CappedCalculator) Spec() CalculatorSpec {
	return CalculatorSpec{Type: CalculatorCapped, Amount: decimal.Zero}
}

// FlatCalculator credits a fixed amount
type FlatCalculator struct {
	Amount decimal.Decimal
}

func (c FlatCalculator) Compute(calculable Calculable, _ *GiftCard) decimal.Decimal {
	return bound(c.Amount, calculable.CalculableTotal())
}

func (c FlatCalculator) Spec() CalculatorSpec {
	return CalculatorSpec{Type: CalculatorFlat, Amount: c.Amount}
}

// PercentageCalculator credits a percentage of the total
type PercentageCalculator struct {
	Percent decimal.Decimal
}

func (c PercentageCalculator) Compute(calculable Calculable, _ *GiftCard) decimal.Decimal {
	total := calculable.CalculableTotal()
	return bound(total.Mul(c.Percent).Div(hundred).Round(2), total)
}

func (c PercentageCalculator) Spec() CalculatorSpec {
	return CalculatorSpec{Type: CalculatorPercentage, Amount: c.Percent}
}

// NewCalculator rebuilds a calculator from its persisted spec. An empty type
// selects the capped policy.
func NewCalculator(spec CalculatorSpec) (Calculator, error) {
	switch spec.Type {
	case "", CalculatorCapped:
		return CappedCalculator{}, nil
	case CalculatorFlat:
		if spec.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: flat amount must not be negative", ErrInvalidCard)
		}
		return FlatCalculator{Amount: spec.Amount}, nil
	case CalculatorPercentage:
		if spec.Amount.IsNegative() || spec.Amount.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidCard)
		}
		return PercentageCalculator{Percent: spec.Amount}, nil
	default:
		return nil, fmt.Errorf("%w: unknown calculator %q", ErrInvalidCard, spec.Type)
	}
}

func bound(amount, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() || !amount.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(amount, total)
}
