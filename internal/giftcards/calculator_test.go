package giftcards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculators_Compute(t *testing.T) {
	tests := []struct {
		name     string
		calc     Calculator
		balance  string
		total    string
		expected string
	}{
		{name: "capped by balance", calc: CappedCalculator{}, balance: "20.00", total: "50.00", expected: "20.00"},
		{name: "capped by total", calc: CappedCalculator{}, balance: "80.00", total: "50.00", expected: "50.00"},
		{name: "capped empty card", calc: CappedCalculator{}, balance: "0", total: "50.00", expected: "0.00"},
		{name: "capped zero total", calc: CappedCalculator{}, balance: "20.00", total: "0", expected: "0.00"},
		{name: "flat under total", calc: FlatCalculator{Amount: dec("5")}, balance: "20.00", total: "50.00", expected: "5.00"},
		{name: "flat over total", calc: FlatCalculator{Amount: dec("75")}, balance: "20.00", total: "50.00", expected: "50.00"},
		{name: "percentage", calc: PercentageCalculator{Percent: dec("10")}, balance: "20.00", total: "45.00", expected: "4.50"},
		{name: "percentage rounds", calc: PercentageCalculator{Percent: dec("33.333")}, balance: "20.00", total: "10.00", expected: "3.33"},
		{name: "percentage negative total", calc: PercentageCalculator{Percent: dec("10")}, balance: "20.00", total: "-5.00", expected: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := testCard(tt.balance)
			card.Calculator = tt.calc

			got := card.ComputeAmount(testOrder(tt.total, OrderStateCart))

			assert.Equal(t, tt.expected, got.StringFixed(2))
		})
	}
}

func TestCappedCalculator_NilCard(t *testing.T) {
	got := CappedCalculator{}.Compute(testOrder("10.00", OrderStateCart), nil)
	assert.True(t, got.IsZero())
}

func TestNewCalculator(t *testing.T) {
	tests := []struct {
		name    string
		spec    CalculatorSpec
		want    Calculator
		wantErr bool
	}{
		{name: "empty type is capped", spec: CalculatorSpec{}, want: CappedCalculator{}},
		{name: "capped", spec: CalculatorSpec{Type: CalculatorCapped}, want: CappedCalculator{}},
		{name: "flat", spec: CalculatorSpec{Type: CalculatorFlat, Amount: dec("5")}, want: FlatCalculator{Amount: dec("5")}},
		{name: "percentage", spec: CalculatorSpec{Type: CalculatorPercentage, Amount: dec("15")}, want: PercentageCalculator{Percent: dec("15")}},
		{name: "negative flat", spec: CalculatorSpec{Type: CalculatorFlat, Amount: dec("-1")}, wantErr: true},
		{name: "percentage over 100", spec: CalculatorSpec{Type: CalculatorPercentage, Amount: dec("100.01")}, wantErr: true},
		{name: "unknown type", spec: CalculatorSpec{Type: "bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := NewCalculator(tt.spec)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCard)
				assert.Nil(t, calc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, calc)
		})
	}
}

func TestCalculatorSpec_RoundTrip(t *testing.T) {
	for _, calc := range []Calculator{
		CappedCalculator{},
		FlatCalculator{Amount: dec("7.50")},
		PercentageCalculator{Percent: dec("20")},
	} {
		rebuilt, err := NewCalculator(calc.Spec())
		require.NoError(t, err)
		assert.Equal(t, calc, rebuilt)
	}
}

func TestLineItem_CalculableTotal(t *testing.T) {
	li := &LineItem{UnitPrice: dec("12.50"), Quantity: 3}
	assert.Equal(t, "37.50", li.CalculableTotal().StringFixed(2))
}
