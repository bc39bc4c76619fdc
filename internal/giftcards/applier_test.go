package giftcards

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplier_CreditsOrder(t *testing.T) {
	ctx := context.Background()
	card := testCard("20.00")
	order := testOrder("50.00", OrderStateCart)
	orders := newMemoryOrders(order)

	adjustment, err := NewApplier(orders, "en").Apply(ctx, card, order)

	require.NoError(t, err)
	require.NotNil(t, adjustment)
	assert.Equal(t, AdjustmentSourceGiftCard, adjustment.SourceType)
	assert.Equal(t, card.ID, adjustment.SourceID)
	assert.Equal(t, "Gift Card", adjustment.Label)
	assert.Equal(t, "-20.00", adjustment.Amount.StringFixed(2))
	assert.Equal(t, "-20.00", order.AdjustmentTotal.StringFixed(2))
	assert.Equal(t, "30.00", order.Total.StringFixed(2))
	assert.Equal(t, 2, orders.updates)
}

func TestApplier_CapsAtOrderTotal(t *testing.T) {
	card := testCard("80.00")
	order := testOrder("50.00", OrderStateCart)

	adjustment, err := NewApplier(newMemoryOrders(order), "en").Apply(context.Background(), card, order)

	require.NoError(t, err)
	assert.Equal(t, "-50.00", adjustment.Amount.StringFixed(2))
	assert.True(t, order.Total.IsZero())
}

func TestApplier_Idempotent(t *testing.T) {
	ctx := context.Background()
	card := testCard("20.00")
	order := testOrder("50.00", OrderStateCart)
	orders := newMemoryOrders(order)
	applier := NewApplier(orders, "de")

	first, err := applier.Apply(ctx, card, order)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Gutschein", first.Label)

	second, err := applier.Apply(ctx, card, order)

	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, orders.adjustments, 1)
	assert.Equal(t, "30.00", order.Total.StringFixed(2))
}

func TestApplier_SizesAgainstFreshTotals(t *testing.T) {
	ctx := context.Background()
	card := testCard("20.00")
	order := testOrder("50.00", OrderStateCart)
	orders := newMemoryOrders(order)

	// another promotion already took 40 off; the caller's copy is stale
	other := testCard("40.00")
	_, err := NewApplier(orders, "en").Apply(ctx, other, order)
	require.NoError(t, err)
	stale := testOrder("50.00", OrderStateCart)
	stale.ID = order.ID

	adjustment, err := NewApplier(orders, "en").Apply(ctx, card, stale)

	require.NoError(t, err)
	assert.Equal(t, "-10.00", adjustment.Amount.StringFixed(2))
	assert.True(t, stale.Total.IsZero())
}

// staleCreditCheck misses credits attached after the check, like two
// concurrent applies that both pass GiftCreditExists
type staleCreditCheck struct {
	*memoryOrders
}

func (staleCreditCheck) GiftCreditExists(ctx context.Context, orderID, cardID uuid.UUID) (bool, error) {
	return false, nil
}

func TestApplier_LostInsertRaceIsNoOp(t *testing.T) {
	ctx := context.Background()
	card := testCard("20.00")
	order := testOrder("50.00", OrderStateCart)
	orders := newMemoryOrders(order)
	applier := NewApplier(staleCreditCheck{orders}, "en")

	first, err := applier.Apply(ctx, card, order)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := applier.Apply(ctx, card, order)

	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, orders.adjustments, 1)
	assert.Equal(t, "30.00", order.Total.StringFixed(2))
}
