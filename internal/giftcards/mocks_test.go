package giftcards

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/giftcards/pkg/email"
	"github.com/richxcame/giftcards/pkg/eventbus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// mockRepository implements RepositoryInterface for testing
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) CreateCard(ctx context.Context, card *GiftCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *mockRepository) GetCardByID(ctx context.Context, id uuid.UUID) (*GiftCard, error) {
	args := m.Called(ctx, id)
	card, _ := args.Get(0).(*GiftCard)
	return card, args.Error(1)
}

func (m *mockRepository) GetCardByCode(ctx context.Context, code string) (*GiftCard, error) {
	args := m.Called(ctx, code)
	card, _ := args.Get(0).(*GiftCard)
	return card, args.Error(1)
}

func (m *mockRepository) MarkSent(ctx context.Context, cardID uuid.UUID, sentAt time.Time) error {
	args := m.Called(ctx, cardID, sentAt)
	return args.Error(0)
}

func (m *mockRepository) SaveDebit(ctx context.Context, card *GiftCard, tx *Transaction) error {
	args := m.Called(ctx, card, tx)
	return args.Error(0)
}

func (m *mockRepository) ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*Transaction, int64, error) {
	args := m.Called(ctx, cardID, limit, offset)
	txns, _ := args.Get(0).([]*Transaction)
	return txns, args.Get(1).(int64), args.Error(2)
}

// mockPublisher implements EventPublisher for testing
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, event *eventbus.Event) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

// mockRenderer implements VoucherRenderer for testing
type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, card *GiftCard) ([]byte, error) {
	args := m.Called(ctx, card)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// mockSender implements email.Sender for testing
type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg *email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// memoryRepository is a stateful RepositoryInterface for ledger tests
type memoryRepository struct {
	mu    sync.Mutex
	cards map[uuid.UUID]GiftCard
	txns  []*Transaction
}

func newMemoryRepository(cards ...*GiftCard) *memoryRepository {
	r := &memoryRepository{cards: make(map[uuid.UUID]GiftCard)}
	for _, c := range cards {
		r.cards[c.ID] = *c
	}
	return r
}

func (r *memoryRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cards {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) CreateCard(ctx context.Context, card *GiftCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cards {
		if c.Code == card.Code {
			return ErrDuplicateCode
		}
	}
	card.Version = 1
	r.cards[card.ID] = *card
	return nil
}

func (r *memoryRepository) GetCardByID(ctx context.Context, id uuid.UUID) (*GiftCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	return &c, nil
}

func (r *memoryRepository) GetCardByCode(ctx context.Context, code string) (*GiftCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cards {
		if c.Code == code {
			card := c
			return &card, nil
		}
	}
	return nil, ErrCardNotFound
}

func (r *memoryRepository) MarkSent(ctx context.Context, cardID uuid.UUID, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[cardID]
	if !ok {
		return ErrCardNotFound
	}
	c.SentAt = &sentAt
	r.cards[cardID] = c
	return nil
}

func (r *memoryRepository) SaveDebit(ctx context.Context, card *GiftCard, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cards[card.ID]
	if !ok {
		return ErrCardNotFound
	}
	if stored.Version != card.Version {
		return ErrConcurrentUpdate
	}
	card.Version++
	r.cards[card.ID] = *card
	r.txns = append(r.txns, tx)
	return nil
}

func (r *memoryRepository) ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Transaction
	for _, t := range r.txns {
		if t.GiftCardID == cardID {
			out = append(out, t)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

// memoryOrders is a stateful OrderGateway
type memoryOrders struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*Order
	adjustments []*Adjustment
	updates     int
}

func newMemoryOrders(orders ...*Order) *memoryOrders {
	o := &memoryOrders{orders: make(map[uuid.UUID]*Order)}
	for _, order := range orders {
		stored := *order
		o.orders[order.ID] = &stored
	}
	return o
}

func (o *memoryOrders) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (o *memoryOrders) GiftCreditExists(ctx context.Context, orderID, cardID uuid.UUID) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, a := range o.adjustments {
		if a.OrderID == orderID && a.SourceType == AdjustmentSourceGiftCard && a.SourceID == cardID {
			return true, nil
		}
	}
	return false, nil
}

func (o *memoryOrders) UpdateTotals(ctx context.Context, order *Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	stored, ok := o.orders[order.ID]
	if !ok {
		return ErrOrderNotFound
	}
	sum := decimal.Zero
	for _, a := range o.adjustments {
		if a.OrderID == order.ID {
			sum = sum.Add(a.Amount)
		}
	}
	stored.AdjustmentTotal = sum
	stored.Total = stored.ItemTotal.Add(sum)
	*order = *stored
	o.updates++
	return nil
}

func (o *memoryOrders) CreateAdjustment(ctx context.Context, adjustment *Adjustment) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, existing := range o.adjustments {
		if existing.OrderID == adjustment.OrderID &&
			existing.SourceType == adjustment.SourceType &&
			existing.SourceID == adjustment.SourceID {
			return ErrAdjustmentExists
		}
	}
	o.adjustments = append(o.adjustments, adjustment)
	return nil
}

// ========================================
// FIXTURES
// ========================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCard(value string) *GiftCard {
	v := dec(value)
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	return &GiftCard{
		ID:             uuid.New(),
		Code:           "a1b2c3d4",
		OriginalValue:  v,
		CurrentValue:   v,
		Currency:       "EUR",
		CalculatorSpec: CappedCalculator{}.Spec(),
		Calculator:     CappedCalculator{},
		Version:        1,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func testOrder(total string, state OrderState) *Order {
	t := dec(total)
	return &Order{
		ID:              uuid.New(),
		Number:          "R123456789",
		Email:           "buyer@example.com",
		State:           state,
		Currency:        "EUR",
		ItemTotal:       t,
		AdjustmentTotal: decimal.Zero,
		Total:           t,
		CreatedAt:       time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}
