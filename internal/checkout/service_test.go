package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamkart/storefront/internal/domain"
	"github.com/streamkart/storefront/internal/orders"
)

type mockCartGateway struct {
	mu         sync.Mutex
	cart       *domain.Cart
	getErr     error
	clearErr   error
	clearCalls int
}

func (m *mockCartGateway) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.cart, nil
}

func (m *mockCartGateway) ClearCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
	if m.clearErr != nil {
		return nil, m.clearErr
	}
	return &domain.Cart{ID: m.cart.ID, UserID: userID}, nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	created   []*domain.Order
	createErr error
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, order)
	return nil
}

func (m *mockOrderRepo) GetOrderByID(context.Context, uuid.UUID) (*domain.Order, error) {
	return nil, orders.ErrOrderNotFound
}

func (m *mockOrderRepo) ListOrdersByUserID(context.Context, string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) ListOrders(context.Context, *domain.OrderStatus, int, int) ([]*domain.Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) UpdateStatus(context.Context, uuid.UUID, domain.OrderStatus) (*domain.Order, error) {
	return nil, orders.ErrOrderNotFound
}

func (m *mockOrderRepo) GetUnprocessedEvents(context.Context, int) ([]*orders.OutboxEvent, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkEventAsProcessed(context.Context, int64) error {
	return nil
}

func loadedCart() *domain.Cart {
	return &domain.Cart{
		ID:     uuid.New(),
		UserID: "user-123",
		Items: []domain.CartItem{
			{
				ID:          uuid.New(),
				PlanID:      "netflix-tier-1",
				ServiceName: "Netflix",
				PlanLabel:   "Premium — 3 months",
				UnitPrice:   decimal.NewFromInt(2800),
				Quantity:    2,
			},
		},
		Discount:     decimal.NewFromInt(560),
		DiscountCode: "SAVE10",
		Subtotal:     decimal.NewFromInt(5600),
		Total:        decimal.NewFromInt(5040),
	}
}

func validRequest() Request {
	return Request{
		CustomerName:  "Dana Petrov",
		CustomerPhone: "+995 555 123 456",
		CustomerEmail: "dana@example.com",
	}
}

func TestCheckout_SnapshotsCartIntoOrder(t *testing.T) {
	gateway := &mockCartGateway{cart: loadedCart()}
	repo := &mockOrderRepo{}
	sut := NewService(gateway, repo, zerolog.Nop())

	order, err := sut.Checkout(context.Background(), "user-123", validRequest())
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(5600)))
	assert.True(t, order.Discount.Equal(decimal.NewFromInt(560)))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(5040)))
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "netflix-tier-1", order.Lines[0].PlanID)
	assert.Equal(t, 2, order.Lines[0].Quantity)

	require.Len(t, repo.created, 1)
	assert.Equal(t, order.ID, repo.created[0].ID)
	assert.Equal(t, 1, gateway.clearCalls)
}

func TestCheckout_EmptyCart(t *testing.T) {
	gateway := &mockCartGateway{cart: &domain.Cart{ID: uuid.New(), UserID: "user-123"}}
	repo := &mockOrderRepo{}
	sut := NewService(gateway, repo, zerolog.Nop())

	_, err := sut.Checkout(context.Background(), "user-123", validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, repo.created)
	assert.Zero(t, gateway.clearCalls)
}

func TestCheckout_MissingContactInfo(t *testing.T) {
	gateway := &mockCartGateway{cart: loadedCart()}
	sut := NewService(gateway, &mockOrderRepo{}, zerolog.Nop())

	_, err := sut.Checkout(context.Background(), "user-123", Request{CustomerPhone: "+995"})
	assert.ErrorIs(t, err, ErrMissingContact)

	_, err = sut.Checkout(context.Background(), "user-123", Request{CustomerName: "Dana"})
	assert.ErrorIs(t, err, ErrMissingContact)
}

func TestCheckout_CreateFailureLeavesCartAlone(t *testing.T) {
	gateway := &mockCartGateway{cart: loadedCart()}
	repo := &mockOrderRepo{createErr: errors.New("db down")}
	sut := NewService(gateway, repo, zerolog.Nop())

	_, err := sut.Checkout(context.Background(), "user-123", validRequest())
	require.Error(t, err)
	assert.Zero(t, gateway.clearCalls, "cart must not be cleared when the order was not created")
}

func TestCheckout_ClearFailureStillReturnsOrder(t *testing.T) {
	gateway := &mockCartGateway{cart: loadedCart(), clearErr: errors.New("store unavailable")}
	repo := &mockOrderRepo{}
	sut := NewService(gateway, repo, zerolog.Nop())

	order, err := sut.Checkout(context.Background(), "user-123", validRequest())
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, repo.created, 1)
}
