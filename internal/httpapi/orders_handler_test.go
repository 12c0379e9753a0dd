package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamkart/storefront/internal/checkout"
	"github.com/streamkart/storefront/internal/domain"
	"github.com/streamkart/storefront/internal/orders"
)

type mockOrderReader struct {
	order *domain.Order
	list  []*domain.Order
	err   error
}

func (m *mockOrderReader) GetOrderByID(context.Context, uuid.UUID) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderReader) ListOrdersByUserID(context.Context, string) ([]*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func testOrder(userID string) *domain.Order {
	return &domain.Order{
		ID:           uuid.New(),
		UserID:       userID,
		CustomerName: "Dana Petrov",
		Subtotal:     decimal.NewFromInt(5600),
		Discount:     decimal.NewFromInt(560),
		Total:        decimal.NewFromInt(5040),
		Status:       domain.OrderStatusPending,
	}
}

func TestGetOrder_OwnOrder(t *testing.T) {
	order := testOrder("user-123")
	handler := NewOrdersHandler(&mockOrderReader{order: order})

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil), "user-123")
	request = withParam(request, "order_id", order.ID.String())

	handler.GetOrder(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var got domain.Order
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	assert.Equal(t, order.ID, got.ID)
}

func TestGetOrder_ForeignOrderLooksMissing(t *testing.T) {
	order := testOrder("someone-else")
	handler := NewOrdersHandler(&mockOrderReader{order: order})

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil), "user-123")
	request = withParam(request, "order_id", order.ID.String())

	handler.GetOrder(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	handler := NewOrdersHandler(&mockOrderReader{err: orders.ErrOrderNotFound})

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil), "user-123")
	request = withParam(request, "order_id", uuid.NewString())

	handler.GetOrder(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListOrders_OwnOrdersOnly(t *testing.T) {
	handler := NewOrdersHandler(&mockOrderReader{list: []*domain.Order{testOrder("user-123")}})

	recorder := httptest.NewRecorder()
	handler.ListOrders(recorder, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), "user-123"))

	require.Equal(t, http.StatusOK, recorder.Code)
	var got []*domain.Order
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	require.Len(t, got, 1)
}

type mockCheckoutService struct {
	order *domain.Order
	err   error

	gotUserID string
	gotReq    checkout.Request
}

func (m *mockCheckoutService) Checkout(_ context.Context, userID string, req checkout.Request) (*domain.Order, error) {
	m.gotUserID = userID
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func TestCheckout_Success(t *testing.T) {
	svc := &mockCheckoutService{order: testOrder("user-123")}
	handler := NewCheckoutHandler(svc)

	recorder := httptest.NewRecorder()
	request := withUser(postJSON(t, "/api/v1/checkout", checkout.Request{
		CustomerName:  "Dana Petrov",
		CustomerPhone: "+995 555 123 456",
	}), "user-123")

	handler.Checkout(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "user-123", svc.gotUserID)
	assert.Equal(t, "Dana Petrov", svc.gotReq.CustomerName)
}

func TestCheckout_EmptyCart(t *testing.T) {
	handler := NewCheckoutHandler(&mockCheckoutService{err: checkout.ErrEmptyCart})

	recorder := httptest.NewRecorder()
	handler.Checkout(recorder, withUser(postJSON(t, "/api/v1/checkout", checkout.Request{}), "user-123"))

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestCheckout_MissingContact(t *testing.T) {
	handler := NewCheckoutHandler(&mockCheckoutService{err: checkout.ErrMissingContact})

	recorder := httptest.NewRecorder()
	handler.Checkout(recorder, withUser(postJSON(t, "/api/v1/checkout", checkout.Request{}), "user-123"))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCheckout_InternalError(t *testing.T) {
	handler := NewCheckoutHandler(&mockCheckoutService{err: errors.New("db down")})

	recorder := httptest.NewRecorder()
	handler.Checkout(recorder, withUser(postJSON(t, "/api/v1/checkout", checkout.Request{
		CustomerName:  "Dana",
		CustomerPhone: "+995",
	}), "user-123"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
