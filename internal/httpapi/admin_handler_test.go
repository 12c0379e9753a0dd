package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamkart/storefront/internal/domain"
	"github.com/streamkart/storefront/internal/orders"
)

type mockOrderAdmin struct {
	list  []*domain.Order
	total int
	err   error

	gotStatus *domain.OrderStatus
	gotLimit  int
	gotOffset int
	gotNext   domain.OrderStatus
}

func (m *mockOrderAdmin) ListOrders(_ context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, int, error) {
	m.gotStatus = status
	m.gotLimit = limit
	m.gotOffset = offset
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.list, m.total, nil
}

func (m *mockOrderAdmin) UpdateStatus(_ context.Context, _ uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	m.gotNext = next
	if m.err != nil {
		return nil, m.err
	}
	order := testOrder("user-123")
	order.Status = next
	return order, nil
}

type mockCatalogAdmin struct {
	err         error
	created     *domain.Plan
	deleted     string
	hadDeadline bool
}

func (m *mockCatalogAdmin) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	_, m.hadDeadline = ctx.Deadline()
	m.created = plan
	return m.err
}

func (m *mockCatalogAdmin) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	_, m.hadDeadline = ctx.Deadline()
	m.created = plan
	return m.err
}

func (m *mockCatalogAdmin) DeletePlan(ctx context.Context, id string) error {
	_, m.hadDeadline = ctx.Deadline()
	m.deleted = id
	return m.err
}

func newAdminHandler(o *mockOrderAdmin, c *mockCatalogAdmin) *AdminHandler {
	return NewAdminHandler(o, c, 5*time.Second)
}

func TestAdminListOrders_DefaultsAndFilter(t *testing.T) {
	repo := &mockOrderAdmin{list: []*domain.Order{testOrder("user-123")}, total: 1}
	handler := newAdminHandler(repo, &mockCatalogAdmin{})

	recorder := httptest.NewRecorder()
	handler.ListOrders(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=PENDING&limit=50&offset=10", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, repo.gotStatus)
	assert.Equal(t, domain.OrderStatusPending, *repo.gotStatus)
	assert.Equal(t, 50, repo.gotLimit)
	assert.Equal(t, 10, repo.gotOffset)

	var resp OrderListResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Orders, 1)
}

func TestAdminListOrders_RejectsUnknownStatus(t *testing.T) {
	handler := newAdminHandler(&mockOrderAdmin{}, &mockCatalogAdmin{})

	recorder := httptest.NewRecorder()
	handler.ListOrders(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=SHIPPED", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdminUpdateStatus_Confirms(t *testing.T) {
	repo := &mockOrderAdmin{}
	handler := newAdminHandler(repo, &mockCatalogAdmin{})

	id := uuid.NewString()
	recorder := httptest.NewRecorder()
	request := postJSON(t, "/api/v1/admin/orders/"+id+"/status", UpdateStatusRequestDTO{Status: "CONFIRMED"})
	request = withParam(request, "order_id", id)

	handler.UpdateOrderStatus(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, domain.OrderStatusConfirmed, repo.gotNext)
}

func TestAdminUpdateStatus_InvalidTransition(t *testing.T) {
	repo := &mockOrderAdmin{err: orders.ErrInvalidTransition}
	handler := newAdminHandler(repo, &mockCatalogAdmin{})

	id := uuid.NewString()
	recorder := httptest.NewRecorder()
	request := postJSON(t, "/api/v1/admin/orders/"+id+"/status", UpdateStatusRequestDTO{Status: "DELIVERED"})
	request = withParam(request, "order_id", id)

	handler.UpdateOrderStatus(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestAdminUpdateStatus_RejectsPendingTarget(t *testing.T) {
	handler := newAdminHandler(&mockOrderAdmin{}, &mockCatalogAdmin{})

	id := uuid.NewString()
	recorder := httptest.NewRecorder()
	request := postJSON(t, "/api/v1/admin/orders/"+id+"/status", UpdateStatusRequestDTO{Status: "PENDING"})
	request = withParam(request, "order_id", id)

	handler.UpdateOrderStatus(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdminCreatePlan(t *testing.T) {
	catalogRepo := &mockCatalogAdmin{}
	handler := newAdminHandler(&mockOrderAdmin{}, catalogRepo)

	recorder := httptest.NewRecorder()
	handler.CreatePlan(recorder, postJSON(t, "/api/v1/admin/plans", PlanRequestDTO{
		ID:          "hbo-tier-1",
		ServiceName: "HBO Max",
		Label:       "Standard — 1 month",
		Price:       decimal.NewFromInt(1200),
		Active:      true,
	}))

	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, catalogRepo.created)
	assert.Equal(t, "hbo-tier-1", catalogRepo.created.ID)
	assert.True(t, catalogRepo.created.Price.Equal(decimal.NewFromInt(1200)))
	assert.True(t, catalogRepo.hadDeadline, "catalog calls run under the handler timeout")
}

func TestAdminCreatePlan_RejectsNegativePrice(t *testing.T) {
	handler := newAdminHandler(&mockOrderAdmin{}, &mockCatalogAdmin{})

	recorder := httptest.NewRecorder()
	handler.CreatePlan(recorder, postJSON(t, "/api/v1/admin/plans", PlanRequestDTO{
		ID:          "hbo-tier-1",
		ServiceName: "HBO Max",
		Label:       "Standard",
		Price:       decimal.NewFromInt(-1),
	}))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdminDeletePlan(t *testing.T) {
	catalogRepo := &mockCatalogAdmin{}
	handler := newAdminHandler(&mockOrderAdmin{}, catalogRepo)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/plans/hbo-tier-1", nil)
	request = withParam(request, "plan_id", "hbo-tier-1")

	handler.DeletePlan(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "hbo-tier-1", catalogRepo.deleted)
	assert.True(t, catalogRepo.hadDeadline, "catalog calls run under the handler timeout")
}
