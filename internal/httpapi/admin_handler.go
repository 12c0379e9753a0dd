package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamkart/storefront/internal/catalog"
	"github.com/streamkart/storefront/internal/domain"
	"github.com/streamkart/storefront/internal/orders"
)

// OrderAdmin is the back-office slice of the orders repository.
type OrderAdmin interface {
	ListOrders(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
}

// CatalogAdmin manages the plan catalog.
type CatalogAdmin interface {
	CreatePlan(ctx context.Context, plan *domain.Plan) error
	UpdatePlan(ctx context.Context, plan *domain.Plan) error
	DeletePlan(ctx context.Context, id string) error
}

type AdminHandler struct {
	orders  OrderAdmin
	catalog CatalogAdmin
	timeout time.Duration
}

func NewAdminHandler(orderRepo OrderAdmin, catalogRepo CatalogAdmin, timeout time.Duration) *AdminHandler {
	return &AdminHandler{orders: orderRepo, catalog: catalogRepo, timeout: timeout}
}

type OrderListResponseDTO struct {
	Orders []*domain.Order `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type PlanRequestDTO struct {
	ID          string          `json:"id"`
	ServiceName string          `json:"service_name"`
	Label       string          `json:"label"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit := parseQueryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseQueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.OrderStatus(raw)
		switch s {
		case domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
			status = &s
		default:
			respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
			return
		}
	}

	list, total, err := h.orders.ListOrders(ctx, status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}
	if list == nil {
		list = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, OrderListResponseDTO{
		Orders: list,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	next := domain.OrderStatus(req.Status)
	switch next {
	case domain.OrderStatusConfirmed, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
	default:
		respondError(w, http.StatusBadRequest, "invalid_status", "status must be CONFIRMED, DELIVERED or CANCELLED")
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, next)
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, orders.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update order status")
	default:
		respondJSON(w, http.StatusOK, order)
	}
}

func (h *AdminHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := decodePlan(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.CreatePlan(ctx, plan); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create plan")
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

func (h *AdminHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := decodePlan(w, r)
	if !ok {
		return
	}
	plan.ID = chi.URLParam(r, "plan_id")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.catalog.UpdatePlan(ctx, plan)
	switch {
	case errors.Is(err, catalog.ErrPlanNotFound):
		respondError(w, http.StatusNotFound, "not_found", "plan not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update plan")
	default:
		respondJSON(w, http.StatusOK, plan)
	}
}

func (h *AdminHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.catalog.DeletePlan(ctx, chi.URLParam(r, "plan_id"))
	switch {
	case errors.Is(err, catalog.ErrPlanNotFound):
		respondError(w, http.StatusNotFound, "not_found", "plan not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete plan")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodePlan(w http.ResponseWriter, r *http.Request) (*domain.Plan, bool) {
	var req PlanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return nil, false
	}
	if req.ID == "" && chi.URLParam(r, "plan_id") == "" {
		respondError(w, http.StatusBadRequest, "invalid_plan_id", "id is required")
		return nil, false
	}
	if req.ServiceName == "" || req.Label == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "service_name and label are required")
		return nil, false
	}
	if req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return nil, false
	}

	return &domain.Plan{
		ID:          req.ID,
		ServiceName: req.ServiceName,
		Label:       req.Label,
		Price:       req.Price,
		Active:      req.Active,
	}, true
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
