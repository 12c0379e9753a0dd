package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streamkart/storefront/internal/domain"
	"github.com/streamkart/storefront/internal/orders"
)

// OrderReader is the slice of the orders repository customer routes need.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	repo OrderReader
}

func NewOrdersHandler(repo OrderReader) *OrdersHandler {
	return &OrdersHandler{repo: repo}
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListOrdersByUserID(r.Context(), getUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}
	if list == nil {
		list = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.repo.GetOrderByID(r.Context(), orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	// Customers only see their own orders; a foreign id looks like a miss.
	if order.UserID != getUserID(r.Context()) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	respondJSON(w, http.StatusOK, order)
}
