package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamkart/storefront/internal/checkout"
	"github.com/streamkart/storefront/internal/domain"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID string, req checkout.Request) (*domain.Order, error)
}

type CheckoutHandler struct {
	svc CheckoutService
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.svc.Checkout(r.Context(), getUserID(r.Context()), req)
	switch {
	case errors.Is(err, checkout.ErrMissingContact):
		respondError(w, http.StatusBadRequest, "invalid_contact", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "cannot check out an empty cart")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	default:
		respondJSON(w, http.StatusCreated, order)
	}
}
