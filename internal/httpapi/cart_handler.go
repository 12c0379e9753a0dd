package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streamkart/storefront/internal/catalog"
	"github.com/streamkart/storefront/internal/controller"
	"github.com/streamkart/storefront/internal/domain"
)

// ControllerSource hands out the cart controller bound to a user.
type ControllerSource interface {
	For(userID string) *controller.Controller
}

// PlanSource is the slice of the catalog the cart handler needs to
// capture plan details at add time.
type PlanSource interface {
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
}

type CartHandler struct {
	controllers ControllerSource
	plans       PlanSource
}

func NewCartHandler(controllers ControllerSource, plans PlanSource) *CartHandler {
	return &CartHandler{controllers: controllers, plans: plans}
}

type AddItemRequestDTO struct {
	PlanID   string `json:"plan_id"`
	Quantity int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ApplyDiscountRequestDTO struct {
	Code string `json:"code"`
}

type ApplyDiscountResponseDTO struct {
	Applied bool         `json:"applied"`
	Cart    *domain.Cart `json:"cart"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllers.For(getUserID(r.Context()))

	cart, err := ctrl.Load(r.Context())
	if err != nil {
		handleCartError(w, ctrl, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllers.For(getUserID(r.Context()))

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PlanID == "" {
		respondError(w, http.StatusBadRequest, "invalid_plan_id", "plan_id is required")
		return
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	plan, err := h.plans.GetPlan(r.Context(), req.PlanID)
	if errors.Is(err, catalog.ErrPlanNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "unknown plan")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to look up plan")
		return
	}
	if !plan.Active {
		respondError(w, http.StatusNotFound, "not_found", "plan is no longer offered")
		return
	}

	item := domain.CartItem{
		PlanID:      plan.ID,
		ServiceName: plan.ServiceName,
		PlanLabel:   plan.Label,
		UnitPrice:   plan.Price,
		Quantity:    req.Quantity,
	}
	if err := ctrl.AddItem(r.Context(), item); err != nil {
		handleCartError(w, ctrl, err)
		return
	}

	respondJSON(w, http.StatusCreated, ctrl.Cart())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllers.For(getUserID(r.Context()))

	itemID, err := uuid.Parse(chi.URLParam(r, "item_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a UUID")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	if err := ctrl.UpdateQuantity(r.Context(), itemID, req.Quantity); err != nil {
		handleCartError(w, ctrl, err)
		return
	}

	respondJSON(w, http.StatusOK, ctrl.Cart())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllers.For(getUserID(r.Context()))

	itemID, err := uuid.Parse(chi.URLParam(r, "item_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a UUID")
		return
	}

	if err := ctrl.RemoveItem(r.Context(), itemID); err != nil {
		handleCartError(w, ctrl, err)
		return
	}

	respondJSON(w, http.StatusOK, ctrl.Cart())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllers.For(getUserID(r.Context()))

	if err := ctrl.ClearCart(r.Context()); err != nil {
		handleCartError(w, ctrl, err)
		return
	}

	respondJSON(w, http.StatusOK, ctrl.Cart())
}

func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllers.For(getUserID(r.Context()))

	var req ApplyDiscountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_code", "code is required")
		return
	}

	applied, err := ctrl.ApplyDiscountCode(r.Context(), req.Code)
	if err != nil {
		handleCartError(w, ctrl, err)
		return
	}

	respondJSON(w, http.StatusOK, ApplyDiscountResponseDTO{
		Applied: applied,
		Cart:    ctrl.Cart(),
	})
}

// handleCartError maps controller failures onto HTTP status codes. The
// controller already folded the failure into its user-facing message, so
// the body carries that string.
func handleCartError(w http.ResponseWriter, ctrl *controller.Controller, err error) {
	if errors.Is(err, controller.ErrNotAuthenticated) {
		respondError(w, http.StatusUnauthorized, "unauthorized", ctrl.Err())
		return
	}
	respondError(w, http.StatusServiceUnavailable, "service_unavailable", ctrl.Err())
}
