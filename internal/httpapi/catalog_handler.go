package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streamkart/storefront/internal/catalog"
	"github.com/streamkart/storefront/internal/domain"
)

// CatalogReader is the public, read-only view of the plan catalog.
type CatalogReader interface {
	ListPlans(ctx context.Context) ([]*domain.Plan, error)
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
}

type CatalogHandler struct {
	repo CatalogReader
}

func NewCatalogHandler(repo CatalogReader) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repo.ListPlans(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list plans")
		return
	}
	if plans == nil {
		plans = []*domain.Plan{}
	}
	respondJSON(w, http.StatusOK, plans)
}

func (h *CatalogHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.repo.GetPlan(r.Context(), chi.URLParam(r, "plan_id"))
	if errors.Is(err, catalog.ErrPlanNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "plan not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load plan")
		return
	}
	respondJSON(w, http.StatusOK, plan)
}
