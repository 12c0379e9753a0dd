package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	JWTSecret      string
	RequestTimeout time.Duration
}

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Catalog  *CatalogHandler
	Admin    *AdminHandler
}

func NewRouter(cfg RouterConfig, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware(cfg.JWTSecret))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{item_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{item_id}", h.Cart.RemoveItem)
			r.Post("/discount", h.Cart.ApplyDiscount)
		})

		r.With(RequireUser).Post("/checkout", h.Checkout.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{order_id}", h.Orders.GetOrder)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/plans", h.Catalog.ListPlans)
			r.Get("/plans/{plan_id}", h.Catalog.GetPlan)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/orders", h.Admin.ListOrders)
			r.Patch("/orders/{order_id}/status", h.Admin.UpdateOrderStatus)
			r.Post("/plans", h.Admin.CreatePlan)
			r.Put("/plans/{plan_id}", h.Admin.UpdatePlan)
			r.Delete("/plans/{plan_id}", h.Admin.DeletePlan)
		})
	})

	return r
}
