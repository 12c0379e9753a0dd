package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/streamkart/storefront/internal/domain"
	"github.com/streamkart/storefront/internal/orders"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingContact = errors.New("customer name and phone are required")
)

// CartGateway is the slice of the cart service checkout needs: a snapshot
// of the current cart and the ability to clear it once the order exists.
type CartGateway interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type Request struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
}

type Service struct {
	cart CartGateway
	repo orders.RepoInterface
	log  zerolog.Logger
}

func NewService(cart CartGateway, repo orders.RepoInterface, log zerolog.Logger) *Service {
	return &Service{cart: cart, repo: repo, log: log}
}

// Checkout snapshots the customer's cart into an immutable order. The cart
// is cleared only after the order row is committed, so a failed write never
// loses the cart; a failed clear leaves a stale cart behind, which the next
// load fixes.
func (s *Service) Checkout(ctx context.Context, userID string, req Request) (*domain.Order, error) {
	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" {
		return nil, ErrMissingContact
	}

	cart, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart for checkout: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Subtotal:      cart.Subtotal,
		Discount:      cart.Discount,
		Total:         cart.Total,
		Status:        domain.OrderStatusPending,
		Lines:         make([]domain.OrderLine, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:          uuid.New(),
			OrderID:     order.ID,
			PlanID:      item.PlanID,
			ServiceName: item.ServiceName,
			PlanLabel:   item.PlanLabel,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if _, err := s.cart.ClearCart(ctx, userID); err != nil {
		// The order exists either way; the customer keeps it.
		s.log.Error().Err(err).
			Str("user_id", userID).
			Str("order_id", order.ID.String()).
			Msg("failed to clear cart after checkout")
	}

	return order, nil
}
