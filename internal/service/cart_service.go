package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/streamkart/storefront/internal/cart"
	"github.com/streamkart/storefront/internal/domain"
)

// CartService is the mutation engine over a cart.Store. Every operation
// is a read-modify-write cycle: load the authoritative cart, apply one
// pure mutation, save, then re-read and return the updated cart. A
// failure at any step returns an error and surfaces no partial state.
//
// The store is the single source of truth; there is no buffering or
// write-behind, and no optimistic locking: concurrent writers race and
// the last write wins.
type CartService struct {
	store cart.Store
	log   zerolog.Logger
}

func NewCartService(store cart.Store, log zerolog.Logger) *CartService {
	return &CartService{store: store, log: log}
}

// GetCart returns the user's cart, creating it lazily on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// AddItem merges by plan identity or appends a new line item, then
// persists the recomputed totals.
func (s *CartService) AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) {
		cart.AddItem(c, item)
	})
}

// RemoveItem deletes the line item; removing an absent item still
// succeeds and returns the unchanged cart.
func (s *CartService) RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) {
		cart.RemoveItem(c, itemID)
	})
}

// UpdateQuantity overwrites the quantity; zero or negative removes the item.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) {
		cart.SetQuantity(c, itemID, quantity)
	})
}

// ClearCart deletes every line item and resets the discount fields.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) {
		cart.Clear(c)
	})
}

// ApplyDiscountCode resolves the code against the cart's current
// subtotal. The resolved amount is persisted only when it strictly beats
// the current discount; otherwise nothing is written and applied=false.
// An unknown code is not an error.
func (s *CartService) ApplyDiscountCode(ctx context.Context, userID, code string) (*domain.Cart, bool, error) {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load cart: %w", err)
	}

	if !cart.ApplyDiscount(c, code) {
		return c, false, nil
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, false, fmt.Errorf("save cart: %w", err)
	}

	updated, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("reload cart: %w", err)
	}
	return updated, true, nil
}

func (s *CartService) mutate(ctx context.Context, userID string, apply func(*domain.Cart)) (*domain.Cart, error) {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	apply(c)

	if err := s.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	updated, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}
	return updated, nil
}
