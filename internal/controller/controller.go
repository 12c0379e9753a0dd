package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/streamkart/storefront/internal/broadcast"
	"github.com/streamkart/storefront/internal/domain"
)

// LoadState is the controller's explicit cart-load state machine. Each
// controller instance owns its own state; there is no shared mutable
// guard across instances.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateError
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var ErrNotAuthenticated = errors.New("not authenticated")

// User-facing messages. All failures inside cart operations are caught
// here and converted to a string the UI reads; nothing propagates into
// rendering code.
const (
	msgNotAuthenticated = "Please sign in to manage your cart."
	msgCartUnavailable  = "Your cart is unavailable right now. Please try again."
)

// CartService is what the controller needs from the mutation engine.
// Consumers define this interface, not the service implementation.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
	ApplyDiscountCode(ctx context.Context, userID, code string) (*domain.Cart, bool, error)
}

// Controller holds the in-memory cart for one authenticated user and
// orchestrates calls to the mutation engine. The in-memory cart is a
// cache of the store's state: it is replaced wholesale on every
// successful mutation and re-fetched when another instance broadcasts a
// change. On failure the previous state is left untouched and a
// human-readable error is surfaced instead.
type Controller struct {
	userID      string
	svc         CartService
	broadcaster broadcast.Broadcaster
	breaker     *gobreaker.CircuitBreaker[*domain.Cart]
	sfg         singleflight.Group
	log         zerolog.Logger

	mu       sync.RWMutex
	cart     *domain.Cart
	state    LoadState
	errMsg   string
	onChange []func()

	unsubscribe func()
}

func New(userID string, svc CartService, b broadcast.Broadcaster, log zerolog.Logger) *Controller {
	c := &Controller{
		userID:      userID,
		svc:         svc,
		broadcaster: b,
		state:       StateIdle,
		log:         log.With().Str("user_id", userID).Logger(),
	}

	c.breaker = gobreaker.NewCircuitBreaker[*domain.Cart](gobreaker.Settings{
		Name:    "cart-store",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	if userID != "" && b != nil {
		c.unsubscribe = b.Subscribe(userID, c.handleRemoteUpdate)
	}
	return c
}

// IsAuthenticated reports whether this controller is bound to a signed-in
// user. An unauthenticated controller exposes an unavailable cart and
// refuses mutations without touching the store.
func (c *Controller) IsAuthenticated() bool {
	return c.userID != ""
}

// Load fetches the authoritative cart. Concurrent loads of the same
// controller collapse into one store round trip.
func (c *Controller) Load(ctx context.Context) (*domain.Cart, error) {
	if !c.IsAuthenticated() {
		return nil, nil
	}

	c.mu.Lock()
	if c.state != StateLoaded {
		c.state = StateLoading
	}
	c.mu.Unlock()

	v, err, _ := c.sfg.Do("load", func() (interface{}, error) {
		return c.breaker.Execute(func() (*domain.Cart, error) {
			return c.svc.GetCart(ctx, c.userID)
		})
	})
	if err != nil {
		c.setError(msgCartUnavailable)
		return nil, err
	}

	loaded := v.(*domain.Cart)
	c.replace(loaded)
	return loaded, nil
}

// Cart returns the cached in-memory cart; nil until the first
// successful Load.
func (c *Controller) Cart() *domain.Cart {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cart
}

func (c *Controller) State() LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the current user-facing error message, empty when none.
func (c *Controller) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

// ItemCount is the sum of quantities in the cached cart.
func (c *Controller) ItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cart == nil {
		return 0
	}
	return c.cart.ItemCount()
}

func (c *Controller) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cart == nil || c.cart.IsEmpty()
}

// OnChange registers a local listener fired after every successful
// mutation (the in-page notification; the cross-process one goes
// through the broadcaster).
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Controller) AddItem(ctx context.Context, item domain.CartItem) error {
	return c.mutate(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return c.svc.AddItem(ctx, c.userID, item)
	})
}

func (c *Controller) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	return c.mutate(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return c.svc.RemoveItem(ctx, c.userID, itemID)
	})
}

func (c *Controller) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return c.mutate(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return c.svc.UpdateQuantity(ctx, c.userID, itemID, quantity)
	})
}

func (c *Controller) ClearCart(ctx context.Context) error {
	return c.mutate(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return c.svc.ClearCart(ctx, c.userID)
	})
}

// ApplyDiscountCode reports true only when the resolved discount
// strictly improves on the cart's current one. false with a nil error
// means the code was rejected, not that the store failed.
func (c *Controller) ApplyDiscountCode(ctx context.Context, code string) (bool, error) {
	if !c.IsAuthenticated() {
		c.setError(msgNotAuthenticated)
		return false, ErrNotAuthenticated
	}

	var applied bool
	cart, err := c.breaker.Execute(func() (*domain.Cart, error) {
		updated, ok, err := c.svc.ApplyDiscountCode(ctx, c.userID, code)
		applied = ok
		return updated, err
	})
	if err != nil {
		c.log.Error().Err(err).Str("code", code).Msg("apply discount failed")
		c.setError(msgCartUnavailable)
		return false, err
	}

	c.replace(cart)
	if applied {
		c.notify(ctx)
	}
	return applied, nil
}

// Close detaches the controller from the broadcast channel.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Controller) mutate(ctx context.Context, op func(context.Context) (*domain.Cart, error)) error {
	if !c.IsAuthenticated() {
		c.setError(msgNotAuthenticated)
		return ErrNotAuthenticated
	}

	cart, err := c.breaker.Execute(func() (*domain.Cart, error) {
		return op(ctx)
	})
	if err != nil {
		c.log.Error().Err(err).Msg("cart mutation failed")
		c.setError(msgCartUnavailable)
		return err
	}

	c.replace(cart)
	c.notify(ctx)
	return nil
}

func (c *Controller) replace(cart *domain.Cart) {
	c.mu.Lock()
	c.cart = cart
	c.state = StateLoaded
	c.errMsg = ""
	c.mu.Unlock()
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.state = StateError
	c.errMsg = msg
	c.mu.Unlock()
}

// notify fires local listeners and posts the cross-process broadcast.
// A failed broadcast never fails the mutation; other instances simply
// stay stale until their next load.
func (c *Controller) notify(ctx context.Context) {
	c.mu.RLock()
	listeners := append([]func(){}, c.onChange...)
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}

	if c.broadcaster == nil {
		return
	}
	if err := c.broadcaster.Publish(ctx, c.userID); err != nil {
		c.log.Warn().Err(err).Msg("cart update broadcast failed")
	}
}

// handleRemoteUpdate re-fetches the cart when another instance reports
// a change. Invalidate and refetch; the message carries no cart data.
func (c *Controller) handleRemoteUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.Load(ctx); err != nil {
		c.log.Warn().Err(err).Msg("refetch after broadcast failed")
	}
}
