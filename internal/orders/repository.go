package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/streamkart/storefront/internal/domain"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// OutboxEvent is one pending order event awaiting publication.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type RepoInterface interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrders(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
