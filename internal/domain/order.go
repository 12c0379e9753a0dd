package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether an order may move from s to next.
// Payment confirmation is manual, so PENDING -> CONFIRMED happens when an
// operator verifies the out-of-band payment.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	default:
		return false
	}
}

// Order is a snapshot of the cart's line items plus contact info,
// created at checkout. It never changes when the cart does.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	Lines         []OrderLine     `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderLine struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	PlanID      string          `json:"plan_id"`
	ServiceName string          `json:"service_name"`
	PlanLabel   string          `json:"plan_label"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}
