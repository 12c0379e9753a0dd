package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the single in-progress selection a user has before checkout.
// One cart per user, created lazily on first access.
type Cart struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"user_id"`
	Items        []CartItem      `json:"items"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountCode string          `json:"discount_code"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CartItem captures a plan at add-time. Name, label and price are
// denormalized and not re-synced if the catalog changes afterwards.
type CartItem struct {
	ID          uuid.UUID       `json:"id"`
	CartID      uuid.UUID       `json:"cart_id"`
	PlanID      string          `json:"plan_id"`
	ServiceName string          `json:"service_name"`
	PlanLabel   string          `json:"plan_label"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// ItemCount is the sum of quantities across all line items.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the line item with the given id, or nil.
func (c *Cart) FindItem(itemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItemByPlan returns the line item for the given plan, or nil.
// At most one line item exists per (cart, plan) pair.
func (c *Cart) FindItemByPlan(planID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].PlanID == planID {
			return &c.Items[i]
		}
	}
	return nil
}
