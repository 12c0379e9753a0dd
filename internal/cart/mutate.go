package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamkart/storefront/internal/domain"
)

// Pure mutation functions over a cart. Each one applies its change
// in-place and recomputes the stored subtotal/total. Per line item the
// state machine is absent -> present(1) -> present(n) -> absent.

// AddItem merges by plan identity: adding a plan that is already in the
// cart increments its quantity, otherwise a new line item is appended.
// A non-positive quantity defaults to 1.
func AddItem(c *domain.Cart, item domain.CartItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	if existing := c.FindItemByPlan(item.PlanID); existing != nil {
		existing.Quantity += item.Quantity
		recalculate(c)
		return
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CartID = c.ID
	c.Items = append(c.Items, item)
	recalculate(c)
}

// RemoveItem deletes the line item if present. Removing an absent item
// is a no-op, not an error.
func RemoveItem(c *domain.Cart, itemID uuid.UUID) {
	for i, item := range c.Items {
		if item.ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			break
		}
	}
	recalculate(c)
}

// SetQuantity overwrites the stored quantity. A quantity of zero or less
// behaves exactly like RemoveItem. No upper bound is enforced.
func SetQuantity(c *domain.Cart, itemID uuid.UUID, quantity int) {
	if quantity <= 0 {
		RemoveItem(c, itemID)
		return
	}
	if item := c.FindItem(itemID); item != nil {
		item.Quantity = quantity
	}
	recalculate(c)
}

// Clear removes every line item and resets the discount and its code.
// This is the only mutation besides ApplyDiscount that touches the
// discount amount.
func Clear(c *domain.Cart) {
	c.Items = []domain.CartItem{}
	c.Discount = decimal.Zero
	c.DiscountCode = ""
	recalculate(c)
}

// ApplyDiscount resolves code against the fixed table and, when the
// resolved amount beats the cart's current discount, replaces it (codes
// never stack). Returns true only on that strict improvement; an unknown
// code or a same-or-worse one leaves the cart untouched.
func ApplyDiscount(c *domain.Cart, code string) bool {
	amount, ok := ResolveDiscount(code, c.Subtotal)
	if !ok {
		return false
	}
	if !amount.GreaterThan(c.Discount) {
		return false
	}
	c.Discount = amount
	c.DiscountCode = strings.ToUpper(strings.TrimSpace(code))
	recalculate(c)
	return true
}
