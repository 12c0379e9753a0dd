package cart

import (
	"github.com/shopspring/decimal"

	"github.com/streamkart/storefront/internal/domain"
)

// Totals computes subtotal and total for a list of line items and a
// discount amount. Pure, no error conditions: an empty list yields zero,
// and a discount larger than the subtotal clamps the total at zero
// rather than going negative.
func Totals(items []domain.CartItem, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	total = subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return subtotal, total
}

// recalculate refreshes the cart's stored subtotal/total from its items
// and current discount.
func recalculate(c *domain.Cart) {
	c.Subtotal, c.Total = Totals(c.Items, c.Discount)
}
