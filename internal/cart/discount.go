package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// A discount rule is either a percentage of the subtotal or a flat amount.
type discountRule struct {
	percent decimal.Decimal // zero when flat
	flat    decimal.Decimal // zero when percentage
}

// Fixed code table. Codes are matched case-insensitively; the resolved
// amount (not the rule) is what gets persisted onto the cart.
var discountTable = map[string]discountRule{
	"SAVE10":  {percent: decimal.NewFromFloat(0.10)},
	"SAVE20":  {percent: decimal.NewFromFloat(0.20)},
	"NEW15":   {percent: decimal.NewFromFloat(0.15)},
	"FLAT100": {flat: decimal.NewFromInt(100)},
	"FLAT50":  {flat: decimal.NewFromInt(50)},
}

// ResolveDiscount looks up code against the fixed table and returns the
// discount amount for the given subtotal. Unknown codes resolve to zero
// with ok=false; callers must treat that as "not applied", not as a
// zero-benefit success.
func ResolveDiscount(code string, subtotal decimal.Decimal) (decimal.Decimal, bool) {
	rule, ok := discountTable[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return decimal.Zero, false
	}
	if !rule.percent.IsZero() {
		return subtotal.Mul(rule.percent), true
	}
	return rule.flat, true
}
