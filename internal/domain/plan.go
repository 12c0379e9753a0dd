package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription tier of a service, such as
// the 3-month Netflix tier identified by "netflix-tier-1".
type Plan struct {
	ID          string          `json:"id"`
	ServiceName string          `json:"service_name"`
	Label       string          `json:"label"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}
