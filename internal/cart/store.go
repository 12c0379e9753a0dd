package cart

import (
	"context"

	"github.com/streamkart/storefront/internal/domain"
)

// Store is the capability set a cart backend must provide. The mutation
// engine in the service package is written once against this interface;
// the Postgres adapter and the guest file store both implement it, so
// the merge/remove/quantity logic is never duplicated per backend.
//
// Load gets or lazily creates the cart for userID and returns it with
// its line items. Save writes the whole cart state back. Delete drops
// the cart entirely (Clear keeps the row and just empties it).
type Store interface {
	Load(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
