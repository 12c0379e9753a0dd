// Package broadcast carries "cart updated" notifications between every
// live controller instance for a user (other processes, other nodes).
// It is an invalidate-and-refetch design: the message names the event
// and nothing else, and listeners respond by re-reading the
// authoritative cart. Stale reads are possible until the refetch lands;
// eventual convergence is the contract, not immediate consistency.
package broadcast

import "context"

const EventCartUpdated = "cart-updated"

// Message is the single wire shape. No payload beyond the event type.
type Message struct {
	Type string `json:"type"`
}

// Broadcaster is one named channel per user. Publish tells every
// subscriber on that user's channel that the cart changed; Subscribe
// registers a handler and returns its unsubscribe func.
type Broadcaster interface {
	Publish(ctx context.Context, userID string) error
	Subscribe(userID string, handler func()) (unsubscribe func())
}
