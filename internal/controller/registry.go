package controller

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/streamkart/storefront/internal/broadcast"
)

// Registry hands out one controller instance per authenticated user and
// keeps it subscribed to the broadcast channel for its lifetime.
type Registry struct {
	svc         CartService
	broadcaster broadcast.Broadcaster
	log         zerolog.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(svc CartService, b broadcast.Broadcaster, log zerolog.Logger) *Registry {
	return &Registry{
		svc:         svc,
		broadcaster: b,
		log:         log,
		controllers: make(map[string]*Controller),
	}
}

// For returns the controller bound to userID, creating it on first use.
// An empty userID yields a fresh unauthenticated controller that is
// never cached or subscribed.
func (r *Registry) For(userID string) *Controller {
	if userID == "" {
		return New("", r.svc, nil, r.log)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[userID]; ok {
		return c
	}
	c := New(userID, r.svc, r.broadcaster, r.log)
	r.controllers[userID] = c
	return c
}

// Close detaches every controller from the broadcast channel.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.controllers {
		c.Close()
	}
	r.controllers = make(map[string]*Controller)
}
