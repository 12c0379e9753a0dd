package broadcast

import (
	"context"
	"sync"
)

// MemoryHub is the in-process Broadcaster. Single-node deployments use
// it instead of Redis, and tests drive handlers through it directly.
type MemoryHub struct {
	mu       sync.RWMutex
	next     int
	handlers map[string]map[int]func()
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{handlers: make(map[string]map[int]func())}
}

func (h *MemoryHub) Publish(_ context.Context, userID string) error {
	h.mu.RLock()
	subs := make([]func(), 0, len(h.handlers[userID]))
	for _, fn := range h.handlers[userID] {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()

	// Handlers run outside the lock; a handler may unsubscribe itself.
	for _, fn := range subs {
		fn()
	}
	return nil
}

func (h *MemoryHub) Subscribe(userID string, handler func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	if h.handlers[userID] == nil {
		h.handlers[userID] = make(map[int]func())
	}
	h.handlers[userID][id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers[userID], id)
	}
}
