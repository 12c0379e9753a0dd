// Package guestcart is the fallback cart for non-authenticated flows.
// It reuses the exact same mutation engine as the database-backed cart
// by implementing cart.Store over a single JSON file, the server-side
// twin of a browser's local storage slot: one fixed key, timestamps
// round-tripped as ISO-8601 strings. It is never synced with the
// database-backed cart.
package guestcart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	cartpkg "github.com/streamkart/storefront/internal/cart"
	"github.com/streamkart/storefront/internal/domain"
)

// GuestUserID is the fixed identity every guest cart is stored under.
const GuestUserID = "guest"

// PlanChecker answers whether a plan still exists in the catalog.
type PlanChecker interface {
	HasPlan(ctx context.Context, planID string) (bool, error)
}

type FileStore struct {
	path    string
	catalog PlanChecker
	mu      sync.Mutex
	log     zerolog.Logger
}

func NewFileStore(path string, catalog PlanChecker, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, catalog: catalog, log: log}
}

// Load reads the guest cart from disk, creating a fresh empty one when
// the file does not exist. Line items referencing plans no longer
// present in the catalog are dropped silently and totals recomputed;
// stale references are pruned, not reported.
func (s *FileStore) Load(ctx context.Context, _ string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.freshCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read guest cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		// A corrupt file behaves like a missing one.
		s.log.Warn().Err(err).Str("path", s.path).Msg("discarding unreadable guest cart")
		return s.freshCart(), nil
	}

	cart.Items = s.validItems(ctx, cart.Items)
	cart.Subtotal, cart.Total = cartpkg.Totals(cart.Items, cart.Discount)
	return &cart, nil
}

// Save writes the whole cart atomically (temp file + rename).
func (s *FileStore) Save(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(cart, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal guest cart: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create guest cart dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write guest cart: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace guest cart: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete guest cart: %w", err)
	}
	return nil
}

func (s *FileStore) freshCart() *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New(),
		UserID:    GuestUserID,
		Items:     []domain.CartItem{},
		Discount:  decimal.Zero,
		Subtotal:  decimal.Zero,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *FileStore) validItems(ctx context.Context, items []domain.CartItem) []domain.CartItem {
	if s.catalog == nil {
		return items
	}

	kept := items[:0]
	for _, item := range items {
		ok, err := s.catalog.HasPlan(ctx, item.PlanID)
		if err != nil {
			// Catalog unavailable: keep the item rather than destroy data.
			kept = append(kept, item)
			continue
		}
		if !ok {
			s.log.Debug().Str("plan_id", item.PlanID).Msg("dropping stale guest cart item")
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
