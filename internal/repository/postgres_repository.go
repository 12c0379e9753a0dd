package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/streamkart/storefront/internal/domain"
)

const uniqueViolation = "23505"

// Load looks up the cart row for userID and lazily creates it when
// absent. A concurrent insert losing the race on the carts.user_id
// unique index is detected via the unique-violation signal and the
// lookup is retried once.
func (r *Repository) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.selectCart(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		cart, err = r.insertCart(ctx, userID)

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			r.log.Debug().Str("user_id", userID).Msg("lost cart insert race, retrying lookup")
			cart, err = r.selectCart(ctx, userID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	items, err := r.selectItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	cart.Items = items

	return cart, nil
}

// Save writes the whole cart state back: the cart row's discount and
// total fields plus the full line-item set (delete-and-reinsert, one
// transaction). There is no version check; concurrent writers race and
// the last write wins.
func (r *Repository) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save cart: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE carts
		 SET discount = $2, discount_code = $3, subtotal = $4, total = $5, updated_at = NOW()
		 WHERE id = $1`,
		cart.ID, cart.Discount, cart.DiscountCode, cart.Subtotal, cart.Total)
	if err != nil {
		return fmt.Errorf("update cart row: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("replace cart items: %w", err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.CartID = cart.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (id, cart_id, plan_id, service_name, plan_label, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.CartID, item.PlanID, item.ServiceName, item.PlanLabel, item.UnitPrice, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}
	return nil
}

// Delete drops the cart row; line items go with it via cascade.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r *Repository) selectCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, discount, discount_code, subtotal, total, created_at, updated_at
		 FROM carts WHERE user_id = $1`,
		userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Discount,
		&cart.DiscountCode,
		&cart.Subtotal,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) insertCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:       uuid.New(),
		UserID:   userID,
		Discount: decimal.Zero,
		Subtotal: decimal.Zero,
		Total:    decimal.Zero,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO carts (id, user_id, discount, discount_code, subtotal, total, created_at, updated_at)
		 VALUES ($1, $2, 0, '', 0, 0, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		cart.ID, cart.UserID).Scan(&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *Repository) selectItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cart_id, plan_id, service_name, plan_label, unit_price, quantity
		 FROM cart_items WHERE cart_id = $1 ORDER BY plan_id`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.PlanID,
			&item.ServiceName,
			&item.PlanLabel,
			&item.UnitPrice,
			&item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}
