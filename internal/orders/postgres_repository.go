package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/streamkart/storefront/internal/domain"
)

// Repository persists orders in Postgres, sharing the storefront's
// connection pool. An order is written as one order row plus a batch of
// line rows plus an outbox event, all in a single transaction.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, customer_name, customer_phone, customer_email,
		                     subtotal, discount, total, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		order.ID, order.UserID, order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.Subtotal, order.Discount, order.Total, order.Status)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = order.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_lines (id, order_id, plan_id, service_name, plan_label, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID, line.OrderID, line.PlanID, line.ServiceName, line.PlanLabel, line.UnitPrice, line.Quantity)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := insertOutboxEvent(ctx, tx, order, EventOrderCreated); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := r.selectOrder(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	lines, err := r.selectLines(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[order.ID]
	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrderColumns+
		` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	return r.collectOrders(ctx, rows)
}

// ListOrders is the admin view: newest first, optional status filter,
// returns the filtered total for pagination.
func (r *Repository) ListOrders(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, int, error) {
	where := ``
	args := []any{limit, offset}
	if status != nil {
		where = `WHERE status = $3`
		args = append(args, *status)
	}

	rows, err := r.db.QueryContext(ctx, selectOrderColumns+
		` FROM orders `+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	list, err := r.collectOrders(ctx, rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if status != nil {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE status = $1`, *status).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	return list, total, nil
}

// UpdateStatus validates the transition against the order state machine
// and records a status-changed outbox event in the same transaction.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update status: %w", err)
	}
	defer tx.Rollback()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order row: %w", err)
	}

	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, next)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"order_id": id,
		"from":     current,
		"to":       next,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal status event: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		id.String(), EventOrderStatusChanged, payload)
	if err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update status: %w", err)
	}

	return r.GetOrderByID(ctx, id)
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM order_outbox
		 WHERE processed_at IS NULL
		 ORDER BY id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		ev := &OutboxEvent{}
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

const selectOrderColumns = `SELECT id, user_id, customer_name, customer_phone, customer_email,
       subtotal, discount, total, status, created_at, updated_at`

func (r *Repository) selectOrder(ctx context.Context, where string, args ...any) (*domain.Order, error) {
	var order domain.Order
	err := r.db.QueryRowContext(ctx, selectOrderColumns+` FROM orders `+where, args...).Scan(
		&order.ID,
		&order.UserID,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.CustomerEmail,
		&order.Subtotal,
		&order.Discount,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &order, nil
}

func (r *Repository) collectOrders(ctx context.Context, rows *sql.Rows) ([]*domain.Order, error) {
	var list []*domain.Order
	var ids []uuid.UUID
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.CustomerName,
			&order.CustomerPhone,
			&order.CustomerEmail,
			&order.Subtotal,
			&order.Discount,
			&order.Total,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		list = append(list, &order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(list) == 0 {
		return list, nil
	}

	lines, err := r.selectLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range list {
		order.Lines = lines[order.ID]
	}
	return list, nil
}

func (r *Repository) selectLines(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderLine, error) {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, plan_id, service_name, plan_label, unit_price, quantity
		 FROM order_lines WHERE order_id = ANY($1) ORDER BY plan_id`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[uuid.UUID][]domain.OrderLine)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.PlanID,
			&line.ServiceName,
			&line.PlanLabel,
			&line.UnitPrice,
			&line.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		byOrder[line.OrderID] = append(byOrder[line.OrderID], line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return byOrder, nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, order *domain.Order, eventType string) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		order.ID.String(), eventType, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
