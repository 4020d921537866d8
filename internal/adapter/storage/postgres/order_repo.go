package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts a new order within a database transaction.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (id, order_number, customer_id, amount, currency, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.OrderNumber, o.CustomerID, o.Amount, o.Currency,
		o.Status, o.Description, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID fetches an order by UUID.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, order_number, customer_id, amount, currency, status, description, created_at, updated_at
		FROM orders WHERE id = $1`

	return r.scanOrder(r.pool.QueryRow(ctx, query, id))
}

// GetByOrderNumber fetches an order by its external order number.
func (r *OrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT id, order_number, customer_id, amount, currency, status, description, created_at, updated_at
		FROM orders WHERE order_number = $1`

	return r.scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
}

// GetByIDForUpdate fetches an order by UUID with pessimistic locking.
// This MUST be called within a transaction; concurrent finalizations of the
// same order queue on the row lock until the holder commits.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, order_number, customer_id, amount, currency, status, description, created_at, updated_at
		FROM orders WHERE id = $1 FOR UPDATE`

	return r.scanOrder(tx.QueryRow(ctx, query, id))
}

// UpdateStatusIf transitions the order status only when the stored status
// still matches the expected one. The WHERE clause is the compare-and-swap
// that serializes concurrent operations against the same order.
func (r *OrderRepo) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next domain.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query, next, time.Now(), id, expected)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// scanOrder is a helper to scan a single row into an Order.
func (r *OrderRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Amount, &o.Currency,
		&o.Status, &o.Description, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}
