package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentMethodRepo implements ports.PaymentMethodRepository. Only the
// non-sensitive card reference is ever stored.
type PaymentMethodRepo struct {
	pool Pool
}

// NewPaymentMethodRepo creates a new PaymentMethodRepo.
func NewPaymentMethodRepo(pool Pool) *PaymentMethodRepo {
	return &PaymentMethodRepo{pool: pool}
}

// Create inserts a payment method reference within a database transaction.
func (r *PaymentMethodRepo) Create(ctx context.Context, tx pgx.Tx, ref *domain.PaymentMethodReference) error {
	query := `INSERT INTO payment_methods (order_id, last_four, exp_month, exp_year, cardholder_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		ref.OrderID, ref.LastFour, ref.ExpMonth, ref.ExpYear, ref.CardholderName, ref.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment method reference: %w", err)
	}
	return nil
}

// GetByOrderID fetches the payment method reference for an order.
func (r *PaymentMethodRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentMethodReference, error) {
	query := `SELECT order_id, last_four, exp_month, exp_year, cardholder_name, created_at
		FROM payment_methods WHERE order_id = $1`

	ref := &domain.PaymentMethodReference{}
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&ref.OrderID, &ref.LastFour, &ref.ExpMonth, &ref.ExpYear, &ref.CardholderName, &ref.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment method reference: %w", err)
	}
	return ref, nil
}
