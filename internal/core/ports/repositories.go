package ports

import (
	"context"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines persistence operations for orders.
// Methods accepting pgx.Tx run inside ledger transaction blocks.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	// GetByIDForUpdate locks the order row for the duration of the enclosing
	// transaction. Finalizations take this lock before re-reading the ledger
	// so that balance checks see every previously committed outcome.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error)
	// UpdateStatusIf performs the compare-and-swap on order status that
	// serializes concurrent operations against the same order. It returns
	// false when the expected status no longer matches.
	UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next domain.OrderStatus) (bool, error)
}

// TransactionRepository defines persistence operations for transactions.
// Transactions are append-only: Create persists the PENDING row before the
// gateway call, Finalize writes the terminal outcome exactly once.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error)
	Finalize(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error)
	// ListRequiringReconciliation feeds the out-of-band reconciliation sweep.
	ListRequiringReconciliation(ctx context.Context, limit int) ([]domain.Transaction, error)
}

// PaymentMethodRepository defines persistence for the non-sensitive card
// references kept per order. Write-once, read-only afterwards.
type PaymentMethodRepository interface {
	Create(ctx context.Context, tx pgx.Tx, ref *domain.PaymentMethodReference) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentMethodReference, error)
}

// IdempotencyRepository defines durable persistence for idempotency records.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// HealthChecker verifies connectivity of an infrastructure dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
