package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, reference_id, order_id, operation, amount, status,
	gateway_reference, gateway_code, gateway_message, settled_at,
	requires_reconciliation, referenced_transaction_id, created_at, finalized_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts the PENDING transaction row within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.ReferenceID, t.OrderID, t.Operation, t.Amount, t.Status,
		t.GatewayReference, t.GatewayCode, t.GatewayMessage, t.SettledAt,
		t.RequiresReconciliation, t.ReferencedTransactionID, t.CreatedAt, t.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Finalize writes the terminal outcome of a pending transaction within a
// database transaction. A transaction is finalized exactly once.
func (r *TransactionRepo) Finalize(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `UPDATE transactions SET status = $1, gateway_reference = $2, gateway_code = $3,
		gateway_message = $4, settled_at = $5, requires_reconciliation = $6, finalized_at = $7
		WHERE id = $8 AND finalized_at IS NULL`

	tag, err := tx.Exec(ctx, query,
		t.Status, t.GatewayReference, t.GatewayCode, t.GatewayMessage,
		t.SettledAt, t.RequiresReconciliation, t.FinalizedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("finalize transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found or already finalized", t.ID)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByReference fetches a transaction by its external reference.
func (r *TransactionRepo) GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference_id = $1`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, referenceID))
}

// ListByOrder fetches the full transaction history of an order, oldest first.
func (r *TransactionRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE order_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListRequiringReconciliation fetches transactions flagged for the
// reconciliation sweep, oldest first.
func (r *TransactionRepo) ListRequiringReconciliation(ctx context.Context, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE requires_reconciliation = TRUE ORDER BY created_at ASC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions requiring reconciliation: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *TransactionRepo) collect(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.ReferenceID, &t.OrderID, &t.Operation, &t.Amount, &t.Status,
			&t.GatewayReference, &t.GatewayCode, &t.GatewayMessage, &t.SettledAt,
			&t.RequiresReconciliation, &t.ReferencedTransactionID, &t.CreatedAt, &t.FinalizedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.ReferenceID, &t.OrderID, &t.Operation, &t.Amount, &t.Status,
		&t.GatewayReference, &t.GatewayCode, &t.GatewayMessage, &t.SettledAt,
		&t.RequiresReconciliation, &t.ReferencedTransactionID, &t.CreatedAt, &t.FinalizedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
