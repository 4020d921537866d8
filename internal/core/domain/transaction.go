package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationType represents the kind of attempt made against an order.
type OperationType string

const (
	OperationPurchase  OperationType = "PURCHASE"
	OperationAuthorize OperationType = "AUTHORIZE"
	OperationCapture   OperationType = "CAPTURE"
	OperationVoid      OperationType = "VOID"
	OperationRefund    OperationType = "REFUND"
)

// TransactionStatus represents the outcome of a single attempt.
// PENDING is the only non-terminal status and must never be observable
// outside the orchestrator's synchronous call path.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusSuccess  TransactionStatus = "SUCCESS"
	TransactionStatusDeclined TransactionStatus = "DECLINED"
	TransactionStatusError    TransactionStatus = "ERROR"
	TransactionStatusHeld     TransactionStatus = "HELD"
)

// Transaction represents one operation attempt against an order. A transaction
// is created PENDING before the gateway call and finalized exactly once after
// the gateway responds or the call fails; it is never mutated afterwards.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	ReferenceID string            `json:"reference_id"`
	OrderID     uuid.UUID         `json:"order_id"`
	Operation   OperationType     `json:"operation"`
	Amount      int64             `json:"amount"` // In minor currency units (cents)
	Status      TransactionStatus `json:"status"`
	// GatewayReference is nil until the gateway responds.
	GatewayReference *string `json:"gateway_reference,omitempty"`
	GatewayCode      string  `json:"gateway_code,omitempty"`
	GatewayMessage   string  `json:"gateway_message,omitempty"`
	// SettledAt is set when the gateway explicitly reports settlement.
	SettledAt *time.Time `json:"settled_at,omitempty"`
	// RequiresReconciliation marks ambiguous outcomes (gateway error or
	// transport failure after submission) for the out-of-band sweep job.
	RequiresReconciliation bool `json:"requires_reconciliation"`
	// ReferencedTransactionID links a capture/void/refund to the prior
	// transaction it operates on.
	ReferencedTransactionID *uuid.UUID `json:"referenced_transaction_id,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	FinalizedAt             *time.Time `json:"finalized_at,omitempty"`
}

// IsTerminal returns true if the transaction has been finalized.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}

// IsSuccess returns true for a successful attempt.
func (t *Transaction) IsSuccess() bool {
	return t.Status == TransactionStatusSuccess
}

// NewTransactionReference derives the externally visible reference string.
func NewTransactionReference(id uuid.UUID) string {
	return "TXN-" + id.String()
}

// LedgerTotals are the cumulative settled amounts for an order's transactions.
type LedgerTotals struct {
	Captured int64
	Refunded int64
}

// Remaining returns the refundable balance. The ledger invariant guarantees
// it is never negative.
func (t LedgerTotals) Remaining() int64 {
	return t.Captured - t.Refunded
}

// ComputeTotals folds successful transactions into cumulative captured and
// refunded amounts for an order.
func ComputeTotals(txns []Transaction) LedgerTotals {
	var totals LedgerTotals
	for i := range txns {
		t := &txns[i]
		if !t.IsSuccess() {
			continue
		}
		switch t.Operation {
		case OperationPurchase, OperationCapture:
			totals.Captured += t.Amount
		case OperationRefund:
			totals.Refunded += t.Amount
		}
	}
	return totals
}
