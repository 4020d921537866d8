package domain

import (
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"
)

// allowedTransitions defines the valid order state transitions. The key is
// the current state, the value the set of legal target states.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated: {
		OrderStatusAuthorized,
		OrderStatusCaptured,
		OrderStatusFailed,
	},
	OrderStatusAuthorized: {
		OrderStatusCaptured,
		OrderStatusVoided,
	},
	OrderStatusCaptured: {
		OrderStatusVoided,
		OrderStatusPartiallyRefunded,
		OrderStatusRefunded,
	},
	OrderStatusPartiallyRefunded: {
		OrderStatusPartiallyRefunded,
		OrderStatusRefunded,
	},
	OrderStatusVoided:   {}, // Terminal
	OrderStatusRefunded: {}, // Terminal
	OrderStatusFailed:   {}, // Terminal
}

// operationPreconditions lists the order states in which each follow-up
// operation is legal. Purchase and authorize are absent: they create the
// order and are validated by its non-existence instead.
var operationPreconditions = map[OperationType][]OrderStatus{
	OperationCapture: {OrderStatusAuthorized},
	OperationVoid:    {OrderStatusAuthorized, OrderStatusCaptured},
	OperationRefund:  {OrderStatusCaptured, OrderStatusPartiallyRefunded},
}

// CanTransition checks if a transition from one order state to another is allowed.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateMachine enforces legal operation sequences per order/transaction and
// computes the next order state given a gateway outcome. The settlement
// cutoff drives refund eligibility when the gateway does not report
// settlement in real time.
type StateMachine struct {
	settlementCutoff time.Duration
}

// NewStateMachine creates a state machine with the given settlement cutoff.
func NewStateMachine(settlementCutoff time.Duration) *StateMachine {
	return &StateMachine{settlementCutoff: settlementCutoff}
}

// ValidateOperation checks that op is legal for the order's current state.
// It fails with InvalidStateTransition carrying the current state and the
// attempted operation.
func (m *StateMachine) ValidateOperation(order *Order, op OperationType) error {
	states, ok := operationPreconditions[op]
	if !ok {
		return apperror.ErrInvalidStateTransition(string(order.Status), string(op))
	}
	for _, s := range states {
		if order.Status == s {
			return nil
		}
	}
	return apperror.ErrInvalidStateTransition(string(order.Status), string(op))
}

// ValidateCapture checks the capture amount against the referenced
// authorization on top of the state precondition.
func (m *StateMachine) ValidateCapture(order *Order, authorized *Transaction, amount int64) error {
	if err := m.ValidateOperation(order, OperationCapture); err != nil {
		return err
	}
	if authorized == nil || !authorized.IsSuccess() || authorized.Operation != OperationAuthorize {
		return apperror.ErrInvalidStateTransition(string(order.Status), string(OperationCapture))
	}
	if amount <= 0 || amount > authorized.Amount {
		return apperror.ErrCaptureExceedsAuthorized()
	}
	return nil
}

// ValidateVoid checks that the order can be voided: legal state and the
// referenced transaction has not settled yet. After settlement the only
// reversal operation is refund.
func (m *StateMachine) ValidateVoid(order *Order, captured *Transaction, now time.Time) error {
	if err := m.ValidateOperation(order, OperationVoid); err != nil {
		return err
	}
	if captured != nil && m.IsRefundEligible(captured, now) {
		return apperror.ErrInvalidStateTransition(string(order.Status), string(OperationVoid))
	}
	return nil
}

// ValidateRefund checks refund legality: state precondition, settlement
// eligibility of the referenced transaction, and that the cumulative refunded
// amount never exceeds the captured amount.
func (m *StateMachine) ValidateRefund(order *Order, captured *Transaction, totals LedgerTotals, amount int64, now time.Time) error {
	if err := m.ValidateOperation(order, OperationRefund); err != nil {
		return err
	}
	if captured == nil || !captured.IsSuccess() {
		return apperror.ErrInvalidStateTransition(string(order.Status), string(OperationRefund))
	}
	if !m.IsRefundEligible(captured, now) {
		return apperror.ErrNotSettled()
	}
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if amount > totals.Remaining() {
		return apperror.ErrRefundExceedsCaptured()
	}
	return nil
}

// IsRefundEligible reports whether a captured transaction has settled and may
// be refunded. A transaction is settled once the gateway explicitly reports
// settlement, or once it is older than the configured cutoff.
func (m *StateMachine) IsRefundEligible(txn *Transaction, now time.Time) bool {
	if !txn.IsSuccess() {
		return false
	}
	if txn.SettledAt != nil && !txn.SettledAt.After(now) {
		return true
	}
	return now.Sub(txn.CreatedAt) >= m.settlementCutoff
}

// NextStatus computes the order state that results from finalizing a
// transaction with the given outcome. totalsAfter must already include the
// transaction being finalized when it succeeded.
func (m *StateMachine) NextStatus(order *Order, op OperationType, outcome TransactionStatus, totalsAfter LedgerTotals) OrderStatus {
	if outcome != TransactionStatusSuccess {
		// A decline or error before any successful operation fails the
		// order; afterwards the order keeps its state.
		if order.Status == OrderStatusCreated && outcome != TransactionStatusHeld {
			return OrderStatusFailed
		}
		return order.Status
	}

	switch op {
	case OperationPurchase, OperationCapture:
		return OrderStatusCaptured
	case OperationAuthorize:
		return OrderStatusAuthorized
	case OperationVoid:
		return OrderStatusVoided
	case OperationRefund:
		if totalsAfter.Remaining() == 0 {
			return OrderStatusRefunded
		}
		return OrderStatusPartiallyRefunded
	}
	return order.Status
}
