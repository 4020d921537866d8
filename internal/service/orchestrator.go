package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// errStatusRace signals that the conditional order update lost the race.
var errStatusRace = errors.New("order status changed concurrently")

// OrchestratorConfig carries the policy knobs the orchestrator needs.
// Explicit struct, passed at construction: no process-wide globals.
type OrchestratorConfig struct {
	GatewayTimeout       time.Duration
	IdempotencyRetention time.Duration
}

// PaymentOrchestratorImpl implements ports.PaymentOrchestrator. It sequences
// idempotency check -> state validation -> gateway call -> ledger update for
// every mutating operation, and owns the failure policy around the gateway.
type PaymentOrchestratorImpl struct {
	orderRepo  ports.OrderRepository
	txRepo     ports.TransactionRepository
	pmRepo     ports.PaymentMethodRepository
	idemp      ports.IdempotencyManager
	gateway    ports.GatewayAdapter
	sm         *domain.StateMachine
	mapper     *ErrorMapper
	transactor ports.DBTransactor
	cfg        OrchestratorConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewPaymentOrchestrator creates a new PaymentOrchestratorImpl.
func NewPaymentOrchestrator(
	orderRepo ports.OrderRepository,
	txRepo ports.TransactionRepository,
	pmRepo ports.PaymentMethodRepository,
	idemp ports.IdempotencyManager,
	gateway ports.GatewayAdapter,
	sm *domain.StateMachine,
	mapper *ErrorMapper,
	transactor ports.DBTransactor,
	cfg OrchestratorConfig,
	log zerolog.Logger,
) *PaymentOrchestratorImpl {
	return &PaymentOrchestratorImpl{
		orderRepo:  orderRepo,
		txRepo:     txRepo,
		pmRepo:     pmRepo,
		idemp:      idemp,
		gateway:    gateway,
		sm:         sm,
		mapper:     mapper,
		transactor: transactor,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// Purchase authorizes and captures in one operation, creating the order inline.
func (s *PaymentOrchestratorImpl) Purchase(ctx context.Context, req ports.PurchaseRequest) (*ports.PaymentResult, error) {
	return s.openOrder(ctx, domain.OperationPurchase, req.CustomerID, req.Amount, req.Currency,
		req.Description, req.Card, req.IdempotencyToken, req.RequestID)
}

// Authorize reserves funds without capturing, creating the order inline.
func (s *PaymentOrchestratorImpl) Authorize(ctx context.Context, req ports.AuthorizeRequest) (*ports.PaymentResult, error) {
	return s.openOrder(ctx, domain.OperationAuthorize, req.CustomerID, req.Amount, req.Currency,
		req.Description, req.Card, req.IdempotencyToken, req.RequestID)
}

// openOrder is the shared first-attempt path: the order does not exist yet
// and is created inline together with its pending transaction and the
// payment method reference.
func (s *PaymentOrchestratorImpl) openOrder(
	ctx context.Context,
	op domain.OperationType,
	customerID string,
	amount int64,
	currency string,
	description string,
	card domain.CardDetails,
	token string,
	requestID string,
) (*ports.PaymentResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	key := domain.DeriveIdempotencyKey(token, op, customerID, amount, requestID)
	decision, err := s.idemp.Begin(ctx, key)
	if err != nil {
		return nil, err
	}
	if !decision.Proceed {
		return s.replay(decision.Replay)
	}

	now := s.now()
	order := &domain.Order{
		ID:          uuid.New(),
		OrderNumber: domain.NewOrderNumber(now),
		CustomerID:  customerID,
		Amount:      amount,
		Currency:    currency,
		Status:      domain.OrderStatusCreated,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	txn := s.newPendingTxn(order.ID, op, amount, nil)
	pmRef := domain.NewPaymentMethodReference(order.ID, card, now)

	// Durability point before the external call: a crash between the gateway
	// call and the final write leaves a PENDING row for reconciliation.
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.txRepo.Create(ctx, tx, txn); err != nil {
			return fmt.Errorf("create pending transaction: %w", err)
		}
		if err := s.pmRepo.Create(ctx, tx, pmRef); err != nil {
			return fmt.Errorf("create payment method reference: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = s.idemp.Release(ctx, key)
		return nil, apperror.InternalError(err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.abortBeforeGateway(ctx, key, order, txn, ctxErr)
	}

	gwReq := ports.GatewayRequest{
		Operation:   op,
		Amount:      amount,
		Currency:    currency,
		OrderNumber: order.OrderNumber,
		Description: description,
		Card:        &card,
	}
	return s.submitAndFinalize(ctx, key, order, txn, gwReq, domain.LedgerTotals{})
}

// Capture converts a prior authorization into a funds transfer.
func (s *PaymentOrchestratorImpl) Capture(ctx context.Context, req ports.CaptureRequest) (*ports.PaymentResult, error) {
	key := domain.DeriveIdempotencyKey(req.IdempotencyToken, domain.OperationCapture,
		req.OrderID.String(), req.Amount, req.RequestID)
	decision, err := s.idemp.Begin(ctx, key)
	if err != nil {
		return nil, err
	}
	if !decision.Proceed {
		return s.replay(decision.Replay)
	}

	order, txns, err := s.loadOrder(ctx, key, req.OrderID)
	if err != nil {
		return nil, err
	}

	authTxn := latestSuccess(txns, domain.OperationAuthorize)
	amount := req.Amount
	if amount == 0 && authTxn != nil {
		amount = authTxn.Amount
	}
	// Fail fast on an illegal transition: no gateway contact, claim released.
	if err := s.sm.ValidateCapture(order, authTxn, amount); err != nil {
		_ = s.idemp.Release(ctx, key)
		return nil, err
	}

	txn := s.newPendingTxn(order.ID, domain.OperationCapture, amount, &authTxn.ID)
	if err := s.persistPending(ctx, key, txn); err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.abortBeforeGateway(ctx, key, order, txn, ctxErr)
	}

	gwReq := ports.GatewayRequest{
		Operation:        domain.OperationCapture,
		Amount:           amount,
		Currency:         order.Currency,
		OrderNumber:      order.OrderNumber,
		GatewayReference: gatewayRef(authTxn),
	}
	return s.submitAndFinalize(ctx, key, order, txn, gwReq, domain.ComputeTotals(txns))
}

// Void cancels an authorization/capture before settlement.
func (s *PaymentOrchestratorImpl) Void(ctx context.Context, req ports.VoidRequest) (*ports.PaymentResult, error) {
	key := domain.DeriveIdempotencyKey(req.IdempotencyToken, domain.OperationVoid,
		req.OrderID.String(), 0, req.RequestID)
	decision, err := s.idemp.Begin(ctx, key)
	if err != nil {
		return nil, err
	}
	if !decision.Proceed {
		return s.replay(decision.Replay)
	}

	order, txns, err := s.loadOrder(ctx, key, req.OrderID)
	if err != nil {
		return nil, err
	}

	captured := latestSuccess(txns, domain.OperationPurchase, domain.OperationCapture)
	if err := s.sm.ValidateVoid(order, captured, s.now()); err != nil {
		_ = s.idemp.Release(ctx, key)
		return nil, err
	}

	ref := captured
	if ref == nil {
		ref = latestSuccess(txns, domain.OperationAuthorize)
	}
	if ref == nil {
		_ = s.idemp.Release(ctx, key)
		return nil, apperror.ErrInvalidStateTransition(string(order.Status), string(domain.OperationVoid))
	}

	txn := s.newPendingTxn(order.ID, domain.OperationVoid, ref.Amount, &ref.ID)
	if err := s.persistPending(ctx, key, txn); err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.abortBeforeGateway(ctx, key, order, txn, ctxErr)
	}

	gwReq := ports.GatewayRequest{
		Operation:        domain.OperationVoid,
		Amount:           ref.Amount,
		Currency:         order.Currency,
		OrderNumber:      order.OrderNumber,
		GatewayReference: gatewayRef(ref),
	}
	return s.submitAndFinalize(ctx, key, order, txn, gwReq, domain.ComputeTotals(txns))
}

// Refund returns funds from a settled capture.
func (s *PaymentOrchestratorImpl) Refund(ctx context.Context, req ports.RefundRequest) (*ports.PaymentResult, error) {
	key := domain.DeriveIdempotencyKey(req.IdempotencyToken, domain.OperationRefund,
		req.OrderID.String(), req.Amount, req.RequestID)
	decision, err := s.idemp.Begin(ctx, key)
	if err != nil {
		return nil, err
	}
	if !decision.Proceed {
		return s.replay(decision.Replay)
	}

	order, txns, err := s.loadOrder(ctx, key, req.OrderID)
	if err != nil {
		return nil, err
	}

	captured := latestSuccess(txns, domain.OperationPurchase, domain.OperationCapture)
	totals := domain.ComputeTotals(txns)
	amount := req.Amount
	if amount == 0 {
		amount = totals.Remaining()
	}
	if err := s.sm.ValidateRefund(order, captured, totals, amount, s.now()); err != nil {
		_ = s.idemp.Release(ctx, key)
		return nil, err
	}

	// Refunds need last-4 matching data since full card numbers are never
	// stored. A missing reference is a configuration problem, not a gateway
	// one.
	pmRef, err := s.pmRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		_ = s.idemp.Release(ctx, key)
		return nil, apperror.InternalError(fmt.Errorf("load payment method reference: %w", err))
	}
	if pmRef == nil {
		_ = s.idemp.Release(ctx, key)
		return nil, apperror.ErrMissingPaymentMethod()
	}

	txn := s.newPendingTxn(order.ID, domain.OperationRefund, amount, &captured.ID)
	if err := s.persistPending(ctx, key, txn); err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.abortBeforeGateway(ctx, key, order, txn, ctxErr)
	}

	gwReq := ports.GatewayRequest{
		Operation:        domain.OperationRefund,
		Amount:           amount,
		Currency:         order.Currency,
		OrderNumber:      order.OrderNumber,
		Description:      req.Reason,
		CardMatch:        pmRef,
		GatewayReference: gatewayRef(captured),
	}
	return s.submitAndFinalize(ctx, key, order, txn, gwReq, totals)
}

// GetOrder returns an order with its full transaction history.
func (s *PaymentOrchestratorImpl) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, []domain.Transaction, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, nil, apperror.ErrNotFound("order")
	}
	txns, err := s.txRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return order, txns, nil
}

// submitAndFinalize runs steps 4-7 of the execution protocol: gateway call
// with a bounded timeout, outcome mapping, then a single ledger transaction
// that locks the order row, re-checks state and refund balance against the
// locked ledger, finalizes the transaction and conditionally transitions the
// order, and commits the idempotency record. After the gateway has been
// invoked the claim is never released; ambiguous outcomes are flagged for
// reconciliation instead.
func (s *PaymentOrchestratorImpl) submitAndFinalize(
	ctx context.Context,
	key string,
	order *domain.Order,
	txn *domain.Transaction,
	gwReq ports.GatewayRequest,
	totalsBefore domain.LedgerTotals,
) (*ports.PaymentResult, error) {
	// Once the gateway call is in flight it runs to completion or timeout:
	// caller cancellation must not abort it mid-charge.
	callCtx := context.WithoutCancel(ctx)
	gwCtx, cancel := context.WithTimeout(callCtx, s.cfg.GatewayTimeout)
	gwRes, gwErr := s.gateway.Submit(gwCtx, gwReq)
	cancel()

	now := s.now()
	var status domain.TransactionStatus
	var opErr *apperror.AppError
	if gwErr != nil {
		// No usable response: the charge may or may not exist upstream.
		status = domain.TransactionStatusError
		opErr = apperror.ErrTransportFailure(gwErr)
		txn.RequiresReconciliation = true
	} else {
		if gwRes.ReferenceID != "" {
			ref := gwRes.ReferenceID
			txn.GatewayReference = &ref
		}
		txn.GatewayCode = gwRes.ResponseCode
		txn.GatewayMessage = gwRes.ResponseMessage
		if gwRes.Settled {
			settledAt := now
			txn.SettledAt = &settledAt
		}
		status, opErr = s.mapper.Map(gwRes)
		if status == domain.TransactionStatusError {
			txn.RequiresReconciliation = true
		}
	}
	txn.Status = status
	txn.FinalizedAt = &now

	var result *ports.PaymentResult
	if opErr == nil {
		message := txn.GatewayMessage
		if message == "" {
			message = "approved"
		}
		result = &ports.PaymentResult{
			Success:          true,
			TransactionID:    txn.ID,
			TransactionRef:   txn.ReferenceID,
			GatewayReference: gatewayRef(txn),
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			OrderStatus:      order.Status,
			Message:          message,
		}
	}

	rec := &domain.IdempotencyRecord{
		Key:           key,
		TransactionID: txn.ID,
		ResponseJSON:  marshalSnapshot(result, opErr),
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.IdempotencyRetention),
	}

	next := order.Status
	err := s.withTx(callCtx, func(tx pgx.Tx) error {
		// Lock the order row first: same-order finalizations serialize here,
		// and everything below sees the ledger as it stood when the previous
		// holder committed.
		current, err := s.orderRepo.GetByIDForUpdate(callCtx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if current == nil {
			return fmt.Errorf("order %s not found during finalize", order.ID)
		}
		if current.Status != order.Status {
			// A concurrent operation moved the order past the state this
			// request was validated against.
			return errStatusRace
		}

		totalsAfter := totalsBefore
		if status == domain.TransactionStatusSuccess {
			switch txn.Operation {
			case domain.OperationPurchase, domain.OperationCapture:
				totalsAfter.Captured += txn.Amount
			case domain.OperationRefund:
				// The pre-gateway snapshot may be stale when two refunds on
				// the same order interleave. Re-derive the totals under the
				// row lock and re-check the balance before finalizing.
				fresh, err := s.txRepo.ListByOrder(callCtx, order.ID)
				if err != nil {
					return fmt.Errorf("list transactions: %w", err)
				}
				totalsAfter = domain.ComputeTotals(fresh)
				if txn.Amount > totalsAfter.Remaining() {
					return errStatusRace
				}
				totalsAfter.Refunded += txn.Amount
			}
		}
		next = s.sm.NextStatus(current, txn.Operation, status, totalsAfter)
		if result != nil {
			result.OrderStatus = next
			rec.ResponseJSON = marshalSnapshot(result, opErr)
		}

		if err := s.txRepo.Finalize(callCtx, tx, txn); err != nil {
			return fmt.Errorf("finalize transaction: %w", err)
		}
		if next != current.Status {
			ok, err := s.orderRepo.UpdateStatusIf(callCtx, tx, order.ID, current.Status, next)
			if err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
			if !ok {
				return errStatusRace
			}
		}
		return s.idemp.Commit(callCtx, tx, rec)
	})
	if errors.Is(err, errStatusRace) {
		return s.finalizeLostRace(callCtx, key, order, txn, rec)
	}
	if err != nil {
		// The gateway has already been called: never release the claim here.
		// The claim expires on its own and the PENDING row is picked up by
		// reconciliation.
		s.log.Error().Err(err).
			Str("order_id", order.ID.String()).
			Str("transaction_id", txn.ID.String()).
			Msg("ledger write failed after gateway call")
		return nil, apperror.InternalError(err)
	}

	s.idemp.Finish(callCtx, rec)
	s.logOutcome(order, txn, next)

	if opErr != nil {
		return nil, opErr
	}
	return result, nil
}

// finalizeLostRace handles a finalization that lost to a concurrent
// operation on the same order after the gateway call: the status moved, the
// conditional update failed, or the re-derived refund balance no longer
// covers the amount. The attempt is
// kept as audit data, flagged for reconciliation since the gateway side may
// have gone through, and the caller gets a conflict to re-read and decide.
func (s *PaymentOrchestratorImpl) finalizeLostRace(
	ctx context.Context,
	key string,
	order *domain.Order,
	txn *domain.Transaction,
	rec *domain.IdempotencyRecord,
) (*ports.PaymentResult, error) {
	conflict := apperror.ErrConcurrencyConflict()
	txn.Status = domain.TransactionStatusError
	txn.RequiresReconciliation = true
	rec.ResponseJSON = marshalSnapshot(nil, conflict)

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.txRepo.Finalize(ctx, tx, txn); err != nil {
			return fmt.Errorf("finalize conflicting transaction: %w", err)
		}
		return s.idemp.Commit(ctx, tx, rec)
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("order_id", order.ID.String()).
			Str("transaction_id", txn.ID.String()).
			Msg("failed to record lost status race")
		return nil, apperror.InternalError(err)
	}
	s.idemp.Finish(ctx, rec)

	s.log.Warn().
		Str("order_id", order.ID.String()).
		Str("operation", string(txn.Operation)).
		Msg("conditional order update lost the race")
	return nil, conflict
}

// abortBeforeGateway honors caller cancellation that arrived before the
// external call. The gateway was never contacted, so the claim is released
// and a retry is safe.
func (s *PaymentOrchestratorImpl) abortBeforeGateway(
	ctx context.Context,
	key string,
	order *domain.Order,
	txn *domain.Transaction,
	cause error,
) (*ports.PaymentResult, error) {
	bg := context.WithoutCancel(ctx)
	now := s.now()
	txn.Status = domain.TransactionStatusError
	txn.GatewayMessage = "canceled before gateway submission"
	txn.FinalizedAt = &now

	next := s.sm.NextStatus(order, txn.Operation, domain.TransactionStatusError, domain.LedgerTotals{})
	err := s.withTx(bg, func(tx pgx.Tx) error {
		if err := s.txRepo.Finalize(bg, tx, txn); err != nil {
			return fmt.Errorf("finalize canceled transaction: %w", err)
		}
		if next != order.Status {
			if _, err := s.orderRepo.UpdateStatusIf(bg, tx, order.ID, order.Status, next); err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record canceled attempt")
	}
	_ = s.idemp.Release(bg, key)
	return nil, apperror.InternalError(fmt.Errorf("request canceled before gateway call: %w", cause))
}

// loadOrder fetches the order and its transaction history for a follow-up
// operation, releasing the idempotency claim on failure.
func (s *PaymentOrchestratorImpl) loadOrder(ctx context.Context, key string, orderID uuid.UUID) (*domain.Order, []domain.Transaction, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		_ = s.idemp.Release(ctx, key)
		return nil, nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		_ = s.idemp.Release(ctx, key)
		return nil, nil, apperror.ErrNotFound("order")
	}
	txns, err := s.txRepo.ListByOrder(ctx, orderID)
	if err != nil {
		_ = s.idemp.Release(ctx, key)
		return nil, nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return order, txns, nil
}

// persistPending writes the PENDING transaction row before the gateway call.
func (s *PaymentOrchestratorImpl) persistPending(ctx context.Context, key string, txn *domain.Transaction) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		return s.txRepo.Create(ctx, tx, txn)
	})
	if err != nil {
		_ = s.idemp.Release(ctx, key)
		return apperror.InternalError(fmt.Errorf("create pending transaction: %w", err))
	}
	return nil
}

func (s *PaymentOrchestratorImpl) newPendingTxn(orderID uuid.UUID, op domain.OperationType, amount int64, refID *uuid.UUID) *domain.Transaction {
	id := uuid.New()
	return &domain.Transaction{
		ID:                      id,
		ReferenceID:             domain.NewTransactionReference(id),
		OrderID:                 orderID,
		Operation:               op,
		Amount:                  amount,
		Status:                  domain.TransactionStatusPending,
		ReferencedTransactionID: refID,
		CreatedAt:               s.now(),
	}
}

// replay returns the stored result of a previous invocation unchanged.
func (s *PaymentOrchestratorImpl) replay(rec *domain.IdempotencyRecord) (*ports.PaymentResult, error) {
	var snap ports.OperationSnapshot
	if err := json.Unmarshal(rec.ResponseJSON, &snap); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal idempotency snapshot: %w", err))
	}
	if snap.ErrorCode != "" {
		return nil, apperror.New(apperror.Kind(snap.ErrorKind), snap.ErrorCode, snap.ErrorMessage, snap.HTTPStatus)
	}
	return snap.Result, nil
}

func (s *PaymentOrchestratorImpl) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PaymentOrchestratorImpl) logOutcome(order *domain.Order, txn *domain.Transaction, next domain.OrderStatus) {
	event := s.log.Info()
	if txn.RequiresReconciliation {
		event = s.log.Error().Bool("requires_reconciliation", true)
	} else if txn.Status != domain.TransactionStatusSuccess {
		event = s.log.Warn()
	}
	event.
		Str("order_id", order.ID.String()).
		Str("transaction_id", txn.ID.String()).
		Str("operation", string(txn.Operation)).
		Str("status", string(txn.Status)).
		Str("order_status", string(next)).
		Int64("amount", txn.Amount).
		Msg("operation finalized")
}

// marshalSnapshot serializes a result or a domain error for idempotent replay.
func marshalSnapshot(result *ports.PaymentResult, opErr *apperror.AppError) []byte {
	snap := ports.OperationSnapshot{Result: result}
	if opErr != nil {
		snap.ErrorKind = string(opErr.Kind)
		snap.ErrorCode = opErr.Code
		snap.ErrorMessage = opErr.Message
		snap.HTTPStatus = opErr.HTTPStatus
	}
	data, _ := json.Marshal(snap)
	return data
}

// latestSuccess returns the most recent successful transaction among the
// given operation types.
func latestSuccess(txns []domain.Transaction, ops ...domain.OperationType) *domain.Transaction {
	for i := len(txns) - 1; i >= 0; i-- {
		t := &txns[i]
		if !t.IsSuccess() {
			continue
		}
		for _, op := range ops {
			if t.Operation == op {
				return t
			}
		}
	}
	return nil
}

func gatewayRef(txn *domain.Transaction) string {
	if txn == nil || txn.GatewayReference == nil {
		return ""
	}
	return *txn.GatewayReference
}
