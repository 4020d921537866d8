package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports/mocks"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// stubTx satisfies pgx.Tx for paths where the orchestrator only needs
// Commit/Rollback to succeed.
type stubTx struct{}

func (stubTx) Begin(context.Context) (pgx.Tx, error) { return stubTx{}, nil }
func (stubTx) Commit(context.Context) error          { return nil }
func (stubTx) Rollback(context.Context) error        { return nil }
func (stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (stubTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (stubTx) Conn() *pgx.Conn                                         { return nil }

type orchFixture struct {
	orders     *mocks.MockOrderRepository
	txns       *mocks.MockTransactionRepository
	pms        *mocks.MockPaymentMethodRepository
	idemp      *mocks.MockIdempotencyManager
	gateway    *mocks.MockGatewayAdapter
	transactor *mocks.MockDBTransactor
	orch       *PaymentOrchestratorImpl
	now        time.Time
}

func newOrchFixture(t *testing.T) *orchFixture {
	ctrl := gomock.NewController(t)
	f := &orchFixture{
		orders:     mocks.NewMockOrderRepository(ctrl),
		txns:       mocks.NewMockTransactionRepository(ctrl),
		pms:        mocks.NewMockPaymentMethodRepository(ctrl),
		idemp:      mocks.NewMockIdempotencyManager(ctrl),
		gateway:    mocks.NewMockGatewayAdapter(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		now:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.orch = NewPaymentOrchestrator(
		f.orders, f.txns, f.pms, f.idemp, f.gateway,
		domain.NewStateMachine(24*time.Hour),
		NewErrorMapper(),
		f.transactor,
		OrchestratorConfig{GatewayTimeout: time.Second, IdempotencyRetention: 24 * time.Hour},
		zerolog.Nop(),
	)
	f.orch.now = func() time.Time { return f.now }
	f.transactor.EXPECT().Begin(gomock.Any()).Return(stubTx{}, nil).AnyTimes()
	return f
}

func (f *orchFixture) expectProceed() {
	f.idemp.EXPECT().Begin(gomock.Any(), gomock.Any()).
		Return(&ports.IdempotencyDecision{Proceed: true}, nil)
}

// expectLock stubs the row lock taken at finalize time, reporting the given
// status as the order's current one.
func (f *orchFixture) expectLock(status domain.OrderStatus) {
	f.orders.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: status}, nil
		})
}

func testCard() domain.CardDetails {
	return domain.CardDetails{
		Number:         "4111111111111111",
		ExpMonth:       12,
		ExpYear:        2030,
		CVV:            "123",
		CardholderName: "Jane Doe",
	}
}

func approvedResult(ref string) *ports.GatewayResult {
	return &ports.GatewayResult{
		ReferenceID:     ref,
		ResponseCode:    "1",
		ResponseMessage: "This transaction has been approved.",
	}
}

// authorizedOrder builds an order plus its successful authorization history.
func authorizedOrder(amount int64) (*domain.Order, []domain.Transaction) {
	orderID := uuid.New()
	authID := uuid.New()
	gwRef := "gw-auth-1"
	order := &domain.Order{
		ID:          orderID,
		OrderNumber: "ORD-20250601120000-abc123",
		CustomerID:  "cust-1",
		Amount:      amount,
		Currency:    "USD",
		Status:      domain.OrderStatusAuthorized,
	}
	txns := []domain.Transaction{{
		ID:               authID,
		ReferenceID:      domain.NewTransactionReference(authID),
		OrderID:          orderID,
		Operation:        domain.OperationAuthorize,
		Amount:           amount,
		Status:           domain.TransactionStatusSuccess,
		GatewayReference: &gwRef,
	}}
	return order, txns
}

// capturedOrder builds an order with an authorization followed by a capture.
func capturedOrder(amount int64, settledAt *time.Time) (*domain.Order, []domain.Transaction) {
	order, txns := authorizedOrder(amount)
	order.Status = domain.OrderStatusCaptured
	capID := uuid.New()
	gwRef := "gw-cap-1"
	txns = append(txns, domain.Transaction{
		ID:               capID,
		ReferenceID:      domain.NewTransactionReference(capID),
		OrderID:          order.ID,
		Operation:        domain.OperationCapture,
		Amount:           amount,
		Status:           domain.TransactionStatusSuccess,
		GatewayReference: &gwRef,
		SettledAt:        settledAt,
	})
	return order, txns
}

func TestOrchestrator_Purchase_Approved(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	f.expectProceed()
	f.orders.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.pms.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.GatewayRequest) (*ports.GatewayResult, error) {
			assert.Equal(t, domain.OperationPurchase, req.Operation)
			assert.Equal(t, int64(10050), req.Amount)
			require.NotNil(t, req.Card)
			return approvedResult("gw-1"), nil
		})

	var finalized *domain.Transaction
	f.expectLock(domain.OrderStatusCreated)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			finalized = txn
			return nil
		})
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusCreated, domain.OrderStatusCaptured).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	result, err := f.orch.Purchase(ctx, ports.PurchaseRequest{
		CustomerID: "cust-1",
		Amount:     10050,
		Currency:   "USD",
		Card:       testCard(),
		RequestID:  "req-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.OrderStatusCaptured, result.OrderStatus)
	assert.Equal(t, "gw-1", result.GatewayReference)

	require.NotNil(t, finalized)
	assert.Equal(t, domain.TransactionStatusSuccess, finalized.Status)
	assert.False(t, finalized.RequiresReconciliation)
	require.NotNil(t, finalized.FinalizedAt)
}

func TestOrchestrator_Purchase_RejectsNonPositiveAmount(t *testing.T) {
	f := newOrchFixture(t)

	_, err := f.orch.Purchase(context.Background(), ports.PurchaseRequest{
		CustomerID: "cust-1",
		Amount:     0,
		Currency:   "USD",
		Card:       testCard(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestOrchestrator_Purchase_DeclinedFailsOrder(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	f.expectProceed()
	f.orders.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.pms.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(&ports.GatewayResult{
		ReferenceID:     "gw-2",
		ResponseCode:    "2",
		ResponseMessage: "This transaction has been declined.",
	}, nil)

	var finalized *domain.Transaction
	f.expectLock(domain.OrderStatusCreated)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			finalized = txn
			return nil
		})
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusCreated, domain.OrderStatusFailed).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	_, err := f.orch.Purchase(ctx, ports.PurchaseRequest{
		CustomerID: "cust-1",
		Amount:     5000,
		Currency:   "USD",
		Card:       testCard(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindDeclined))

	require.NotNil(t, finalized)
	assert.Equal(t, domain.TransactionStatusDeclined, finalized.Status)
	assert.False(t, finalized.RequiresReconciliation)
}

func TestOrchestrator_Purchase_TransportFailureFlagsReconciliation(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	f.expectProceed()
	f.orders.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.pms.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	var finalized *domain.Transaction
	f.expectLock(domain.OrderStatusCreated)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			finalized = txn
			return nil
		})
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusCreated, domain.OrderStatusFailed).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	_, err := f.orch.Purchase(ctx, ports.PurchaseRequest{
		CustomerID: "cust-1",
		Amount:     5000,
		Currency:   "USD",
		Card:       testCard(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindTransportFailure))

	require.NotNil(t, finalized)
	assert.Equal(t, domain.TransactionStatusError, finalized.Status)
	assert.True(t, finalized.RequiresReconciliation)
}

func TestOrchestrator_Purchase_PersistFailureReleasesClaim(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	f.expectProceed()
	f.orders.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
	f.idemp.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.orch.Purchase(ctx, ports.PurchaseRequest{
		CustomerID: "cust-1",
		Amount:     5000,
		Currency:   "USD",
		Card:       testCard(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInternal))
}

func TestOrchestrator_Purchase_ReplaysStoredResult(t *testing.T) {
	f := newOrchFixture(t)
	txnID := uuid.New()
	stored := ports.OperationSnapshot{Result: &ports.PaymentResult{
		Success:       true,
		TransactionID: txnID,
		OrderStatus:   domain.OrderStatusCaptured,
		Message:       "approved",
	}}
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	f.idemp.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(&ports.IdempotencyDecision{
		Replay: &domain.IdempotencyRecord{Key: "k", ResponseJSON: data},
	}, nil)

	result, err := f.orch.Purchase(context.Background(), ports.PurchaseRequest{
		CustomerID: "cust-1",
		Amount:     10050,
		Currency:   "USD",
		Card:       testCard(),
	})
	require.NoError(t, err)
	assert.Equal(t, txnID, result.TransactionID)
	assert.Equal(t, domain.OrderStatusCaptured, result.OrderStatus)
}

func TestOrchestrator_Purchase_ReplaysStoredDecline(t *testing.T) {
	f := newOrchFixture(t)
	stored := ports.OperationSnapshot{
		ErrorKind:    string(apperror.KindDeclined),
		ErrorCode:    "GW_001",
		ErrorMessage: "This transaction has been declined.",
		HTTPStatus:   402,
	}
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	f.idemp.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(&ports.IdempotencyDecision{
		Replay: &domain.IdempotencyRecord{Key: "k", ResponseJSON: data},
	}, nil)

	_, err = f.orch.Purchase(context.Background(), ports.PurchaseRequest{
		CustomerID: "cust-1",
		Amount:     10050,
		Currency:   "USD",
		Card:       testCard(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindDeclined))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_001", appErr.Code)
}

func TestOrchestrator_Authorize_Approved(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	f.expectProceed()
	f.orders.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.pms.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.GatewayRequest) (*ports.GatewayResult, error) {
			assert.Equal(t, domain.OperationAuthorize, req.Operation)
			return approvedResult("gw-auth"), nil
		})
	f.expectLock(domain.OrderStatusCreated)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusCreated, domain.OrderStatusAuthorized).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	result, err := f.orch.Authorize(ctx, ports.AuthorizeRequest{
		CustomerID: "cust-1",
		Amount:     10050,
		Currency:   "USD",
		Card:       testCard(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAuthorized, result.OrderStatus)
}

func TestOrchestrator_Capture_FullAmount(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()
	order, history := authorizedOrder(10050)

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, int64(10050), txn.Amount)
			require.NotNil(t, txn.ReferencedTransactionID)
			assert.Equal(t, history[0].ID, *txn.ReferencedTransactionID)
			return nil
		})
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.GatewayRequest) (*ports.GatewayResult, error) {
			assert.Equal(t, "gw-auth-1", req.GatewayReference)
			return approvedResult("gw-cap"), nil
		})
	f.expectLock(domain.OrderStatusAuthorized)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusAuthorized, domain.OrderStatusCaptured).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	result, err := f.orch.Capture(ctx, ports.CaptureRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCaptured, result.OrderStatus)
}

func TestOrchestrator_Capture_WrongStateSkipsGateway(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()
	order, history := capturedOrder(10050, nil)

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.idemp.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.orch.Capture(ctx, ports.CaptureRequest{OrderID: order.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))
	assert.Contains(t, err.Error(), "CAPTURED")
}

func TestOrchestrator_Capture_UnknownOrder(t *testing.T) {
	f := newOrchFixture(t)
	orderID := uuid.New()

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(nil, nil)
	f.idemp.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.orch.Capture(context.Background(), ports.CaptureRequest{OrderID: orderID})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestOrchestrator_Capture_LostRaceReturnsConflict(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()
	order, history := authorizedOrder(10050)

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(approvedResult("gw-cap"), nil)

	// The locked read shows a concurrent capture already finalized; the
	// attempt is then recorded as an error flagged for reconciliation.
	f.expectLock(domain.OrderStatusCaptured)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, domain.TransactionStatusError, txn.Status)
			assert.True(t, txn.RequiresReconciliation)
			return nil
		})
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	_, err := f.orch.Capture(ctx, ports.CaptureRequest{OrderID: order.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConcurrencyConflict))
}

func TestOrchestrator_Void_UnsettledCapture(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()
	order, history := capturedOrder(10050, nil)

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.GatewayRequest) (*ports.GatewayResult, error) {
			assert.Equal(t, domain.OperationVoid, req.Operation)
			assert.Equal(t, "gw-cap-1", req.GatewayReference)
			return approvedResult("gw-void"), nil
		})
	f.expectLock(domain.OrderStatusCaptured)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusCaptured, domain.OrderStatusVoided).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	result, err := f.orch.Void(ctx, ports.VoidRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusVoided, result.OrderStatus)
}

func TestOrchestrator_Void_SettledCaptureRejected(t *testing.T) {
	f := newOrchFixture(t)
	settled := f.now.Add(-time.Hour)
	order, history := capturedOrder(10050, &settled)

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.idemp.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.orch.Void(context.Background(), ports.VoidRequest{OrderID: order.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))
}

func TestOrchestrator_Refund_BeforeSettlementRejected(t *testing.T) {
	f := newOrchFixture(t)
	order, history := capturedOrder(10050, nil) // captured just now, cutoff not reached

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.idemp.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.orch.Refund(context.Background(), ports.RefundRequest{
		OrderID: order.ID,
		Amount:  5025,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotSettled))
}

func TestOrchestrator_Refund_PartialThenStatus(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()
	settled := f.now.Add(-2 * time.Hour)
	order, history := capturedOrder(10050, &settled)
	pmRef := &domain.PaymentMethodReference{
		OrderID:  order.ID,
		LastFour: "1111",
		ExpMonth: 12,
		ExpYear:  2030,
	}

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	// Listed once for validation and once more under the row lock.
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil).Times(2)
	f.pms.EXPECT().GetByOrderID(gomock.Any(), order.ID).Return(pmRef, nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.GatewayRequest) (*ports.GatewayResult, error) {
			assert.Equal(t, domain.OperationRefund, req.Operation)
			assert.Equal(t, int64(5025), req.Amount)
			assert.Equal(t, pmRef, req.CardMatch)
			return approvedResult("gw-ref"), nil
		})
	f.expectLock(domain.OrderStatusCaptured)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusCaptured, domain.OrderStatusPartiallyRefunded).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	result, err := f.orch.Refund(ctx, ports.RefundRequest{OrderID: order.ID, Amount: 5025})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPartiallyRefunded, result.OrderStatus)
}

func TestOrchestrator_Refund_RemainingBalanceMovesToRefunded(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()
	settled := f.now.Add(-2 * time.Hour)
	order, history := capturedOrder(10050, &settled)
	order.Status = domain.OrderStatusPartiallyRefunded

	// Prior partial refund of 50.25 leaves 50.25 outstanding.
	refID := uuid.New()
	history = append(history, domain.Transaction{
		ID:        refID,
		OrderID:   order.ID,
		Operation: domain.OperationRefund,
		Amount:    5025,
		Status:    domain.TransactionStatusSuccess,
	})
	pmRef := &domain.PaymentMethodReference{OrderID: order.ID, LastFour: "1111"}

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil).Times(2)
	f.pms.EXPECT().GetByOrderID(gomock.Any(), order.ID).Return(pmRef, nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, int64(5025), txn.Amount) // balance fills the amount
			return nil
		})
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(approvedResult("gw-ref2"), nil)
	f.expectLock(domain.OrderStatusPartiallyRefunded)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.orders.EXPECT().UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(),
		domain.OrderStatusPartiallyRefunded, domain.OrderStatusRefunded).Return(true, nil)
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	result, err := f.orch.Refund(ctx, ports.RefundRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, result.OrderStatus)
}

func TestOrchestrator_Refund_StaleBalanceLosesRace(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()
	settled := f.now.Add(-2 * time.Hour)
	order, history := capturedOrder(10000, &settled)
	order.Status = domain.OrderStatusPartiallyRefunded
	history = append(history, domain.Transaction{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Operation: domain.OperationRefund,
		Amount:    1000,
		Status:    domain.TransactionStatusSuccess,
	})
	pmRef := &domain.PaymentMethodReference{OrderID: order.ID, LastFour: "1111"}

	// While this refund was at the gateway a concurrent one committed,
	// shrinking the remaining balance below the requested amount.
	raced := append(append([]domain.Transaction{}, history...), domain.Transaction{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Operation: domain.OperationRefund,
		Amount:    6000,
		Status:    domain.TransactionStatusSuccess,
	})

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	gomock.InOrder(
		f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil),
		f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(raced, nil),
	)
	f.pms.EXPECT().GetByOrderID(gomock.Any(), order.ID).Return(pmRef, nil)
	f.txns.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(approvedResult("gw-ref3"), nil)

	f.expectLock(domain.OrderStatusPartiallyRefunded)
	f.txns.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, domain.TransactionStatusError, txn.Status)
			assert.True(t, txn.RequiresReconciliation)
			return nil
		})
	f.idemp.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.idemp.EXPECT().Finish(gomock.Any(), gomock.Any())

	_, err := f.orch.Refund(ctx, ports.RefundRequest{OrderID: order.ID, Amount: 6000})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConcurrencyConflict))
}

func TestOrchestrator_Refund_ExceedingCapturedRejected(t *testing.T) {
	f := newOrchFixture(t)
	settled := f.now.Add(-2 * time.Hour)
	order, history := capturedOrder(10050, &settled)

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.idemp.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.orch.Refund(context.Background(), ports.RefundRequest{
		OrderID: order.ID,
		Amount:  20000,
	})
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_006", appErr.Code)
}

func TestOrchestrator_Refund_MissingPaymentMethod(t *testing.T) {
	f := newOrchFixture(t)
	settled := f.now.Add(-2 * time.Hour)
	order, history := capturedOrder(10050, &settled)

	f.expectProceed()
	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)
	f.pms.EXPECT().GetByOrderID(gomock.Any(), order.ID).Return(nil, nil)
	f.idemp.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.orch.Refund(context.Background(), ports.RefundRequest{
		OrderID: order.ID,
		Amount:  5025,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConfigurationError))
}

func TestOrchestrator_GetOrder_NotFound(t *testing.T) {
	f := newOrchFixture(t)
	orderID := uuid.New()

	f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(nil, nil)

	_, _, err := f.orch.GetOrder(context.Background(), orderID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestOrchestrator_GetOrder_ReturnsHistory(t *testing.T) {
	f := newOrchFixture(t)
	order, history := capturedOrder(10050, nil)

	f.orders.EXPECT().GetByID(gomock.Any(), order.ID).Return(order, nil)
	f.txns.EXPECT().ListByOrder(gomock.Any(), order.ID).Return(history, nil)

	got, txns, err := f.orch.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order, got)
	assert.Len(t, txns, 2)
}
