package integration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- No-op pgx.Tx ---

// noopTx satisfies pgx.Tx for repos that ignore the transaction handle. The
// in-memory repos synchronize with their own mutexes instead.
type noopTx struct{}

func (noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(ctx context.Context) error          { return nil }
func (noopTx) Rollback(ctx context.Context) error        { return nil }
func (noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (noopTx) Conn() *pgx.Conn                                               { return nil }

// inMemoryTransactor serializes transaction blocks with a single mutex, the
// coarse equivalent of the row lock finalizations take in Postgres. Without
// it two concurrent refunds could both re-read the ledger before either one
// writes.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor { return &inMemoryTransactor{} }

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockingTx{mu: &t.mu}, nil
}

// lockingTx releases the transactor mutex exactly once, on whichever of
// Commit or Rollback runs first.
type lockingTx struct {
	noopTx
	mu   *sync.Mutex
	once sync.Once
}

func (t *lockingTx) Commit(ctx context.Context) error {
	t.once.Do(t.mu.Unlock)
	return nil
}

func (t *lockingTx) Rollback(ctx context.Context) error {
	t.once.Do(t.mu.Unlock)
	return nil
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByIDForUpdate relies on the transactor mutex for exclusion, so the read
// itself needs no extra locking here.
func (r *inMemoryOrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryOrderRepo) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != expected {
		return false, nil
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu   sync.RWMutex
	txns []*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *txn
	r.txns = append(r.txns, &cp)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.txns {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.txns {
		if t.ReferenceID == referenceID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) Finalize(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.ID == txn.ID {
			if t.FinalizedAt != nil {
				return fmt.Errorf("transaction %s already finalized", txn.ID)
			}
			cp := *txn
			*t = cp
			return nil
		}
	}
	return fmt.Errorf("transaction %s not found", txn.ID)
}

func (r *inMemoryTransactionRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range r.txns {
		if t.OrderID == orderID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *inMemoryTransactionRepo) ListRequiringReconciliation(ctx context.Context, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range r.txns {
		if t.RequiresReconciliation {
			out = append(out, *t)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- In-Memory Payment Method Repo ---

type inMemoryPaymentMethodRepo struct {
	mu   sync.RWMutex
	refs map[uuid.UUID]*domain.PaymentMethodReference
}

func newInMemoryPaymentMethodRepo() *inMemoryPaymentMethodRepo {
	return &inMemoryPaymentMethodRepo{refs: make(map[uuid.UUID]*domain.PaymentMethodReference)}
}

func (r *inMemoryPaymentMethodRepo) Create(ctx context.Context, tx pgx.Tx, ref *domain.PaymentMethodReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	r.refs[ref.OrderID] = &cp
	return nil
}

func (r *inMemoryPaymentMethodRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentMethodReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.refs[orderID]
	if !ok {
		return nil, nil
	}
	cp := *ref
	return &cp, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.Key] = &cp
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemoryIdempotencyRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, rec := range r.records {
		if rec.IsExpired(now) {
			delete(r.records, key)
			n++
		}
	}
	return n, nil
}

// --- Stub Gateway ---

// stubGateway approves every submission. Settled controls whether results
// report immediate settlement, delay stretches the gateway call to widen race
// windows, and calls counts total submissions.
type stubGateway struct {
	settled bool
	delay   time.Duration
	calls   atomic.Int64
	seq     atomic.Int64
}

var _ ports.GatewayAdapter = (*stubGateway)(nil)

func (g *stubGateway) Submit(ctx context.Context, req ports.GatewayRequest) (*ports.GatewayResult, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &ports.GatewayResult{
		ReferenceID:     fmt.Sprintf("gw-%d", g.seq.Add(1)),
		Settled:         g.settled,
		ResponseCode:    "1",
		ResponseMessage: "This transaction has been approved.",
	}, nil
}

func (g *stubGateway) QueryByReference(ctx context.Context, gatewayReference string) (*ports.GatewayResult, error) {
	return &ports.GatewayResult{
		ReferenceID:     gatewayReference,
		Settled:         g.settled,
		ResponseCode:    "1",
		ResponseMessage: "This transaction has been approved.",
	}, nil
}
