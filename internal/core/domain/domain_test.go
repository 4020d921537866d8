package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrder_IsTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusVoided, OrderStatusRefunded, OrderStatusFailed}
	open := []OrderStatus{OrderStatusCreated, OrderStatusAuthorized, OrderStatusCaptured, OrderStatusPartiallyRefunded}

	for _, s := range terminal {
		assert.True(t, (&Order{Status: s}).IsTerminal(), "%s", s)
	}
	for _, s := range open {
		assert.False(t, (&Order{Status: s}).IsTerminal(), "%s", s)
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 45, 1, 0, time.UTC)
	n1 := NewOrderNumber(now)
	n2 := NewOrderNumber(now)

	assert.True(t, strings.HasPrefix(n1, "ORD-20260830154501-"))
	assert.NotEqual(t, n1, n2, "random suffix keeps numbers unique within a second")
}

func TestTransaction_IsTerminal(t *testing.T) {
	assert.False(t, (&Transaction{Status: TransactionStatusPending}).IsTerminal())
	for _, s := range []TransactionStatus{TransactionStatusSuccess, TransactionStatusDeclined, TransactionStatusError, TransactionStatusHeld} {
		assert.True(t, (&Transaction{Status: s}).IsTerminal(), "%s", s)
	}
}

func TestComputeTotals(t *testing.T) {
	txns := []Transaction{
		{Operation: OperationPurchase, Status: TransactionStatusSuccess, Amount: 10050},
		{Operation: OperationRefund, Status: TransactionStatusSuccess, Amount: 5025},
		{Operation: OperationRefund, Status: TransactionStatusDeclined, Amount: 5025}, // not counted
		{Operation: OperationVoid, Status: TransactionStatusSuccess, Amount: 10050},   // not counted
		{Operation: OperationAuthorize, Status: TransactionStatusSuccess, Amount: 99}, // not counted
	}

	totals := ComputeTotals(txns)
	assert.Equal(t, int64(10050), totals.Captured)
	assert.Equal(t, int64(5025), totals.Refunded)
	assert.Equal(t, int64(5025), totals.Remaining())
}

func TestCardDetails_LastFour(t *testing.T) {
	assert.Equal(t, "1111", CardDetails{Number: "4111111111111111"}.LastFour())
	assert.Equal(t, "123", CardDetails{Number: "123"}.LastFour())
}

func TestNewPaymentMethodReference_StoresNoSensitiveData(t *testing.T) {
	orderID := uuid.New()
	now := time.Now().UTC()
	card := CardDetails{
		Number:         "4007000000027",
		ExpMonth:       12,
		ExpYear:        2028,
		CVV:            "123",
		CardholderName: "Jane Doe",
	}

	ref := NewPaymentMethodReference(orderID, card, now)
	assert.Equal(t, "0027", ref.LastFour)
	assert.Equal(t, 12, ref.ExpMonth)
	assert.Equal(t, 2028, ref.ExpYear)
	assert.Equal(t, "Jane Doe", ref.CardholderName)
}

func TestDeriveIdempotencyKey(t *testing.T) {
	t.Run("client token wins", func(t *testing.T) {
		key := DeriveIdempotencyKey("client-token-1", OperationPurchase, "cust-1", 10050, "req-1")
		assert.Equal(t, "client-token-1", key)
	})

	t.Run("fingerprint is deterministic", func(t *testing.T) {
		a := DeriveIdempotencyKey("", OperationCapture, "order-1", 10050, "req-1")
		b := DeriveIdempotencyKey("", OperationCapture, "order-1", 10050, "req-1")
		assert.Equal(t, a, b, "retries must deduplicate")
		assert.Len(t, a, 64)
	})

	t.Run("fingerprint varies with inputs", func(t *testing.T) {
		base := DeriveIdempotencyKey("", OperationCapture, "order-1", 10050, "req-1")
		assert.NotEqual(t, base, DeriveIdempotencyKey("", OperationVoid, "order-1", 10050, "req-1"))
		assert.NotEqual(t, base, DeriveIdempotencyKey("", OperationCapture, "order-2", 10050, "req-1"))
		assert.NotEqual(t, base, DeriveIdempotencyKey("", OperationCapture, "order-1", 10051, "req-1"))
		assert.NotEqual(t, base, DeriveIdempotencyKey("", OperationCapture, "order-1", 10050, "req-2"))
	})
}

func TestIdempotencyRecord_IsExpired(t *testing.T) {
	now := time.Now().UTC()
	rec := &IdempotencyRecord{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, rec.IsExpired(now))
	assert.True(t, rec.IsExpired(now.Add(2*time.Hour)))
}
