package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated           OrderStatus = "CREATED"
	OrderStatusAuthorized        OrderStatus = "AUTHORIZED"
	OrderStatusCaptured          OrderStatus = "CAPTURED"
	OrderStatusPartiallyRefunded OrderStatus = "PARTIALLY_REFUNDED"
	OrderStatusRefunded          OrderStatus = "REFUNDED"
	OrderStatusVoided            OrderStatus = "VOIDED"
	OrderStatusFailed            OrderStatus = "FAILED"
)

// Order represents one customer payment intent. Orders are append-only audit
// records: they are created on the first payment attempt and mutated only by
// state machine transitions, never deleted.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	OrderNumber string      `json:"order_number"`
	CustomerID  string      `json:"customer_id"`
	Amount      int64       `json:"amount"` // In minor currency units (cents)
	Currency    string      `json:"currency"`
	Status      OrderStatus `json:"status"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsTerminal returns true if the order can accept no further operations.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusVoided ||
		o.Status == OrderStatusRefunded ||
		o.Status == OrderStatusFailed
}

// NewOrderNumber derives a human-readable order number from the creation
// timestamp plus a random suffix, e.g. ORD-20260830154501-a3f9c2.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return "ORD-" + now.UTC().Format("20060102150405") + "-" + hex.EncodeToString(suffix)
}
