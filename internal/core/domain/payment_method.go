package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardDetails carries card data for a purchase/authorize request. It exists
// only in memory during the synchronous call path and is never persisted or
// logged; only the derived PaymentMethodReference reaches storage.
type CardDetails struct {
	Number         string
	ExpMonth       int
	ExpYear        int
	CVV            string
	CardholderName string
}

// LastFour returns the last four digits of the card number.
func (c CardDetails) LastFour() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// PaymentMethodReference is the non-sensitive card record kept per order for
// refund/void card matching. It never stores the full number or the CVV, and
// is read-only after creation.
type PaymentMethodReference struct {
	OrderID        uuid.UUID `json:"order_id"`
	LastFour       string    `json:"last_four"`
	ExpMonth       int       `json:"exp_month"`
	ExpYear        int       `json:"exp_year"`
	CardholderName string    `json:"cardholder_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewPaymentMethodReference strips a card down to its storable reference.
func NewPaymentMethodReference(orderID uuid.UUID, card CardDetails, now time.Time) *PaymentMethodReference {
	return &PaymentMethodReference{
		OrderID:        orderID,
		LastFour:       card.LastFour(),
		ExpMonth:       card.ExpMonth,
		ExpYear:        card.ExpYear,
		CardholderName: card.CardholderName,
		CreatedAt:      now,
	}
}
