package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord maps an idempotency key to the transaction it produced,
// with a snapshot of the result returned on replay. A key maps to at most one
// outcome for the lifetime of the record.
type IdempotencyRecord struct {
	Key           string    `json:"key"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired reports whether the record is past its retention window.
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// DeriveIdempotencyKey produces the deduplication key for a mutating
// operation. A caller-supplied token wins; otherwise the key is a fingerprint
// of the operation, its scope (customer or order identifier), the amount and
// the client request identifier. The derivation must never involve wall-clock
// time, or retries would never deduplicate.
func DeriveIdempotencyKey(clientToken string, op OperationType, scopeID string, amount int64, requestID string) string {
	if clientToken != "" {
		return clientToken
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%s", op, scopeID, amount, requestID))
	return hex.EncodeToString(sum[:])
}
