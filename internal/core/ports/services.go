package ports

import (
	"context"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Gateway Adapter ---

// GatewayRequest is the normalized submission to the card gateway.
type GatewayRequest struct {
	Operation   domain.OperationType
	Amount      int64 // minor units
	Currency    string
	OrderNumber string
	Description string
	// Card is set for purchase/authorize only.
	Card *domain.CardDetails
	// CardMatch supplies last-4/expiry matching data for refunds, since full
	// card numbers are never stored.
	CardMatch *domain.PaymentMethodReference
	// GatewayReference is the prior gateway transaction for
	// capture/void/refund operations.
	GatewayReference string
}

// GatewayResult is the normalized gateway response.
type GatewayResult struct {
	ReferenceID     string
	Settled         bool
	ResponseCode    string
	ResponseMessage string
}

// GatewayAdapter wraps the card network. Submit returns a settlement outcome
// or an error for a transport failure (no usable response received).
type GatewayAdapter interface {
	Submit(ctx context.Context, req GatewayRequest) (*GatewayResult, error)
	// QueryByReference supports the out-of-core reconciliation job.
	QueryByReference(ctx context.Context, gatewayReference string) (*GatewayResult, error)
}

// --- Idempotency Key Manager ---

// IdempotencyDecision is the result of Begin: exactly one of Proceed or
// Replay applies.
type IdempotencyDecision struct {
	Proceed bool
	Replay  *domain.IdempotencyRecord
}

// IdempotencyManager deduplicates client-submitted operations. Begin is
// atomic with respect to concurrent callers using the same key: exactly one
// caller proceeds, the rest wait for the stored result.
type IdempotencyManager interface {
	Begin(ctx context.Context, key string) (*IdempotencyDecision, error)
	// Commit persists the record inside the caller's ledger transaction so
	// result and state change become durable together.
	Commit(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error
	// Finish publishes the committed result to the fast path and drops the
	// in-flight claim. Best effort, called after the ledger commit.
	Finish(ctx context.Context, rec *domain.IdempotencyRecord)
	// Release frees the claim so a legitimate retry can proceed. Only legal
	// before the gateway call has been made.
	Release(ctx context.Context, key string) error
}

// IdempotencyClaimStore is the atomic in-flight claim on a key.
type IdempotencyClaimStore interface {
	// Acquire atomically claims the key. Returns false if already claimed.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// IdempotencyCache is the fast-path result cache in front of the durable
// idempotency records.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil when absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Payment Orchestrator ---

// PaymentOrchestrator sequences idempotency check, state validation, gateway
// call, ledger update and result for every mutating payment operation.
type PaymentOrchestrator interface {
	Purchase(ctx context.Context, req PurchaseRequest) (*PaymentResult, error)
	Authorize(ctx context.Context, req AuthorizeRequest) (*PaymentResult, error)
	Capture(ctx context.Context, req CaptureRequest) (*PaymentResult, error)
	Void(ctx context.Context, req VoidRequest) (*PaymentResult, error)
	Refund(ctx context.Context, req RefundRequest) (*PaymentResult, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, []domain.Transaction, error)
}

// PurchaseRequest authorizes and captures in one operation, creating the
// order inline.
type PurchaseRequest struct {
	CustomerID       string
	Amount           int64
	Currency         string
	Description      string
	Card             domain.CardDetails
	IdempotencyToken string // optional caller-supplied token
	RequestID        string // client request identifier for key derivation
}

// AuthorizeRequest reserves funds without capturing, creating the order inline.
type AuthorizeRequest struct {
	CustomerID       string
	Amount           int64
	Currency         string
	Description      string
	Card             domain.CardDetails
	IdempotencyToken string
	RequestID        string
}

// CaptureRequest converts a prior authorization into a funds transfer.
// Amount 0 means capture the full authorized amount.
type CaptureRequest struct {
	OrderID          uuid.UUID
	Amount           int64
	IdempotencyToken string
	RequestID        string
}

// VoidRequest cancels an authorization/capture before settlement.
type VoidRequest struct {
	OrderID          uuid.UUID
	IdempotencyToken string
	RequestID        string
}

// RefundRequest returns funds from a settled capture. Amount 0 means refund
// the full remaining balance.
type RefundRequest struct {
	OrderID          uuid.UUID
	Amount           int64
	Reason           string
	IdempotencyToken string
	RequestID        string
}

// PaymentResult is the structured outcome of a mutating operation.
type PaymentResult struct {
	Success          bool               `json:"success"`
	TransactionID    uuid.UUID          `json:"transaction_id"`
	TransactionRef   string             `json:"transaction_ref"`
	GatewayReference string             `json:"gateway_reference,omitempty"`
	OrderID          uuid.UUID          `json:"order_id"`
	OrderNumber      string             `json:"order_number"`
	OrderStatus      domain.OrderStatus `json:"order_status"`
	Message          string             `json:"message"`
}

// OperationSnapshot is the serialized form of an operation outcome stored for
// idempotent replay. Either Result is set or the error fields are.
type OperationSnapshot struct {
	Result       *PaymentResult `json:"result,omitempty"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	HTTPStatus   int            `json:"http_status,omitempty"`
}

// --- Supporting services ---

// AuthService exchanges the configured API credential pair for a bearer
// token. Verification is purely local so no context is needed.
type AuthService interface {
	Login(apiKey, apiSecret string) (token string, expiry time.Time, err error)
}

// TokenService handles JWT token operations for the API surface.
type TokenService interface {
	Generate(apiKey string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	APIKey string
}

// HashService handles secret hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}
