package dto

// CardRequest carries raw card data for purchase/authorize. It is forwarded
// to the gateway and never persisted beyond last-4/expiry.
type CardRequest struct {
	Number         string `json:"number" binding:"required,min=12,max=19,numeric"`
	ExpMonth       int    `json:"exp_month" binding:"required,min=1,max=12"`
	ExpYear        int    `json:"exp_year" binding:"required,min=2000,max=2100"`
	CVV            string `json:"cvv" binding:"required,min=3,max=4,numeric"`
	CardholderName string `json:"cardholder_name,omitempty" binding:"max=100"`
}

// PaymentRequest is the request body for purchase and authorize. Amount is a
// decimal string in major units, e.g. "100.50".
type PaymentRequest struct {
	CustomerID       string      `json:"customer_id" binding:"required,max=100"`
	Amount           string      `json:"amount" binding:"required"`
	Currency         string      `json:"currency" binding:"required,len=3"`
	Description      string      `json:"description,omitempty" binding:"max=255"`
	Card             CardRequest `json:"card" binding:"required"`
	IdempotencyToken string      `json:"idempotency_token,omitempty" binding:"max=100"`
}

// CaptureRequest is the request body for capturing an authorization. A nil
// amount captures the full authorized amount.
type CaptureRequest struct {
	Amount           *string `json:"amount,omitempty"`
	IdempotencyToken string  `json:"idempotency_token,omitempty" binding:"max=100"`
}

// VoidRequest is the request body for voiding an order.
type VoidRequest struct {
	IdempotencyToken string `json:"idempotency_token,omitempty" binding:"max=100"`
}

// RefundRequest is the request body for refund processing. A nil amount
// refunds the full remaining balance.
type RefundRequest struct {
	Amount           *string `json:"amount,omitempty"`
	Reason           string  `json:"reason,omitempty" binding:"max=255"`
	IdempotencyToken string  `json:"idempotency_token,omitempty" binding:"max=100"`
}

// LoginRequest is the request body for token issuance.
type LoginRequest struct {
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// PaymentResultResponse is the response body for a completed operation.
type PaymentResultResponse struct {
	Success          bool   `json:"success"`
	TransactionID    string `json:"transaction_id"`
	TransactionRef   string `json:"transaction_ref"`
	GatewayReference string `json:"gateway_reference,omitempty"`
	OrderID          string `json:"order_id"`
	OrderNumber      string `json:"order_number"`
	OrderStatus      string `json:"order_status"`
	Message          string `json:"message"`
}

// TransactionResponse is one ledger entry in an order's history.
type TransactionResponse struct {
	ID                     string  `json:"id"`
	ReferenceID            string  `json:"reference_id"`
	Operation              string  `json:"operation"`
	Amount                 string  `json:"amount"`
	Status                 string  `json:"status"`
	GatewayReference       string  `json:"gateway_reference,omitempty"`
	GatewayCode            string  `json:"gateway_code,omitempty"`
	GatewayMessage         string  `json:"gateway_message,omitempty"`
	SettledAt              *string `json:"settled_at,omitempty"`
	RequiresReconciliation bool    `json:"requires_reconciliation"`
	CreatedAt              string  `json:"created_at"`
	FinalizedAt            *string `json:"finalized_at,omitempty"`
}

// OrderResponse is the response body for order retrieval, including the full
// transaction history and running ledger totals.
type OrderResponse struct {
	ID             string                `json:"id"`
	OrderNumber    string                `json:"order_number"`
	CustomerID     string                `json:"customer_id"`
	Amount         string                `json:"amount"`
	Currency       string                `json:"currency"`
	Status         string                `json:"status"`
	Description    string                `json:"description,omitempty"`
	CapturedAmount string                `json:"captured_amount"`
	RefundedAmount string                `json:"refunded_amount"`
	Refundable     string                `json:"refundable"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
	Transactions   []TransactionResponse `json:"transactions"`
}
