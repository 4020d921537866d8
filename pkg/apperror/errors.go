package apperror

import (
	"fmt"
	"net/http"
)

// Kind is the closed taxonomy of domain error kinds. Every error surfaced by
// the orchestration core carries exactly one Kind.
type Kind string

const (
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindNotSettled             Kind = "NOT_SETTLED"
	KindDeclined               Kind = "DECLINED"
	KindHeldForReview          Kind = "HELD_FOR_REVIEW"
	KindGatewayError           Kind = "GATEWAY_ERROR"
	KindTransportFailure       Kind = "TRANSPORT_FAILURE"
	KindConfigurationError     Kind = "CONFIGURATION_ERROR"
	KindConcurrencyConflict    Kind = "CONCURRENCY_CONFLICT"
	KindNotFound               Kind = "NOT_FOUND"
	KindValidation             Kind = "VALIDATION"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindInternal               Kind = "INTERNAL"
	KindUnknown                Kind = "UNKNOWN"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"kind"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Kind == kind
}

// ---- State machine & policy (PAY) ----

func ErrInvalidStateTransition(currentState string, operation string) *AppError {
	return New(KindInvalidStateTransition, "PAY_001",
		fmt.Sprintf("operation %s is not permitted while order is %s", operation, currentState),
		http.StatusConflict)
}

func ErrNotSettled() *AppError {
	return New(KindNotSettled, "PAY_002",
		"transaction has not settled yet; only void is permitted before settlement",
		http.StatusUnprocessableEntity)
}

func ErrConcurrencyConflict() *AppError {
	return New(KindConcurrencyConflict, "PAY_003",
		"order was modified concurrently; re-read its state before retrying",
		http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New(KindNotFound, "PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidAmount() *AppError {
	return New(KindValidation, "PAY_005", "Invalid amount", http.StatusBadRequest)
}

func ErrRefundExceedsCaptured() *AppError {
	return New(KindValidation, "PAY_006",
		"refund amount exceeds remaining refundable balance", http.StatusBadRequest)
}

func ErrCaptureExceedsAuthorized() *AppError {
	return New(KindValidation, "PAY_007",
		"capture amount exceeds authorized amount", http.StatusBadRequest)
}

func ErrIdempotencyInFlight() *AppError {
	return New(KindConcurrencyConflict, "PAY_008",
		"a request with this idempotency key is still in flight", http.StatusConflict)
}

// ---- Gateway outcomes (GW) ----

func ErrDeclined(gatewayCode string, message string) *AppError {
	return New(KindDeclined, "GW_001", message, http.StatusPaymentRequired).withGatewayCode(gatewayCode)
}

func ErrHeldForReview(gatewayCode string, message string) *AppError {
	return New(KindHeldForReview, "GW_002", message, http.StatusUnprocessableEntity).withGatewayCode(gatewayCode)
}

func ErrGatewayError(gatewayCode string, message string) *AppError {
	return New(KindGatewayError, "GW_003", message, http.StatusBadGateway).withGatewayCode(gatewayCode)
}

func ErrTransportFailure(err error) *AppError {
	return Wrap(KindTransportFailure, "GW_004",
		"no response received from payment gateway", http.StatusGatewayTimeout, err)
}

func ErrUnknownGatewayResponse(gatewayCode string, rawMessage string) *AppError {
	return New(KindUnknown, "GW_005", rawMessage, http.StatusBadGateway).withGatewayCode(gatewayCode)
}

func (e *AppError) withGatewayCode(code string) *AppError {
	if code != "" {
		e.Message = fmt.Sprintf("%s (gateway code %s)", e.Message, code)
	}
	return e
}

// ---- Configuration & authentication (CFG / AUTH) ----

func ErrConfiguration(detail string) *AppError {
	return New(KindConfigurationError, "CFG_001", detail, http.StatusInternalServerError)
}

func ErrMissingPaymentMethod() *AppError {
	return New(KindConfigurationError, "CFG_002",
		"no payment method reference recorded for this order", http.StatusInternalServerError)
}

func ErrInvalidCredentials() *AppError {
	return New(KindUnauthorized, "AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New(KindUnauthorized, "AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(KindInternal, "SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New(KindValidation, "PAY_005", message, http.StatusBadRequest)
}
