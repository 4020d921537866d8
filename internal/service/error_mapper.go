package service

import (
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"
)

// gatewayOutcome pairs the terminal transaction status with the domain error
// kind a gateway response code maps to.
type gatewayOutcome struct {
	status domain.TransactionStatus
	kind   apperror.Kind
}

// defaultResponseTable is the mapping table for gateway response codes. The
// table is data, not control flow: new codes are added here without touching
// the orchestrator.
var defaultResponseTable = map[string]gatewayOutcome{
	"1": {domain.TransactionStatusSuccess, ""},
	"2": {domain.TransactionStatusDeclined, apperror.KindDeclined},
	"3": {domain.TransactionStatusError, apperror.KindGatewayError},
	"4": {domain.TransactionStatusHeld, apperror.KindHeldForReview},
}

// ErrorMapper translates gateway response codes into the closed taxonomy of
// domain errors. It is a pure lookup: same input, same output.
type ErrorMapper struct {
	table map[string]gatewayOutcome
}

// NewErrorMapper creates a mapper seeded with the default response table.
func NewErrorMapper() *ErrorMapper {
	table := make(map[string]gatewayOutcome, len(defaultResponseTable))
	for code, outcome := range defaultResponseTable {
		table[code] = outcome
	}
	return &ErrorMapper{table: table}
}

// Register adds or overrides the mapping for a gateway response code.
func (m *ErrorMapper) Register(code string, status domain.TransactionStatus, kind apperror.Kind) {
	m.table[code] = gatewayOutcome{status: status, kind: kind}
}

// Map resolves a gateway result to a terminal transaction status and, for
// non-approved outcomes, the domain error to surface. Unmapped codes default
// to ERROR/Unknown with the raw gateway message preserved for diagnostics.
func (m *ErrorMapper) Map(res *ports.GatewayResult) (domain.TransactionStatus, *apperror.AppError) {
	outcome, ok := m.table[res.ResponseCode]
	if !ok {
		return domain.TransactionStatusError,
			apperror.ErrUnknownGatewayResponse(res.ResponseCode, res.ResponseMessage)
	}

	switch outcome.kind {
	case "":
		return outcome.status, nil
	case apperror.KindDeclined:
		return outcome.status, apperror.ErrDeclined(res.ResponseCode, res.ResponseMessage)
	case apperror.KindHeldForReview:
		return outcome.status, apperror.ErrHeldForReview(res.ResponseCode, res.ResponseMessage)
	case apperror.KindGatewayError:
		return outcome.status, apperror.ErrGatewayError(res.ResponseCode, res.ResponseMessage)
	default:
		return outcome.status, apperror.ErrUnknownGatewayResponse(res.ResponseCode, res.ResponseMessage)
	}
}
