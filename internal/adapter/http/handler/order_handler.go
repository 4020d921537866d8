package handler

import (
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/http/dto"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles order retrieval endpoints.
type OrderHandler struct {
	orchestrator ports.PaymentOrchestrator
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orchestrator ports.PaymentOrchestrator) *OrderHandler {
	return &OrderHandler{orchestrator: orchestrator}
}

// GetOrder handles GET /api/v1/orders/:orderID.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, txns, err := h.orchestrator.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order, txns))
}

func toOrderResponse(order *domain.Order, txns []domain.Transaction) dto.OrderResponse {
	totals := domain.ComputeTotals(txns)

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	return dto.OrderResponse{
		ID:             order.ID.String(),
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		Amount:         dto.FormatAmount(order.Amount),
		Currency:       order.Currency,
		Status:         string(order.Status),
		Description:    order.Description,
		CapturedAmount: dto.FormatAmount(totals.Captured),
		RefundedAmount: dto.FormatAmount(totals.Refunded),
		Refundable:     dto.FormatAmount(totals.Remaining()),
		CreatedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      order.UpdatedAt.UTC().Format(time.RFC3339),
		Transactions:   items,
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:                     t.ID.String(),
		ReferenceID:            t.ReferenceID,
		Operation:              string(t.Operation),
		Amount:                 dto.FormatAmount(t.Amount),
		Status:                 string(t.Status),
		GatewayCode:            t.GatewayCode,
		GatewayMessage:         t.GatewayMessage,
		RequiresReconciliation: t.RequiresReconciliation,
		CreatedAt:              t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.GatewayReference != nil {
		resp.GatewayReference = *t.GatewayReference
	}
	if t.SettledAt != nil {
		s := t.SettledAt.UTC().Format(time.RFC3339)
		resp.SettledAt = &s
	}
	if t.FinalizedAt != nil {
		s := t.FinalizedAt.UTC().Format(time.RFC3339)
		resp.FinalizedAt = &s
	}
	return resp
}
