package handler

import (
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/http/dto"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/http/middleware"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles the payment operation endpoints.
type PaymentHandler struct {
	orchestrator ports.PaymentOrchestrator
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(orchestrator ports.PaymentOrchestrator) *PaymentHandler {
	return &PaymentHandler{orchestrator: orchestrator}
}

// Purchase handles POST /api/v1/payments/purchase.
func (h *PaymentHandler) Purchase(c *gin.Context) {
	req, amount, ok := bindPaymentRequest(c)
	if !ok {
		return
	}

	result, err := h.orchestrator.Purchase(c.Request.Context(), ports.PurchaseRequest{
		CustomerID:       req.CustomerID,
		Amount:           amount,
		Currency:         req.Currency,
		Description:      req.Description,
		Card:             toCardDetails(req.Card),
		IdempotencyToken: req.IdempotencyToken,
		RequestID:        c.GetString(middleware.CtxRequestID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResultResponse(result))
}

// Authorize handles POST /api/v1/payments/authorize.
func (h *PaymentHandler) Authorize(c *gin.Context) {
	req, amount, ok := bindPaymentRequest(c)
	if !ok {
		return
	}

	result, err := h.orchestrator.Authorize(c.Request.Context(), ports.AuthorizeRequest{
		CustomerID:       req.CustomerID,
		Amount:           amount,
		Currency:         req.Currency,
		Description:      req.Description,
		Card:             toCardDetails(req.Card),
		IdempotencyToken: req.IdempotencyToken,
		RequestID:        c.GetString(middleware.CtxRequestID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResultResponse(result))
}

// Capture handles POST /api/v1/orders/:orderID/capture.
func (h *PaymentHandler) Capture(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req dto.CaptureRequest
	if !bindOptionalBody(c, &req) {
		return
	}
	amount, err := dto.ParseOptionalAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.orchestrator.Capture(c.Request.Context(), ports.CaptureRequest{
		OrderID:          orderID,
		Amount:           amount,
		IdempotencyToken: req.IdempotencyToken,
		RequestID:        c.GetString(middleware.CtxRequestID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentResultResponse(result))
}

// Void handles POST /api/v1/orders/:orderID/void.
func (h *PaymentHandler) Void(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req dto.VoidRequest
	if !bindOptionalBody(c, &req) {
		return
	}

	result, err := h.orchestrator.Void(c.Request.Context(), ports.VoidRequest{
		OrderID:          orderID,
		IdempotencyToken: req.IdempotencyToken,
		RequestID:        c.GetString(middleware.CtxRequestID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentResultResponse(result))
}

// Refund handles POST /api/v1/orders/:orderID/refund.
func (h *PaymentHandler) Refund(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req dto.RefundRequest
	if !bindOptionalBody(c, &req) {
		return
	}
	amount, err := dto.ParseOptionalAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.orchestrator.Refund(c.Request.Context(), ports.RefundRequest{
		OrderID:          orderID,
		Amount:           amount,
		Reason:           req.Reason,
		IdempotencyToken: req.IdempotencyToken,
		RequestID:        c.GetString(middleware.CtxRequestID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentResultResponse(result))
}

func bindPaymentRequest(c *gin.Context) (dto.PaymentRequest, int64, bool) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return req, 0, false
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return req, 0, false
	}
	return req, amount, true
}

// bindOptionalBody binds the JSON body when one is present. Capture, void and
// refund accept an empty body since all their fields are optional.
func bindOptionalBody(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	return true
}

func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return uuid.Nil, false
	}
	return orderID, true
}

func toCardDetails(card dto.CardRequest) domain.CardDetails {
	return domain.CardDetails{
		Number:         card.Number,
		ExpMonth:       card.ExpMonth,
		ExpYear:        card.ExpYear,
		CVV:            card.CVV,
		CardholderName: card.CardholderName,
	}
}

func toPaymentResultResponse(r *ports.PaymentResult) dto.PaymentResultResponse {
	return dto.PaymentResultResponse{
		Success:          r.Success,
		TransactionID:    r.TransactionID.String(),
		TransactionRef:   r.TransactionRef,
		GatewayReference: r.GatewayReference,
		OrderID:          r.OrderID.String(),
		OrderNumber:      r.OrderNumber,
		OrderStatus:      string(r.OrderStatus),
		Message:          r.Message,
	}
}
