// Package gateway implements the card network adapter over the
// Authorize.Net JSON API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/config"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// transactionType values per the Authorize.Net API.
var transactionTypes = map[domain.OperationType]string{
	domain.OperationPurchase:  "authCaptureTransaction",
	domain.OperationAuthorize: "authOnlyTransaction",
	domain.OperationCapture:   "priorAuthCaptureTransaction",
	domain.OperationVoid:      "voidTransaction",
	domain.OperationRefund:    "refundTransaction",
}

// Client implements ports.GatewayAdapter against the Authorize.Net JSON API.
// The caller bounds every call through its context; the embedded http.Client
// carries no timeout of its own.
type Client struct {
	endpoint       string
	loginID        string
	transactionKey string
	http           *http.Client
	log            zerolog.Logger
}

// NewClient creates a gateway client from the gateway configuration.
func NewClient(cfg config.GatewayConfig, log zerolog.Logger) *Client {
	return &Client{
		endpoint:       cfg.Endpoint,
		loginID:        cfg.APILoginID,
		transactionKey: cfg.TransactionKey,
		http:           &http.Client{},
		log:            log,
	}
}

type merchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type creditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode,omitempty"`
}

type payment struct {
	CreditCard creditCard `json:"creditCard"`
}

type orderInfo struct {
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Description   string `json:"description,omitempty"`
}

type transactionRequest struct {
	TransactionType string     `json:"transactionType"`
	Amount          string     `json:"amount,omitempty"`
	Payment         *payment   `json:"payment,omitempty"`
	RefTransID      string     `json:"refTransId,omitempty"`
	Order           *orderInfo `json:"order,omitempty"`
}

type createTransactionRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	TransactionRequest     transactionRequest     `json:"transactionRequest"`
}

type requestEnvelope struct {
	CreateTransactionRequest createTransactionRequest `json:"createTransactionRequest"`
}

type responseMessage struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type responseError struct {
	ErrorCode string `json:"errorCode"`
	ErrorText string `json:"errorText"`
}

type transactionResponse struct {
	ResponseCode string            `json:"responseCode"`
	TransID      string            `json:"transId"`
	Messages     []responseMessage `json:"messages"`
	Errors       []responseError   `json:"errors"`
}

type responseEnvelope struct {
	TransactionResponse transactionResponse `json:"transactionResponse"`
}

// Submit sends one transaction to the gateway. A returned error means no
// usable response was received; a declined or errored transaction is a
// normal GatewayResult.
func (c *Client) Submit(ctx context.Context, req ports.GatewayRequest) (*ports.GatewayResult, error) {
	txType, ok := transactionTypes[req.Operation]
	if !ok {
		return nil, fmt.Errorf("unsupported operation %q", req.Operation)
	}

	txReq := transactionRequest{
		TransactionType: txType,
		RefTransID:      req.GatewayReference,
	}
	if req.Operation != domain.OperationVoid {
		txReq.Amount = formatAmount(req.Amount)
	}
	if req.Card != nil {
		txReq.Payment = &payment{CreditCard: creditCard{
			CardNumber:     req.Card.Number,
			ExpirationDate: fmt.Sprintf("%04d-%02d", req.Card.ExpYear, req.Card.ExpMonth),
			CardCode:       req.Card.CVV,
		}}
	}
	// Refunds reference the original card by its stored last four digits.
	if req.CardMatch != nil {
		txReq.Payment = &payment{CreditCard: creditCard{
			CardNumber:     req.CardMatch.LastFour,
			ExpirationDate: "XXXX",
		}}
	}
	if req.OrderNumber != "" || req.Description != "" {
		txReq.Order = &orderInfo{InvoiceNumber: req.OrderNumber, Description: req.Description}
	}

	envelope := requestEnvelope{CreateTransactionRequest: createTransactionRequest{
		MerchantAuthentication: merchantAuthentication{
			Name:           c.loginID,
			TransactionKey: c.transactionKey,
		},
		TransactionRequest: txReq,
	}}

	var parsed responseEnvelope
	if err := c.post(ctx, envelope, &parsed); err != nil {
		return nil, err
	}

	return normalizeResponse(parsed.TransactionResponse), nil
}

type getTransactionDetailsRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	TransID                string                 `json:"transId"`
}

type detailsEnvelope struct {
	GetTransactionDetailsRequest getTransactionDetailsRequest `json:"getTransactionDetailsRequest"`
}

type transactionDetails struct {
	TransID           string `json:"transId"`
	TransactionStatus string `json:"transactionStatus"`
	ResponseCode      int    `json:"responseCode"`
}

type detailsResponseEnvelope struct {
	Transaction transactionDetails `json:"transaction"`
}

// QueryByReference fetches the gateway-side state of a prior transaction.
// Used by the reconciliation sweep to resolve ambiguous outcomes.
func (c *Client) QueryByReference(ctx context.Context, gatewayReference string) (*ports.GatewayResult, error) {
	envelope := detailsEnvelope{GetTransactionDetailsRequest: getTransactionDetailsRequest{
		MerchantAuthentication: merchantAuthentication{
			Name:           c.loginID,
			TransactionKey: c.transactionKey,
		},
		TransID: gatewayReference,
	}}

	var parsed detailsResponseEnvelope
	if err := c.post(ctx, envelope, &parsed); err != nil {
		return nil, err
	}

	tx := parsed.Transaction
	return &ports.GatewayResult{
		ReferenceID:     tx.TransID,
		Settled:         tx.TransactionStatus == "settledSuccessfully",
		ResponseCode:    fmt.Sprintf("%d", tx.ResponseCode),
		ResponseMessage: tx.TransactionStatus,
	}, nil
}

func (c *Client) post(ctx context.Context, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned HTTP %d", resp.StatusCode)
	}

	// The endpoint prepends a UTF-8 BOM.
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// normalizeResponse flattens the gateway envelope into the neutral result the
// orchestrator maps. Error details win over informational messages.
func normalizeResponse(tr transactionResponse) *ports.GatewayResult {
	res := &ports.GatewayResult{
		ReferenceID:  tr.TransID,
		ResponseCode: tr.ResponseCode,
	}
	switch {
	case len(tr.Errors) > 0:
		res.ResponseMessage = tr.Errors[0].ErrorText
	case len(tr.Messages) > 0:
		res.ResponseMessage = tr.Messages[0].Description
	}
	return res
}

// formatAmount renders minor units as a decimal dollar string, the only
// representation the wire format accepts.
func formatAmount(minorUnits int64) string {
	return decimal.New(minorUnits, -2).StringFixed(2)
}
