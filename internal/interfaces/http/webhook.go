package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/domain/entity"
)

const (
	headerSignature    = "X-Signature"
	headerRequestID    = "X-Request-Id"
	maxWebhookBody     = 1 << 20
	eventTypeSucceeded = "payment.succeeded"
	eventTypeFailed    = "payment.failed"
)

// PaymentEventRequest is the body of POST /webhooks/payments
type PaymentEventRequest struct {
	Type        string            `json:"type"`
	ReferenceID string            `json:"reference_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Currency    string            `json:"currency"`
	Reason      string            `json:"reason,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// mercadoPagoNotification is the subset of a Mercado Pago webhook body we read
type mercadoPagoNotification struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// WebhookHandler receives payment gateway callbacks
type WebhookHandler struct {
	payments service.PaymentService
	gateway  port.PaymentGateway
	secret   string
	logger   Logger
}

// NewWebhookHandler creates a webhook handler; an empty secret disables signature checks
func NewWebhookHandler(payments service.PaymentService, gateway port.PaymentGateway, secret string, logger Logger) *WebhookHandler {
	return &WebhookHandler{
		payments: payments,
		gateway:  gateway,
		secret:   secret,
		logger:   logger,
	}
}

// PaymentEvent handles POST /webhooks/payments.
// The X-Signature header carries the hex HMAC-SHA256 of the raw body. Without a
// shared secret there is no way to authenticate the body, so the route is refused.
func (w *WebhookHandler) PaymentEvent(c *gin.Context) {
	if w.secret == "" {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: "webhook secret is not configured"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	if !validBodySignature(w.secret, body, c.GetHeader(headerSignature)) {
		w.logger.Info("Rejected payment event with bad signature", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid signature"})
		return
	}

	var req PaymentEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	switch req.Type {
	case eventTypeSucceeded:
		w.reconcile(c, service.PaymentSucceeded{
			ReferenceID: req.ReferenceID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Metadata:    req.Metadata,
		})
	case eventTypeFailed:
		w.fail(c, service.PaymentFailedNotice{ReferenceID: req.ReferenceID, Reason: req.Reason})
	default:
		badRequest(c, fmt.Sprintf("unsupported event type %q", req.Type))
	}
}

// MercadoPago handles POST /webhooks/mercadopago. The notification only names
// the payment; its amount and status are read back from the gateway.
func (w *WebhookHandler) MercadoPago(c *gin.Context) {
	if w.gateway == nil {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: "payment gateway is not configured"})
		return
	}

	var note mercadoPagoNotification
	if err := c.ShouldBindJSON(&note); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	dataID := c.Query("data.id")
	if dataID == "" {
		dataID = note.Data.ID
	}
	if note.Type != "" && note.Type != "payment" {
		c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"outcome": "ignored"}})
		return
	}
	if dataID == "" {
		badRequest(c, "missing payment id")
		return
	}

	if w.secret != "" && !validMercadoPagoSignature(w.secret, c.GetHeader(headerSignature), c.GetHeader(headerRequestID), dataID) {
		w.logger.Info("Rejected Mercado Pago notification with bad signature", "data_id", dataID)
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid signature"})
		return
	}

	session, err := w.gateway.SessionStatus(c.Request.Context(), dataID)
	if err != nil {
		writeError(c, w.logger, "gateway lookup", err)
		return
	}

	switch session.Status {
	case entity.PaymentPaid:
		w.reconcile(c, service.PaymentSucceeded{
			ReferenceID: session.ReferenceID,
			Amount:      session.Amount,
			Currency:    session.Currency,
			Metadata:    map[string]string{"gateway": "mercadopago", "action": note.Action},
		})
	case entity.PaymentFailed:
		w.fail(c, service.PaymentFailedNotice{ReferenceID: session.ReferenceID, Reason: "gateway reported failure"})
	default:
		c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"outcome": "pending"}})
	}
}

func (w *WebhookHandler) reconcile(c *gin.Context, evt service.PaymentSucceeded) {
	result, err := w.payments.Reconcile(c.Request.Context(), evt)
	if err != nil {
		writeError(c, w.logger, "reconcile payment", err)
		return
	}
	w.logger.Info("Payment reconciled", "reference_id", evt.ReferenceID, "outcome", result.Outcome)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"outcome": result.Outcome, "payment": result.Payment}})
}

func (w *WebhookHandler) fail(c *gin.Context, notice service.PaymentFailedNotice) {
	result, err := w.payments.HandlePaymentFailed(c.Request.Context(), notice)
	if err != nil {
		writeError(c, w.logger, "record payment failure", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"outcome": result.Outcome, "payment": result.Payment}})
}

func validBodySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// validMercadoPagoSignature checks an x-signature header of the form
// "ts=<unix>,v1=<hex>" against the manifest "id:<id>;request-id:<rid>;ts:<ts>;".
func validMercadoPagoSignature(secret, header, requestID, dataID string) bool {
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	manifest := "id:" + strings.ToLower(dataID) + ";"
	if requestID != "" {
		manifest += "request-id:" + requestID + ";"
	}
	manifest += "ts:" + ts + ";"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(v1))
}
